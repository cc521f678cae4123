// Command adminpass prints a bcrypt hash for ADMIN_PASS_HASH.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"phrasebot/internal/security"
	"phrasebot/internal/validation"
)

func main() {
	password := flag.String("password", "", "Password to hash (read from stdin when empty)")
	flag.Parse()

	if *password == "" {
		fmt.Fprint(os.Stderr, "Admin password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "failed to read password: %v\n", err)
			os.Exit(1)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	if err := validation.ValidatePassword(*password); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	hash, err := security.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
