package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"phrasebot/internal/config"
	"phrasebot/internal/database"
	"phrasebot/internal/logging"
	"phrasebot/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Do not ask for confirmation when clearing")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, true)
	ctx := context.Background()

	db, err := database.Open(ctx, database.Options{
		Type: cfg.DatabaseType,
		Path: cfg.DatabasePath,
		URL:  cfg.DatabaseURL,
	})
	if err != nil {
		fatal(logger, "failed to initialize database", err)
	}
	defer db.Close()

	// Make sure the schema is up to date
	if err := db.RunMigrations(ctx, cfg.MigrationsPath, logger); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	backupService := service.NewBackupService(db, logger)

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		handleExport(ctx, logger, backupService, *exportOutput)

	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, logger, backupService, *importInput, *importClear, *importYes)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, logger *slog.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(logger, "failed to create output directory", err)
		}
	}

	logger.Info("exporting database", slog.String("path", outputPath))
	if err := backupService.ExportFile(ctx, outputPath); err != nil {
		fatal(logger, "export failed", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		logger.Info("export complete", slog.Int64("bytes", info.Size()))
	}
}

func handleImport(ctx context.Context, logger *slog.Logger, backupService *service.BackupService, inputPath string, clearData, yes bool) {
	if _, err := os.Stat(inputPath); err != nil {
		fatal(logger, "input file is not readable", err)
	}

	if clearData && !yes {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			logger.Info("import cancelled")
			return
		}
	}

	logger.Info("importing database", slog.String("path", inputPath), slog.Bool("clear", clearData))
	result, err := backupService.ImportFile(ctx, inputPath, clearData)
	if err != nil {
		fatal(logger, "import failed", err)
	}

	logger.Info("import complete",
		slog.Int("topics", result.Topics),
		slog.Int("sentences", result.Sentences),
		slog.Int("attempts", result.Attempts))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Phrasebot Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export curriculum and attempts to a JSON file")
	fmt.Println("  backup import [options]    Import curriculum and attempts from a JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println("  -yes              Skip the confirmation prompt for -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./phrasebot.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
