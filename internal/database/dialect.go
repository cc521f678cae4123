package database

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect captures the differences between the supported SQL backends
type Dialect interface {
	// Name is the canonical backend name reported in logs and backups
	Name() string

	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders when the driver needs another syntax
	RewriteQuery(query string) string

	SupportsLastInsertId() bool

	// ConfigureConnection applies pool limits and session settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the per-dialect folder under the migrations root
	MigrationsSubdir() string

	CreateMigrationsTableQuery() string

	// ClearTableQuery empties a table and resets its identity where supported
	ClearTableQuery(table string) string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
// Question marks inside single-quoted literals are left alone.
func rewritePlaceholdersToNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	counter := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			counter++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(counter))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
