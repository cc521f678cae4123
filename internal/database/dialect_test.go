package database

import (
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want sqlite3", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("DSN defaults to memory", func(t *testing.T) {
		if got := dialect.DSN(DialectConfig{}); got != ":memory:" {
			t.Errorf("DSN() = %v, want :memory:", got)
		}
	})

	t.Run("ClearTableQuery", func(t *testing.T) {
		if got := dialect.ClearTableQuery("topics"); got != "DELETE FROM topics" {
			t.Errorf("ClearTableQuery() = %v", got)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "postgres" {
			t.Errorf("MigrationsSubdir() = %v, want postgres", got)
		}
	})

	t.Run("ClearTableQuery resets identity", func(t *testing.T) {
		want := "TRUNCATE TABLE sentences RESTART IDENTITY CASCADE"
		if got := dialect.ClearTableQuery("sentences"); got != want {
			t.Errorf("ClearTableQuery() = %v, want %v", got, want)
		}
	})
}

func TestDialectMySQLDSN(t *testing.T) {
	dialect := NewMySQLDialect()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "adds both params",
			url:  "bot:pw@tcp(db:3306)/phrasebot",
			want: "bot:pw@tcp(db:3306)/phrasebot?parseTime=true&charset=utf8mb4",
		},
		{
			name: "keeps existing params",
			url:  "bot:pw@tcp(db:3306)/phrasebot?parseTime=true",
			want: "bot:pw@tcp(db:3306)/phrasebot?parseTime=true&charset=utf8mb4",
		},
		{
			name: "nothing to add",
			url:  "bot:pw@tcp(db:3306)/phrasebot?charset=utf8mb4&parseTime=false",
			want: "bot:pw@tcp(db:3306)/phrasebot?charset=utf8mb4&parseTime=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dialect.DSN(DialectConfig{URL: tt.url}); got != tt.want {
				t.Errorf("DSN() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM topics WHERE id = ?",
			expected: "SELECT * FROM topics WHERE id = ?",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO topics (title, position) VALUES (?, ?)",
			expected: "INSERT INTO topics (title, position) VALUES ($1, $2)",
		},
		{
			name:     "PostgreSQL ignores quoted question marks",
			dialect:  NewPostgresDialect(),
			query:    "SELECT id FROM sentences WHERE target_text = 'why?' AND topic_id = ?",
			expected: "SELECT id FROM sentences WHERE target_text = 'why?' AND topic_id = $1",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE topics SET title = ? WHERE id = ?",
			expected: "UPDATE topics SET title = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.RewriteQuery(tt.query); got != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		typ     string
		want    string
		wantErr bool
	}{
		{typ: "", want: "sqlite"},
		{typ: "SQLite3", want: "sqlite"},
		{typ: "postgresql", want: "postgres"},
		{typ: "mysql", want: "mysql"},
		{typ: "mongo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			dialect, _, err := DialectFor(Options{Type: tt.typ})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unsupported type")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dialect.Name() != tt.want {
				t.Errorf("Name() = %v, want %v", dialect.Name(), tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (id INTEGER);

-- second
CREATE INDEX idx_a ON a(id);
`
	stmts := splitStatements(content)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (id INTEGER)" {
		t.Errorf("first statement = %q", stmts[0])
	}
	if stmts[1] != "CREATE INDEX idx_a ON a(id)" {
		t.Errorf("second statement = %q", stmts[1])
	}
}
