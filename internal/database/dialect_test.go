package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDialects(t *testing.T) {
	tests := []struct {
		name       string
		dialect    Dialect
		driver     string
		subdir     string
		trueValue  string
		falseValue string
	}{
		{"sqlite", NewSQLiteDialect(), "sqlite3", "sqlite", "1", "0"},
		{"postgres", NewPostgresDialect(), "postgres", "postgres", "TRUE", "FALSE"},
		{"mysql", NewMySQLDialect(), "mysql", "mysql", "TRUE", "FALSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.subdir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.subdir)
			}
			if got := tt.dialect.BoolValue(true); got != tt.trueValue {
				t.Errorf("BoolValue(true) = %v, want %v", got, tt.trueValue)
			}
			if got := tt.dialect.BoolValue(false); got != tt.falseValue {
				t.Errorf("BoolValue(false) = %v, want %v", got, tt.falseValue)
			}
			if !strings.Contains(tt.dialect.CreateMigrationsTableQuery(), "migrations") {
				t.Error("CreateMigrationsTableQuery() should create the migrations table")
			}
		})
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		config   DialectConfig
		expected string
	}{
		{
			name:     "SQLite plain path",
			dialect:  NewSQLiteDialect(),
			config:   DialectConfig{Path: "./ella.db"},
			expected: "./ella.db?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on",
		},
		{
			name:     "SQLite path with params",
			dialect:  NewSQLiteDialect(),
			config:   DialectConfig{Path: "file:test.db?cache=shared"},
			expected: "file:test.db?cache=shared&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on",
		},
		{
			name:     "PostgreSQL URL untouched",
			dialect:  NewPostgresDialect(),
			config:   DialectConfig{URL: "postgres://u:p@db/ella?sslmode=disable"},
			expected: "postgres://u:p@db/ella?sslmode=disable",
		},
		{
			name:     "MySQL adds parseTime",
			dialect:  NewMySQLDialect(),
			config:   DialectConfig{URL: "u:p@tcp(db:3306)/ella"},
			expected: "u:p@tcp(db:3306)/ella?parseTime=true",
		},
		{
			name:     "MySQL keeps explicit parseTime",
			dialect:  NewMySQLDialect(),
			config:   DialectConfig{URL: "u:p@tcp(db:3306)/ella?parseTime=false"},
			expected: "u:p@tcp(db:3306)/ella?parseTime=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DSN(tt.config); got != tt.expected {
				t.Errorf("DSN() = %v, want %v", got, tt.expected)
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
			query:    "SELECT * FROM users WHERE uid = ?",
			expected: "SELECT * FROM users WHERE uid = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM users WHERE uid = ?",
			expected: "SELECT * FROM users WHERE uid = $1",
		},
		{
			name:     "PostgreSQL conditional update",
			dialect:  NewPostgresDialect(),
			query:    "UPDATE reading_sessions SET active = ?, version = version + 1 WHERE id = ? AND version = ?",
			expected: "UPDATE reading_sessions SET active = $1, version = version + 1 WHERE id = $2 AND version = $3",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET name = ?, class_code = ? WHERE uid = ?",
			expected: "UPDATE users SET name = ?, class_code = ? WHERE uid = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `
-- first table
CREATE TABLE a (id TEXT);

CREATE INDEX idx_a ON a(id);
-- trailing comment
`
	stmts := splitStatements(content)
	if len(stmts) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (id TEXT)" {
		t.Errorf("first statement = %q", stmts[0])
	}
}

func TestIsUniqueViolation(t *testing.T) {
	sqliteUnique := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	sqlitePK := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}
	sqliteFK := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}

	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{"sqlite unique", NewSQLiteDialect(), sqliteUnique, true},
		{"sqlite primary key wrapped", NewSQLiteDialect(), fmt.Errorf("insert: %w", sqlitePK), true},
		{"sqlite foreign key", NewSQLiteDialect(), sqliteFK, false},
		{"postgres unique", NewPostgresDialect(), &pq.Error{Code: "23505"}, true},
		{"postgres not null", NewPostgresDialect(), &pq.Error{Code: "23502"}, false},
		{"mysql duplicate", NewMySQLDialect(), &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", NewMySQLDialect(), &mysql.MySQLError{Number: 1452}, false},
		{"plain error", NewSQLiteDialect(), errors.New("boom"), false},
		{"nil", NewPostgresDialect(), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
