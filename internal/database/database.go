package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// DB wraps sqlx.DB with the driver it was opened with
type DB struct {
	*sqlx.DB
	Driver string
}

// NewSQLite opens a SQLite database file, creating its directory
func NewSQLite(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL mode with a busy timeout so the cache cleanup can run next to the poll loops
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	return &DB{DB: db, Driver: DriverSQLite}, nil
}

// NewMySQL opens a MySQL database
func NewMySQL(dsn string) (*DB, error) {
	db, err := sqlx.Connect(DriverMySQL, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return &DB{DB: db, Driver: DriverMySQL}, nil
}

// Migrate runs the schema statements in order
func (db *DB) Migrate(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}
