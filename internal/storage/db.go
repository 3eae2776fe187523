// Package storage persists conversation history in SQLite or PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Common errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidDriver = errors.New("invalid database driver")
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Options configures Open.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// JournalMode is applied to file-backed SQLite databases.
	JournalMode string
}

// Open opens and pings a database. SQLite is limited to a single connection so that
// in-memory databases are shared by every query.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.DSN == "" {
		return nil, errors.New("database dsn is required")
	}

	var driver string
	switch opts.Driver {
	case DriverSQLite, "sqlite3":
		driver = "sqlite3"
	case DriverPostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidDriver, opts.Driver)
	}

	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if driver == "sqlite3" && opts.JournalMode != "" && !isMemoryDSN(opts.DSN) {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode="+opts.JournalMode); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set journal mode: %w", err)
		}
	}

	return db, nil
}

// NormalizeDriver maps driver aliases to DriverSQLite or DriverPostgres.
func NormalizeDriver(driver string) string {
	switch driver {
	case "sqlite3", "":
		return DriverSQLite
	case "postgresql":
		return DriverPostgres
	}
	return driver
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
