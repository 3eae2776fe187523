package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// MigrationStatus represents the status of migrations.
type MigrationStatus struct {
	UpToDate bool
	Applied  []string
	Pending  []string
	Total    int
}

// Migrator applies the embedded schema migrations for one driver. Applied versions are
// recorded in schema_migrations.
type Migrator struct {
	db     *sql.DB
	driver string
	files  fs.FS
}

// NewMigrator creates a migrator for driver ("sqlite" or "postgres").
func NewMigrator(db *sql.DB, driver string) *Migrator {
	return &Migrator{db: db, driver: NormalizeDriver(driver), files: migrationFiles}
}

// Status reports applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	if _, err := m.dir(); err != nil {
		return nil, err
	}

	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	migrations, err := m.listMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("list migration files: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}

	status := &MigrationStatus{Total: len(migrations), Applied: []string{}, Pending: []string{}}
	for _, name := range migrations {
		if applied[version(name)] {
			status.Applied = append(status.Applied, name)
		} else {
			status.Pending = append(status.Pending, name)
		}
	}
	status.UpToDate = len(status.Pending) == 0

	return status, nil
}

// Up applies every pending migration in order and returns the names applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}

	applied := []string{}
	for _, name := range status.Pending {
		if err := m.runMigration(ctx, name); err != nil {
			return applied, fmt.Errorf("run migration %s: %w", name, err)
		}
		applied = append(applied, name)
	}

	return applied, nil
}

func (m *Migrator) dir() (string, error) {
	switch m.driver {
	case DriverSQLite:
		return "migrations/sqlite", nil
	case DriverPostgres:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidDriver, m.driver)
	}
}

func (m *Migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	var query string
	switch m.driver {
	case DriverSQLite:
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				version TEXT UNIQUE NOT NULL,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`
	default:
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id SERIAL PRIMARY KEY,
				version TEXT UNIQUE NOT NULL,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`
	}
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) listMigrationFiles() ([]string, error) {
	dir, err := m.dir()
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(m.files, dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		migrations = append(migrations, entry.Name())
	}
	sort.Strings(migrations)

	return migrations, nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) runMigration(ctx context.Context, name string) error {
	dir, err := m.dir()
	if err != nil {
		return err
	}

	content, err := fs.ReadFile(m.files, path.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, version(name),
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}

// version strips the extension: "0001_init.sql" -> "0001_init".
func version(name string) string {
	return strings.TrimSuffix(name, ".sql")
}
