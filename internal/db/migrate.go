// Package db provides database schema migration management.
package db

import (
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration represents an applied database schema migration.
type Migration struct {
	Version     int
	AppliedAt   time.Time
	Description string
	Checksum    string
}

// Migrator applies schema migrations from an fs.FS holding files named
// NNN_description.sql, ordered by their numeric prefix.
type Migrator struct {
	db   *sql.DB
	fsys fs.FS
}

// NewMigrator creates a Migrator over the embedded migration files.
func NewMigrator(db *sql.DB) *Migrator {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	return &Migrator{db: db, fsys: sub}
}

// NewMigratorFS creates a Migrator over an arbitrary migration filesystem.
func NewMigratorFS(db *sql.DB, fsys fs.FS) *Migrator {
	return &Migrator{db: db, fsys: fsys}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// AppliedMigrations returns all applied migrations in version order.
func (m *Migrator) AppliedMigrations() ([]Migration, error) {
	rows, err := m.db.Query("SELECT version, applied_at, description, checksum FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var mig Migration
		var appliedAt int64
		if err := rows.Scan(&mig.Version, &appliedAt, &mig.Description, &mig.Checksum); err != nil {
			return nil, err
		}
		mig.AppliedAt = time.Unix(appliedAt, 0)
		migrations = append(migrations, mig)
	}
	return migrations, rows.Err()
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	applied, err := m.AppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	appliedVersions := make(map[int]bool)
	for _, mig := range applied {
		appliedVersions[mig.Version] = true
	}

	entries, err := fs.ReadDir(m.fsys, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	type pending struct {
		version int
		name    string
	}
	var migrations []pending
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		// Parse version from filename (001_init.sql)
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		parts := strings.SplitN(strings.TrimSuffix(name, ".sql"), "_", 2)
		if len(parts) < 2 {
			continue
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		migrations = append(migrations, pending{version, name})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	for _, mig := range migrations {
		if appliedVersions[mig.version] {
			continue
		}
		if err := m.applyMigration(mig.version, mig.name); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mig.version, err)
		}
	}

	return nil
}

// applyMigration applies a single migration inside a transaction.
func (m *Migrator) applyMigration(version int, filename string) error {
	content, err := fs.ReadFile(m.fsys, filename)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	description := strings.TrimSuffix(filename, ".sql")
	description = strings.TrimPrefix(description, fmt.Sprintf("%03d_", version))
	hash := sha256.Sum256(content)
	checksum := hex.EncodeToString(hash[:])

	query := `INSERT INTO schema_migrations (version, applied_at, description, checksum)
			  VALUES (?, ?, ?, ?)`
	if _, err := tx.Exec(query, version, time.Now().Unix(), description, checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
