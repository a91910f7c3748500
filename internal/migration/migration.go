// File: internal/migration/migration.go
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

// Migration is one numbered SQL file.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies numbered SQL files in order and tracks them in
// migration_history.
type Migrator struct {
	DB *sql.DB
	FS fs.FS
}

// NewMigrator creates a new migrator
func NewMigrator(db *sql.DB, fsys fs.FS) *Migrator {
	return &Migrator{DB: db, FS: fsys}
}

// InitializeSchema creates the history table if missing.
func (m *Migrator) InitializeSchema(ctx context.Context) error {
	_, err := m.DB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS migration_history (
		id SERIAL PRIMARY KEY,
		version INT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		success BOOLEAN NOT NULL,
		errors TEXT
	);`)
	return err
}

// GetCurrentVersion returns the highest successfully applied version.
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.DB.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM migration_history WHERE success
	`).Scan(&version)
	return version, err
}

// Load reads every migration in the filesystem, ordered by version.
func Load(fsys fs.FS) ([]Migration, error) {
	files, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	seen := make(map[int]string)
	out := make([]Migration, 0, len(files))
	for _, file := range files {
		base := path.Base(file)
		version, err := parseVersion(base)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, base, version)
		}
		seen[version] = base

		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		out = append(out, Migration{Version: version, Name: base, SQL: string(body)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// parseVersion extracts N from names like "0003_notifications.sql".
func parseVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %q: expected <version>_<name>.sql", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("migration %q: invalid version %q", name, prefix)
	}
	return v, nil
}

// Pending returns the migrations newer than the current version.
func Pending(all []Migration, current int) []Migration {
	var out []Migration
	for _, mig := range all {
		if mig.Version > current {
			out = append(out, mig)
		}
	}
	return out
}

// Apply runs every pending migration, each in its own transaction, and
// returns the ones applied. It stops at the first failure.
func (m *Migrator) Apply(ctx context.Context) ([]Migration, error) {
	if err := m.InitializeSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize migration history: %w", err)
	}

	all, err := Load(m.FS)
	if err != nil {
		return nil, err
	}

	current, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}

	var applied []Migration
	for _, mig := range Pending(all, current) {
		if err := m.applyOne(ctx, mig); err != nil {
			m.recordMigrationHistory(ctx, mig, false, err.Error())
			return applied, fmt.Errorf("failed to apply %s: %w", mig.Name, err)
		}
		m.recordMigrationHistory(ctx, mig, true, "")
		slog.InfoContext(ctx, "Applied migration", "version", mig.Version, "name", mig.Name)
		applied = append(applied, mig)
	}

	return applied, nil
}

func (m *Migrator) applyOne(ctx context.Context, mig Migration) error {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (m *Migrator) recordMigrationHistory(ctx context.Context, mig Migration, success bool, errorMsg string) {
	_, err := m.DB.ExecContext(ctx, `
		INSERT INTO migration_history (version, name, success, errors)
		VALUES ($1, $2, $3, $4)
	`, mig.Version, mig.Name, success, errorMsg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record migration history", "version", mig.Version, "error", err)
	}
}
