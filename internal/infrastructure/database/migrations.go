package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Schema holds the journal's migration files. The migrations package sets
// it from an init function so the SQL ships inside the binary.
var Schema fs.FS

// migrationSuffix marks a file as a schema step. Steps are forward-only.
const migrationSuffix = ".sql"

// Migration is one schema step, named YYYYMMDD_HHMMSS_name.sql.
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// LoadMigrations reads every step at the root of fsys, oldest first.
// Files that do not follow the naming scheme are ignored. A nil fsys
// yields no steps.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	if fsys == nil {
		return nil, nil
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	seen := make(map[string]string, len(entries))
	var steps []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, ok := splitMigrationName(entry.Name())
		if !ok {
			continue
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %s used by %s and %s", version, other, entry.Name())
		}
		seen[version] = entry.Name()

		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		steps = append(steps, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })
	return steps, nil
}

// splitMigrationName turns "20261001_090000_command_journal.sql" into
// version "20261001_090000" and name "command_journal".
func splitMigrationName(file string) (version, name string, ok bool) {
	base, found := strings.CutSuffix(file, migrationSuffix)
	if !found {
		return "", "", false
	}
	date, rest, found := strings.Cut(base, "_")
	if !found || len(date) != 8 {
		return "", "", false
	}
	clock, name, found := strings.Cut(rest, "_")
	if !found || len(clock) != 6 || name == "" {
		return "", "", false
	}
	return date + "_" + clock, name, true
}

// Migrate applies every step in Schema newer than what the database has
// recorded and returns the versions it applied.
//
// Each step commits on its own. When one fails, earlier steps stay applied
// and the next call resumes from the failed step.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	steps, err := LoadMigrations(Schema)
	if err != nil {
		return nil, err
	}

	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, step := range steps {
		if step.Version <= current {
			continue
		}
		if err := db.applyMigration(ctx, step); err != nil {
			return applied, fmt.Errorf("applying migration %s (%s): %w", step.Version, step.Name, err)
		}
		applied = append(applied, step.Version)
	}
	return applied, nil
}

// SchemaVersion returns the newest applied migration, or "" for a
// database that has never been migrated.
func (db *DB) SchemaVersion(ctx context.Context) (string, error) {
	var exists int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'",
	).Scan(&exists); err != nil {
		return "", fmt.Errorf("reading schema version: %w", err)
	}
	if exists == 0 {
		return "", nil
	}

	var version string
	if err := db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), '') FROM schema_migrations",
	).Scan(&version); err != nil {
		return "", fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func (db *DB) applyMigration(ctx context.Context, step Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		step.Version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}
