package store

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// schemaStep is one embedded migrations/NNNNNN_name.sql file.
type schemaStep struct {
	version int
	name    string
	body    string
}

func (s schemaStep) String() string {
	return fmt.Sprintf("%06d_%s", s.version, s.name)
}

// runMigrations applies every embedded step not yet recorded in
// schema_migrations and returns how many it applied. Each step and its
// bookkeeping row commit together.
func runMigrations(ctx context.Context, db *sql.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	steps, err := loadSchemaSteps()
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}
	done, err := recordedVersions(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}

	applied := 0
	for _, step := range steps {
		if _, ok := done[step.version]; ok {
			continue
		}
		if err := applyStep(ctx, db, step); err != nil {
			return applied, fmt.Errorf("migration %s: %w", step, err)
		}
		applied++
	}
	return applied, nil
}

// schemaVersion is the highest embedded step version.
func schemaVersion() int {
	steps, err := loadSchemaSteps()
	if err != nil || len(steps) == 0 {
		return 0
	}
	return steps[len(steps)-1].version
}

func loadSchemaSteps() ([]schemaStep, error) {
	files, err := fs.Glob(schemaFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	steps := make([]schemaStep, 0, len(files))
	for _, file := range files {
		version, name, err := parseStepName(path.Base(file))
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(schemaFS, file)
		if err != nil {
			return nil, err
		}
		steps = append(steps, schemaStep{version: version, name: name, body: string(body)})
	}
	slices.SortFunc(steps, func(a, b schemaStep) int { return cmp.Compare(a.version, b.version) })
	return steps, nil
}

// parseStepName splits "000002_journal.sql" into (2, "journal").
func parseStepName(filename string) (int, string, error) {
	prefix, name, ok := strings.Cut(strings.TrimSuffix(filename, ".sql"), "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("migration %q: want NNNNNN_name.sql", filename)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", fmt.Errorf("migration %q: bad version: %w", filename, err)
	}
	return version, name, nil
}

func recordedVersions(ctx context.Context, db *sql.DB) (map[int]struct{}, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	done := make(map[int]struct{})
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		done[version] = struct{}{}
	}
	return done, rows.Err()
}

func applyStep(ctx context.Context, db *sql.DB, step schemaStep) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, step.body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		step.version, step.name,
	); err != nil {
		return err
	}
	return tx.Commit()
}
