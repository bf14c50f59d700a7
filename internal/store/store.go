package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mergington/activities/internal/journal"
	"github.com/mergington/activities/internal/registry"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Options struct {
	// JournalMaxRows bounds the journal table. Zero uses journal.DefaultMaxRows.
	JournalMaxRows int
}

// Store is a SQLite registry.Backend and journal.Repo.
type Store struct {
	db             *sql.DB
	dbPath         string
	journalMaxRows int
}

func New(dbPath string, opts Options) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		dbPath = MemoryPath
	}
	inMemory := dbPath == MemoryPath
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer, and an in-memory database
	// lives exactly as long as its connection. One connection covers both.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath, journalMaxRows: opts.JournalMaxRows}
	if s.journalMaxRows <= 0 {
		s.journalMaxRows = journal.DefaultMaxRows
	}
	start := time.Now()
	applied, err := runMigrations(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	slog.Debug("database schema ready",
		"path", dbPath,
		"schema_version", schemaVersion(),
		"applied", applied,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return s, nil
}

func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Reset replaces every activity and participant with seed.
func (s *Store) Reset(ctx context.Context, seed []registry.Activity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM participants"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM activities"); err != nil {
		return err
	}
	for _, a := range seed {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO activities (name, description, schedule, max_participants)
			 VALUES (?, ?, ?, ?)`,
			a.Name, a.Description, a.Schedule, a.MaxParticipants,
		)
		if err != nil {
			return fmt.Errorf("insert activity %q: %w", a.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, email := range a.Participants {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO participants (activity_id, email) VALUES (?, ?)",
				id, email,
			); err != nil {
				return fmt.Errorf("insert participant %q for %q: %w", email, a.Name, err)
			}
		}
	}
	return tx.Commit()
}

// ListActivities reads activities and participants in one read transaction
// so the catalog is a consistent snapshot.
func (s *Store) ListActivities(ctx context.Context) ([]registry.Activity, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, description, schedule, max_participants
		   FROM activities
		  ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []registry.Activity
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			id int64
			a  registry.Activity
		)
		if err := rows.Scan(&id, &a.Name, &a.Description, &a.Schedule, &a.MaxParticipants); err != nil {
			return nil, err
		}
		a.Participants = []string{}
		byID[id] = len(out)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	prows, err := tx.QueryContext(ctx, "SELECT activity_id, email FROM participants ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = prows.Close() }()
	for prows.Next() {
		var (
			activityID int64
			email      string
		)
		if err := prows.Scan(&activityID, &email); err != nil {
			return nil, err
		}
		if i, ok := byID[activityID]; ok {
			out[i].Participants = append(out[i].Participants, email)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	_ = prows.Close()
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []registry.Activity{}
	}
	return out, nil
}

func (s *Store) AddParticipant(ctx context.Context, activity, email string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	id, err := activityID(ctx, tx, activity)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO participants (activity_id, email) VALUES (?, ?)
		 ON CONFLICT (activity_id, email) DO NOTHING`,
		id, email,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return registry.AlreadySignedUp(activity, email)
	}
	return tx.Commit()
}

func (s *Store) RemoveParticipant(ctx context.Context, activity, email string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	id, err := activityID(ctx, tx, activity)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"DELETE FROM participants WHERE activity_id = ? AND email = ?",
		id, email,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return registry.NotSignedUp(activity, email)
	}
	return tx.Commit()
}

func activityID(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM activities WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, registry.ActivityNotFound(name)
	}
	return id, err
}
