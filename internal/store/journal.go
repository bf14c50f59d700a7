package store

import (
	"context"
	"log/slog"

	"github.com/mergington/activities/internal/journal"
)

func (s *Store) InsertEntry(ctx context.Context, write journal.Write) (journal.Entry, error) {
	entry := journal.EntryFromWrite(0, write)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO journal (action, activity, email, created_at) VALUES (?, ?, ?, ?)`,
		entry.Action, entry.Activity, entry.Email, entry.CreatedAt,
	)
	if err != nil {
		return journal.Entry{}, err
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return journal.Entry{}, err
	}
	if _, err := s.PruneEntries(ctx, s.journalMaxRows); err != nil {
		slog.Warn("journal prune failed", "err", err)
	}
	return entry, nil
}

// ListEntries returns the newest entries first.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]journal.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, activity, email, created_at
		   FROM journal
		  ORDER BY id DESC
		  LIMIT ?`,
		journal.NormalizeLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []journal.Entry{}
	for rows.Next() {
		var e journal.Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Activity, &e.Email, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneEntries keeps the newest maxRows journal rows.
func (s *Store) PruneEntries(ctx context.Context, maxRows int) (int64, error) {
	if maxRows <= 0 {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM journal
		  WHERE id IN (
			SELECT id
			FROM journal
			ORDER BY id DESC
			LIMIT -1 OFFSET ?
		  )`,
		maxRows,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
