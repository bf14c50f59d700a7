package store

import (
	"context"
	"testing"
	"time"

	"github.com/mergington/activities/internal/journal"
)

func TestJournalInsertAndList(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	first, err := s.InsertEntry(ctx, journal.Write{
		Action:    journal.ActionSignup,
		Activity:  "Chess Club",
		Email:     "a@mergington.edu",
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("InsertEntry() error = %v", err)
	}
	if first.ID <= 0 || first.CreatedAt != "2026-09-01T08:00:00Z" {
		t.Fatalf("InsertEntry() = %+v", first)
	}
	if _, err := s.InsertEntry(ctx, journal.Write{
		Action:   journal.ActionUnregister,
		Activity: "Chess Club",
		Email:    "a@mergington.edu",
	}); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListEntries(ctx, 10)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Action != journal.ActionUnregister || entries[1].ID != first.ID {
		t.Fatalf("entries = %+v, want newest first", entries)
	}
}

func TestJournalPrunesToMaxRows(t *testing.T) {
	t.Parallel()

	s, err := New(MemoryPath, Options{JournalMaxRows: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	for _, email := range []string{"a", "b", "c"} {
		if _, err := s.InsertEntry(ctx, journal.Write{Action: journal.ActionSignup, Activity: "Art Club", Email: email}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.ListEntries(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Email != "c" || entries[1].Email != "b" {
		t.Fatalf("entries = %+v, want c,b", entries)
	}
}

func TestPruneEntriesNoLimit(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	n, err := s.PruneEntries(context.Background(), 0)
	if err != nil || n != 0 {
		t.Fatalf("PruneEntries(0) = %d, %v", n, err)
	}
}
