// Package registrytest holds behaviour tests shared by every
// registry.Backend implementation.
package registrytest

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/mergington/activities/internal/registry"
)

// Seed is a small fixed registry used by the shared tests.
func Seed() []registry.Activity {
	return []registry.Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Art Club",
			Description:     "Painting and drawing",
			Schedule:        "Thursdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
		},
		{
			Name:            "Math Club",
			Description:     "Competition problems",
			Schedule:        "Tuesdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 10,
			Participants:    []string{"james@mergington.edu"},
		},
	}
}

// RunBackend exercises a Backend seeded with Seed().
func RunBackend(t *testing.T, newBackend func(t *testing.T, seed []registry.Activity) registry.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("list keeps seed order", func(t *testing.T) {
		b := newBackend(t, Seed())
		got, err := b.ListActivities(ctx)
		if err != nil {
			t.Fatalf("ListActivities() error = %v", err)
		}
		want := []string{"Chess Club", "Art Club", "Math Club"}
		if names := registry.Catalog(got).Names(); !slices.Equal(names, want) {
			t.Fatalf("names = %v, want %v", names, want)
		}
		art, _ := registry.Catalog(got).Get("Art Club")
		if art.Participants == nil || len(art.Participants) != 0 {
			t.Fatalf("Art Club participants = %#v, want empty non-nil", art.Participants)
		}
		chess, _ := registry.Catalog(got).Get("Chess Club")
		if chess.MaxParticipants != 12 || chess.Schedule != "Fridays, 3:30 PM - 5:00 PM" {
			t.Fatalf("Chess Club = %+v", chess)
		}
	})

	t.Run("add appends participant", func(t *testing.T) {
		b := newBackend(t, Seed())
		if err := b.AddParticipant(ctx, "Chess Club", "new@mergington.edu"); err != nil {
			t.Fatalf("AddParticipant() error = %v", err)
		}
		chess := mustGet(t, b, "Chess Club")
		want := []string{"michael@mergington.edu", "daniel@mergington.edu", "new@mergington.edu"}
		if !slices.Equal(chess.Participants, want) {
			t.Fatalf("participants = %v, want %v", chess.Participants, want)
		}
	})

	t.Run("add duplicate conflicts and leaves list unchanged", func(t *testing.T) {
		b := newBackend(t, Seed())
		err := b.AddParticipant(ctx, "Chess Club", "michael@mergington.edu")
		if !registry.IsKind(err, registry.ErrKindAlreadySignedUp) {
			t.Fatalf("AddParticipant() error = %v, want %s", err, registry.ErrKindAlreadySignedUp)
		}
		chess := mustGet(t, b, "Chess Club")
		if len(chess.Participants) != 2 {
			t.Fatalf("participants = %v, want unchanged", chess.Participants)
		}
	})

	t.Run("add to unknown activity", func(t *testing.T) {
		b := newBackend(t, Seed())
		err := b.AddParticipant(ctx, "Unknown Activity", "x@mergington.edu")
		if !registry.IsKind(err, registry.ErrKindActivityNotFound) {
			t.Fatalf("AddParticipant() error = %v, want %s", err, registry.ErrKindActivityNotFound)
		}
	})

	t.Run("same email may join different activities", func(t *testing.T) {
		b := newBackend(t, Seed())
		if err := b.AddParticipant(ctx, "Art Club", "michael@mergington.edu"); err != nil {
			t.Fatalf("AddParticipant() error = %v", err)
		}
		if art := mustGet(t, b, "Art Club"); !art.HasParticipant("michael@mergington.edu") {
			t.Fatalf("Art Club participants = %v", art.Participants)
		}
	})

	t.Run("remove deletes exactly one email", func(t *testing.T) {
		b := newBackend(t, Seed())
		if err := b.RemoveParticipant(ctx, "Chess Club", "michael@mergington.edu"); err != nil {
			t.Fatalf("RemoveParticipant() error = %v", err)
		}
		chess := mustGet(t, b, "Chess Club")
		if !slices.Equal(chess.Participants, []string{"daniel@mergington.edu"}) {
			t.Fatalf("participants = %v", chess.Participants)
		}
		err := b.RemoveParticipant(ctx, "Chess Club", "michael@mergington.edu")
		if !registry.IsKind(err, registry.ErrKindNotSignedUp) {
			t.Fatalf("second RemoveParticipant() error = %v, want %s", err, registry.ErrKindNotSignedUp)
		}
	})

	t.Run("remove from unknown activity", func(t *testing.T) {
		b := newBackend(t, Seed())
		err := b.RemoveParticipant(ctx, "Unknown Activity", "michael@mergington.edu")
		if !registry.IsKind(err, registry.ErrKindActivityNotFound) {
			t.Fatalf("RemoveParticipant() error = %v, want %s", err, registry.ErrKindActivityNotFound)
		}
	})

	t.Run("re-signup after removal appends at the end", func(t *testing.T) {
		b := newBackend(t, Seed())
		if err := b.RemoveParticipant(ctx, "Chess Club", "michael@mergington.edu"); err != nil {
			t.Fatal(err)
		}
		if err := b.AddParticipant(ctx, "Chess Club", "michael@mergington.edu"); err != nil {
			t.Fatal(err)
		}
		chess := mustGet(t, b, "Chess Club")
		want := []string{"daniel@mergington.edu", "michael@mergington.edu"}
		if !slices.Equal(chess.Participants, want) {
			t.Fatalf("participants = %v, want %v", chess.Participants, want)
		}
	})

	t.Run("list returns copies", func(t *testing.T) {
		b := newBackend(t, Seed())
		got, err := b.ListActivities(ctx)
		if err != nil {
			t.Fatal(err)
		}
		got[0].Participants[0] = "mutated@example.com"
		if chess := mustGet(t, b, "Chess Club"); chess.Participants[0] != "michael@mergington.edu" {
			t.Fatalf("backend state mutated through list result: %v", chess.Participants)
		}
	})

	t.Run("reset restores seed", func(t *testing.T) {
		b := newBackend(t, Seed())
		if err := b.AddParticipant(ctx, "Art Club", "a@mergington.edu"); err != nil {
			t.Fatal(err)
		}
		if err := b.Reset(ctx, Seed()[:1]); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		got, err := b.ListActivities(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "Chess Club" {
			t.Fatalf("after reset = %+v", got)
		}
	})

	t.Run("concurrent signups keep participants unique", func(t *testing.T) {
		b := newBackend(t, Seed())
		const workers = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := b.AddParticipant(ctx, "Art Club", "race@mergington.edu"); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if accepted != 1 {
			t.Fatalf("accepted signups = %d, want 1", accepted)
		}
		if art := mustGet(t, b, "Art Club"); len(art.Participants) != 1 {
			t.Fatalf("participants = %v, want one entry", art.Participants)
		}
	})
}

func mustGet(t *testing.T, b registry.Backend, name string) registry.Activity {
	t.Helper()
	got, err := b.ListActivities(context.Background())
	if err != nil {
		t.Fatalf("ListActivities() error = %v", err)
	}
	a, ok := registry.Catalog(got).Get(name)
	if !ok {
		t.Fatalf("activity %q missing", name)
	}
	return a
}
