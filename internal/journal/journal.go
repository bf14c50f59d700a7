package journal

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Actions recorded in the journal.
const (
	ActionSignup     = "signup"
	ActionUnregister = "unregister"
)

const (
	DefaultLimit   = 50
	MaxLimit       = 500
	DefaultMaxRows = 1000
)

// Entry is one recorded registry mutation.
type Entry struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	Activity  string `json:"activity"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// Write contains the fields needed to record an entry.
type Write struct {
	Action    string
	Activity  string
	Email     string
	CreatedAt time.Time
}

// Repo defines the persistence operations consumed by the registry service.
type Repo interface {
	InsertEntry(ctx context.Context, write Write) (Entry, error)
	ListEntries(ctx context.Context, limit int) ([]Entry, error)
}

// NormalizeLimit clamps a requested page size to [1, MaxLimit].
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EntryFromWrite fills defaults and formats the timestamp.
func EntryFromWrite(id int64, write Write) Entry {
	now := write.CreatedAt.UTC()
	if write.CreatedAt.IsZero() {
		now = time.Now().UTC()
	}
	return Entry{
		ID:        id,
		Action:    strings.TrimSpace(write.Action),
		Activity:  write.Activity,
		Email:     write.Email,
		CreatedAt: now.Format(time.RFC3339),
	}
}

// Memory keeps the newest maxRows entries in process memory.
type Memory struct {
	mu      sync.Mutex
	nextID  int64
	maxRows int
	entries []Entry
}

func NewMemory(maxRows int) *Memory {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Memory{maxRows: maxRows}
}

func (m *Memory) InsertEntry(_ context.Context, write Write) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	entry := EntryFromWrite(m.nextID, write)
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.maxRows; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	return entry, nil
}

// ListEntries returns entries newest first.
func (m *Memory) ListEntries(_ context.Context, limit int) ([]Entry, error) {
	limit = NormalizeLimit(limit)

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, min(limit, len(m.entries)))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}
