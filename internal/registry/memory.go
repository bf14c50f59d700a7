package registry

import (
	"context"
	"slices"
	"sync"
)

// Backend holds the activity registry. Each mutation checks and applies
// atomically so participants stay unique per activity.
type Backend interface {
	ListActivities(ctx context.Context) ([]Activity, error)
	AddParticipant(ctx context.Context, activity, email string) error
	RemoveParticipant(ctx context.Context, activity, email string) error
	Reset(ctx context.Context, seed []Activity) error
}

// Memory is the process-local Backend.
type Memory struct {
	mu         sync.RWMutex
	activities []Activity
	index      map[string]int
}

func NewMemory(seed []Activity) *Memory {
	m := &Memory{}
	m.load(seed)
	return m
}

func (m *Memory) load(seed []Activity) {
	m.activities = make([]Activity, 0, len(seed))
	m.index = make(map[string]int, len(seed))
	for _, a := range seed {
		m.index[a.Name] = len(m.activities)
		m.activities = append(m.activities, a.Clone())
	}
}

func (m *Memory) ListActivities(_ context.Context) ([]Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Activity, 0, len(m.activities))
	for _, a := range m.activities {
		out = append(out, a.Clone())
	}
	return out, nil
}

func (m *Memory) AddParticipant(_ context.Context, activity, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[activity]
	if !ok {
		return ActivityNotFound(activity)
	}
	if m.activities[i].HasParticipant(email) {
		return AlreadySignedUp(activity, email)
	}
	m.activities[i].Participants = append(m.activities[i].Participants, email)
	return nil
}

func (m *Memory) RemoveParticipant(_ context.Context, activity, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[activity]
	if !ok {
		return ActivityNotFound(activity)
	}
	pos := slices.Index(m.activities[i].Participants, email)
	if pos < 0 {
		return NotSignedUp(activity, email)
	}
	m.activities[i].Participants = slices.Delete(m.activities[i].Participants, pos, pos+1)
	return nil
}

func (m *Memory) Reset(_ context.Context, seed []Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load(seed)
	return nil
}
