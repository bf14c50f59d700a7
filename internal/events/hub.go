package events

import (
	"sync"
	"time"
)

const (
	TypeReady             = "events.ready"
	TypeActivitiesUpdated = "activities.updated"
	TypeRosterReport      = "roster.report"
)

type Event struct {
	EventID   int64          `json:"eventId"`
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func NewEvent(eventType string, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
}

type Hub struct {
	mu          sync.RWMutex
	nextSubID   int64
	nextEventID int64
	subscribers map[int64]chan Event
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]chan Event),
	}
}

func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if h == nil {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.nextSubID++
	id := h.nextSubID
	h.subscribers[id] = ch
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		current, ok := h.subscribers[id]
		if ok {
			delete(h.subscribers, id)
		}
		h.mu.Unlock()
		if ok {
			close(current)
		}
	}
	return ch, unsubscribe
}

func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	// Held exclusively so event ids reach every subscriber in order.
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextEventID++
	event.EventID = h.nextEventID
	for _, sub := range h.subscribers {
		select {
		case sub <- event:
		default:
			// Skip when client is slow; next state event will arrive.
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
