package events

import (
	"testing"
	"time"
)

func TestPublishAssignsMonotonicEventID(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ch, unsubscribe := hub.Subscribe(4)
	t.Cleanup(unsubscribe)

	hub.Publish(NewEvent(TypeActivitiesUpdated, map[string]any{"activity": "Chess Club"}))
	hub.Publish(NewEvent(TypeRosterReport, map[string]any{"activities": 9}))

	first := <-ch
	second := <-ch

	if first.EventID <= 0 {
		t.Fatalf("first.EventID = %d, want > 0", first.EventID)
	}
	if second.EventID <= first.EventID {
		t.Fatalf("second.EventID = %d, want > %d", second.EventID, first.EventID)
	}
}

func TestPublishAssignsTimestampWhenMissing(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ch, unsubscribe := hub.Subscribe(2)
	t.Cleanup(unsubscribe)

	hub.Publish(Event{Type: TypeReady})

	select {
	case evt := <-ch:
		if evt.Timestamp == "" {
			t.Fatalf("event timestamp should be set")
		}
		if _, err := time.Parse(time.RFC3339, evt.Timestamp); err != nil {
			t.Fatalf("timestamp parse error: %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("did not receive published event")
	}
}

func TestPublishSkipsSlowSubscriber(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ch, unsubscribe := hub.Subscribe(1)
	t.Cleanup(unsubscribe)

	hub.Publish(NewEvent(TypeActivitiesUpdated, nil))
	hub.Publish(NewEvent(TypeActivitiesUpdated, nil))

	if got := len(ch); got != 1 {
		t.Fatalf("buffered events = %d, want 1", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ch, unsubscribe := hub.Subscribe(0)
	if hub.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", hub.Subscribers())
	}
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("Subscribers() = %d, want 0", hub.Subscribers())
	}
}

func TestNilHub(t *testing.T) {
	t.Parallel()

	var hub *Hub
	hub.Publish(NewEvent(TypeReady, nil))
	ch, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()
	if _, ok := <-ch; ok {
		t.Fatal("nil hub should return a closed channel")
	}
	if hub.Subscribers() != 0 {
		t.Fatal("nil hub should report zero subscribers")
	}
}
