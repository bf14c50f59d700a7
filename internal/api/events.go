package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mergington/activities/internal/events"
)

const (
	eventBuffer       = 64
	keepaliveInterval = 20 * time.Second
)

// streamEvents relays hub events as server-sent events until the client
// goes away.
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeDetail(w, http.StatusServiceUnavailable, "events unavailable")
		return
	}

	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut long-lived streams.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("sse write deadline unsupported", "err", err)
	}

	eventsCh, unsubscribe := h.events.Subscribe(eventBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ready := events.NewEvent(events.TypeReady, map[string]any{"message": "subscribed"})
	if err := writeEvent(w, ready); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		return
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-eventsCh:
			if !ok {
				return
			}
			if err := writeEvent(w, evt); err != nil {
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, evt events.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("sse marshal failed", "type", evt.Type, "err", err)
		return nil
	}
	if evt.EventID > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", evt.EventID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
	return err
}
