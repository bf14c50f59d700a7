package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mergington/activities/internal/events"
	"github.com/mergington/activities/internal/journal"
	"github.com/mergington/activities/internal/registry"
	"github.com/mergington/activities/internal/security"
)

const requestTimeout = 5 * time.Second

const (
	detailActivityNotFound = "Activity not found"
	detailAlreadySignedUp  = "Student already signed up for this activity"
	detailNotSignedUp      = "Student is not signed up for this activity"
	detailEmailRequired    = "email query parameter is required"
	detailOriginDenied     = "Origin not allowed"
	detailInternal         = "Internal server error"
)

type registryService interface {
	List(ctx context.Context) (registry.Catalog, error)
	Signup(ctx context.Context, activity, email string) error
	Unregister(ctx context.Context, activity, email string) error
	Journal(ctx context.Context, limit int) ([]journal.Entry, error)
}

type Handler struct {
	guard    *security.Guard
	registry registryService
	events   *events.Hub
}

func Register(mux *http.ServeMux, guard *security.Guard, svc registryService, eventsHub *events.Hub) {
	h := &Handler{
		guard:    guard,
		registry: svc,
		events:   eventsHub,
	}
	h.registerActivityRoutes(mux)
	h.registerMetaRoutes(mux)
	h.registerEventRoutes(mux)
}

func (h *Handler) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.guard.CheckOrigin(r); err != nil {
			slog.Debug("request origin denied", "path", r.URL.Path, "err", err)
			writeDetail(w, http.StatusForbidden, detailOriginDenied)
			return
		}
		next(w, r)
	}
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	catalog, err := h.registry.List(ctx)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.registry.Signup(ctx, name, email); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeMessage(w, "Signed up "+email+" for "+name)
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.registry.Unregister(ctx, name, email); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeMessage(w, "Unregistered "+email+" from "+name)
}

func (h *Handler) listJournal(w http.ResponseWriter, r *http.Request) {
	limit := journal.DefaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	entries, err := h.registry.Journal(ctx, journal.NormalizeLimit(limit))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// emailParam reads the email query parameter and writes a 422 when it is
// missing or blank. Any other value is used exactly as sent.
func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.URL.Query().Get("email")
	if strings.TrimSpace(email) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, detailEmailRequired)
		return "", false
	}
	return email, true
}

func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case registry.IsKind(err, registry.ErrKindActivityNotFound):
		writeDetail(w, http.StatusNotFound, detailActivityNotFound)
	case registry.IsKind(err, registry.ErrKindNotSignedUp):
		writeDetail(w, http.StatusNotFound, detailNotSignedUp)
	case registry.IsKind(err, registry.ErrKindAlreadySignedUp):
		writeDetail(w, http.StatusBadRequest, detailAlreadySignedUp)
	default:
		slog.Error("registry request failed", "err", err)
		writeDetail(w, http.StatusInternalServerError, detailInternal)
	}
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(payload); err != nil {
		slog.Error("json encode error", "err", err)
	}
}
