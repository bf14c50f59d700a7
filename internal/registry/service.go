package registry

import (
	"context"
	"log/slog"

	"github.com/mergington/activities/internal/events"
	"github.com/mergington/activities/internal/journal"
)

// Options configures the registry service.
type Options struct {
	Journal journal.Repo
	Publish func(eventType string, payload map[string]any)
}

// Service owns the registry. It is constructed once per process and
// injected into the HTTP layer.
type Service struct {
	backend Backend
	opts    Options
}

func NewService(backend Backend, opts Options) *Service {
	return &Service{backend: backend, opts: opts}
}

// List returns every activity in registry order.
func (s *Service) List(ctx context.Context) (Catalog, error) {
	activities, err := s.backend.ListActivities(ctx)
	if err != nil {
		return nil, err
	}
	return Catalog(activities), nil
}

// Signup appends email to the activity's participants.
func (s *Service) Signup(ctx context.Context, activity, email string) error {
	if err := s.backend.AddParticipant(ctx, activity, email); err != nil {
		return err
	}
	s.record(ctx, journal.ActionSignup, activity, email)
	return nil
}

// Unregister removes email from the activity's participants.
func (s *Service) Unregister(ctx context.Context, activity, email string) error {
	if err := s.backend.RemoveParticipant(ctx, activity, email); err != nil {
		return err
	}
	s.record(ctx, journal.ActionUnregister, activity, email)
	return nil
}

// Journal returns the most recent mutations, newest first.
func (s *Service) Journal(ctx context.Context, limit int) ([]journal.Entry, error) {
	if s.opts.Journal == nil {
		return []journal.Entry{}, nil
	}
	return s.opts.Journal.ListEntries(ctx, limit)
}

func (s *Service) record(ctx context.Context, action, activity, email string) {
	slog.Info("registry updated", "action", action, "activity", activity, "email", email)

	if s.opts.Journal != nil {
		if _, err := s.opts.Journal.InsertEntry(ctx, journal.Write{
			Action:   action,
			Activity: activity,
			Email:    email,
		}); err != nil {
			slog.Warn("journal write failed", "action", action, "activity", activity, "err", err)
		}
	}
	if s.opts.Publish != nil {
		s.opts.Publish(events.TypeActivitiesUpdated, map[string]any{
			"action":   action,
			"activity": activity,
			"email":    email,
		})
	}
}
