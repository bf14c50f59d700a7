package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mergington/activities/internal/events"
	"github.com/mergington/activities/internal/registry"
	"github.com/mergington/activities/internal/validate"
)

const listTimeout = 5 * time.Second

type rosterLister interface {
	List(ctx context.Context) (registry.Catalog, error)
}

// Options configures the roster report.
type Options struct {
	// Schedule is a standard cron expression. Empty disables the report.
	Schedule string
	Location *time.Location
	Publish  func(eventType string, payload map[string]any)
}

// Line summarizes one activity. Capacity is informational, so
// Participants may exceed MaxParticipants.
type Line struct {
	Activity        string `json:"activity"`
	Participants    int    `json:"participants"`
	MaxParticipants int    `json:"maxParticipants"`
	OpenSpots       int    `json:"openSpots"`
	OverCapacity    bool   `json:"overCapacity"`
}

// Service logs a roster summary on a cron schedule.
type Service struct {
	lister    rosterLister
	opts      Options
	cron      *cron.Cron
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
}

// New validates the schedule. A Service with an empty schedule is valid and
// does nothing on Start.
func New(l rosterLister, opts Options) (*Service, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	opts.Schedule = strings.TrimSpace(opts.Schedule)
	s := &Service{lister: l, opts: opts}
	if opts.Schedule == "" {
		return s, nil
	}
	if err := validate.CronExpression(opts.Schedule); err != nil {
		return nil, fmt.Errorf("report schedule %q: %w", opts.Schedule, err)
	}
	s.cron = cron.New(cron.WithLocation(opts.Location))
	return s, nil
}

func (s *Service) Enabled() bool {
	return s != nil && s.cron != nil
}

// Start registers the job and starts the cron loop.
func (s *Service) Start(parent context.Context) error {
	if !s.Enabled() {
		return nil
	}
	var err error
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		_, err = s.cron.AddFunc(s.opts.Schedule, func() {
			if _, runErr := s.Run(ctx); runErr != nil {
				slog.Warn("roster report failed", "err", runErr)
			}
		})
		if err != nil {
			cancel()
			return
		}
		s.cron.Start()
		slog.Info("roster report scheduled", "schedule", s.opts.Schedule, "location", s.opts.Location.String())
	})
	return err
}

// Stop halts the cron loop and waits for a running report until ctx ends.
func (s *Service) Stop(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
		}
	})
}

// Run builds, logs and publishes one roster report.
func (s *Service) Run(ctx context.Context) ([]Line, error) {
	listCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	catalog, err := s.lister.List(listCtx)
	if err != nil {
		return nil, err
	}

	lines := Build(catalog)
	for _, line := range lines {
		slog.Info("roster",
			"activity", line.Activity,
			"participants", line.Participants,
			"max_participants", line.MaxParticipants,
			"over_capacity", line.OverCapacity,
		)
	}
	if s.opts.Publish != nil {
		s.opts.Publish(events.TypeRosterReport, map[string]any{
			"activities": lines,
		})
	}
	return lines, nil
}

// Build summarizes a catalog in registry order.
func Build(catalog registry.Catalog) []Line {
	lines := make([]Line, 0, len(catalog))
	for _, a := range catalog {
		n := len(a.Participants)
		lines = append(lines, Line{
			Activity:        a.Name,
			Participants:    n,
			MaxParticipants: a.MaxParticipants,
			OpenSpots:       max(a.MaxParticipants-n, 0),
			OverCapacity:    n > a.MaxParticipants,
		})
	}
	return lines
}
