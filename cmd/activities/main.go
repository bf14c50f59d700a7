package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mergington/activities/internal/api"
	"github.com/mergington/activities/internal/config"
	"github.com/mergington/activities/internal/events"
	"github.com/mergington/activities/internal/httpui"
	"github.com/mergington/activities/internal/journal"
	"github.com/mergington/activities/internal/registry"
	"github.com/mergington/activities/internal/report"
	"github.com/mergington/activities/internal/security"
	"github.com/mergington/activities/internal/store"
	"github.com/mergington/activities/internal/validate"
)

const (
	seedTimeout     = 5 * time.Second
	shutdownTimeout = 10 * time.Second
	maxRequestIDLen = 128
)

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func serve() int {
	cfg := loadConfigFn()
	initLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		return 1
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		return 1
	}
	defer a.close()

	if err := a.report.Start(context.Background()); err != nil {
		slog.Error("roster report start failed", "err", err)
		return 1
	}

	exitCode := run(cfg, a.handler)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	a.report.Stop(stopCtx)
	cancel()
	return exitCode
}

// app is the wired server: one registry, one hub, one handler tree.
type app struct {
	handler  http.Handler
	registry *registry.Service
	hub      *events.Hub
	report   *report.Service
	closers  []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	seed, err := registry.LoadSeed(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}

	a := &app{hub: events.NewHub()}
	publish := func(eventType string, payload map[string]any) {
		a.hub.Publish(events.NewEvent(eventType, payload))
	}

	backend, journalRepo, err := a.openBackend(ctx, cfg, seed)
	if err != nil {
		a.close()
		return nil, err
	}
	a.registry = registry.NewService(backend, registry.Options{
		Journal: journalRepo,
		Publish: publish,
	})

	location, err := validate.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("report timezone %q: %w", cfg.ReportTimezone, err)
	}
	a.report, err = report.New(a.registry, report.Options{
		Schedule: cfg.ReportSchedule,
		Location: location,
		Publish:  publish,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	guard := security.New(cfg.AllowedOrigins)
	slog.Debug("origin guard ready", "allowed_origins", guard.AllowedOrigins())
	mux := http.NewServeMux()
	if err := httpui.Register(mux); err != nil {
		a.close()
		return nil, fmt.Errorf("frontend init: %w", err)
	}
	api.Register(mux, guard, a.registry, a.hub)
	a.handler = requestLog(mux)
	return a, nil
}

// openBackend builds the configured registry backend and loads seed into it.
func (a *app) openBackend(ctx context.Context, cfg config.Config, seed []registry.Activity) (registry.Backend, journal.Repo, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		st, err := store.New(databasePath(cfg), store.Options{JournalMaxRows: cfg.JournalMaxRows})
		if err != nil {
			return nil, nil, fmt.Errorf("store init: %w", err)
		}
		a.closers = append(a.closers, st.Close)

		seedCtx, cancel := context.WithTimeout(ctx, seedTimeout)
		defer cancel()
		if err := st.Reset(seedCtx, seed); err != nil {
			return nil, nil, fmt.Errorf("seed store: %w", err)
		}
		slog.Info("registry backend ready", "store", config.StoreSQLite, "path", st.Path(), "activities", len(seed))
		return st, st, nil
	default:
		slog.Info("registry backend ready", "store", config.StoreMemory, "activities", len(seed))
		return registry.NewMemory(seed), journal.NewMemory(cfg.JournalMaxRows), nil
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}

// databasePath resolves relative database paths against the data dir.
func databasePath(cfg config.Config) string {
	path := strings.TrimSpace(cfg.Database)
	if path == "" || path == store.MemoryPath || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.DataDir, path)
}

func run(cfg config.Config, handler http.Handler) int {
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	go func() {
		<-shutdownCh
		slog.Info("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	slog.Info("activities started",
		"listen", cfg.ListenAddr,
		"data_dir", cfg.DataDir,
		"store", cfg.Store,
		"log_level", cfg.LogLevel,
		"report_schedule", cfg.ReportSchedule,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("activities stopped")
	return 0
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		slog.Debug("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Truncate(time.Millisecond),
		)
	})
}

func initLogger(level string) {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
}
