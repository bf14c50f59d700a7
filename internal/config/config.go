package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/mergington/activities/internal/validate"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	DefaultListenAddr     = "127.0.0.1:8000"
	DefaultDatabase       = ":memory:"
	DefaultJournalMaxRows = 1000
)

type Config struct {
	ListenAddr     string
	DataDir        string
	LogLevel       string
	AllowedOrigins []string
	Store          string
	Database       string
	SeedFile       string
	ReportSchedule string
	ReportTimezone string
	JournalMaxRows int
}

// fileConfig mirrors config.toml. Pointers distinguish unset keys.
type fileConfig struct {
	Listen         *string  `toml:"listen"`
	LogLevel       *string  `toml:"log_level"`
	AllowedOrigins []string `toml:"allowed_origins"`
	Store          *string  `toml:"store"`
	Database       *string  `toml:"database"`
	SeedFile       *string  `toml:"seed_file"`
	ReportSchedule *string  `toml:"report_schedule"`
	ReportTimezone *string  `toml:"report_timezone"`
	JournalMaxRows *int     `toml:"journal_max_rows"`
}

// envConfig holds raw environment values; blank values are ignored.
type envConfig struct {
	DataDir        string   `env:"ACTIVITIES_DATA_DIR"`
	Listen         string   `env:"ACTIVITIES_LISTEN"`
	LogLevel       string   `env:"ACTIVITIES_LOG_LEVEL"`
	AllowedOrigins []string `env:"ACTIVITIES_ALLOWED_ORIGINS" envSeparator:","`
	Store          string   `env:"ACTIVITIES_STORE"`
	Database       string   `env:"ACTIVITIES_DATABASE"`
	SeedFile       string   `env:"ACTIVITIES_SEED_FILE"`
	ReportSchedule string   `env:"ACTIVITIES_REPORT_SCHEDULE"`
	ReportTimezone string   `env:"ACTIVITIES_REPORT_TIMEZONE"`
	// JournalMaxRows stays a string so a bad value warns and keeps the
	// default instead of failing the whole env parse.
	JournalMaxRows string `env:"ACTIVITIES_JOURNAL_MAX_ROWS"`
}

const defaultConfigContent = `# Mergington activities configuration
# All values shown are defaults. Uncomment and edit to customize.

# Address and port the server listens on.
# Environment variable: ACTIVITIES_LISTEN
# listen = "127.0.0.1:8000"

# Log level: debug, info, warn, error.
# Environment variable: ACTIVITIES_LOG_LEVEL
# log_level = "info"

# Extra origins allowed to call the API from a browser.
# Environment variable: ACTIVITIES_ALLOWED_ORIGINS (comma-separated)
# allowed_origins = []

# Registry backend: "memory" or "sqlite". The registry is reseeded on every
# start with either backend.
# Environment variable: ACTIVITIES_STORE
# store = "memory"

# SQLite database path used by the sqlite backend.
# Environment variable: ACTIVITIES_DATABASE
# database = ":memory:"

# TOML file with [[activity]] tables replacing the built-in activities.
# Environment variable: ACTIVITIES_SEED_FILE
# seed_file = ""

# Cron schedule for the roster report, e.g. "0 17 * * 5". Empty disables it.
# Environment variable: ACTIVITIES_REPORT_SCHEDULE
# report_schedule = ""

# IANA time zone for the roster report schedule.
# Environment variable: ACTIVITIES_REPORT_TIMEZONE
# report_timezone = "UTC"

# Maximum number of signup/unregister journal entries kept.
# Environment variable: ACTIVITIES_JOURNAL_MAX_ROWS
# journal_max_rows = 1000
`

// Load resolves configuration with precedence env > config file > defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:     DefaultListenAddr,
		LogLevel:       "info",
		Store:          StoreMemory,
		Database:       DefaultDatabase,
		JournalMaxRows: DefaultJournalMaxRows,
	}

	var ev envConfig
	if err := env.Parse(&ev); err != nil {
		slog.Warn("config env parse failed", "err", err)
	}

	// Resolve DataDir first (needed for config file path).
	if v := strings.TrimSpace(ev.DataDir); v != "" {
		cfg.DataDir = v
	} else if home, err := os.UserHomeDir(); err == nil {
		cfg.DataDir = filepath.Join(home, ".activities")
	}

	configPath := Path(cfg.DataDir)
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		writeDefaultConfig(configPath)
	}

	file, err := loadFile(configPath)
	if err != nil {
		slog.Warn("config file ignored", "path", configPath, "err", err)
	}
	file.apply(&cfg)
	ev.apply(&cfg)

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Store = strings.ToLower(cfg.Store)
	return cfg
}

// Path returns the config file location inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// Validate reports settings that would prevent the server from starting.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want %q or %q)", c.Store, StoreMemory, StoreSQLite)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen address is empty")
	}
	if c.JournalMaxRows <= 0 {
		return fmt.Errorf("journal_max_rows must be positive, got %d", c.JournalMaxRows)
	}
	if strings.TrimSpace(c.ReportSchedule) != "" {
		if err := validate.CronExpression(c.ReportSchedule); err != nil {
			return fmt.Errorf("report_schedule %q: %w", c.ReportSchedule, err)
		}
	}
	if err := validate.Timezone(c.ReportTimezone); err != nil {
		return fmt.Errorf("report_timezone %q: %w", c.ReportTimezone, err)
	}
	return nil
}

// loadFile decodes a TOML config file. A missing file yields an empty
// fileConfig and no error. Unknown keys are logged and skipped.
func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "path", path, "key", key.String())
	}
	return fc, nil
}

func (fc fileConfig) apply(cfg *Config) {
	setString(&cfg.ListenAddr, fc.Listen)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.Store, fc.Store)
	setString(&cfg.Database, fc.Database)
	setString(&cfg.SeedFile, fc.SeedFile)
	setString(&cfg.ReportSchedule, fc.ReportSchedule)
	setString(&cfg.ReportTimezone, fc.ReportTimezone)
	if origins := trimAll(fc.AllowedOrigins); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	if fc.JournalMaxRows != nil && *fc.JournalMaxRows > 0 {
		cfg.JournalMaxRows = *fc.JournalMaxRows
	}
}

func (ev envConfig) apply(cfg *Config) {
	overlay := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.ListenAddr, ev.Listen)
	overlay(&cfg.LogLevel, ev.LogLevel)
	overlay(&cfg.Store, ev.Store)
	overlay(&cfg.Database, ev.Database)
	overlay(&cfg.SeedFile, ev.SeedFile)
	overlay(&cfg.ReportSchedule, ev.ReportSchedule)
	overlay(&cfg.ReportTimezone, ev.ReportTimezone)
	if origins := trimAll(ev.AllowedOrigins); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	if raw := strings.TrimSpace(ev.JournalMaxRows); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.JournalMaxRows = n
		} else {
			slog.Warn("ignoring invalid ACTIVITIES_JOURNAL_MAX_ROWS", "value", raw)
		}
	}
}

func setString(dst *string, v *string) {
	if v == nil {
		return
	}
	if trimmed := strings.TrimSpace(*v); trimmed != "" {
		*dst = trimmed
	}
}

// writeDefaultConfig creates the config file with commented-out defaults.
// Best-effort: errors are silently ignored.
func writeDefaultConfig(path string) {
	_ = os.MkdirAll(filepath.Dir(path), 0o700)
	_ = os.WriteFile(path, []byte(defaultConfigContent), 0o600) //nolint:gosec // fixed content, not user input
}

func trimAll(values []string) []string {
	var out []string
	for _, p := range values {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
