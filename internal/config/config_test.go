package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// clearEnv isolates a test from the caller's ACTIVITIES_* settings.
func clearEnv(t *testing.T, dataDir string) {
	t.Helper()
	t.Setenv("ACTIVITIES_DATA_DIR", dataDir)
	for _, key := range []string{
		"ACTIVITIES_LISTEN",
		"ACTIVITIES_LOG_LEVEL",
		"ACTIVITIES_ALLOWED_ORIGINS",
		"ACTIVITIES_STORE",
		"ACTIVITIES_DATABASE",
		"ACTIVITIES_SEED_FILE",
		"ACTIVITIES_REPORT_SCHEDULE",
		"ACTIVITIES_REPORT_TIMEZONE",
		"ACTIVITIES_JOURNAL_MAX_ROWS",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `# activities config
listen = "0.0.0.0:9000"
log_level = "DEBUG"
allowed_origins = ["http://localhost:3000", " http://192.168.1.10:8000 "]
store = "sqlite"
journal_max_rows = 50
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	fc, err := loadFile(path)
	if err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}
	if fc.Listen == nil || *fc.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %v, want 0.0.0.0:9000", fc.Listen)
	}
	if fc.Store == nil || *fc.Store != "sqlite" {
		t.Errorf("Store = %v, want sqlite", fc.Store)
	}
	if fc.JournalMaxRows == nil || *fc.JournalMaxRows != 50 {
		t.Errorf("JournalMaxRows = %v, want 50", fc.JournalMaxRows)
	}
	if fc.Database != nil {
		t.Errorf("Database = %v, want unset", *fc.Database)
	}
	if len(fc.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", fc.AllowedOrigins)
	}
}

func TestLoadFileMissing(t *testing.T) {
	fc, err := loadFile("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("loadFile(missing) error = %v", err)
	}
	if fc.Listen != nil || fc.Store != nil {
		t.Errorf("expected empty config for missing file, got %+v", fc)
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("listen = \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFile(path); err == nil {
		t.Fatal("loadFile() expected error for invalid toml")
	}
}

func TestLoadUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `listen = "0.0.0.0:9090"
store = "SQLite"
database = "/var/lib/activities/activities.db"
seed_file = "/etc/activities/seed.toml"
report_schedule = "0 17 * * 5"
report_timezone = "America/Chicago"
`)
	clearEnv(t, dir)

	cfg := Load()

	if cfg.ListenAddr != "0.0.0.0:9090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, "0.0.0.0:9090")
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreSQLite)
	}
	if cfg.Database != "/var/lib/activities/activities.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.SeedFile != "/etc/activities/seed.toml" {
		t.Errorf("SeedFile = %q", cfg.SeedFile)
	}
	if cfg.ReportSchedule != "0 17 * * 5" || cfg.ReportTimezone != "America/Chicago" {
		t.Errorf("report = %q in %q", cfg.ReportSchedule, cfg.ReportTimezone)
	}
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t, dir)

	cfg := Load()

	data, err := os.ReadFile(filepath.Join(dir, "config.toml")) //nolint:gosec // test file, path is from t.TempDir()
	if err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	content := string(data)
	for _, fragment := range []string{"# listen", "# store", "# report_schedule"} {
		if !strings.Contains(content, fragment) {
			t.Errorf("default config missing %q", fragment)
		}
	}

	// All defaults should still apply (file is all comments).
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Store != StoreMemory || cfg.Database != DefaultDatabase {
		t.Errorf("Store/Database = %q/%q, want defaults", cfg.Store, cfg.Database)
	}
	if cfg.JournalMaxRows != DefaultJournalMaxRows {
		t.Errorf("JournalMaxRows = %d, want %d", cfg.JournalMaxRows, DefaultJournalMaxRows)
	}
	if cfg.ReportSchedule != "" || cfg.SeedFile != "" || len(cfg.AllowedOrigins) != 0 {
		t.Errorf("unexpected non-default config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config Validate() = %v", err)
	}
}

func TestLoadDoesNotOverwriteExistingConfig(t *testing.T) {
	dir := t.TempDir()
	original := "listen = \"0.0.0.0:8080\"\n"
	writeConfig(t, dir, original)
	clearEnv(t, dir)

	_ = Load()

	data, err := os.ReadFile(filepath.Join(dir, "config.toml")) //nolint:gosec // test file, path is from t.TempDir()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != original {
		t.Errorf("config file was overwritten: %q", data)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `listen = "0.0.0.0:9090"
log_level = "warn"
allowed_origins = ["http://file.example.com"]
journal_max_rows = 10
`)
	clearEnv(t, dir)
	t.Setenv("ACTIVITIES_LISTEN", "127.0.0.1:7000")
	t.Setenv("ACTIVITIES_LOG_LEVEL", "Debug")
	t.Setenv("ACTIVITIES_ALLOWED_ORIGINS", "http://a.example.com, ,http://b.example.com")
	t.Setenv("ACTIVITIES_JOURNAL_MAX_ROWS", "25")
	t.Setenv("ACTIVITIES_STORE", "sqlite")

	cfg := Load()

	if cfg.ListenAddr != "127.0.0.1:7000" {
		t.Errorf("ListenAddr = %q, want env value", cfg.ListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	want := []string{"http://a.example.com", "http://b.example.com"}
	if !slices.Equal(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.JournalMaxRows != 25 {
		t.Errorf("JournalMaxRows = %d, want 25", cfg.JournalMaxRows)
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %q, want sqlite", cfg.Store)
	}
}

func TestLoadIgnoresInvalidJournalMaxRows(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t, dir)
	t.Setenv("ACTIVITIES_JOURNAL_MAX_ROWS", "lots")

	if cfg := Load(); cfg.JournalMaxRows != DefaultJournalMaxRows {
		t.Errorf("JournalMaxRows = %d, want default", cfg.JournalMaxRows)
	}
}

func TestLoadInvalidFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "listen = [\n")
	clearEnv(t, dir)

	if cfg := Load(); cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := Config{ListenAddr: DefaultListenAddr, LogLevel: "info", Store: StoreMemory, JournalMaxRows: 1}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"sqlite", func(c *Config) { c.Store = StoreSQLite }, false},
		{"unknown_store", func(c *Config) { c.Store = "redis" }, true},
		{"unknown_level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"empty_listen", func(c *Config) { c.ListenAddr = " " }, true},
		{"zero_journal", func(c *Config) { c.JournalMaxRows = 0 }, true},
		{"report_schedule", func(c *Config) { c.ReportSchedule = "0 17 * * 5" }, false},
		{"report_descriptor", func(c *Config) { c.ReportSchedule = "@weekly" }, false},
		{"bad_schedule", func(c *Config) { c.ReportSchedule = "after school" }, true},
		{"report_timezone", func(c *Config) { c.ReportTimezone = "America/Chicago" }, false},
		{"bad_timezone", func(c *Config) { c.ReportTimezone = "Mergington/Campus" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr != (err != nil) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrimAll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"a"}, []string{"a"}},
		{[]string{" a ", "b ", "", " c"}, []string{"a", "b", "c"}},
		{[]string{"", "  "}, nil},
	}
	for _, tt := range tests {
		if got := trimAll(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("trimAll(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
