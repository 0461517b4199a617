package config

import (
	"os"
	"path/filepath"
	"testing"

	"violence-scanner/internal/domain"
	"violence-scanner/internal/logging"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.ServiceURL != DefaultServiceURL {
		t.Fatalf("service url = %q, want %q", cfg.ServiceURL, DefaultServiceURL)
	}
	if cfg.RequestTimeoutSeconds != 300 {
		t.Fatalf("timeout = %d, want 300", cfg.RequestTimeoutSeconds)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q, want info", cfg.LogLevel)
	}
}

// TestTOMLStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestTOMLStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.toml")
	store := NewTOMLStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

// TestTOMLStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestTOMLStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.toml")
	store := NewTOMLStore(path)
	want := domain.Settings{
		ServiceURL:            "https://scanner.example.com",
		RequestTimeoutSeconds: 45,
		LogLevel:              "debug",
		LogFormat:             "json",
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestTOMLStoreSaveNormalizes checks trimming and default filling on save.
func TestTOMLStoreSaveNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	store := NewTOMLStore(path)

	if err := store.Save(domain.Settings{ServiceURL: "  http://10.0.0.5:8000/ "}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ServiceURL != "http://10.0.0.5:8000" {
		t.Fatalf("service url = %q", got.ServiceURL)
	}
	if got.RequestTimeoutSeconds != 300 || got.LogLevel != "info" || got.LogFormat != "auto" {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

// TestTOMLStoreLoadInvalidTOML checks parse error handling.
func TestTOMLStoreLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("service_url = [not-toml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewTOMLStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected toml parse error")
	}
}

// TestApplyEnvOverridesServiceURL checks the external address wins.
func TestApplyEnvOverridesServiceURL(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == ServiceURLEnv {
			return "https://remote.example.com/", true
		}
		return "", false
	}

	got := ApplyEnv(DefaultSettings(), lookup)
	if got.ServiceURL != "https://remote.example.com" {
		t.Fatalf("service url = %q", got.ServiceURL)
	}

	unset := ApplyEnv(DefaultSettings(), func(string) (string, bool) { return "", false })
	if unset.ServiceURL != DefaultServiceURL {
		t.Fatalf("service url = %q, want fallback", unset.ServiceURL)
	}
}

// TestUnknownLogSettingsFallBack keeps a bad saved value from blocking startup.
func TestUnknownLogSettingsFallBack(t *testing.T) {
	t.Setenv(ServiceURLEnv, "")
	path := filepath.Join(t.TempDir(), "settings.toml")
	store := NewTOMLStore(path)

	if err := store.Save(domain.Settings{LogLevel: "verbose", LogFormat: "pretty"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	assertResolvedLoggerBuilds(t, store)

	hand := "service_url = \"http://localhost:8000\"\nlog_level = \"TRACE\"\nlog_format = \"yaml\"\n"
	if err := os.WriteFile(path, []byte(hand), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	assertResolvedLoggerBuilds(t, store)
}

func assertResolvedLoggerBuilds(t *testing.T, store Store) {
	t.Helper()
	settings, err := Resolve(store)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if settings.LogLevel != "info" || settings.LogFormat != "auto" {
		t.Fatalf("log settings = %q/%q, want info/auto", settings.LogLevel, settings.LogFormat)
	}
	if _, err := logging.New(logging.Options{Level: settings.LogLevel, Format: settings.LogFormat}); err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
}

// TestValidate covers values rejected before saving.
func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.Settings
		wantErr  bool
	}{
		{name: "defaults", settings: DefaultSettings()},
		{name: "empty fields", settings: domain.Settings{}},
		{name: "mixed case level", settings: domain.Settings{LogLevel: " DEBUG ", LogFormat: "JSON"}},
		{name: "unknown level", settings: domain.Settings{LogLevel: "verbose"}, wantErr: true},
		{name: "unknown format", settings: domain.Settings{LogFormat: "pretty"}, wantErr: true},
		{name: "relative url", settings: domain.Settings{ServiceURL: "localhost:8000"}, wantErr: true},
		{name: "negative timeout", settings: domain.Settings{RequestTimeoutSeconds: -1}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.settings)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
