package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"violence-scanner/internal/config"
	"violence-scanner/internal/diagnostics"
	"violence-scanner/internal/logging"
)

// TestFixDiagnosticResetsServiceURL restores the default address.
func TestFixDiagnosticResetsServiceURL(t *testing.T) {
	t.Setenv(config.ServiceURLEnv, "")
	settings := config.DefaultSettings()
	settings.ServiceURL = "localhost:9000"
	store := &fakeStore{settings: settings}

	app := newApp(store, settings, logging.Discard(), nil)
	app.checker = diagnostics.NewCheckerForTests(
		func(context.Context, string) error { return nil },
		t.TempDir(),
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report, err := app.FixDiagnostic("service_url")
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if store.settings.ServiceURL != config.DefaultServiceURL {
		t.Fatalf("saved service url = %q", store.settings.ServiceURL)
	}
	if report.HasFailures {
		t.Fatalf("report still has failures: %+v", report.Items)
	}
}

// TestFixDiagnosticCreatesSettingsDir creates the parent directory of the settings file.
func TestFixDiagnosticCreatesSettingsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cfg")
	store := config.NewTOMLStore(filepath.Join(dir, "settings.toml"))

	app := newApp(store, config.DefaultSettings(), logging.Discard(), nil)
	if _, err := app.FixDiagnostic("settings_dir"); err != nil {
		t.Fatalf("fix: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("settings dir not created: %v", err)
	}
}

// TestFixDiagnosticRejectsUnknownItem guards the item switch.
func TestFixDiagnosticRejectsUnknownItem(t *testing.T) {
	app := newApp(&fakeStore{settings: config.DefaultSettings()}, config.DefaultSettings(), logging.Discard(), nil)
	if _, err := app.FixDiagnostic("disk_space"); err == nil {
		t.Fatal("expected unsupported item error")
	}
	if _, err := app.FixDiagnostic(" "); err == nil {
		t.Fatal("expected empty id error")
	}
	if _, err := app.FixDiagnostic("service_health"); err == nil {
		t.Fatal("service health has no automated fix")
	}
}
