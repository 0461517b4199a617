package diagnostics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"violence-scanner/internal/domain"
)

func healthy(context.Context, string) error { return nil }

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	checker := NewCheckerForTests(
		healthy,
		filepath.Join(t.TempDir(), "cfg"),
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(context.Background(), domain.Settings{ServiceURL: "http://localhost:8000"})
	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	assertStatusByID(t, report, "service_url", domain.DiagnosticStatusPass)
	assertStatusByID(t, report, "service_health", domain.DiagnosticStatusPass)
	assertStatusByID(t, report, "settings_dir", domain.DiagnosticStatusPass)
}

// TestCheckerUnreachableServiceWarns keeps an offline service non-fatal.
func TestCheckerUnreachableServiceWarns(t *testing.T) {
	var probed string
	checker := NewCheckerForTests(
		func(ctx context.Context, baseURL string) error {
			probed = baseURL
			return errors.New("connection refused")
		},
		t.TempDir(),
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(context.Background(), domain.Settings{ServiceURL: "https://scanner.example.com"})
	if report.HasFailures {
		t.Fatalf("warnings should not count as failures: %+v", report.Items)
	}
	if probed != "https://scanner.example.com" {
		t.Fatalf("probed = %q", probed)
	}
	assertStatusByID(t, report, "service_health", domain.DiagnosticStatusWarn)
}

// TestCheckerRunInvalidURLAndUnwritableDir validates failure reporting.
func TestCheckerRunInvalidURLAndUnwritableDir(t *testing.T) {
	checker := NewCheckerForTests(
		healthy,
		"/settings",
		func(string, os.FileMode) error { return errors.New("permission denied") },
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(context.Background(), domain.Settings{ServiceURL: "localhost:8000"})
	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	assertStatusByID(t, report, "service_url", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "settings_dir", domain.DiagnosticStatusFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
