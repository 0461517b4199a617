package diagnostics

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"violence-scanner/internal/domain"
)

// HealthFunc probes the classification service at baseURL.
type HealthFunc func(ctx context.Context, baseURL string) error

// Checker validates the service address, its reachability, and the settings directory.
type Checker struct {
	health      HealthFunc
	settingsDir string
	mkdirAll    func(string, os.FileMode) error
	createTemp  func(string, string) (*os.File, error)
	remove      func(string) error
	timeout     time.Duration
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(health HealthFunc, settingsPath string) *Checker {
	return &Checker{
		health:      health,
		settingsDir: filepath.Dir(settingsPath),
		mkdirAll:    os.MkdirAll,
		createTemp:  os.CreateTemp,
		remove:      os.Remove,
		timeout:     5 * time.Second,
	}
}

// Run executes all checks concurrently and returns a combined report.
func (c *Checker) Run(ctx context.Context, settings domain.Settings) domain.DiagnosticReport {
	items := make([]domain.DiagnosticItem, 3)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items[0] = c.checkServiceURL(settings.ServiceURL)
		return nil
	})
	g.Go(func() error {
		items[1] = c.checkServiceHealth(gctx, settings.ServiceURL)
		return nil
	})
	g.Go(func() error {
		items[2] = c.checkSettingsDir()
		return nil
	})
	_ = g.Wait()

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkServiceURL verifies the configured address is an absolute http(s) URL.
func (c *Checker) checkServiceURL(raw string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "service_url",
		Name: "Service address",
	}

	if strings.TrimSpace(raw) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Service address is empty."
		item.Hint = "Set service_url in settings or VSCAN_SERVICE_URL."
		return item
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Service address is not a valid http(s) URL: %s", raw)
		item.Hint = "Use a full address such as http://localhost:8000."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Using %s", raw)
	return item
}

// checkServiceHealth probes the service. An unreachable service is a warning,
// since it may come up after launch.
func (c *Checker) checkServiceHealth(ctx context.Context, baseURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "service_health",
		Name: "Classification service",
	}

	if c.health == nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "Health probe not configured."
		return item
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.health(ctx, baseURL); err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Service not reachable: %v", err)
		item.Hint = "Start the classification service or point service_url at a running instance."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Service is healthy."
	return item
}

// checkSettingsDir validates settings directory existence and write access.
func (c *Checker) checkSettingsDir() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "settings_dir",
		Name: "Settings directory",
	}

	if strings.TrimSpace(c.settingsDir) == "" || c.settingsDir == "." {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Settings directory is not set."
		return item
	}

	if err := c.mkdirAll(c.settingsDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create settings directory: %s", c.settingsDir)
		item.Hint = "Check permissions for your home directory."
		return item
	}

	tmpFile, err := c.createTemp(c.settingsDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Settings directory is not writable: %s", c.settingsDir)
		item.Hint = "Adjust filesystem permissions so settings can be saved."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", c.settingsDir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	health HealthFunc,
	settingsDir string,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		health:      health,
		settingsDir: settingsDir,
		mkdirAll:    mkdirAll,
		createTemp:  createTemp,
		remove:      remove,
		timeout:     time.Second,
	}
}
