package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"violence-scanner/internal/classifier"
	"violence-scanner/internal/config"
	"violence-scanner/internal/diagnostics"
	"violence-scanner/internal/domain"
	"violence-scanner/internal/logging"
	"violence-scanner/internal/preview"
	"violence-scanner/internal/scan"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

const scanEventName = "scan:event"

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Video files",
		Pattern:     "*.mp4;*.mov;*.mkv;*.avi;*.webm;*.m4v",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, the scan controller, previews, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Scans       *scan.Controller
	Previews    *preview.Registry
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	logger      *slog.Logger

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	store := config.NewTOMLStore(config.DefaultPath())
	settings, err := config.Resolve(store)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: settings.LogLevel, Format: settings.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	app := newApp(store, settings, logger, nil)
	app.assets = assets
	app.checker = diagnostics.NewChecker(classifier.Probe, store.Path())
	app.Diagnostics = app.checker.Run(context.Background(), settings)
	return app, nil
}

// newApp assembles the controller graph. A nil classifier means requests go
// to the service configured at call time.
func newApp(store config.Store, settings domain.Settings, logger *slog.Logger, svc scan.Classifier) *App {
	a := &App{
		Settings: settings,
		Store:    store,
		logger:   logging.OrDefault(logger),
	}
	if svc == nil {
		svc = scan.ClassifierFunc(a.classify)
	}
	a.Previews = preview.NewRegistry(preview.DefaultPrefix, a.logger)
	a.Scans = scan.NewController(scan.Config{
		Classifier:     svc,
		Previews:       a.Previews,
		Events:         scan.NewEventBus(1000),
		Logger:         a.logger,
		MaxUploadBytes: domain.MaxUploadBytes,
		OnEvent:        a.emitEvent,
	})
	return a
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{
		Assets:  a.assets,
		Handler: a.assetHandler(),
	}

	return wails.Run(&options.App{
		Title:       "Violence Scanner",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// assetHandler serves previews and, without embedded assets, the frontend from disk.
func (a *App) assetHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	a.Previews.Mount(r)
	if a.assets == nil {
		r.Handle("/*", http.FileServer(http.Dir("./frontend")))
	}
	return r
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown aborts any running scan and releases the preview.
func (a *App) Shutdown(ctx context.Context) {
	a.Scans.Close()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = nil
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := config.Resolve(a.Store)
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	if a.checker == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostics are not configured")
	}

	report := a.checker.Run(context.Background(), settings)
	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = report
	a.mu.Unlock()
	return report, nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings. New values apply to the next scan.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	if err := config.Validate(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	normalized := config.Normalize(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	a.mu.Unlock()

	return normalized, nil
}

// PickVideoFile opens a native file dialog and selects the chosen video.
func (a *App) PickVideoFile() (domain.Snapshot, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return domain.Snapshot{}, err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select video file",
		Filters: videoDialogFilter,
	})
	if err != nil {
		return domain.Snapshot{}, err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return a.Scans.Snapshot(), nil
	}
	return a.SelectVideoFile(path)
}

// SelectVideoFile selects a video by path, e.g. from drag and drop.
func (a *App) SelectVideoFile(path string) (domain.Snapshot, error) {
	video, err := domain.VideoFromPath(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return a.Scans.SelectFile(video)
}

// Analyze submits the selected video. Rejections are also pushed as notices.
func (a *App) Analyze() (domain.Snapshot, error) {
	if _, err := a.Scans.Submit(); err != nil {
		return a.Scans.Snapshot(), err
	}
	return a.Scans.Snapshot(), nil
}

// CancelAnalysis stops the running scan, if any.
func (a *App) CancelAnalysis() error {
	return a.Scans.Cancel()
}

// Reset clears the selection and outcome.
func (a *App) Reset() domain.Snapshot {
	a.Scans.Reset()
	return a.Scans.Snapshot()
}

// Status returns the state to render.
func (a *App) Status() domain.Snapshot {
	return a.Scans.Snapshot()
}

// ScanEvents returns all events with sequence greater than sinceSeq.
func (a *App) ScanEvents(sinceSeq int64) []scan.Event {
	return a.Scans.Events().Since(sinceSeq)
}

// classify sends the video to the service configured at call time.
func (a *App) classify(ctx context.Context, video domain.Video) (domain.Result, error) {
	settings, err := config.Resolve(a.Store)
	if err != nil {
		return domain.Result{}, fmt.Errorf("load settings: %w", err)
	}
	timeout := time.Duration(settings.RequestTimeoutSeconds) * time.Second
	return classifier.NewClient(settings.ServiceURL, timeout, a.logger).Classify(ctx, video)
}

// emitEvent pushes scan events to the webview; notices also raise a dialog.
func (a *App) emitEvent(event scan.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx == nil {
		return
	}

	wailsruntime.EventsEmit(ctx, scanEventName, event)
	if event.Type == scan.EventTypeNotice && event.Message != "" {
		go func() {
			_, _ = wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
				Type:    wailsruntime.WarningDialog,
				Title:   "Violence Scanner",
				Message: event.Message,
			})
		}()
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}
