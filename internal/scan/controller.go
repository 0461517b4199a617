package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"violence-scanner/internal/classifier"
	"violence-scanner/internal/domain"
	"violence-scanner/internal/logging"
)

const defaultCloseTimeout = 10 * time.Second

// User-facing messages.
const (
	MessageTooLarge      = "Try smaller video file"
	MessageNoFile        = "Please select a file first"
	MessageAlreadyActive = "A scan is already in progress"
	MessageGenericError  = "An error occurred while uploading the file"
)

var (
	// ErrSessionActive is returned when submitting while a scan is running.
	ErrSessionActive = errors.New("scan already in progress")
	// ErrNoActiveSession is returned when cancel is requested while idle.
	ErrNoActiveSession = errors.New("no active scan")
	// ErrNoFile is returned when submitting without a selected file.
	ErrNoFile = errors.New("no file selected")
	// ErrFileTooLarge is returned when the selected file exceeds the upload limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrClosed is returned after the controller has been torn down.
	ErrClosed = errors.New("controller closed")
)

// Classifier submits a video to the classification service.
type Classifier interface {
	Classify(ctx context.Context, video domain.Video) (domain.Result, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, video domain.Video) (domain.Result, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, video domain.Video) (domain.Result, error) {
	return f(ctx, video)
}

// Previews issues and revokes client-local preview references.
type Previews interface {
	Create(video domain.Video) string
	Revoke(ref string) bool
}

// Config wires the controller's collaborators.
type Config struct {
	Classifier     Classifier
	Previews       Previews
	Events         *EventBus
	Logger         *slog.Logger
	MaxUploadBytes int64
	// CloseTimeout bounds how long Close waits for the active call to return.
	CloseTimeout time.Duration
	// OnEvent receives each published event outside the controller lock.
	OnEvent func(Event)
}

type selectedFile struct {
	video      domain.Video
	previewRef string
}

// Controller owns file selection, submission, cancellation, and the state the
// presentation layer renders.
type Controller struct {
	classifier Classifier
	previews   Previews
	events     *EventBus
	logger     *slog.Logger
	maxBytes   int64
	closeWait  time.Duration
	onEvent    func(Event)
	newID      func() string

	mu     sync.Mutex
	file   *selectedFile
	phase  domain.Phase
	result *domain.Result
	errMsg string
	active *Session
	closed bool
}

// NewController creates a controller in the idle state.
func NewController(cfg Config) *Controller {
	if cfg.Events == nil {
		cfg.Events = NewEventBus(500)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = domain.MaxUploadBytes
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaultCloseTimeout
	}
	return &Controller{
		classifier: cfg.Classifier,
		previews:   cfg.Previews,
		events:     cfg.Events,
		logger:     logging.OrDefault(cfg.Logger).With("component", "scan"),
		maxBytes:   cfg.MaxUploadBytes,
		closeWait:  cfg.CloseTimeout,
		onEvent:    cfg.OnEvent,
		newID:      uuid.NewString,
		phase:      domain.PhaseIdle,
	}
}

// Events returns the controller's event history.
func (c *Controller) Events() *EventBus {
	return c.events
}

// SelectFile replaces the selected file and clears any previous outcome.
// A scan still running for the previous file is cancelled and its outcome
// discarded.
func (c *Controller) SelectFile(video domain.Video) (domain.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.Snapshot{}, ErrClosed
	}

	var pending []Event
	if c.active != nil {
		c.active.supersede()
		pending = append(pending, Event{
			SessionID: c.active.ID,
			Type:      EventTypeStatus,
			Status:    domain.StatusScanning,
			Message:   "Scan cancelled: new file selected",
		})
	}

	c.releasePreviewLocked()
	ref := ""
	if c.previews != nil {
		ref = c.previews.Create(video)
	}
	c.file = &selectedFile{video: video, previewRef: ref}
	c.result = nil
	c.errMsg = ""
	if c.active == nil {
		c.phase = domain.PhaseIdle
	}
	snap := c.snapshotLocked()
	pending = append(pending, Event{Type: EventTypeStatus, Status: snap.Status, Message: "File selected"})
	c.mu.Unlock()

	c.logger.Info("file selected", "name", video.Name, "size", video.Size)
	c.publish(pending...)
	return snap, nil
}

// Submit starts a scan of the selected file. Service failures never surface
// here; they become controller state once the returned session is done.
func (c *Controller) Submit() (*Session, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.active != nil {
		id := c.active.ID
		c.mu.Unlock()
		c.logger.Warn("submit rejected", "reason", "session active", "session_id", id)
		c.publish(Event{SessionID: id, Type: EventTypeNotice, Message: MessageAlreadyActive})
		return nil, ErrSessionActive
	}
	if c.file == nil {
		c.mu.Unlock()
		c.publish(Event{Type: EventTypeNotice, Message: MessageNoFile})
		return nil, ErrNoFile
	}

	video := c.file.video
	if video.Size > c.maxBytes {
		c.result = nil
		c.errMsg = MessageTooLarge
		c.phase = domain.PhaseFailed
		c.mu.Unlock()
		c.logger.Info("submit rejected", "reason", "file too large", "size", video.Size, "limit", c.maxBytes)
		c.publish(Event{Type: EventTypeError, Status: domain.StatusError, Message: MessageTooLarge})
		return nil, ErrFileTooLarge
	}

	session := newSession(c.newID(), video)
	c.active = session
	c.phase = domain.PhaseScanning
	c.result = nil
	c.errMsg = ""
	c.mu.Unlock()

	c.logger.Info("scan started", "session_id", session.ID, "name", video.Name, "size", video.Size)
	c.publish(Event{SessionID: session.ID, Type: EventTypeStatus, Status: domain.StatusScanning, Message: "Scan started"})

	go c.run(session)
	return session, nil
}

// Cancel asks the active scan to stop. The phase changes when the scan's
// call returns, on the same path as a normal completion.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	session := c.active
	if session == nil {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	session.requestCancel()
	c.mu.Unlock()

	c.logger.Info("scan cancellation requested", "session_id", session.ID)
	c.publish(Event{SessionID: session.ID, Type: EventTypeStatus, Status: domain.StatusScanning, Message: "Cancellation requested"})
	return nil
}

// Reset cancels any active scan, releases the preview, and clears the file
// and outcome. Calling it repeatedly is harmless.
func (c *Controller) Reset() {
	c.mu.Lock()
	var pending []Event
	if c.active != nil {
		c.active.requestCancel()
		pending = append(pending, Event{SessionID: c.active.ID, Type: EventTypeStatus, Status: domain.StatusScanning, Message: "Cancellation requested"})
	} else {
		c.phase = domain.PhaseIdle
	}
	c.releasePreviewLocked()
	c.file = nil
	c.result = nil
	c.errMsg = ""
	status := c.statusLocked()
	c.mu.Unlock()

	pending = append(pending, Event{Type: EventTypeStatus, Status: status, Message: "Reset"})
	c.publish(pending...)
}

// Snapshot returns the current state for rendering.
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close tears the controller down: the active scan is cancelled and awaited
// for at most CloseTimeout, and the preview reference is released. A call
// that ignores its context is abandoned; its outcome is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	session := c.active
	if session != nil {
		session.requestCancel()
	}
	c.releasePreviewLocked()
	c.file = nil
	c.mu.Unlock()

	if session != nil {
		timer := time.NewTimer(c.closeWait)
		defer timer.Stop()
		select {
		case <-session.Done():
		case <-timer.C:
			c.logger.Warn("scan did not stop before close", "session_id", session.ID, "waited", c.closeWait)
			return
		}
	}
	c.logger.Debug("controller closed")
}

// run performs the classifier call for one session and finalizes it.
func (c *Controller) run(session *Session) {
	var (
		result domain.Result
		err    error
	)
	if c.classifier == nil {
		err = errors.New("no classifier configured")
	} else {
		result, err = c.classifier.Classify(session.ctx, session.Video)
	}
	c.finish(session, session.resolve(result, err), err)
}

// finish is the only place a session leaves the active slot.
func (c *Controller) finish(session *Session, out outcome, callErr error) {
	defer session.release()

	c.mu.Lock()
	if c.active == session {
		c.active = nil
	}

	switch {
	case c.closed:
		c.mu.Unlock()
		return
	case session.superseded.Load():
		c.phase = domain.PhaseIdle
		c.mu.Unlock()
		c.logger.Info("scan discarded", "session_id", session.ID)
		return
	}

	var events []Event
	if out.result != nil {
		c.phase = domain.PhaseCompleted
		c.result = out.result
		c.errMsg = ""
		events = append(events, Event{
			SessionID:  session.ID,
			Type:       EventTypeResult,
			Status:     domain.StatusCompleted,
			Message:    out.result.Message(),
			Label:      out.result.Label,
			Confidence: out.result.Confidence,
		})
	} else {
		c.phase = domain.PhaseFailed
		c.result = nil
		c.errMsg = out.errMsg
		events = append(events,
			Event{SessionID: session.ID, Type: EventTypeError, Status: domain.StatusError, Message: out.errMsg},
			Event{SessionID: session.ID, Type: EventTypeNotice, Message: out.notice},
		)
	}
	c.mu.Unlock()

	switch {
	case out.result != nil && out.result.IsStopped():
		c.logger.Info("scan stopped", "session_id", session.ID)
	case out.result != nil:
		c.logger.Info("scan completed", "session_id", session.ID, "label", out.result.Label, "confidence", out.result.Confidence)
	default:
		c.logger.Warn("scan failed", "session_id", session.ID, "error", callErr)
	}
	c.publish(events...)
}

// publish records events and forwards them to the hook. Never call with c.mu held.
func (c *Controller) publish(events ...Event) {
	for _, event := range events {
		published := c.events.Publish(event)
		if c.onEvent != nil {
			c.onEvent(published)
		}
	}
}

func (c *Controller) releasePreviewLocked() {
	if c.file == nil || c.file.previewRef == "" || c.previews == nil {
		return
	}
	c.previews.Revoke(c.file.previewRef)
	c.file.previewRef = ""
}

func (c *Controller) statusLocked() domain.DisplayStatus {
	return domain.DeriveStatus(c.phase, c.result, c.errMsg)
}

func (c *Controller) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Status: c.statusLocked(),
		Phase:  c.phase,
		Error:  c.errMsg,
	}
	if c.file != nil {
		info := c.file.video.Info(c.file.previewRef)
		snap.File = &info
	}
	if c.result != nil {
		r := *c.result
		snap.Result = &r
		snap.Message = r.Message()
	}
	if c.active != nil {
		snap.SessionID = c.active.ID
		snap.CancelRequested = c.active.CancelRequested()
	}
	return snap
}

// serviceDetail picks the service-provided detail or the generic fallback.
func serviceDetail(err error) string {
	var svcErr *classifier.ServiceError
	if errors.As(err, &svcErr) && svcErr.Detail != "" {
		return svcErr.Detail
	}
	return MessageGenericError
}
