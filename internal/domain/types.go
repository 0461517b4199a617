package domain

import (
	"fmt"
	"math"
	"strings"
)

// MaxUploadBytes is the largest video accepted for classification (10 MiB).
const MaxUploadBytes int64 = 10 << 20

// Phase tracks where the current scan session is in its lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseScanning  Phase = "scanning"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// DisplayStatus is the status shown to the user, derived from phase and outcome.
type DisplayStatus string

const (
	StatusReady     DisplayStatus = "ready"
	StatusScanning  DisplayStatus = "scanning"
	StatusCompleted DisplayStatus = "completed"
	StatusError     DisplayStatus = "error"
)

// DeriveStatus computes the display status. It is never cached.
func DeriveStatus(phase Phase, result *Result, errMsg string) DisplayStatus {
	switch {
	case phase == PhaseScanning:
		return StatusScanning
	case errMsg != "":
		return StatusError
	case result != nil:
		return StatusCompleted
	default:
		return StatusReady
	}
}

// Class labels returned by the classification service.
const (
	LabelViolence    = "VIOLENCE"
	LabelNonViolence = "NON_VIOLENCE"
	LabelStopped     = "PREDICTION STOPPED"
)

// Result is a classification outcome or the stopped sentinel.
type Result struct {
	Label          string  `json:"label"`
	Confidence     float64 `json:"confidence"`
	FramesAnalyzed int     `json:"framesAnalyzed,omitempty"`
}

// StoppedResult returns the sentinel recorded for a user-cancelled scan.
func StoppedResult() *Result {
	return &Result{Label: LabelStopped}
}

// IsStopped reports whether r is the stopped sentinel.
func (r *Result) IsStopped() bool {
	return r != nil && normalizeLabel(r.Label) == LabelStopped
}

// IsViolent reports whether the predicted class is violence.
func (r *Result) IsViolent() bool {
	return r != nil && normalizeLabel(r.Label) == LabelViolence
}

// ConfidencePercent rounds the confidence to a whole percentage.
func (r *Result) ConfidencePercent() int {
	if r == nil {
		return 0
	}
	return int(math.Round(r.Confidence * 100))
}

// Message renders the user-facing sentence for a result.
func (r *Result) Message() string {
	if r == nil {
		return ""
	}
	if r.IsStopped() {
		return "Prediction stopped: scan cancelled before completion."
	}
	if r.IsViolent() {
		return fmt.Sprintf("Violent content detected (confidence: %d%%)", r.ConfidencePercent())
	}
	return fmt.Sprintf("No violent activity detected (confidence: %d%%)", r.ConfidencePercent())
}

func normalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// FileInfo describes the selected file for presentation.
type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"previewUrl"`
}

// Snapshot is the read-only state exposed to the presentation layer.
type Snapshot struct {
	Status          DisplayStatus `json:"status"`
	Phase           Phase         `json:"phase"`
	File            *FileInfo     `json:"file,omitempty"`
	Result          *Result       `json:"result,omitempty"`
	Error           string        `json:"error,omitempty"`
	Message         string        `json:"message,omitempty"`
	SessionID       string        `json:"sessionId,omitempty"`
	CancelRequested bool          `json:"cancelRequested"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ServiceURL            string `toml:"service_url" json:"serviceUrl"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" json:"requestTimeoutSeconds"`
	LogLevel              string `toml:"log_level" json:"logLevel"`
	LogFormat             string `toml:"log_format" json:"logFormat"`
}
