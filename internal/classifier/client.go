package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	retry "github.com/sethvargo/go-retry"

	"violence-scanner/internal/domain"
	"violence-scanner/internal/logging"
)

const defaultContentType = "video/mp4"

// maxResponseBytes caps how much of a reply is read; replies are small JSON documents.
const maxResponseBytes = 1 << 20

var probeRetryDelay = 200 * time.Millisecond

// ServiceError is a failure reported by the classification service.
type ServiceError struct {
	StatusCode int
	Detail     string
}

// Error formats service failures for logs.
func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return fmt.Sprintf("classification service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("classification service returned status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to the remote classification service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.OrDefault(logger).With("component", "classifier"),
	}
}

// BaseURL returns the service root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type predictionResponse struct {
	PredictedClass json.RawMessage `json:"predicted_class"`
	Confidence     float64         `json:"confidence"`
	FramesAnalyzed int             `json:"frames_analyzed"`
	Error          string          `json:"error"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Classify uploads the video and returns the predicted class. Cancelling ctx
// aborts the request.
func (c *Client) Classify(ctx context.Context, video domain.Video) (domain.Result, error) {
	body, contentType, err := buildUploadBody(video)
	if err != nil {
		return domain.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return domain.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	c.logger.Debug("uploading video", "name", video.Name, "size", video.Size)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Result{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Result{}, parseServiceError(resp.StatusCode, payload)
	}

	var parsed predictionResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return domain.Result{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Error != "" {
		return domain.Result{}, &ServiceError{StatusCode: resp.StatusCode, Detail: parsed.Error}
	}

	label, err := NormalizeClass(parsed.PredictedClass)
	if err != nil {
		return domain.Result{}, err
	}

	c.logger.Debug("classification finished",
		"label", label,
		"confidence", parsed.Confidence,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return domain.Result{
		Label:          label,
		Confidence:     parsed.Confidence,
		FramesAnalyzed: parsed.FramesAnalyzed,
	}, nil
}

// Health checks the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ServiceError{StatusCode: resp.StatusCode}
	}

	var health healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode health response: %w", err)
	}
	if !strings.EqualFold(health.Status, "healthy") {
		return fmt.Errorf("service reported status %q", health.Status)
	}
	return nil
}

// Probe runs a short health check against the service at baseURL, retrying
// transport errors and 5xx replies a couple of times.
func Probe(ctx context.Context, baseURL string) error {
	client := NewClient(baseURL, 5*time.Second, logging.Discard())
	backoff := retry.WithMaxRetries(2, retry.NewConstant(probeRetryDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := client.Health(ctx)
		var svcErr *ServiceError
		if err != nil && (!errors.As(err, &svcErr) || svcErr.StatusCode >= http.StatusInternalServerError) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// buildUploadBody encodes the video as the "file" field of a multipart form.
func buildUploadBody(video domain.Video) (*bytes.Buffer, string, error) {
	if video.Source == nil {
		return nil, "", fmt.Errorf("video %q has no source", video.Name)
	}

	src, err := video.Source.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open video: %w", err)
	}
	defer src.Close()

	contentType := strings.TrimSpace(video.ContentType)
	if !strings.HasPrefix(contentType, "video/") {
		contentType = defaultContentType
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, video.Name))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("read video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}

// parseServiceError extracts the human-readable detail when the body has one.
func parseServiceError(status int, payload []byte) error {
	svcErr := &ServiceError{StatusCode: status}

	var parsed errorResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return svcErr
	}

	var detail string
	if len(parsed.Detail) > 0 && json.Unmarshal(parsed.Detail, &detail) == nil {
		svcErr.Detail = strings.TrimSpace(detail)
	} else if parsed.Error != "" {
		svcErr.Detail = strings.TrimSpace(parsed.Error)
	}
	return svcErr
}

// NormalizeClass maps a numeric or named predicted class to a canonical label.
func NormalizeClass(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("response is missing predicted_class")
	}

	var index int
	if err := json.Unmarshal(raw, &index); err == nil {
		switch index {
		case 0:
			return domain.LabelNonViolence, nil
		case 1:
			return domain.LabelViolence, nil
		default:
			return "", fmt.Errorf("unknown predicted_class index %d", index)
		}
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", fmt.Errorf("unsupported predicted_class %s", string(raw))
	}

	normalized := strings.ToUpper(strings.TrimSpace(name))
	switch strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized) {
	case "VIOLENCE", "1":
		return domain.LabelViolence, nil
	case "NONVIOLENCE", "NOVIOLENCE", "0":
		return domain.LabelNonViolence, nil
	}
	if _, err := strconv.Atoi(normalized); err == nil {
		return "", fmt.Errorf("unknown predicted_class %q", name)
	}
	return normalized, nil
}
