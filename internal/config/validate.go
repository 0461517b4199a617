package config

import (
	"fmt"
	"net/url"
	"strings"

	"violence-scanner/internal/domain"
)

var (
	knownLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	knownLogFormats = []string{"auto", "json", "console", "text"}
)

// Validate rejects settings a user is about to save that cannot be used.
// Empty fields are allowed; Normalize fills them with defaults.
func Validate(settings domain.Settings) error {
	if err := validateServiceURL(settings.ServiceURL); err != nil {
		return err
	}
	if settings.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative")
	}
	if level := normalizeKey(settings.LogLevel); level != "" && !isKnown(level, knownLogLevels) {
		return fmt.Errorf("log_level %q is not one of %s", settings.LogLevel, strings.Join(knownLogLevels, ", "))
	}
	if format := normalizeKey(settings.LogFormat); format != "" && !isKnown(format, knownLogFormats) {
		return fmt.Errorf("log_format %q is not one of %s", settings.LogFormat, strings.Join(knownLogFormats, ", "))
	}
	return nil
}

func validateServiceURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("service_url %q must be an http(s) URL", raw)
	}
	return nil
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isKnown(value string, known []string) bool {
	for _, candidate := range known {
		if value == candidate {
			return true
		}
	}
	return false
}
