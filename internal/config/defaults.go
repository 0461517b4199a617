package config

import (
	"os"
	"path/filepath"
	"strings"

	"violence-scanner/internal/domain"
)

const (
	// DefaultServiceURL is the local fallback for the classification service.
	DefaultServiceURL = "http://localhost:8000"
	// ServiceURLEnv overrides the configured service address when set.
	ServiceURLEnv = "VSCAN_SERVICE_URL"

	defaultRequestTimeoutSeconds = 300
	defaultLogLevel              = "info"
	defaultLogFormat             = "auto"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		ServiceURL:            DefaultServiceURL,
		RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		LogLevel:              defaultLogLevel,
		LogFormat:             defaultLogFormat,
	}
}

// DefaultPath returns the settings file location under the user's home.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".violence-scanner", "settings.toml")
}

// Normalize trims user inputs and replaces empty or unknown fields with defaults.
func Normalize(settings domain.Settings) domain.Settings {
	settings.ServiceURL = strings.TrimRight(strings.TrimSpace(settings.ServiceURL), "/")
	settings.LogLevel = normalizeKey(settings.LogLevel)
	settings.LogFormat = normalizeKey(settings.LogFormat)

	if settings.ServiceURL == "" {
		settings.ServiceURL = DefaultServiceURL
	}
	if settings.RequestTimeoutSeconds <= 0 {
		settings.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	// Unknown values from a hand-edited file fall back rather than block startup.
	if !isKnown(settings.LogLevel, knownLogLevels) {
		settings.LogLevel = defaultLogLevel
	}
	if !isKnown(settings.LogFormat, knownLogFormats) {
		settings.LogFormat = defaultLogFormat
	}
	return settings
}

// ApplyEnv lets the externally supplied service address win over the file.
func ApplyEnv(settings domain.Settings, lookup func(string) (string, bool)) domain.Settings {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if value, ok := lookup(ServiceURLEnv); ok && strings.TrimSpace(value) != "" {
		settings.ServiceURL = strings.TrimRight(strings.TrimSpace(value), "/")
	}
	return settings
}
