package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"violence-scanner/internal/config"
	"violence-scanner/internal/domain"
	"violence-scanner/internal/logging"
)

type commandContext struct {
	configFlag  *string
	serviceFlag *string

	settingsOnce sync.Once
	store        *config.TOMLStore
	settings     domain.Settings
	settingsErr  error
}

func newCommandContext(configFlag, serviceFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		serviceFlag: serviceFlag,
	}
}

// settingsStore returns the store for --config or the default location.
func (c *commandContext) settingsStore() *config.TOMLStore {
	if c.store != nil {
		return c.store
	}
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	if path == "" {
		path = config.DefaultPath()
	}
	c.store = config.NewTOMLStore(path)
	return c.store
}

// ensureSettings resolves settings once: file, then environment, then flag.
func (c *commandContext) ensureSettings() (domain.Settings, error) {
	c.settingsOnce.Do(func() {
		settings, err := config.Resolve(c.settingsStore())
		if err != nil {
			c.settingsErr = fmt.Errorf("load settings: %w", err)
			return
		}
		if c.serviceFlag != nil && strings.TrimSpace(*c.serviceFlag) != "" {
			settings.ServiceURL = strings.TrimRight(strings.TrimSpace(*c.serviceFlag), "/")
		}
		c.settings = settings
	})
	return c.settings, c.settingsErr
}

// logger writes to stderr so stdout stays parseable.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	settings, err := c.ensureSettings()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
