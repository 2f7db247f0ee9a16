package config

import (
	"fmt"

	"github.com/lumenshell/lumen/internal/appearance"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks the configuration for values that would misbehave at
// runtime. It is called on every load and reload; a reload that fails
// validation keeps the previous configuration.
func (c *Config) Validate() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}

	if _, err := appearance.ParseThemeSource(c.Appearance.ColorScheme); err != nil {
		return fmt.Errorf("appearance.color_scheme: %w", err)
	}

	if c.Window.DefaultWidth <= 0 {
		return fmt.Errorf("window.default_width: must be positive, got %d", c.Window.DefaultWidth)
	}
	if c.Window.DefaultHeight <= 0 {
		return fmt.Errorf("window.default_height: must be positive, got %d", c.Window.DefaultHeight)
	}

	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout: must be positive, got %s", c.Database.QueryTimeout)
	}

	return nil
}
