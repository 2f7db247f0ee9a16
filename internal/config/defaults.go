package config

import "time"

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "", // resolved to the XDG data dir at load time
			QueryTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Appearance: AppearanceConfig{
			ColorScheme: "system",
		},
		Window: WindowConfig{
			DefaultWidth:  1280,
			DefaultHeight: 800,
			StartURL:      "about:blank",
		},
	}
}
