package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// File permission constants
const (
	dirPerm  = 0755 // Standard directory permissions (rwxr-xr-x)
	filePerm = 0644 // Standard file permissions (rw-r--r--)
)

// Config represents the complete configuration for lumen.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database" toml:"database" json:"database"`
	Logging    LoggingConfig    `mapstructure:"logging" toml:"logging" json:"logging"`
	Appearance AppearanceConfig `mapstructure:"appearance" toml:"appearance" json:"appearance"`
	Window     WindowConfig     `mapstructure:"window" toml:"window" json:"window"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Path         string        `mapstructure:"path" toml:"path" json:"path"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" toml:"query_timeout" json:"query_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level" json:"level"`
	Format string `mapstructure:"format" toml:"format" json:"format"`
}

// AppearanceConfig holds the appearance preferences applied at startup.
// ColorScheme is only the bootstrap default; once the database holds a
// preference the stored value wins.
type AppearanceConfig struct {
	ColorScheme string `mapstructure:"color_scheme" toml:"color_scheme" json:"color_scheme"`
}

// WindowConfig holds window creation defaults.
type WindowConfig struct {
	DefaultWidth  int    `mapstructure:"default_width" toml:"default_width" json:"default_width"`
	DefaultHeight int    `mapstructure:"default_height" toml:"default_height" json:"default_height"`
	StartURL      string `mapstructure:"start_url" toml:"start_url" json:"start_url"`
}

// Manager handles configuration loading, watching, and reloading.
// Construct one in the composition root and pass it down; there is no
// package-level instance.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Current directory for development

	v.SetEnvPrefix("LUMEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"database.path":           "DATABASE_PATH",
		"database.query_timeout":  "DATABASE_QUERY_TIMEOUT",
		"logging.level":           "LOG_LEVEL",
		"logging.format":          "LOG_FORMAT",
		"appearance.color_scheme": "COLOR_SCHEME",
		"window.default_width":    "WINDOW_WIDTH",
		"window.default_height":   "WINDOW_HEIGHT",
		"window.start_url":        "START_URL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "LUMEN_"+env); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", env, err)
		}
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
	}, nil
}

// Load loads the configuration from file and environment variables.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// First run: write a default config file so users have
			// something to edit, then read it back so viper tracks it
			// for Watch and GetConfigFile.
			if err := m.createDefaultConfig(); err != nil {
				return fmt.Errorf("failed to create default config: %w", err)
			}
			if err := m.viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config, err := m.unmarshal()
	if err != nil {
		return err
	}

	m.config = config
	return nil
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

// Watch starts watching the config file for changes and reloads
// automatically via fsnotify.
func (m *Manager) Watch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return nil
	}

	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(_ fsnotify.Event) {
		if err := m.reload(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to reload config: %v\n", err)
			return
		}

		m.mu.RLock()
		config := m.config
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.RUnlock()

		for _, callback := range callbacks {
			callback(config)
		}
	})

	m.watching = true
	return nil
}

// OnConfigChange registers a callback invoked after a successful reload.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
}

// GetConfigFile returns the path to the configuration file being used.
func (m *Manager) GetConfigFile() string {
	return m.viper.ConfigFileUsed()
}

func (m *Manager) reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.viper.ReadInConfig(); err != nil {
		return err
	}

	config, err := m.unmarshal()
	if err != nil {
		return err
	}

	m.config = config
	return nil
}

// unmarshal decodes viper state into a validated Config. Must be called
// with the lock held.
func (m *Manager) unmarshal() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Database.Path == "" {
		dbPath, err := GetDatabaseFile()
		if err != nil {
			return nil, fmt.Errorf("failed to get database path: %w", err)
		}
		config.Database.Path = dbPath
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values in Viper.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	m.viper.SetDefault("database.query_timeout", defaults.Database.QueryTimeout)

	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)

	m.viper.SetDefault("appearance.color_scheme", defaults.Appearance.ColorScheme)

	m.viper.SetDefault("window.default_width", defaults.Window.DefaultWidth)
	m.viper.SetDefault("window.default_height", defaults.Window.DefaultHeight)
	m.viper.SetDefault("window.start_url", defaults.Window.StartURL)
}

// createDefaultConfig writes a default configuration file and its JSON
// schema next to it.
func (m *Manager) createDefaultConfig() error {
	configFile, err := GetConfigFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), dirPerm); err != nil {
		return err
	}

	configData, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(configFile, configData, filePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := GenerateSchemaFile(); err != nil {
		return err
	}

	return nil
}
