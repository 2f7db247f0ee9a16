package config

import (
	"os"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "system", cfg.Appearance.ColorScheme)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "bad color scheme",
			mutate:  func(c *Config) { c.Appearance.ColorScheme = "midnight" },
			wantErr: "appearance.color_scheme",
		},
		{
			name:   "color scheme normalization accepted",
			mutate: func(c *Config) { c.Appearance.ColorScheme = "  Dark " },
		},
		{
			name:    "zero width",
			mutate:  func(c *Config) { c.Window.DefaultWidth = 0 },
			wantErr: "window.default_width",
		},
		{
			name:    "negative height",
			mutate:  func(c *Config) { c.Window.DefaultHeight = -1 },
			wantErr: "window.default_height",
		},
		{
			name:    "zero query timeout",
			mutate:  func(c *Config) { c.Database.QueryTimeout = 0 },
			wantErr: "database.query_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestManagerLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	t.Setenv("ENV", "")
	t.Setenv("LUMEN_LOG_LEVEL", "debug")
	t.Setenv("LUMEN_COLOR_SCHEME", "dark")

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "dark", cfg.Appearance.ColorScheme)
	assert.NotEmpty(t, cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
}

func TestManagerLoadWritesDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	t.Setenv("ENV", "")

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	configFile, err := GetConfigFile()
	require.NoError(t, err)
	assert.FileExists(t, configFile)

	// The freshly written file is tracked so Watch has a target.
	assert.Equal(t, configFile, m.GetConfigFile())
}

func TestManagerWatchNotifiesOnConfigChange(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	t.Setenv("ENV", "")

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	changed := make(chan *Config, 1)
	m.OnConfigChange(func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})
	require.NoError(t, m.Watch())

	cfg := m.Get()
	cfg.Window.StartURL = "https://example.org"
	data, err := toml.Marshal(cfg)
	require.NoError(t, err)

	configFile := m.GetConfigFile()
	require.NotEmpty(t, configFile)
	require.NoError(t, os.WriteFile(configFile, data, 0o644))

	select {
	case got := <-changed:
		assert.Equal(t, "https://example.org", got.Window.StartURL)
		assert.Equal(t, "https://example.org", m.Get().Window.StartURL)
	case <-time.After(5 * time.Second):
		t.Fatal("config change callback was not invoked")
	}
}
