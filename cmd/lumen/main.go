package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/lumenshell/lumen/internal/app"
	"github.com/lumenshell/lumen/internal/build"
	"github.com/lumenshell/lumen/internal/cli/cmd"
	"github.com/lumenshell/lumen/internal/config"
	"github.com/lumenshell/lumen/internal/logging"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// initialURL holds the URL to open on startup (from the open command).
var initialURL string

func main() {
	// Run GUI mode for the open command
	if len(os.Args) > 1 && os.Args[1] == "open" {
		if len(os.Args) > 2 {
			initialURL = os.Args[2]
		}
		os.Args = os.Args[:1]
		os.Exit(runGUI())
		return
	}

	// Pass build info to CLI
	cmd.SetBuildInfo(build.Info{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	})

	// Default: run CLI (shows help if no subcommand)
	cmd.Execute()
}

func runGUI() int {
	// GTK requires the main loop to stay on the startup thread.
	runtime.LockOSThread()

	logger := logging.NewFromEnv()

	mgr, err := config.NewManager()
	if err != nil {
		logger.Error().Err(err).Msg("failed to create config manager")
		return 1
	}
	if err := mgr.Load(); err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return 1
	}
	cfg := mgr.Get()
	if initialURL != "" {
		cfg.Window.StartURL = normalizeURL(initialURL)
	}

	logger = logging.New(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: "15:04:05",
	})
	ctx := logging.WithContext(context.Background(), logger)

	shell, err := app.NewShell(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize shell")
		return 1
	}

	// Apply config file edits to the running shell: log level takes effect
	// immediately, window defaults on the next window.
	mgr.OnConfigChange(shell.ApplyConfig)
	if err := mgr.Watch(); err != nil {
		logger.Warn().Err(err).Msg("config watch unavailable")
	}

	return shell.Run(ctx, os.Args)
}

// normalizeURL adds a scheme to bare hostnames so WebKit accepts them.
func normalizeURL(raw string) string {
	for _, prefix := range []string{"http://", "https://", "file://", "about:"} {
		if len(raw) >= len(prefix) && raw[:len(prefix)] == prefix {
			return raw
		}
	}
	return fmt.Sprintf("https://%s", raw)
}
