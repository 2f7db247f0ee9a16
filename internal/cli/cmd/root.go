// Package cmd provides Cobra CLI commands for lumen.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenshell/lumen/internal/build"
	"github.com/lumenshell/lumen/internal/cli"
)

var (
	app       *cli.App
	buildInfo build.Info
	rootCmd   = &cobra.Command{
		Use:   "lumen",
		Short: "A minimal WebKit shell with native appearance integration",
		Long: `Lumen - a minimal GTK4/WebKitGTK shell.

Windows render web content through WebKitGTK while the shell keeps the
theme (system, light, dark) consistent across every window, the desktop
color scheme, and restarts.

Use 'lumen open' to launch the graphical shell, or explore the
subcommands for CLI-based operations like configuration inspection
and theme management.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip initialization for commands that don't need app context
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}

			var err error
			app, err = cli.NewApp()
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			app.BuildInfo = buildInfo
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				_ = app.Close()
			}
		},
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetApp returns the initialized app (for use by subcommands).
func GetApp() *cli.App {
	return app
}

// openCmd is a placeholder for help - actual execution is in main.go
var openCmd = &cobra.Command{
	Use:   "open [url]",
	Short: "Launch the graphical shell",
	Long: `Launch the GTK4 graphical shell.

If a URL is provided, the first window navigates to it. Otherwise, the
configured start page is opened.

Examples:
  lumen open                   # Open the configured start page
  lumen open example.com       # Open a window at the URL`,
	Run: func(_ *cobra.Command, _ []string) {
		// This is handled by main.go before cobra runs
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

// SetBuildInfo sets the build information (called from main.go before Execute).
func SetBuildInfo(info build.Info) {
	buildInfo = info
}
