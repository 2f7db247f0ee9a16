package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenshell/lumen/internal/appearance"
	"github.com/lumenshell/lumen/internal/cli/styles"
	"github.com/lumenshell/lumen/internal/db"
	"github.com/lumenshell/lumen/internal/ui/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the theme preference",
	Long: `Show the stored theme preference and the detected system scheme.

The stored preference takes effect the next time the shell reads it; a
running shell picks it up on restart.`,
	RunE: runThemeShow,
}

var themeSetCmd = &cobra.Command{
	Use:   "set <system|light|dark>",
	Short: "Persist a theme preference",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemeSet,
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeSetCmd)
}

func runThemeShow(_ *cobra.Command, _ []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	t := a.Theme

	database, err := a.DB()
	if err != nil {
		return err
	}

	fallback, _ := appearance.ParseThemeSource(a.Config.Appearance.ColorScheme)
	source, err := db.NewPreferenceRepository(database, fallback).Get(a.Ctx())
	if err != nil {
		return fmt.Errorf("read theme preference: %w", err)
	}

	prefersDark := theme.DetectSystemDarkMode([]theme.Detector{
		theme.NewGsettingsDetector(),
		theme.NewEnvDetector(),
	})
	systemIcon := styles.IconSun
	systemLabel := "light"
	if prefersDark {
		systemIcon = styles.IconMoon
		systemLabel = "dark"
	}

	fmt.Printf("%s %s %s\n", t.Highlight.Render(styles.IconConfig), t.Subtitle.Render("preference"), t.Normal.Render(string(source)))
	fmt.Printf("%s %s %s\n", t.Highlight.Render(systemIcon), t.Subtitle.Render("system"), t.Normal.Render(systemLabel))
	return nil
}

func runThemeSet(_ *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("app not initialized")
	}

	source, err := appearance.ParseThemeSource(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("invalid theme source %q, want system, light, or dark", args[0])
	}

	database, err := a.DB()
	if err != nil {
		return err
	}
	if err := db.NewPreferenceRepository(database, appearance.SourceSystem).Set(a.Ctx(), source); err != nil {
		return fmt.Errorf("persist theme preference: %w", err)
	}

	fmt.Println(a.Theme.SuccessStyle.Render(styles.IconCheck) + " theme preference set to " + string(source))
	return nil
}
