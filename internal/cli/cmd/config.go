package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/lumenshell/lumen/internal/cli/styles"
	"github.com/lumenshell/lumen/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Inspect the resolved configuration and its file locations.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Long:  `Print the effective configuration after defaults, file, and environment overrides.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file locations",
	RunE:  runConfigPath,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Regenerate the JSON schema next to the config file",
	RunE:  runConfigSchema,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSchemaCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("app not initialized")
	}

	data, err := toml.Marshal(a.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	fmt.Println(a.Theme.Subtle.Render("# " + a.Manager.GetConfigFile()))
	fmt.Print(string(data))
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	t := a.Theme

	dataDir, err := config.GetDataDir()
	if err != nil {
		return err
	}
	logDir, err := config.GetLogDir()
	if err != nil {
		return err
	}

	row := func(icon, label, value string) string {
		return fmt.Sprintf("%s %s %s", t.Highlight.Render(icon), t.Subtitle.Render(label), t.Normal.Render(value))
	}

	fmt.Println(row(styles.IconConfig, "config", a.Manager.GetConfigFile()))
	fmt.Println(row(styles.IconDatabase, "database", a.Config.Database.Path))
	fmt.Println(row(styles.IconFolder, "data", dataDir))
	fmt.Println(row(styles.IconFolder, "logs", logDir))
	return nil
}

func runConfigSchema(_ *cobra.Command, _ []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("app not initialized")
	}

	if err := config.GenerateSchemaFile(); err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	configDir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(a.Theme.SuccessStyle.Render(styles.IconCheck) + " schema written to " + configDir)
	return nil
}
