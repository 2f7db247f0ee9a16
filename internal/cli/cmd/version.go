package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenshell/lumen/internal/build"
	"github.com/lumenshell/lumen/internal/cli/styles"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(_ *cobra.Command, _ []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	t := a.Theme

	row := func(icon, label, value string) string {
		return fmt.Sprintf("%s %s %s", t.Highlight.Render(icon), t.Subtitle.Render(label), t.Normal.Render(value))
	}

	fmt.Println(t.Title.Render("Lumen"))
	fmt.Println(row(styles.IconVersion, "version", a.BuildInfo.Version))
	fmt.Println(row(styles.IconGitBranch, "commit", a.BuildInfo.Commit))
	fmt.Println(row(styles.IconCalendar, "built", a.BuildInfo.BuildDate))
	fmt.Println(row(styles.IconGo, "go", a.BuildInfo.GoVersion))
	fmt.Println(t.Subtle.Render(build.RepoURL()))
	return nil
}
