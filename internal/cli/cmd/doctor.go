package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lumenshell/lumen/internal/cli"
	"github.com/lumenshell/lumen/internal/cli/styles"
	"github.com/lumenshell/lumen/internal/config"
	"github.com/lumenshell/lumen/internal/db"
	"github.com/lumenshell/lumen/internal/ui/theme"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check runtime requirements and diagnose issues",
	Long: `Doctor checks the prerequisites for running the GUI shell:

- Configuration loads and validates
- XDG directories exist and are writable
- The preferences database opens and is migrated
- A system color-scheme source is available

Examples:
  lumen doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("app not initialized")
	}

	// Checks are independent; run them concurrently and collect by index.
	checks := make([]styles.DoctorCheck, 4)
	var g errgroup.Group

	g.Go(func() error {
		checks[0] = checkConfig(a)
		return nil
	})
	g.Go(func() error {
		checks[1] = checkDirectories()
		return nil
	})
	g.Go(func() error {
		checks[2] = checkDatabase(a)
		return nil
	})
	g.Go(func() error {
		checks[3] = checkColorScheme()
		return nil
	})
	_ = g.Wait()

	report := styles.DoctorReport{OverallOK: true, Checks: checks}
	for _, c := range checks {
		if !c.OK {
			report.OverallOK = false
		}
	}

	renderer := styles.NewDoctorRenderer(a.Theme)
	fmt.Fprintln(cmd.OutOrStdout(), renderer.Render(report))

	if !report.OverallOK {
		return fmt.Errorf("some checks failed")
	}
	return nil
}

func checkConfig(a *cli.App) styles.DoctorCheck {
	check := styles.DoctorCheck{Name: "Configuration", Detail: a.Manager.GetConfigFile()}
	if err := a.Config.Validate(); err != nil {
		check.Error = err.Error()
		return check
	}
	check.OK = true
	return check
}

func checkDirectories() styles.DoctorCheck {
	check := styles.DoctorCheck{Name: "XDG directories"}
	if err := config.EnsureDirectories(); err != nil {
		check.Error = err.Error()
		return check
	}
	dataDir, err := config.GetDataDir()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	check.OK = true
	check.Detail = dataDir
	return check
}

func checkDatabase(a *cli.App) styles.DoctorCheck {
	check := styles.DoctorCheck{Name: "Database", Detail: a.Config.Database.Path}
	database, err := a.DB()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	version, err := db.GetMigrationStatus(database)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	check.OK = true
	check.Detail = fmt.Sprintf("%s (migration %d)", a.Config.Database.Path, version)
	return check
}

func checkColorScheme() styles.DoctorCheck {
	check := styles.DoctorCheck{Name: "System color scheme"}
	detectors := []theme.Detector{
		theme.NewGsettingsDetector(),
		theme.NewEnvDetector(),
	}
	for _, d := range detectors {
		if d.Available() {
			check.OK = true
			check.Detail = "via " + d.Name()
			return check
		}
	}
	check.OK = true
	check.Detail = "no source found, GUI falls back to libadwaita"
	return check
}
