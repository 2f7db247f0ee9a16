// Package theme integrates lumen with the desktop's color scheme: it
// detects the effective light/dark preference and pushes forced overrides
// back into libadwaita so native widgets and WebKit agree.
package theme

import (
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/jwijenbergh/puregotk/v4/adw"
)

// Detector probes one source of the system's color scheme preference.
type Detector interface {
	Name() string
	// Priority orders detectors; higher wins.
	Priority() int
	Available() bool
	// Detect returns the preference and whether this source could answer.
	Detect() (prefersDark, ok bool)
}

const (
	detectorNameAdwaita   = "libadwaita"
	detectorNameGsettings = "gsettings"
	detectorNameEnv       = "env"

	priorityAdwaita   = 100
	priorityGsettings = 10
	priorityEnv       = 1
)

// AdwaitaDetector reads libadwaita's StyleManager. This is the most
// accurate source once adw.Init() has run, as it reflects the same state
// WebKit uses for prefers-color-scheme.
type AdwaitaDetector struct {
	available atomic.Bool
}

// NewAdwaitaDetector creates a libadwaita-based detector. It stays
// unavailable until MarkAvailable() is called after adw.Init().
func NewAdwaitaDetector() *AdwaitaDetector {
	return &AdwaitaDetector{}
}

func (*AdwaitaDetector) Name() string  { return detectorNameAdwaita }
func (*AdwaitaDetector) Priority() int { return priorityAdwaita }

func (d *AdwaitaDetector) Available() bool {
	return d.available.Load()
}

// MarkAvailable should be called after adw.Init() completes.
func (d *AdwaitaDetector) MarkAvailable() {
	d.available.Store(true)
}

func (d *AdwaitaDetector) Detect() (prefersDark, ok bool) {
	if !d.Available() {
		return false, false
	}

	styleMgr := adw.StyleManagerGetDefault()
	if styleMgr == nil {
		return false, false
	}

	return styleMgr.GetDark(), true
}

// GsettingsDetector reads org.gnome.desktop.interface color-scheme.
// This is the most reliable method for GNOME-based desktops before GTK is
// initialized.
type GsettingsDetector struct{}

func NewGsettingsDetector() *GsettingsDetector {
	return &GsettingsDetector{}
}

func (*GsettingsDetector) Name() string  { return detectorNameGsettings }
func (*GsettingsDetector) Priority() int { return priorityGsettings }

func (*GsettingsDetector) Available() bool {
	_, err := exec.LookPath("gsettings")
	return err == nil
}

func (*GsettingsDetector) Detect() (prefersDark, ok bool) {
	cmd := exec.Command("gsettings", "get", "org.gnome.desktop.interface", "color-scheme")
	output, err := cmd.Output()
	if err != nil {
		return false, false
	}

	// Output is like "'prefer-dark'\n", strip quotes and whitespace
	result := strings.TrimSpace(string(output))
	result = strings.Trim(result, "'\"")

	switch result {
	case "prefer-dark":
		return true, true
	case "prefer-light":
		return false, true
	default:
		return false, false
	}
}

// EnvDetector inspects GTK_THEME as a coarse last-resort signal for users
// who force a theme by environment variable.
type EnvDetector struct{}

func NewEnvDetector() *EnvDetector {
	return &EnvDetector{}
}

func (*EnvDetector) Name() string  { return detectorNameEnv }
func (*EnvDetector) Priority() int { return priorityEnv }

func (*EnvDetector) Available() bool {
	return os.Getenv("GTK_THEME") != ""
}

func (*EnvDetector) Detect() (prefersDark, ok bool) {
	theme := os.Getenv("GTK_THEME")
	if theme == "" {
		return false, false
	}
	return strings.Contains(strings.ToLower(theme), "dark"), true
}

// DetectSystemDarkMode runs the detector chain in priority order and
// returns the first answer. Falls back to dark when nothing can answer:
// a wrong dark guess flashes dark on a light page, which is less jarring
// than white on a dark one, and the authoritative snapshot corrects it.
func DetectSystemDarkMode(detectors []Detector) bool {
	sorted := make([]Detector, len(detectors))
	copy(sorted, detectors)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Priority() > sorted[j-1].Priority(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	for _, d := range sorted {
		if !d.Available() {
			continue
		}
		if prefersDark, ok := d.Detect(); ok {
			return prefersDark
		}
	}

	return true
}
