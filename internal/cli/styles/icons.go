// Package styles provides reusable lipgloss-based CLI components.
package styles

// Nerd Font icons (requires a Nerd Font to display correctly)
const (
	IconGlobe     = "" //  browser/web
	IconVersion   = "" //  tag
	IconGitBranch = "" //  git branch
	IconCalendar  = "" //  calendar
	IconGo        = "" //  go gopher

	// Doctor / diagnostics
	IconDoctor  = "" // stethoscope
	IconCheck   = "" // check
	IconX       = "" // x
	IconWarning = "" // warning
	IconInfo    = "" // info

	// Filesystem / storage
	IconFolder   = "" // folder
	IconConfig   = "" // config
	IconDatabase = "" // database

	// Appearance
	IconSun  = "" // sun (light)
	IconMoon = "" // moon (dark)
)
