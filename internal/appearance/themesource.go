// Package appearance coordinates the light/dark appearance state of the
// shell: it reconciles the persisted user preference with the system color
// scheme and fans the resolved state out to every open window.
package appearance

import (
	"fmt"
	"strings"
)

// ThemeSource is the user's declared theme preference.
// "system" means follow the operating system's color scheme.
type ThemeSource string

const (
	SourceSystem ThemeSource = "system"
	SourceLight  ThemeSource = "light"
	SourceDark   ThemeSource = "dark"
)

// ParseThemeSource normalizes and validates a raw theme source value.
// Anything outside the enumerated set is rejected with ErrInvalidThemeSource.
func ParseThemeSource(raw string) (ThemeSource, error) {
	src := ThemeSource(strings.ToLower(strings.TrimSpace(raw)))
	if !src.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidThemeSource, raw)
	}
	return src, nil
}

// Valid reports whether the value is one of system, light, dark.
func (s ThemeSource) Valid() bool {
	switch s {
	case SourceSystem, SourceLight, SourceDark:
		return true
	}
	return false
}

func (s ThemeSource) String() string {
	return string(s)
}
