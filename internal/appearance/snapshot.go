package appearance

// Snapshot is the resolved, broadcastable appearance state.
// IsDarkMode is always consistent with ThemeSource: an explicit light/dark
// preference forces the flag, while "system" mirrors the OS signal at the
// time the snapshot was built.
type Snapshot struct {
	ThemeSource ThemeSource `json:"themeSource"`
	IsDarkMode  bool        `json:"isDarkMode"`
}

// resolveSnapshot combines a preference with the live system signal.
func resolveSnapshot(src ThemeSource, systemDark bool) Snapshot {
	switch src {
	case SourceLight:
		return Snapshot{ThemeSource: SourceLight, IsDarkMode: false}
	case SourceDark:
		return Snapshot{ThemeSource: SourceDark, IsDarkMode: true}
	default:
		return Snapshot{ThemeSource: SourceSystem, IsDarkMode: systemDark}
	}
}
