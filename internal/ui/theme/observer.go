package theme

import (
	"sync"

	"github.com/jwijenbergh/puregotk/v4/adw"
	"github.com/jwijenbergh/puregotk/v4/gobject"
	"github.com/rs/zerolog"

	"github.com/lumenshell/lumen/internal/appearance"
)

// callbackWrapper wraps a callback to enable pointer comparison for removal.
type callbackWrapper struct {
	fn func(prefersDark bool)
}

// StyleObserver adapts libadwaita's StyleManager to the coordinator's
// system observer contract. Construction is GTK-free; call MarkReady once
// adw.Init() has run, before the coordinator starts using the observer.
// All GTK-touching methods run on the GTK main loop.
type StyleObserver struct {
	mu        sync.Mutex
	logger    zerolog.Logger
	detectors []Detector
	adwaita   *AdwaitaDetector
	callbacks []*callbackWrapper
	lastDark  bool
	connected bool

	// notifyCb is held for the lifetime of the observer so the GTK side
	// never calls back into a collected Go closure.
	notifyCb func(gobject.Object, uintptr)
}

// NewStyleObserver creates the observer and seeds the pre-GTK detector
// chain used as a fallback when the StyleManager is unavailable.
func NewStyleObserver(logger zerolog.Logger) *StyleObserver {
	adwaita := NewAdwaitaDetector()
	return &StyleObserver{
		logger:  logger.With().Str("component", "theme").Logger(),
		adwaita: adwaita,
		detectors: []Detector{
			adwaita,
			NewGsettingsDetector(),
			NewEnvDetector(),
		},
	}
}

// MarkReady promotes the StyleManager to the preferred detection source.
// Call after adw.Init().
func (o *StyleObserver) MarkReady() {
	o.adwaita.MarkAvailable()
}

// PrefersDark returns the effective OS-level dark mode flag.
func (o *StyleObserver) PrefersDark() bool {
	return DetectSystemDarkMode(o.detectors)
}

// SetFollowMode forces the libadwaita color scheme for explicit light/dark
// preferences, or resumes following the desktop setting for "system".
// The style manager fires its notify::dark signal synchronously when the
// effective mode flips as a result.
func (o *StyleObserver) SetFollowMode(src appearance.ThemeSource) {
	styleMgr := adw.StyleManagerGetDefault()
	if styleMgr == nil {
		o.logger.Warn().Msg("style manager unavailable, cannot apply color scheme")
		return
	}

	var scheme adw.ColorScheme
	switch src {
	case appearance.SourceLight:
		scheme = adw.ColorSchemeForceLightValue
	case appearance.SourceDark:
		scheme = adw.ColorSchemeForceDarkValue
	default:
		scheme = adw.ColorSchemeDefaultValue
	}

	o.logger.Debug().
		Str("theme_source", src.String()).
		Msg("applying color scheme to style manager")
	styleMgr.SetColorScheme(scheme)
}

// OnChange registers a callback fired when the effective dark flag changes.
// The underlying notify::dark signal is connected once, on first use.
func (o *StyleObserver) OnChange(fn func(prefersDark bool)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.connected {
		o.connectNotifyLocked()
	}

	wrapper := &callbackWrapper{fn: fn}
	o.callbacks = append(o.callbacks, wrapper)

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, cb := range o.callbacks {
			if cb == wrapper {
				o.callbacks = append(o.callbacks[:i], o.callbacks[i+1:]...)
				return
			}
		}
	}
}

// connectNotifyLocked wires the notify::dark signal. Caller holds o.mu.
func (o *StyleObserver) connectNotifyLocked() {
	styleMgr := adw.StyleManagerGetDefault()
	if styleMgr == nil {
		o.logger.Warn().Msg("style manager unavailable, system theme changes will not be observed")
		return
	}

	o.lastDark = styleMgr.GetDark()
	o.notifyCb = func(_ gobject.Object, _ uintptr) {
		o.handleDarkNotify()
	}
	styleMgr.ConnectNotifyWithDetail("dark", &o.notifyCb)
	o.connected = true
}

func (o *StyleObserver) handleDarkNotify() {
	styleMgr := adw.StyleManagerGetDefault()
	if styleMgr == nil {
		return
	}
	dark := styleMgr.GetDark()

	o.mu.Lock()
	if dark == o.lastDark {
		o.mu.Unlock()
		return
	}
	o.lastDark = dark
	callbacks := make([]*callbackWrapper, len(o.callbacks))
	copy(callbacks, o.callbacks)
	o.mu.Unlock()

	o.logger.Debug().Bool("prefers_dark", dark).Msg("effective dark mode changed")
	for _, cb := range callbacks {
		cb.fn(dark)
	}
}
