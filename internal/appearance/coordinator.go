package appearance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// defaultStoreTimeout bounds preference store I/O so a wedged database
// cannot block the coordinator; a timeout counts as a persistence failure.
const defaultStoreTimeout = 2 * time.Second

// PreferenceStore persists the user's explicit theme choice.
type PreferenceStore interface {
	// Get returns the stored theme source, or SourceSystem on first run.
	Get(ctx context.Context) (ThemeSource, error)
	// Set persists the theme source.
	Set(ctx context.Context, src ThemeSource) error
}

// SystemObserver wraps the platform's native color scheme integration.
type SystemObserver interface {
	// PrefersDark returns the effective OS-level dark mode flag.
	PrefersDark() bool
	// SetFollowMode forces light/dark at the OS integration layer, or
	// resumes following the OS signal when src is SourceSystem.
	SetFollowMode(src ThemeSource)
	// OnChange registers a callback fired whenever the effective OS-level
	// mode changes (including as a side effect of SetFollowMode).
	// Returns an unregister function.
	OnChange(fn func(prefersDark bool)) func()
}

// Recipient is one broadcast target, typically an open window.
type Recipient interface {
	ID() uint64
	DeliverAppearance(snap Snapshot) error
}

// Registry enumerates the current broadcast recipients. The coordinator
// holds no ownership over them; it only iterates at broadcast time.
type Registry interface {
	Recipients() []Recipient
}

// Coordinator is the single authority for resolving, persisting, and
// broadcasting appearance state. Construct one per process and inject it
// wherever appearance state is needed; there is no package-level instance.
type Coordinator struct {
	store        PreferenceStore
	observer     SystemObserver
	registry     Registry
	logger       zerolog.Logger
	storeTimeout time.Duration

	// opMu serializes preference mutations so concurrent set calls are
	// processed one at a time in arrival order.
	opMu sync.Mutex

	// mu guards source. Kept separate from opMu because the observer may
	// fire its change notification synchronously from inside SetFollowMode.
	mu     sync.Mutex
	source ThemeSource

	unsubscribe func()
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithStoreTimeout overrides the preference store I/O timeout.
func WithStoreTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// NewCoordinator creates a coordinator. All collaborators are required.
func NewCoordinator(store PreferenceStore, observer SystemObserver, registry Registry, logger zerolog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:        store,
		observer:     observer,
		registry:     registry,
		logger:       logger.With().Str("component", "appearance").Logger(),
		storeTimeout: defaultStoreTimeout,
		source:       SourceSystem,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize loads the persisted preference and applies it to the OS
// integration layer. It must run before the first window paints so the
// window comes up in the right mode. A store read failure is non-fatal:
// the coordinator falls back to SourceSystem and the error is returned so
// the caller can log it, but startup continues.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var readErr error
	src := SourceSystem

	storeCtx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	stored, err := c.store.Get(storeCtx)
	cancel()
	if err != nil {
		readErr = &PersistError{Op: "read", Err: err}
		c.logger.Warn().Err(err).Msg("failed to read theme preference, falling back to system")
	} else if stored.Valid() {
		src = stored
	}

	c.setSource(src)
	c.observer.SetFollowMode(src)

	if c.unsubscribe == nil {
		c.unsubscribe = c.observer.OnChange(c.handleSystemChange)
	}

	c.logger.Info().
		Str("theme_source", src.String()).
		Bool("is_dark_mode", c.observer.PrefersDark()).
		Msg("appearance initialized")

	return readErr
}

// Close unregisters the OS change listener. Safe to call more than once.
func (c *Coordinator) Close() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Snapshot returns the current resolved appearance state. Pure read, no
// side effects, never fails.
func (c *Coordinator) Snapshot() Snapshot {
	return resolveSnapshot(c.currentSource(), c.observer.PrefersDark())
}

// SetThemeSource validates, persists, and applies a new preference, then
// broadcasts the resulting snapshot to every open window. The caller gets
// the snapshot back synchronously and also receives the broadcast like any
// other window, since several windows may race to change the preference.
//
// A persistence failure does not abort the in-memory apply or the
// broadcast: the session stays visually consistent and the error is
// returned alongside the snapshot (availability over durability).
//
// Every successful call broadcasts, including a repeat of the current
// value; identical consecutive snapshots are not deduplicated.
func (c *Coordinator) SetThemeSource(ctx context.Context, next ThemeSource) (Snapshot, error) {
	if !next.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidThemeSource, next)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	var persistErr error
	storeCtx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	if err := c.store.Set(storeCtx, next); err != nil {
		persistErr = &PersistError{Op: "write", Err: err}
		c.logger.Warn().Err(err).
			Str("theme_source", next.String()).
			Msg("failed to persist theme preference, applying in-memory only")
	}
	cancel()

	c.setSource(next)
	c.observer.SetFollowMode(next)

	snap := resolveSnapshot(next, c.observer.PrefersDark())
	c.broadcast(snap)

	return snap, persistErr
}

// handleSystemChange reacts to the OS-level color scheme flipping. It never
// touches the preference store: an OS-driven change only affects the
// effective mode while the preference is "system" and must not overwrite
// an explicit light/dark choice.
func (c *Coordinator) handleSystemChange(prefersDark bool) {
	snap := resolveSnapshot(c.currentSource(), prefersDark)
	c.logger.Debug().
		Bool("prefers_dark", prefersDark).
		Str("theme_source", snap.ThemeSource.String()).
		Msg("system color scheme changed")
	c.broadcast(snap)
}

// broadcast performs a best-effort multicast over a snapshot of the current
// recipients. A recipient that fails (for example a window torn down
// mid-iteration) is logged and skipped; failures never abort the remaining
// deliveries and never reach the caller. Returns the failure count.
func (c *Coordinator) broadcast(snap Snapshot) int {
	recipients := c.registry.Recipients()

	failed := 0
	for _, r := range recipients {
		if err := r.DeliverAppearance(snap); err != nil {
			failed++
			c.logger.Warn().Err(err).
				Uint64("recipient_id", r.ID()).
				Msg("appearance broadcast delivery failed")
		}
	}

	c.logger.Debug().
		Int("recipients", len(recipients)).
		Int("failed", failed).
		Str("theme_source", snap.ThemeSource.String()).
		Bool("is_dark_mode", snap.IsDarkMode).
		Msg("appearance broadcast complete")

	return failed
}

func (c *Coordinator) currentSource() ThemeSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *Coordinator) setSource(src ThemeSource) {
	c.mu.Lock()
	c.source = src
	c.mu.Unlock()
}
