// Package renderer connects a webview's page to the appearance coordinator:
// it injects the provisional state before first paint, pulls the
// authoritative snapshot once the page can receive it, and relays
// broadcasts for as long as the view is attached.
package renderer

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lumenshell/lumen/internal/appearance"
	"github.com/lumenshell/lumen/internal/webkit"
)

// SnapshotProvider is the read side of the coordinator the client needs.
type SnapshotProvider interface {
	Snapshot() appearance.Snapshot
}

// Client manages the appearance lifecycle of one webview.
type Client struct {
	view     *webkit.WebView
	injector *webkit.ContentInjector
	router   *webkit.MessageRouter
	logger   zerolog.Logger

	attached atomic.Bool
}

// NewClient creates a client for the given webview.
func NewClient(view *webkit.WebView, injector *webkit.ContentInjector, router *webkit.MessageRouter, logger zerolog.Logger) *Client {
	return &Client{
		view:     view,
		injector: injector,
		router:   router,
		logger:   logger.With().Str("component", "renderer-client").Uint64("webview_id", uint64(view.ID())).Logger(),
	}
}

// Attach injects the bootstrap scripts and wires the message router.
// Must run before the first page load: the page boots with the injected
// provisional guess until the authoritative snapshot arrives. Attaching an
// already attached client is a no-op.
func (c *Client) Attach(ctx context.Context) error {
	if !c.attached.CompareAndSwap(false, true) {
		return nil
	}

	ucm := c.view.UserContentManager()

	if c.router != nil {
		if _, err := c.router.SetupMessageHandler(ucm); err != nil {
			c.attached.Store(false)
			return fmt.Errorf("setup message router: %w", err)
		}
	}

	if c.injector != nil {
		c.injector.InjectScripts(ctx, ucm, c.view.ID())
	}

	c.logger.Debug().Msg("renderer client attached")
	return nil
}

// LoadAuthoritative replaces the page's provisional state with the
// coordinator's resolved snapshot.
func (c *Client) LoadAuthoritative(ctx context.Context, provider SnapshotProvider) error {
	if !c.attached.Load() {
		return fmt.Errorf("renderer client not attached")
	}
	return c.Deliver(ctx, provider.Snapshot())
}

// Deliver pushes a snapshot to the page. Snapshots are re-checked at the
// delivery boundary so a corrupted value can never cross into the page.
func (c *Client) Deliver(ctx context.Context, snap appearance.Snapshot) error {
	if !c.attached.Load() {
		return fmt.Errorf("renderer client detached")
	}
	if !snap.ThemeSource.Valid() {
		return fmt.Errorf("%w: %q", appearance.ErrInvalidThemeSource, snap.ThemeSource)
	}

	if err := c.view.DispatchCustomEvent(ctx, webkit.AppearanceChangedEvent, snap); err != nil {
		return fmt.Errorf("deliver appearance: %w", err)
	}

	c.logger.Debug().
		Str("theme_source", snap.ThemeSource.String()).
		Bool("is_dark_mode", snap.IsDarkMode).
		Msg("appearance delivered")
	return nil
}

// Detach stops deliveries. Safe to call more than once; deliveries after
// detach fail without touching the webview, which may already be gone.
func (c *Client) Detach() {
	if !c.attached.Swap(false) {
		return
	}
	c.logger.Debug().Msg("renderer client detached")
}
