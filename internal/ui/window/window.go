// Package window provides the GTK application windows hosting webviews.
package window

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwijenbergh/puregotk/v4/gtk"
	"github.com/rs/zerolog"

	"github.com/lumenshell/lumen/internal/appearance"
	"github.com/lumenshell/lumen/internal/config"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/ui/renderer"
	"github.com/lumenshell/lumen/internal/webkit"
)

const windowTitle = "Lumen"

// ErrWindowCreationFailed indicates GTK could not create the window.
var ErrWindowCreationFailed = errors.New("failed to create application window")

// Window is one shell window: a GTK ApplicationWindow wrapping a webview.
// It receives appearance broadcasts through its renderer client.
type Window struct {
	window  *gtk.ApplicationWindow
	rootBox *gtk.Box
	view    *webkit.WebView
	client  *renderer.Client

	logger zerolog.Logger

	// OnClose is invoked when the user closes the window.
	OnClose func()

	closeCb func(gtk.Window) bool
}

// New creates a shell window hosting view. The webview must already have
// its renderer client attached so the page boots with the provisional
// appearance state.
func New(ctx context.Context, app *gtk.Application, cfg *config.Config, view *webkit.WebView, client *renderer.Client) (*Window, error) {
	log := logging.FromContext(ctx)

	w := &Window{
		view:   view,
		client: client,
		logger: log.With().Str("component", "window").Uint64("window_id", uint64(view.ID())).Logger(),
	}

	w.window = gtk.NewApplicationWindow(app)
	if w.window == nil {
		return nil, ErrWindowCreationFailed
	}

	title := windowTitle
	w.window.SetTitle(&title)
	w.window.SetDefaultSize(cfg.Window.DefaultWidth, cfg.Window.DefaultHeight)

	w.rootBox = gtk.NewBox(gtk.OrientationVerticalValue, 0)
	if w.rootBox == nil {
		w.window.Unref()
		return nil, fmt.Errorf("failed to create window root box")
	}
	w.rootBox.SetHexpand(true)
	w.rootBox.SetVexpand(true)
	w.rootBox.SetVisible(true)

	webviewWidget := &view.Widget().Widget
	webviewWidget.SetHexpand(true)
	webviewWidget.SetVexpand(true)
	w.rootBox.Append(webviewWidget)

	w.window.SetChild(&w.rootBox.Widget)

	w.closeCb = func(_ gtk.Window) bool {
		w.logger.Debug().Msg("window close requested")
		if w.OnClose != nil {
			w.OnClose()
		}
		return false // allow default close handling
	}
	w.window.ConnectCloseRequest(&w.closeCb)

	return w, nil
}

// ID returns the window's identity, shared with its webview.
func (w *Window) ID() uint64 {
	return uint64(w.view.ID())
}

// DeliverAppearance implements appearance.Recipient by relaying the
// snapshot through the renderer client.
func (w *Window) DeliverAppearance(snap appearance.Snapshot) error {
	return w.client.Deliver(context.Background(), snap)
}

// WebView returns the hosted webview.
func (w *Window) WebView() *webkit.WebView {
	return w.view
}

// Client returns the renderer client bound to this window.
func (w *Window) Client() *renderer.Client {
	return w.client
}

// Present shows the window.
func (w *Window) Present() {
	w.window.Present()
}

// Close tears the window down: the client detaches first so in-flight
// broadcasts fail cleanly instead of touching a dying webview.
func (w *Window) Close() {
	w.client.Detach()
	w.view.Destroy()
	w.window.Close()
	w.logger.Debug().Msg("window closed")
}
