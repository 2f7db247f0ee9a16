// Package webkit wraps the WebKitGTK webview with Go-level state tracking,
// script injection, and the JS bridge used by the shell UI.
package webkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bnema/puregotk-webkit/webkit"
	"github.com/jwijenbergh/puregotk/v4/gdk"
	"github.com/jwijenbergh/puregotk/v4/gio"
	"github.com/rs/zerolog"

	"github.com/lumenshell/lumen/internal/logging"
)

// WebViewID uniquely identifies a webview for the lifetime of the process.
type WebViewID uint64

// webViewRegistry tracks all active WebViews.
type webViewRegistry struct {
	views   map[WebViewID]*WebView
	byUCM   map[uintptr]WebViewID
	counter atomic.Uint64
	mu      sync.RWMutex
}

var globalRegistry = &webViewRegistry{
	views: make(map[WebViewID]*WebView),
	byUCM: make(map[uintptr]WebViewID),
}

func (r *webViewRegistry) register(wv *WebView) WebViewID {
	id := WebViewID(r.counter.Add(1))
	r.mu.Lock()
	r.views[id] = wv
	if wv.ucm != nil {
		r.byUCM[wv.ucm.GoPointer()] = id
	}
	r.mu.Unlock()
	return id
}

func (r *webViewRegistry) unregister(wv *WebView) {
	r.mu.Lock()
	delete(r.views, wv.id)
	if wv.ucm != nil {
		delete(r.byUCM, wv.ucm.GoPointer())
	}
	r.mu.Unlock()
}

func (r *webViewRegistry) lookup(id WebViewID) *WebView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.views[id]
}

func (r *webViewRegistry) lookupByUCM(ptr uintptr) *WebView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.views[r.byUCM[ptr]]
}

// LookupWebView returns a WebView by ID from the global registry.
func LookupWebView(id WebViewID) *WebView {
	return globalRegistry.lookup(id)
}

// WebView wraps webkit.WebView.
type WebView struct {
	id    WebViewID
	inner *webkit.WebView
	ucm   *webkit.UserContentManager

	destroyed atomic.Bool

	logger zerolog.Logger
	mu     sync.Mutex

	// asyncCallbacks keeps references to async JS callbacks to prevent GC
	asyncCallbacks []interface{}
}

// NewWebView creates a new WebView and registers it globally.
func NewWebView(logger zerolog.Logger) (*WebView, error) {
	inner := webkit.NewWebView()
	if inner == nil {
		return nil, fmt.Errorf("failed to create webkit webview")
	}

	wv := &WebView{
		inner:  inner,
		ucm:    inner.GetUserContentManager(),
		logger: logger.With().Str("component", "webview").Logger(),
	}

	wv.id = globalRegistry.register(wv)
	wv.logger.Debug().Uint64("id", uint64(wv.id)).Msg("webview created")

	return wv, nil
}

// ID returns the unique identifier for this WebView.
func (wv *WebView) ID() WebViewID {
	return wv.id
}

// UserContentManager returns the content manager associated with this WebView.
func (wv *WebView) UserContentManager() *webkit.UserContentManager {
	return wv.ucm
}

// Widget returns the underlying webkit.WebView for GTK embedding.
func (wv *WebView) Widget() *webkit.WebView {
	return wv.inner
}

// SetBackgroundColor paints the webview surface shown before content is
// rendered, eliminating the white flash on dark themes.
func (wv *WebView) SetBackgroundColor(r, g, b, a float32) {
	if wv.destroyed.Load() {
		return
	}
	wv.inner.SetBackgroundColor(&gdk.RGBA{Red: r, Green: g, Blue: b, Alpha: a})
}

// LoadURI loads the given URI.
func (wv *WebView) LoadURI(ctx context.Context, uri string) error {
	if wv.destroyed.Load() {
		return fmt.Errorf("webview %d is destroyed", wv.id)
	}
	wv.inner.LoadUri(uri)
	logging.FromContext(ctx).Debug().Str("uri", uri).Msg("loading URI")
	return nil
}

// IsDestroyed returns true if the WebView has been destroyed.
func (wv *WebView) IsDestroyed() bool {
	return wv.destroyed.Load()
}

// Destroy unregisters the WebView. GTK's reference counting releases the
// underlying widget when its parent window goes away.
func (wv *WebView) Destroy() {
	if wv.destroyed.Swap(true) {
		return
	}

	globalRegistry.unregister(wv)
	wv.logger.Debug().Uint64("id", uint64(wv.id)).Msg("webview destroyed")
}

// RunJavaScript executes script in the main world. This is fire-and-forget:
// it does not block and errors are logged asynchronously. Safe to call from
// GTK signal handlers.
func (wv *WebView) RunJavaScript(ctx context.Context, script string) {
	if wv.destroyed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log := logging.FromContext(ctx)

	cb := gio.AsyncReadyCallback(func(_ uintptr, resPtr uintptr, _ uintptr) {
		if resPtr == 0 {
			log.Warn().Uint64("webview_id", uint64(wv.id)).Msg("RunJavaScript: nil async result")
			return
		}

		res := &gio.AsyncResultBase{Ptr: resPtr}
		value, err := wv.inner.EvaluateJavascriptFinish(res)
		if err != nil {
			log.Warn().Err(err).Uint64("webview_id", uint64(wv.id)).Msg("RunJavaScript: failed")
			return
		}

		if value != nil {
			if jscCtx := value.GetContext(); jscCtx != nil {
				if exc := jscCtx.GetException(); exc != nil {
					log.Warn().
						Str("exception", exc.GetMessage()).
						Uint64("webview_id", uint64(wv.id)).
						Msg("RunJavaScript: JS exception")
				}
			}
		}
	})

	// prevent callback from being GC'd before it's called
	wv.mu.Lock()
	wv.asyncCallbacks = append(wv.asyncCallbacks, cb)
	wv.mu.Unlock()

	wv.inner.EvaluateJavascript(script, -1, nil, nil, nil, &cb, 0)
}

// DispatchCustomEvent serializes detail and fires a DOM CustomEvent on the
// page's document. Used for Go -> JS push notifications.
func (wv *WebView) DispatchCustomEvent(ctx context.Context, eventName string, detail any) error {
	if wv.destroyed.Load() {
		return fmt.Errorf("webview %d is destroyed", wv.id)
	}

	payload := "{}"
	if detail != nil {
		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to marshal event detail: %w", err)
		}
		payload = string(data)
	}

	script := fmt.Sprintf(
		`(function(){try{var detail=%s;document.dispatchEvent(new CustomEvent(%q,{detail:detail}));}catch(e){console.error('[lumen] Failed to dispatch %s', e);}})();`,
		payload, eventName, eventName,
	)
	wv.RunJavaScript(ctx, script)
	return nil
}
