package webkit

import (
	"context"
	"fmt"

	"github.com/bnema/puregotk-webkit/webkit"

	"github.com/lumenshell/lumen/internal/logging"
)

// AppearanceChangedEvent is the push channel for appearance broadcasts.
const AppearanceChangedEvent = "lumen:appearance-changed"

// bridgeBootstrapScript installs window.lumen, the promise-based RPC bridge.
// Requests go out through webkit.messageHandlers.lumen.postMessage; replies
// and pushes come back as CustomEvents on document.
//
// Incoming appearance payloads are validated before they reach page
// callbacks: a malformed detail is dropped and the previously applied state
// is kept, so a buggy broadcast can never blank the UI.
const bridgeBootstrapScript = `(function() {
  if (window.lumen) { return; }

  var pending = {};
  var seq = 0;
  var appearanceListeners = [];
  var provisionalDark = window.__lumen_prefers_dark || false;
  var lastAppearance = {
    themeSource: 'system',
    isDarkMode: provisionalDark,
    provisional: true
  };

  function applyAppearance(snap) {
    lastAppearance = {
      themeSource: snap.themeSource,
      isDarkMode: snap.isDarkMode,
      provisional: !!snap.provisional
    };
    if (snap.isDarkMode) {
      document.documentElement.classList.add('dark');
      document.documentElement.classList.remove('light');
    } else {
      document.documentElement.classList.add('light');
      document.documentElement.classList.remove('dark');
    }
    document.documentElement.style.colorScheme = snap.isDarkMode ? 'dark' : 'light';
  }

  function validAppearance(detail) {
    return !!detail &&
      ['system', 'light', 'dark'].indexOf(detail.themeSource) !== -1 &&
      typeof detail.isDarkMode === 'boolean';
  }

  function request(type, payload) {
    return new Promise(function(resolve, reject) {
      var requestId = 'rpc-' + (++seq) + '-' + Date.now();
      pending[requestId] = { resolve: resolve, reject: reject };
      try {
        window.webkit.messageHandlers.lumen.postMessage({
          type: type,
          requestId: requestId,
          payload: payload || {},
          webviewId: window.__lumen_webview_id || 0
        });
      } catch (e) {
        delete pending[requestId];
        reject(e);
      }
    });
  }

  document.addEventListener('lumen:rpc-response', function(ev) {
    var detail = ev.detail;
    if (!detail || !detail.requestId) { return; }
    var entry = pending[detail.requestId];
    if (!entry) { return; }
    delete pending[detail.requestId];
    if (detail.ok) {
      entry.resolve(detail.result);
    } else {
      var err = new Error(detail.error ? detail.error.message : 'request failed');
      err.code = detail.error ? detail.error.code : 'internal_error';
      entry.reject(err);
    }
  });

  document.addEventListener('lumen:appearance-changed', function(ev) {
    var detail = ev.detail;
    if (!validAppearance(detail)) {
      console.warn('[lumen] dropping malformed appearance payload', detail);
      return;
    }
    applyAppearance(detail);
    for (var i = 0; i < appearanceListeners.length; i++) {
      try { appearanceListeners[i](lastAppearance); } catch (e) {
        console.error('[lumen] appearance listener failed', e);
      }
    }
  });

  // Apply the provisional guess immediately so the first paint is close,
  // then let the authoritative snapshot correct it.
  applyAppearance(lastAppearance);

  window.lumen = {
    appearance: {
      getSnapshot: function() { return request('appearance.getSnapshot'); },
      setThemeSource: function(themeSource) {
        return request('appearance.setThemeSource', { themeSource: themeSource });
      },
      current: function() { return lastAppearance; },
      subscribe: function(fn) {
        if (typeof fn !== 'function') { return function() {}; }
        appearanceListeners.push(fn);
        return function() {
          var idx = appearanceListeners.indexOf(fn);
          if (idx !== -1) { appearanceListeners.splice(idx, 1); }
        };
      }
    },
    settings: {
      list: function() { return request('settings.list'); },
      get: function(key) { return request('settings.get', { key: key }); },
      put: function(key, value) { return request('settings.put', { key: key, value: value }); },
      remove: function(key) { return request('settings.delete', { key: key }); }
    },
    window: {
      open: function(url) { return request('window.new', { url: url }); }
    }
  };
})();`

// ContentInjector installs the document-start scripts every shell page
// needs: the provisional dark flag, the webview id, and the RPC bridge.
type ContentInjector struct {
	prefersDark bool
}

// NewContentInjector creates an injector seeded with the provisional dark
// guess detected before any window exists.
func NewContentInjector(prefersDark bool) *ContentInjector {
	return &ContentInjector{prefersDark: prefersDark}
}

// PrefersDark returns the provisional dark mode guess.
func (ci *ContentInjector) PrefersDark() bool {
	return ci.prefersDark
}

// SetPrefersDark updates the provisional guess used for webviews created
// after the coordinator has resolved the real state.
func (ci *ContentInjector) SetPrefersDark(prefersDark bool) {
	ci.prefersDark = prefersDark
}

// InjectScripts adds the document-start scripts to the content manager.
// Must run before the first page load so the provisional state is available
// at first paint.
func (ci *ContentInjector) InjectScripts(ctx context.Context, ucm *webkit.UserContentManager, webviewID WebViewID) {
	log := logging.FromContext(ctx).With().Str("component", "content-injector").Logger()

	if ucm == nil {
		log.Warn().Msg("cannot inject scripts: user content manager is nil")
		return
	}

	addScript := func(source, label string) {
		script := webkit.NewUserScript(
			source,
			webkit.UserContentInjectTopFrameValue,
			webkit.UserScriptInjectAtDocumentStartValue,
			nil,
			nil,
		)
		if script == nil {
			log.Warn().Str("script", label).Msg("failed to create user script")
			return
		}
		ucm.AddScript(script)
		log.Debug().Str("script", label).Msg("injected user script")
	}

	addScript(fmt.Sprintf("window.__lumen_prefers_dark=%t;", ci.prefersDark), "prefers-dark")

	if webviewID != 0 {
		addScript(fmt.Sprintf("window.__lumen_webview_id=%d;", uint64(webviewID)), "webview-id")
	}

	addScript(bridgeBootstrapScript, "bridge-bootstrap")

	log.Debug().Bool("prefers_dark", ci.prefersDark).Msg("scripts injected")
}
