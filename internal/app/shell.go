// Package app is the composition root: it wires the database, the
// appearance coordinator, the message router, and the GTK application
// together and owns their lifecycle. Nothing here is a package-level
// singleton; every collaborator is constructed once and passed down.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jwijenbergh/puregotk/v4/adw"
	"github.com/jwijenbergh/puregotk/v4/gio"
	"github.com/jwijenbergh/puregotk/v4/gtk"
	"github.com/rs/zerolog"

	"github.com/lumenshell/lumen/internal/app/handlers"
	"github.com/lumenshell/lumen/internal/appearance"
	"github.com/lumenshell/lumen/internal/config"
	"github.com/lumenshell/lumen/internal/db"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/ui/renderer"
	"github.com/lumenshell/lumen/internal/ui/theme"
	"github.com/lumenshell/lumen/internal/ui/window"
	"github.com/lumenshell/lumen/internal/webkit"
)

// Shell is the running desktop application.
type Shell struct {
	cfgMu  sync.RWMutex
	cfg    *config.Config
	logger zerolog.Logger

	database    *sql.DB
	coordinator *appearance.Coordinator
	observer    *theme.StyleObserver
	injector    *webkit.ContentInjector
	router      *webkit.MessageRouter
	registry    *window.Registry

	gtkApp *gtk.Application

	activateCb func(gio.Application)
	shutdownCb func(gio.Application)
}

// NewShell opens the database and builds the object graph. GTK-dependent
// pieces stay dormant until Run.
func NewShell(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Shell, error) {
	database, err := db.NewConnection(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Validation already accepted color_scheme, so this cannot fail; the
	// repository falls back to "system" on a zero value regardless.
	firstRunSource, _ := appearance.ParseThemeSource(cfg.Appearance.ColorScheme)

	registry := window.NewRegistry()
	observer := theme.NewStyleObserver(logger)
	coordinator := appearance.NewCoordinator(
		db.NewPreferenceRepository(database, firstRunSource),
		observer,
		registry,
		logger,
		appearance.WithStoreTimeout(cfg.Database.QueryTimeout),
	)

	s := &Shell{
		cfg:         cfg,
		logger:      logger.With().Str("component", "shell").Logger(),
		database:    database,
		coordinator: coordinator,
		observer:    observer,
		registry:    registry,
		router:      webkit.NewMessageRouter(logging.WithContext(ctx, logger)),
	}

	if err := handlers.RegisterAll(s.router, coordinator, db.NewSettingRepository(database), s); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("register bridge handlers: %w", err)
	}

	return s, nil
}

// Coordinator exposes the appearance coordinator, mainly for CLI commands.
func (s *Shell) Coordinator() *appearance.Coordinator {
	return s.coordinator
}

// ApplyConfig swaps the runtime configuration after a reload. The log level
// applies immediately, window defaults apply to windows opened afterwards,
// and storage settings keep their values until the next start. The
// appearance color_scheme stays a first-run fallback: a stored preference
// wins over it.
func (s *Shell) ApplyConfig(cfg *config.Config) {
	zerolog.SetGlobalLevel(logging.ParseLevel(cfg.Logging.Level))

	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	s.logger.Info().
		Str("log_level", cfg.Logging.Level).
		Str("start_url", cfg.Window.StartURL).
		Msg("configuration reloaded")
}

func (s *Shell) currentConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// Run starts the GTK application and blocks until it exits.
// Returns the process exit code.
func (s *Shell) Run(ctx context.Context, args []string) int {
	log := logging.FromContext(ctx)

	s.gtkApp = gtk.NewApplication(nil, gio.GApplicationFlagsNoneValue)
	if s.gtkApp == nil {
		log.Error().Msg("failed to create GTK application")
		return 1
	}
	defer s.gtkApp.Unref()

	s.activateCb = func(_ gio.Application) {
		s.onActivate(ctx)
	}
	s.gtkApp.ConnectActivate(&s.activateCb)

	s.shutdownCb = func(_ gio.Application) {
		s.onShutdown(ctx)
	}
	s.gtkApp.ConnectShutdown(&s.shutdownCb)

	log.Info().Msg("starting GTK main loop")
	return s.gtkApp.Run(len(args), args)
}

// onActivate runs on the GTK main loop when the application starts.
// Ordering matters: the coordinator must resolve the appearance state
// before the first window exists so it never paints in the wrong mode.
func (s *Shell) onActivate(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Debug().Msg("GTK application activated")

	adw.Init()
	s.observer.MarkReady()

	if err := s.coordinator.Initialize(ctx); err != nil {
		// Persistence trouble is not fatal; the coordinator already fell
		// back to following the system scheme.
		log.Warn().Err(err).Msg("appearance initialized without stored preference")
	}

	snap := s.coordinator.Snapshot()
	s.injector = webkit.NewContentInjector(snap.IsDarkMode)

	if _, err := s.OpenWindow(ctx, s.currentConfig().Window.StartURL); err != nil {
		log.Error().Err(err).Msg("failed to create initial window")
	}
}

// OpenWindow creates a new shell window and registers it for appearance
// broadcasts. Runs on the GTK main loop; script-message handlers land there
// too, so window.new requests from pages need no extra dispatching.
func (s *Shell) OpenWindow(ctx context.Context, url string) (uint64, error) {
	cfg := s.currentConfig()
	if url == "" {
		url = cfg.Window.StartURL
	}

	view, err := webkit.NewWebView(s.logger)
	if err != nil {
		return 0, fmt.Errorf("create webview: %w", err)
	}

	// Keep provisional guesses for late windows in step with reality.
	snap := s.coordinator.Snapshot()
	s.injector.SetPrefersDark(snap.IsDarkMode)

	// Match the pre-paint surface to the theme so dark pages never flash white.
	if snap.IsDarkMode {
		view.SetBackgroundColor(0.04, 0.04, 0.04, 1)
	} else {
		view.SetBackgroundColor(1, 1, 1, 1)
	}

	client := renderer.NewClient(view, s.injector, s.router, s.logger)
	if err := client.Attach(ctx); err != nil {
		view.Destroy()
		return 0, fmt.Errorf("attach renderer client: %w", err)
	}

	w, err := window.New(ctx, s.gtkApp, cfg, view, client)
	if err != nil {
		client.Detach()
		view.Destroy()
		return 0, fmt.Errorf("create window: %w", err)
	}

	w.OnClose = func() {
		s.registry.Remove(w.ID())
		client.Detach()
		view.Destroy()
		s.logger.Debug().Uint64("window_id", w.ID()).Int("remaining", s.registry.Len()).Msg("window removed")
	}

	s.registry.Add(w)
	w.Present()

	if err := view.LoadURI(ctx, url); err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("failed to load start URL")
	}

	// The page booted from the provisional guess; hand it the real state.
	if err := client.LoadAuthoritative(ctx, s.coordinator); err != nil {
		s.logger.Warn().Err(err).Msg("failed to deliver authoritative snapshot")
	}

	s.logger.Info().Uint64("window_id", w.ID()).Str("url", url).Msg("window opened")
	return w.ID(), nil
}

// onShutdown tears everything down when the GTK main loop exits.
func (s *Shell) onShutdown(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Debug().Msg("GTK application shutting down")

	s.coordinator.Close()

	if err := db.Close(s.database); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}
