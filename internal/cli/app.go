// Package cli provides the shared context for CLI commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lumenshell/lumen/internal/build"
	"github.com/lumenshell/lumen/internal/cli/styles"
	"github.com/lumenshell/lumen/internal/config"
	"github.com/lumenshell/lumen/internal/db"
	"github.com/lumenshell/lumen/internal/logging"
)

// App holds CLI dependencies. The database is opened lazily so commands
// that never touch it (config path, version) stay cheap.
type App struct {
	Config    *config.Config
	Manager   *config.Manager
	Theme     *styles.Theme
	BuildInfo build.Info

	database *sql.DB
	ctx      context.Context
}

// NewApp loads configuration and builds the CLI context.
func NewApp() (*App, error) {
	mgr, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("create config manager: %w", err)
	}
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Get()

	logger := logging.New(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: "15:04:05",
	})

	return &App{
		Config:  cfg,
		Manager: mgr,
		Theme:   styles.NewTheme(styles.DefaultPalette()),
		ctx:     logging.WithContext(context.Background(), logger),
	}, nil
}

// Ctx returns the application context carrying the logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// DB opens the database on first use and reuses it afterwards.
func (a *App) DB() (*sql.DB, error) {
	if a.database != nil {
		return a.database, nil
	}
	database, err := db.NewConnection(a.ctx, a.Config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.database = database
	return a.database, nil
}

// Close releases all resources.
func (a *App) Close() error {
	if a.database != nil {
		return db.Close(a.database)
	}
	return nil
}
