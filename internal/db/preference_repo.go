package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lumenshell/lumen/internal/appearance"
)

// PreferenceRepository persists the appearance preference in the singleton
// ui_preferences row. It implements appearance.PreferenceStore.
type PreferenceRepository struct {
	db       *sql.DB
	fallback appearance.ThemeSource
}

// NewPreferenceRepository creates a preference repository. The fallback,
// normally the config file's color_scheme, answers reads before any
// preference has been stored.
func NewPreferenceRepository(db *sql.DB, fallback appearance.ThemeSource) *PreferenceRepository {
	if !fallback.Valid() {
		fallback = appearance.SourceSystem
	}
	return &PreferenceRepository{db: db, fallback: fallback}
}

// Get returns the stored theme source. A missing row means first run and
// maps to the fallback rather than an error. A row holding a value outside
// the enumerated set (hand-edited database, downgrade) also maps to the
// fallback so startup never fails on bad preference data.
func (r *PreferenceRepository) Get(ctx context.Context) (appearance.ThemeSource, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT theme_source FROM ui_preferences WHERE id = 1`,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return r.fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("query theme preference: %w", err)
	}

	src, err := appearance.ParseThemeSource(raw)
	if err != nil {
		return r.fallback, nil
	}
	return src, nil
}

// Set upserts the theme source into the singleton row.
func (r *PreferenceRepository) Set(ctx context.Context, src appearance.ThemeSource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ui_preferences (id, theme_source, updated_at)
		 VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     theme_source = excluded.theme_source,
		     updated_at = excluded.updated_at`,
		src.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store theme preference: %w", err)
	}
	return nil
}
