package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSettingNotFound is returned when no setting exists for the given key.
var ErrSettingNotFound = errors.New("setting not found")

// Setting is one key/value entry in the settings table. Values are stored
// as JSON-encoded strings so the UI can round-trip arbitrary shapes.
type Setting struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SettingRepository provides CRUD access to the settings table.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a setting repository.
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// List returns all settings ordered by key.
func (r *SettingRepository) List(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, key, value, created_at, updated_at FROM settings ORDER BY key`,
	)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.ID, &s.Key, &s.Value, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}

// Get returns the setting for key, or ErrSettingNotFound.
func (r *SettingRepository) Get(ctx context.Context, key string) (Setting, error) {
	var s Setting
	err := r.db.QueryRowContext(ctx,
		`SELECT id, key, value, created_at, updated_at FROM settings WHERE key = ?`,
		key,
	).Scan(&s.ID, &s.Key, &s.Value, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, fmt.Errorf("%w: %q", ErrSettingNotFound, key)
	}
	if err != nil {
		return Setting{}, fmt.Errorf("query setting %q: %w", key, err)
	}
	return s, nil
}

// Put creates or updates the setting for key and returns the stored row.
func (r *SettingRepository) Put(ctx context.Context, key, value string) (Setting, error) {
	if key == "" {
		return Setting{}, fmt.Errorf("setting key cannot be empty")
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, key, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		     value = excluded.value,
		     updated_at = excluded.updated_at`,
		uuid.NewString(), key, value, now, now,
	)
	if err != nil {
		return Setting{}, fmt.Errorf("store setting %q: %w", key, err)
	}

	return r.Get(ctx, key)
}

// Delete removes the setting for key. Deleting a missing key returns
// ErrSettingNotFound.
func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrSettingNotFound, key)
	}
	return nil
}
