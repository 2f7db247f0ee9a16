package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenshell/lumen/internal/appearance"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "lumen-test.sqlite")
	database, err := NewConnection(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestPreferenceRepositoryFirstRunDefaultsToSystem(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t), appearance.SourceSystem)

	src, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, appearance.SourceSystem, src)
}

func TestPreferenceRepositoryFirstRunHonorsConfiguredFallback(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t), appearance.SourceDark)
	ctx := context.Background()

	src, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, appearance.SourceDark, src)

	// A stored preference wins over the configured fallback.
	require.NoError(t, repo.Set(ctx, appearance.SourceLight))
	src, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, appearance.SourceLight, src)
}

func TestPreferenceRepositoryRoundTrip(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t), appearance.SourceSystem)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, appearance.SourceDark))
	src, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, appearance.SourceDark, src)

	// Upsert overwrites rather than duplicating the singleton row.
	require.NoError(t, repo.Set(ctx, appearance.SourceLight))
	src, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, appearance.SourceLight, src)
}

func TestPreferenceRepositoryCorruptValueFallsBackToSystem(t *testing.T) {
	database := newTestDB(t)
	repo := NewPreferenceRepository(database, appearance.SourceSystem)
	ctx := context.Background()

	_, err := database.ExecContext(ctx,
		`INSERT INTO ui_preferences (id, theme_source, updated_at) VALUES (1, 'neon', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	src, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, appearance.SourceSystem, src)
}

func TestSettingRepositoryCRUD(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Get(ctx, "homepage")
	assert.ErrorIs(t, err, ErrSettingNotFound)

	created, err := repo.Put(ctx, "homepage", `"https://example.org"`)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "homepage", created.Key)
	assert.Equal(t, `"https://example.org"`, created.Value)

	updated, err := repo.Put(ctx, "homepage", `"https://example.com"`)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "upsert keeps the original id")
	assert.Equal(t, `"https://example.com"`, updated.Value)

	_, err = repo.Put(ctx, "zoom", `1.25`)
	require.NoError(t, err)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "homepage", all[0].Key)
	assert.Equal(t, "zoom", all[1].Key)

	require.NoError(t, repo.Delete(ctx, "zoom"))
	assert.ErrorIs(t, repo.Delete(ctx, "zoom"), ErrSettingNotFound)
}

func TestSettingRepositoryRejectsEmptyKey(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))

	_, err := repo.Put(context.Background(), "", "value")
	require.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lumen-test.sqlite")
	ctx := context.Background()

	database, err := NewConnection(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	// Reopening runs migrations again; already-applied versions are skipped.
	database, err = NewConnection(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	version, err := GetMigrationStatus(database)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}
