package profiles

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/common"
	offlinedb "github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/db"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := offlinedb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestUpsert_CreatesThenPatches(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	created, err := r.Upsert(ctx, "anon_1", models.UpsertProfileInput{
		DisplayName: strPtr("Pastor Kim"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pastor Kim", created.DisplayName)
	assert.Equal(t, int64(0), created.Version)
	assert.True(t, created.Dirty)

	updated, err := r.Upsert(ctx, "anon_1", models.UpsertProfileInput{
		Church: strPtr("First Baptist"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pastor Kim", updated.DisplayName) // untouched
	assert.Equal(t, "First Baptist", updated.Church)
	assert.Equal(t, int64(1), updated.Version)
}

func TestGet_MissingIsNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "nobody")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestMarkSynced_ClearsDirty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Upsert(ctx, "anon_1", models.UpsertProfileInput{DisplayName: strPtr("x")})
	require.NoError(t, err)

	require.NoError(t, r.MarkSynced(ctx, "anon_1", time.Now()))

	got, err := r.Get(ctx, "anon_1")
	require.NoError(t, err)
	assert.False(t, got.Dirty)
	assert.NotNil(t, got.SyncedAt)
}

func TestMigrateToUser_ReKeysRow(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Upsert(ctx, "anon_1", models.UpsertProfileInput{DisplayName: strPtr("mine")})
	require.NoError(t, err)

	require.NoError(t, r.MigrateToUser(ctx, "anon_1", "user-1"))

	got, err := r.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "mine", got.DisplayName)
	assert.True(t, got.Dirty)

	_, err = r.Get(ctx, "anon_1")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestMigrateToUser_ExistingTargetWins(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Upsert(ctx, "anon_1", models.UpsertProfileInput{DisplayName: strPtr("anon name")})
	require.NoError(t, err)
	_, err = r.Upsert(ctx, "user-1", models.UpsertProfileInput{DisplayName: strPtr("auth name")})
	require.NoError(t, err)

	require.NoError(t, r.MigrateToUser(ctx, "anon_1", "user-1"))

	got, err := r.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "auth name", got.DisplayName)

	_, err = r.Get(ctx, "anon_1")
	require.ErrorIs(t, err, common.ErrNotFound)
}
