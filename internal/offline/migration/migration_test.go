package migration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/common"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/logging"
	offlinedb "github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/db"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/profiles"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/series"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/sermons"
)

const (
	anonID = "anon_1700000000000_abcdefghi"
	authID = "user-1"
)

type staticAnon string

func (s staticAnon) AnonymousUserID(context.Context) (string, error) {
	return string(s), nil
}

type fixture struct {
	db       *sql.DB
	series   series.Repository
	sermons  sermons.Repository
	profiles profiles.Repository
	svc      *Service
}

func setup(t *testing.T, anon string) *fixture {
	t.Helper()
	db, err := offlinedb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:       db,
		series:   series.NewSQLiteRepository(db),
		sermons:  sermons.NewSQLiteRepository(db),
		profiles: profiles.NewSQLiteRepository(db),
	}
	f.svc = NewService(db, staticAnon(anon), logging.NewNopLogger())
	return f
}

func TestHasDataToMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("no anonymous identity", func(t *testing.T) {
		f := setup(t, "")
		has, err := f.svc.HasDataToMigrate(ctx)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("identity without data", func(t *testing.T) {
		f := setup(t, anonID)
		has, err := f.svc.HasDataToMigrate(ctx)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("identity with data", func(t *testing.T) {
		f := setup(t, anonID)
		_, err := f.sermons.Create(ctx, anonID, models.CreateSermonInput{Title: "On Grace"})
		require.NoError(t, err)
		has, err := f.svc.HasDataToMigrate(ctx)
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestPreview_CountsAnonymousRowsOnly(t *testing.T) {
	ctx := context.Background()
	f := setup(t, anonID)

	_, err := f.series.Create(ctx, anonID, models.CreateSeriesInput{Title: "Advent"})
	require.NoError(t, err)
	_, err = f.sermons.Create(ctx, anonID, models.CreateSermonInput{Title: "Hope"})
	require.NoError(t, err)
	_, err = f.sermons.Create(ctx, anonID, models.CreateSermonInput{Title: "Peace"})
	require.NoError(t, err)
	_, err = f.sermons.Create(ctx, authID, models.CreateSermonInput{Title: "Someone else's"})
	require.NoError(t, err)

	p, err := f.svc.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.SeriesCount)
	assert.Equal(t, 2, p.SermonCount)
}

func TestMigrate_FailsFastWithoutAnonymousIdentity(t *testing.T) {
	f := setup(t, "")
	_, err := f.svc.MigrateOfflineDataToAccount(context.Background(), authID)
	require.ErrorIs(t, err, common.ErrNoAnonymousIdentity)
}

func TestMigrate_ReownsAllRows(t *testing.T) {
	ctx := context.Background()
	f := setup(t, anonID)

	created, err := f.series.Create(ctx, anonID, models.CreateSeriesInput{Title: "Advent"})
	require.NoError(t, err)
	_, err = f.sermons.Create(ctx, anonID, models.CreateSermonInput{
		Title: "Hope", SeriesID: created.ID,
	})
	require.NoError(t, err)

	var phases []Phase
	f.svc.SetProgressHandler(func(p Phase, _ string) { phases = append(phases, p) })

	result, err := f.svc.MigrateOfflineDataToAccount(ctx, authID)
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, 2, result.MigratedRecords)
	assert.Zero(t, result.Conflicts)
	assert.Equal(t, []Phase{PhaseSeries, PhaseSermons, PhaseComplete}, phases)

	// Everything now lives under the account, nothing under the old id.
	n, err := f.series.CountByUser(ctx, authID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = f.sermons.CountByUser(ctx, anonID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Migrated rows are dirty again so the next sync pushes them.
	dirty, err := f.series.ListDirty(ctx, authID)
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, models.OpUpsert, dirty[0].Op)
}

func TestMigrate_IDCollisionGetsNewIDAndRemapsReferences(t *testing.T) {
	ctx := context.Background()
	f := setup(t, anonID)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// The account already holds a series with this id (prior partial
	// migration or another device); the anonymous identity holds its own
	// row under the same id, referenced by a sermon.
	require.NoError(t, f.series.ApplyRemote(ctx, &models.Series{
		ID: "S1", UserID: authID, Title: "Theirs", Status: models.SeriesStatusActive,
		CreatedAt: at, UpdatedAt: at, Op: models.OpUpsert,
	}))
	require.NoError(t, f.series.ApplyRemote(ctx, &models.Series{
		ID: "S1", UserID: anonID, Title: "Mine", Status: models.SeriesStatusActive,
		CreatedAt: at, UpdatedAt: at, Op: models.OpUpsert,
	}))
	_, err := f.sermons.Create(ctx, anonID, models.CreateSermonInput{
		Title: "Hope", SeriesID: "S1",
	})
	require.NoError(t, err)

	result, err := f.svc.MigrateOfflineDataToAccount(ctx, authID)
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, 2, result.MigratedRecords)
	assert.Equal(t, 1, result.Conflicts)

	// The pre-existing row kept its id and content.
	kept, err := f.series.GetByID(ctx, authID, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Theirs", kept.Title)

	// The colliding row was renumbered, and the sermon followed it.
	all, err := f.series.List(ctx, authID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	sermonRows, err := f.sermons.List(ctx, authID)
	require.NoError(t, err)
	require.Len(t, sermonRows, 1)
	assert.NotEqual(t, "S1", sermonRows[0].SeriesID)
	moved, err := f.series.GetByID(ctx, authID, sermonRows[0].SeriesID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", moved.Title)

	v, err := f.svc.Validate(ctx, authID)
	require.NoError(t, err)
	assert.True(t, v.Valid)
}

func TestMigrate_MovesProfile(t *testing.T) {
	ctx := context.Background()
	f := setup(t, anonID)

	name := "Pastor Kim"
	_, err := f.profiles.Upsert(ctx, anonID, models.UpsertProfileInput{DisplayName: &name})
	require.NoError(t, err)
	_, err = f.sermons.Create(ctx, anonID, models.CreateSermonInput{Title: "Hope"})
	require.NoError(t, err)

	_, err = f.svc.MigrateOfflineDataToAccount(ctx, authID)
	require.NoError(t, err)

	p, err := f.profiles.Get(ctx, authID)
	require.NoError(t, err)
	assert.Equal(t, "Pastor Kim", p.DisplayName)
	_, err = f.profiles.Get(ctx, anonID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestValidate_FlagsDanglingSeriesReference(t *testing.T) {
	ctx := context.Background()
	f := setup(t, anonID)

	created, err := f.sermons.Create(ctx, authID, models.CreateSermonInput{
		Title: "Hope", SeriesID: "missing-series",
	})
	require.NoError(t, err)

	v, err := f.svc.Validate(ctx, authID)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	require.Len(t, v.Issues, 1)
	assert.Contains(t, v.Issues[0], created.ID)
	assert.Contains(t, v.Issues[0], "missing-series")
}

func TestValidate_FlagsEmptyAccount(t *testing.T) {
	f := setup(t, anonID)
	v, err := f.svc.Validate(context.Background(), authID)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	require.Len(t, v.Issues, 1)
	assert.Contains(t, v.Issues[0], "no data")
}

func TestRollback_IsUnsupported(t *testing.T) {
	f := setup(t, anonID)
	err := f.svc.Rollback(context.Background(), authID)
	require.ErrorIs(t, err, common.ErrRollbackUnsupported)
}
