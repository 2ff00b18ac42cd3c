package sync

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/logging"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/remote"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/series"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/sermons"
)

type staticIdentity string

func (s staticIdentity) EffectiveUserID(context.Context) (string, error) {
	return string(s), nil
}

type fakeSeriesRepo struct {
	series.Repository

	dirty   map[string]*models.Series
	applied []*models.Series
	synced  []string
}

func newFakeSeriesRepo() *fakeSeriesRepo {
	return &fakeSeriesRepo{dirty: map[string]*models.Series{}}
}

func (f *fakeSeriesRepo) ListDirty(_ context.Context, _ string) ([]*models.Series, error) {
	ids := make([]string, 0, len(f.dirty))
	for id := range f.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*models.Series, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.dirty[id])
	}
	return out, nil
}

func (f *fakeSeriesRepo) MarkSynced(_ context.Context, _ string, id string, _ time.Time) error {
	delete(f.dirty, id)
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeSeriesRepo) ApplyRemote(_ context.Context, s *models.Series) error {
	f.applied = append(f.applied, s)
	return nil
}

type fakeSermonRepo struct {
	sermons.Repository

	dirty   map[string]*models.Sermon
	applied []*models.Sermon
	synced  []string
}

func newFakeSermonRepo() *fakeSermonRepo {
	return &fakeSermonRepo{dirty: map[string]*models.Sermon{}}
}

func (f *fakeSermonRepo) ListDirty(_ context.Context, _ string) ([]*models.Sermon, error) {
	ids := make([]string, 0, len(f.dirty))
	for id := range f.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*models.Sermon, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.dirty[id])
	}
	return out, nil
}

func (f *fakeSermonRepo) MarkSynced(_ context.Context, _ string, id string, _ time.Time) error {
	delete(f.dirty, id)
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeSermonRepo) ApplyRemote(_ context.Context, s *models.Sermon) error {
	f.applied = append(f.applied, s)
	return nil
}

type fakeRemoteClient struct {
	remote.Client

	seriesRecords []*remote.SeriesRecord
	sermonRecords []*remote.SermonRecord
	listSeriesErr error

	pushSeriesErr map[string]error
	pushedSeries  []*remote.SeriesRecord
	deletedSeries []string

	pushSermonErr  map[string]error
	pushedSermons  []*remote.SermonRecord
	deletedSermons []string
}

func (f *fakeRemoteClient) ListSeries(context.Context) ([]*remote.SeriesRecord, error) {
	return f.seriesRecords, f.listSeriesErr
}

func (f *fakeRemoteClient) PushSeries(_ context.Context, rec *remote.SeriesRecord) error {
	if err := f.pushSeriesErr[rec.ID]; err != nil {
		return err
	}
	f.pushedSeries = append(f.pushedSeries, rec)
	return nil
}

func (f *fakeRemoteClient) DeleteSeries(_ context.Context, id string) error {
	f.deletedSeries = append(f.deletedSeries, id)
	return nil
}

func (f *fakeRemoteClient) ListSermons(context.Context) ([]*remote.SermonRecord, error) {
	return f.sermonRecords, nil
}

func (f *fakeRemoteClient) PushSermon(_ context.Context, rec *remote.SermonRecord) error {
	if err := f.pushSermonErr[rec.ID]; err != nil {
		return err
	}
	f.pushedSermons = append(f.pushedSermons, rec)
	return nil
}

func (f *fakeRemoteClient) DeleteSermon(_ context.Context, id string) error {
	f.deletedSermons = append(f.deletedSermons, id)
	return nil
}

func newService(sr *fakeSeriesRepo, mr *fakeSermonRepo, rc *fakeRemoteClient) *Service {
	return NewService(sr, mr, rc, staticIdentity("user-1"), logging.NewNopLogger())
}

func dirtySeries(id string, op models.Op, updated time.Time) *models.Series {
	return &models.Series{
		ID: id, UserID: "user-1", Title: "Series " + id,
		UpdatedAt: updated, Dirty: true, Op: op, Version: 1,
	}
}

func TestSync_PushesDirtyRows(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sr := newFakeSeriesRepo()
	sr.dirty["S1"] = dirtySeries("S1", models.OpUpsert, at)
	sr.dirty["S2"] = dirtySeries("S2", models.OpDelete, at)
	mr := newFakeSermonRepo()
	mr.dirty["M1"] = &models.Sermon{ID: "M1", UserID: "user-1", Title: "On Grace",
		UpdatedAt: at, Dirty: true, Op: models.OpUpsert}
	rc := &fakeRemoteClient{}

	res, err := newService(sr, mr, rc).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pushed)
	assert.Empty(t, res.Errors)

	// Tombstones go out as remote deletes, everything else as a push.
	require.Len(t, rc.pushedSeries, 1)
	assert.Equal(t, "S1", rc.pushedSeries[0].ID)
	assert.Equal(t, []string{"S2"}, rc.deletedSeries)
	require.Len(t, rc.pushedSermons, 1)

	assert.ElementsMatch(t, []string{"S1", "S2"}, sr.synced)
	assert.Equal(t, []string{"M1"}, mr.synced)
}

func TestSync_PushFailureIsIsolated(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sr := newFakeSeriesRepo()
	sr.dirty["S1"] = dirtySeries("S1", models.OpUpsert, at)
	sr.dirty["S2"] = dirtySeries("S2", models.OpUpsert, at)
	mr := newFakeSermonRepo()
	mr.dirty["M1"] = &models.Sermon{ID: "M1", UserID: "user-1", UpdatedAt: at,
		Dirty: true, Op: models.OpUpsert}
	rc := &fakeRemoteClient{pushSeriesErr: map[string]error{"S1": errors.New("boom")}}

	res, err := newService(sr, mr, rc).Sync(context.Background())
	require.NoError(t, err)

	// S2 and the sermon still went out; the failed row stays dirty.
	assert.Equal(t, 2, res.Pushed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "S1")
	assert.Contains(t, sr.dirty, "S1")
	assert.NotContains(t, sr.dirty, "S2")
	assert.Len(t, mr.synced, 1)
}

func TestSync_PullAppliesCleanRows(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sr := newFakeSeriesRepo()
	mr := newFakeSermonRepo()
	rc := &fakeRemoteClient{
		seriesRecords: []*remote.SeriesRecord{
			{ID: "S9", Title: "Lent", Status: "active", CreatedAt: at, UpdatedAt: at},
		},
	}

	res, err := newService(sr, mr, rc).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pulled)
	require.Len(t, sr.applied, 1)
	assert.Equal(t, "S9", sr.applied[0].ID)
	assert.Equal(t, "user-1", sr.applied[0].UserID)
}

func TestSync_DirtyLocalNewerWinsOverPull(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sr := newFakeSeriesRepo()
	local := dirtySeries("S1", models.OpUpsert, at.Add(time.Hour))
	sr.dirty["S1"] = local
	rc := &fakeRemoteClient{
		// Push fails so the row is still dirty when the pull sees it.
		pushSeriesErr: map[string]error{"S1": errors.New("boom")},
		seriesRecords: []*remote.SeriesRecord{
			{ID: "S1", Title: "Older remote", CreatedAt: at, UpdatedAt: at},
		},
	}

	res, err := newService(sr, newFakeSermonRepo(), rc).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conflicts)
	// Local is newer: the remote row is not applied, the dirty row waits
	// for the next push.
	assert.Empty(t, sr.applied)
	assert.Contains(t, sr.dirty, "S1")
}

func TestSync_DirtyLocalOlderLosesToPull(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sr := newFakeSeriesRepo()
	sr.dirty["S1"] = dirtySeries("S1", models.OpUpsert, at)
	rc := &fakeRemoteClient{
		pushSeriesErr: map[string]error{"S1": errors.New("boom")},
		seriesRecords: []*remote.SeriesRecord{
			{ID: "S1", Title: "Newer remote", CreatedAt: at, UpdatedAt: at.Add(time.Hour)},
		},
	}

	res, err := newService(sr, newFakeSermonRepo(), rc).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conflicts)
	require.Len(t, sr.applied, 1)
	assert.Equal(t, "Newer remote", sr.applied[0].Title)
}

func TestSync_RemoteTombstoneIsApplied(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deleted := at.Add(time.Minute)
	mr := newFakeSermonRepo()
	rc := &fakeRemoteClient{
		sermonRecords: []*remote.SermonRecord{
			{ID: "M1", Title: "Removed elsewhere", CreatedAt: at, UpdatedAt: deleted, DeletedAt: &deleted},
		},
	}

	res, err := newService(newFakeSeriesRepo(), mr, rc).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pulled)
	require.Len(t, mr.applied, 1)
	require.NotNil(t, mr.applied[0].DeletedAt)
}

func TestSync_SeriesPullFailureDoesNotBlockSermons(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mr := newFakeSermonRepo()
	mr.dirty["M1"] = &models.Sermon{ID: "M1", UserID: "user-1", UpdatedAt: at,
		Dirty: true, Op: models.OpUpsert}
	rc := &fakeRemoteClient{listSeriesErr: errors.New("backend down")}

	res, err := newService(newFakeSeriesRepo(), mr, rc).Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "pull series")
	assert.Equal(t, 1, res.Pushed)
}
