package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/common"
)

func newClient(t *testing.T, h http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "test-token", 2*time.Second, 2)
}

func TestMe_ReturnsUser(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]any{"id": "user-1"}})
	}))

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
}

func TestMe_UnauthorizedMapsToSentinel(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestMe_NullUserIsUnauthorized(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user": null}`))
	}))

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestPushSeries_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/series/S1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.PushSeries(context.Background(), &SeriesRecord{ID: "S1", Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPushSeries_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.PushSeries(context.Background(), &SeriesRecord{ID: "S1"})
	require.ErrorIs(t, err, common.ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load()) // initial + 2 retries
}

func TestDeleteSermon_TreatsNotFoundAsSuccess(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	require.NoError(t, c.DeleteSermon(context.Background(), "M1"))
}

func TestListSermons_DecodesRecords(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sermons", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"M1","title":"On Grace","tags":["grace"],"status":"draft",
			"visibility":"private","createdAt":"2026-01-02T10:00:00Z","updatedAt":"2026-01-02T10:00:00Z","version":3}]`))
	}))

	recs, err := c.ListSermons(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "M1", recs[0].ID)
	assert.Equal(t, int64(3), recs[0].Version)
}

func TestLinkOfflineData_PostsPayload(t *testing.T) {
	var got LinkRequest
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/offline/link", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))

	err := c.LinkOfflineData(context.Background(), LinkRequest{
		AnonymousUserID:     "anon_1",
		AuthenticatedUserID: "user-1",
		MigrationSummary:    MigrationSummary{MigratedRecords: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "anon_1", got.AnonymousUserID)
	assert.Equal(t, 5, got.MigrationSummary.MigratedRecords)
}

func TestOfflineBackend_MapsToUnavailable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", "", 500*time.Millisecond, 0)

	err := c.Ping(context.Background())
	require.ErrorIs(t, err, common.ErrUnavailable)
}
