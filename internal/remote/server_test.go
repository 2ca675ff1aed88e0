package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/store"
	"github.com/roach88/postsync/internal/syncer"
	"github.com/roach88/postsync/internal/testutil"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	clock := testutil.NewStepClock(time.Second)
	s, err := store.Open(filepath.Join(t.TempDir(), "remote.db"), store.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(NewServer(s).Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

func TestPushStoresAndEchoesCollection(t *testing.T) {
	ts, s := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []post.Post{{ID: 50, Caption: "already here"}}))

	resp, err := http.Post(ts.URL+"/posts", "application/json",
		strings.NewReader(`[{"id":1,"caption":"hello","isSynced":false}]`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []post.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.ElementsMatch(t, []int64{1, 50}, post.IDs(got))

	stored, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, post.Synced, stored.SyncState)
	assert.Equal(t, "hello", stored.Body)
}

func TestPushRejectsMalformedBody(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/posts", "application/json", strings.NewReader(`{"id":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPushRejectsMissingID(t *testing.T) {
	ts, s := newTestServer(t)

	resp, err := http.Post(ts.URL+"/posts", "application/json", strings.NewReader(`[{"caption":"x"}]`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListPosts(t *testing.T) {
	ts, s := newTestServer(t)
	require.NoError(t, s.Upsert(context.Background(), []post.Post{{ID: 1}, {ID: 2}}))

	resp, err := http.Get(ts.URL + "/posts")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []post.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","posts":0}`, string(body))
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/posts", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// TestClientRoundTrip drives the server with the sync client.
func TestClientRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	client := syncer.NewClient(ts.URL + "/posts")
	ctx := context.Background()

	got, err := client.Push(ctx, []post.Post{{ID: 1}, {ID: 2}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, post.Synced, p.SyncState)
	}

	pulled, err := client.Pull(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, post.IDs(got), post.IDs(pulled))
}

type failingStore struct{}

func (failingStore) FetchAll(context.Context) ([]post.Post, error) {
	return nil, errors.New("boom")
}
func (failingStore) Upsert(context.Context, []post.Post) error { return errors.New("boom") }
func (failingStore) Count(context.Context) (int, error)        { return 0, errors.New("boom") }

func TestStorageFailureIs5xx(t *testing.T) {
	ts := httptest.NewServer(NewServer(failingStore{}).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/posts", "application/json", strings.NewReader(`[]`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "remote.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(s).ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
