package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/remote"
	"github.com/roach88/postsync/internal/store"
	"github.com/roach88/postsync/internal/testutil"
)

// envelope mirrors CLIResponse with the payload left raw.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

type harness struct {
	t     *testing.T
	db    string
	clock *testutil.StepClock
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:     t,
		db:    filepath.Join(t.TempDir(), "posts.db"),
		clock: testutil.NewStepClock(time.Second),
	}
}

// run executes the root command with --db pointing at the harness database.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	opts := &RootOptions{
		Now:    h.clock.Now,
		Tokens: testutil.NewFixedTokenGenerator(""),
	}
	cmd := NewRootCommandWithOptions(opts)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--db", h.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) runJSON(args ...string) (envelope, error) {
	h.t.Helper()
	out, err := h.run(append(args, "--format", "json")...)
	var env envelope
	require.NoError(h.t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	return env, err
}

func (h *harness) list() PostList {
	h.t.Helper()
	env, err := h.runJSON("list")
	require.NoError(h.t, err)
	var pl PostList
	require.NoError(h.t, json.Unmarshal(env.Data, &pl))
	return pl
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// newRemote serves the reference endpoint over its own store.
func newRemote(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "remote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ts := httptest.NewServer(remote.NewServer(st).Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func TestInitCreatesDatabase(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Initialized")

	_, err = os.Stat(h.db)
	require.NoError(t, err)

	// Running it again is harmless.
	_, err = h.run("init")
	require.NoError(t, err)
}

func TestAddThenList(t *testing.T) {
	h := newHarness(t)
	firstID := testutil.Epoch.UnixMilli()

	out, err := h.run("add", "--image", "file:///a.jpg", "--caption", "Hello world")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Created post")

	_, err = h.run("add", "--image", "file:///b.jpg")
	require.NoError(t, err)

	pl := h.list()
	require.Equal(t, 2, pl.Count)
	assert.Equal(t, firstID+1000, pl.Posts[0].ID, "newest first")
	assert.Equal(t, "New Post", pl.Posts[0].Title)
	assert.Equal(t, firstID, pl.Posts[1].ID)
	assert.Equal(t, "Hello world", pl.Posts[1].Caption)
	assert.Equal(t, post.Pending, pl.Posts[1].SyncState)
	assert.Equal(t, "User", pl.Posts[1].AuthorName)
}

func TestListTextOutput(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("list")
	require.NoError(t, err)
	assert.Equal(t, "No posts.\n", out)

	_, err = h.run("add", "--image", "file:///a.jpg", "--caption", "Sunset")
	require.NoError(t, err)

	out, err = h.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "CAPTION")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "Sunset")
}

func TestAddWithoutImageFails(t *testing.T) {
	h := newHarness(t)

	env, err := h.runJSON("add", "--caption", "no picture")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, ErrCodeValidation, env.Error.Code)
	assert.Zero(t, h.list().Count)
}

func TestEdit(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("add", "--image", "file:///a.jpg", "--caption", "before")
	require.NoError(t, err)
	id := h.list().Posts[0].ID

	env, err := h.runJSON("edit", formatID(id), "--caption", "after", "--likes", "3")
	require.NoError(t, err)
	var edited post.Post
	require.NoError(t, json.Unmarshal(env.Data, &edited))
	assert.Equal(t, "after", edited.Caption)

	got := h.list().Posts[0]
	assert.Equal(t, "after", got.Caption)
	assert.EqualValues(t, 3, got.LikeCount)
	assert.Equal(t, "file:///a.jpg", got.MediaURL, "unchanged flags keep their value")
	assert.Equal(t, post.Pending, got.SyncState)
}

func TestEditUnknownID(t *testing.T) {
	h := newHarness(t)

	env, err := h.runJSON("edit", "12345", "--caption", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, env.Error.Code)
}

func TestEditInvalidID(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("edit", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("add", "--image", "file:///a.jpg")
	require.NoError(t, err)
	id := h.list().Posts[0].ID

	out, err := h.run("delete", formatID(id))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted")
	assert.Zero(t, h.list().Count)

	_, err = h.run("delete", formatID(id))
	require.NoError(t, err, "deleting twice succeeds")
}

func TestSyncReplacesWithRemoteCollection(t *testing.T) {
	ts, remoteStore := newRemote(t)
	require.NoError(t, remoteStore.Upsert(context.Background(), []post.Post{{ID: 7, Caption: "from elsewhere"}}))

	h := newHarness(t)
	_, err := h.run("add", "--image", "file:///a.jpg")
	require.NoError(t, err)

	env, err := h.runJSON("sync", "--endpoint", ts.URL+"/posts")
	require.NoError(t, err)

	var result SyncResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, 2, result.Count)

	pl := h.list()
	assert.ElementsMatch(t, []int64{7, testutil.Epoch.UnixMilli()}, post.IDs(pl.Posts))
	for _, p := range pl.Posts {
		assert.Equal(t, post.Synced, p.SyncState)
	}

	env, err = h.runJSON("status")
	require.NoError(t, err)
	var status StatusResult
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 2, status.Posts)
	assert.Zero(t, status.Pending)
}

func TestSyncFailureKeepsLocalPosts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	h := newHarness(t)
	_, err := h.run("add", "--image", "file:///a.jpg")
	require.NoError(t, err)
	before := h.list()

	env, err := h.runJSON("sync", "--endpoint", ts.URL)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeSync, env.Error.Code)
	assert.Contains(t, env.Error.Message, "503")

	after := h.list()
	assert.Equal(t, before, after)
}

func TestPullDoesNotTouchLocalPosts(t *testing.T) {
	ts, remoteStore := newRemote(t)
	require.NoError(t, remoteStore.Upsert(context.Background(), []post.Post{{ID: 1}, {ID: 2}}))

	h := newHarness(t)
	env, err := h.runJSON("pull", "--endpoint", ts.URL+"/posts")
	require.NoError(t, err)

	var pl PostList
	require.NoError(t, json.Unmarshal(env.Data, &pl))
	assert.Equal(t, 2, pl.Count)
	assert.Zero(t, h.list().Count)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("add", "--image", "file:///a.jpg")
	require.NoError(t, err)

	out, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Posts:    1 (1 pending sync)")
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("add", "--image", "file:///a.jpg")
	require.NoError(t, err)

	_, err = h.run("reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, 1, h.list().Count)

	out, err := h.run("reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Removed 1 post(s)")
	assert.Zero(t, h.list().Count)
}

func TestWatchStopsAfterCount(t *testing.T) {
	ts, _ := newRemote(t)
	h := newHarness(t)

	env, err := h.runJSON("watch", "--endpoint", ts.URL+"/posts", "--count", "2", "--interval", "10ms")
	require.NoError(t, err)

	var result map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result["synced"])
	assert.Zero(t, result["failed"])
}

func TestWatchCountsFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	h := newHarness(t)

	env, err := h.runJSON("watch", "--endpoint", ts.URL, "--count", "1")
	require.NoError(t, err, "a failed sync does not stop watch")

	var result map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result["failed"])
}

func TestRemoteCommandStopsWithContext(t *testing.T) {
	opts := &RootOptions{}
	cmd := NewRootCommandWithOptions(opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"remote", "--listen", "127.0.0.1:0", "--remote-db", filepath.Join(t.TempDir(), "r.db")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "Serving")
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("list", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMissingConfigFile(t *testing.T) {
	h := newHarness(t)

	env, err := h.runJSON("list", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeConfig, env.Error.Code)
}

func TestConfigFileIdentity(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "postsync.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("identity:\n  id: 9\n  username: ann\n"), 0o644))

	h := newHarness(t)
	_, err := h.run("add", "--config", cfgPath, "--image", "file:///a.jpg")
	require.NoError(t, err)

	got := h.list().Posts[0]
	assert.EqualValues(t, 9, got.OwnerID)
	assert.Equal(t, "ann", got.AuthorName)
}
