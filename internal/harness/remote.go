package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/remote"
	"github.com/roach88/postsync/internal/store"
	"github.com/roach88/postsync/internal/syncer"
	"github.com/roach88/postsync/internal/testutil"
)

// recordingRemote is the scenario's HTTP endpoint. It records every request
// before handing it to the canned responder or the reference server.
type recordingRemote struct {
	server *httptest.Server
	store  *store.Store // nil for canned responses

	mu       sync.Mutex
	requests []Request
}

func newRecordingRemote(ctx context.Context, spec *RemoteSpec) (*recordingRemote, error) {
	if spec == nil {
		spec = &RemoteSpec{}
	}
	posts, err := toPosts(spec.Posts)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}

	r := &recordingRemote{}
	var handler http.Handler

	if spec.Serve {
		clock := testutil.NewStepClock(time.Second)
		st, err := store.Open(":memory:", store.WithClock(clock.Now))
		if err != nil {
			return nil, fmt.Errorf("remote: %w", err)
		}
		if err := st.Upsert(ctx, posts); err != nil {
			st.Close()
			return nil, fmt.Errorf("remote: %w", err)
		}
		r.store = st
		handler = remote.NewServer(st).Handler()
	} else {
		handler, err = cannedHandler(spec, posts)
		if err != nil {
			return nil, err
		}
	}

	r.server = httptest.NewServer(r.record(handler))
	return r, nil
}

func cannedHandler(spec *RemoteSpec, posts []post.Post) (http.Handler, error) {
	status := spec.Status
	if status == 0 {
		status = http.StatusOK
	}

	body := []byte(spec.Body)
	if spec.Body == "" {
		if posts == nil {
			posts = []post.Post{}
		}
		var err error
		if body, err = json.Marshal(posts); err != nil {
			return nil, fmt.Errorf("remote: encode posts: %w", err)
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(body)
	}), nil
}

func (r *recordingRemote) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec := Request{
			Method: req.Method,
			Token:  req.Header.Get(syncer.TokenHeader),
		}

		if req.Method == http.MethodPost {
			data, err := io.ReadAll(req.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			req.Body = io.NopCloser(bytes.NewReader(data))

			var pushed []post.Post
			if err := json.Unmarshal(data, &pushed); err == nil {
				rec.Pushed = post.IDs(pushed)
			}
		}

		r.mu.Lock()
		r.requests = append(r.requests, rec)
		r.mu.Unlock()

		next.ServeHTTP(w, req)
	})
}

// URL is the endpoint the sync client posts to.
func (r *recordingRemote) URL() string {
	return r.server.URL + "/posts"
}

// Requests returns a copy of the recorded requests.
func (r *recordingRemote) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}

func (r *recordingRemote) Close() {
	r.server.Close()
	if r.store != nil {
		r.store.Close()
	}
}
