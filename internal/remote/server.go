// Package remote implements the authoritative side of the sync protocol: a
// small HTTP service that accepts a client's full collection, merges it into
// its own store and answers with everything it holds.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/roach88/postsync/internal/post"
)

// maxRequestBody bounds an incoming collection.
const maxRequestBody = 8 << 20

// Store is the server's durable collection. *store.Store implements it.
type Store interface {
	FetchAll(ctx context.Context) ([]post.Post, error)
	Upsert(ctx context.Context, posts []post.Post) error
	Count(ctx context.Context) (int, error)
}

// Server serves the post collection over HTTP.
type Server struct {
	store Store
}

// NewServer creates a server backed by s.
func NewServer(s Store) *Server {
	return &Server{store: s}
}

// Handler returns the routed handler with access logging.
//
//	POST /posts    upsert the request collection, respond with all posts
//	GET  /posts    respond with all posts
//	GET  /healthz  respond with the post count
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog)

	r.Methods(http.MethodPost).Path("/posts").HandlerFunc(s.pushPosts)
	r.Methods(http.MethodGet).Path("/posts").HandlerFunc(s.listPosts)
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.healthz)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("remote listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func accessLog(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		m := httpsnoop.CaptureMetrics(handler, writer, request)
		slog.Info("handled",
			"method", request.Method,
			"url", request.URL,
			"duration", m.Duration,
			"status", m.Code,
			"bytes", m.Written,
			"sync_token", request.Header.Get("X-Sync-Token"),
		)
	})
}

func (s *Server) pushPosts(writer http.ResponseWriter, request *http.Request) {
	var incoming []post.Post
	dec := json.NewDecoder(http.MaxBytesReader(writer, request.Body, maxRequestBody))
	if err := dec.Decode(&incoming); err != nil {
		http.Error(writer, fmt.Sprintf("decode posts: %v", err), http.StatusBadRequest)
		return
	}

	for i := range incoming {
		if incoming[i].ID == 0 {
			http.Error(writer, fmt.Sprintf("post %d: id is required", i), http.StatusUnprocessableEntity)
			return
		}
		incoming[i].SyncState = post.Synced
	}

	if err := s.store.Upsert(request.Context(), incoming); err != nil {
		slog.Error("failed to upsert posts", "err", err)
		http.Error(writer, "storage failure", http.StatusInternalServerError)
		return
	}

	s.writeAll(writer, request, http.StatusOK)
}

func (s *Server) listPosts(writer http.ResponseWriter, request *http.Request) {
	s.writeAll(writer, request, http.StatusOK)
}

func (s *Server) writeAll(writer http.ResponseWriter, request *http.Request, status int) {
	posts, err := s.store.FetchAll(request.Context())
	if err != nil {
		slog.Error("failed to fetch posts", "err", err)
		http.Error(writer, "storage failure", http.StatusInternalServerError)
		return
	}
	writeJSON(writer, status, posts)
}

func (s *Server) healthz(writer http.ResponseWriter, request *http.Request) {
	n, err := s.store.Count(request.Context())
	if err != nil {
		http.Error(writer, "storage failure", http.StatusServiceUnavailable)
		return
	}
	writeJSON(writer, http.StatusOK, map[string]any{"status": "ok", "posts": n})
}

func writeJSON(writer http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(writer, "encode failure", http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if _, err := writer.Write(body); err != nil {
		slog.Debug("failed to write response", "err", err)
	}
}
