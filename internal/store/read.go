package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/postsync/internal/post"
)

// FetchAll returns every post, newest first.
// Results are ordered deterministically: ORDER BY timestamp DESC, id DESC.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) FetchAll(ctx context.Context) ([]post.Post, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		ORDER BY timestamp DESC, id DESC
	`)
	if err != nil {
		return nil, &post.StorageError{Op: "fetch all", Err: fmt.Errorf("query posts: %w", err)}
	}
	defer rows.Close()

	posts := []post.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, &post.StorageError{Op: "fetch all", Err: err}
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, &post.StorageError{Op: "fetch all", Err: fmt.Errorf("iterate posts: %w", err)}
	}

	return posts, nil
}

// Get returns a single post by id.
// The second return value is false when no post has that id.
func (s *Store) Get(ctx context.Context, id int64) (post.Post, bool, error) {
	if err := s.Init(ctx); err != nil {
		return post.Post{}, false, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE id = ?
	`, id)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return post.Post{}, false, nil
	}
	if err != nil {
		return post.Post{}, false, &post.StorageError{Op: "get", Err: err}
	}
	return p, true, nil
}

// Count returns the number of stored posts.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.count(ctx, "count", `SELECT COUNT(*) FROM posts`)
}

// CountPending returns the number of posts not yet acknowledged by the remote.
func (s *Store) CountPending(ctx context.Context) (int, error) {
	return s.count(ctx, "count pending", `SELECT COUNT(*) FROM posts WHERE isSynced = 0`)
}

func (s *Store) count(ctx context.Context, op, query string) (int, error) {
	if err := s.Init(ctx); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, &post.StorageError{Op: op, Err: err}
	}
	return n, nil
}
