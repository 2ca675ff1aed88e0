package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/postsync/internal/post"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert persists a new post and returns the stored record.
//
// The id must be set; every other field falls back to its default (see
// post.Post.WithDefaults). createdAt is always stamped with the store clock,
// overriding any caller value, and the record starts Pending.
//
// Uses INSERT OR REPLACE: inserting an id that already exists replaces the
// row instead of adding a duplicate.
func (s *Store) Insert(ctx context.Context, p post.Post) (post.Post, error) {
	if p.ID == 0 {
		return post.Post{}, &post.ValidationError{Field: "id", Message: "id is required"}
	}
	if err := s.Init(ctx); err != nil {
		return post.Post{}, err
	}

	rec := p.WithDefaults()
	rec.CreatedAt = s.now().UTC()
	rec.SyncState = post.Pending

	if err := insertPost(ctx, s.db, rec); err != nil {
		return post.Post{}, &post.StorageError{Op: "insert", Err: err}
	}

	slog.Debug("post saved", "id", rec.ID)
	return rec, nil
}

// Update overwrites the mutable fields of the post with p.ID: imageUrl,
// caption, likes, comments, username, profilePicture and reactions.
//
// timestamp, userId and isSynced are never touched. An unknown id is a
// no-op, not an error.
func (s *Store) Update(ctx context.Context, p post.Post) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	likes := p.LikeCount
	if likes < 0 {
		likes = 0
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET imageUrl = ?, caption = ?, likes = ?, comments = ?,
		    username = ?, profilePicture = ?, reactions = ?
		WHERE id = ?
	`,
		p.MediaURL,
		p.Caption,
		likes,
		encodeBlob(p.Comments, post.EmptyComments),
		p.AuthorName,
		p.AuthorAvatarURL,
		encodeBlob(p.Reactions, post.DefaultReactions),
		p.ID,
	)
	if err != nil {
		return &post.StorageError{Op: "update", Err: err}
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		slog.Debug("post update matched no rows", "id", p.ID)
		return nil
	}

	slog.Debug("post updated", "id", p.ID)
	return nil
}

// Delete removes the post with the given id. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return &post.StorageError{Op: "delete", Err: err}
	}

	slog.Debug("post deleted", "id", id)
	return nil
}

// ReplaceAll swaps the whole collection for posts in one transaction.
//
// This is how a reconciliation result lands durably: every existing row is
// removed, then each post is written with defaults applied and marked Synced.
// A post's createdAt is kept; an unset createdAt is stamped with the store
// clock. On any failure nothing changes.
func (s *Store) ReplaceAll(ctx context.Context, posts []post.Post) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts`); err != nil {
			return fmt.Errorf("clear posts: %w", err)
		}
		for _, p := range posts {
			rec := s.prepareKept(p)
			rec.SyncState = post.Synced
			if err := insertPost(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert post %d: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return &post.StorageError{Op: "replace all", Err: err}
	}

	slog.Debug("post collection replaced", "count", len(posts))
	return nil
}

// Upsert writes posts in one transaction, replacing rows that share an id.
// Unlike Insert it keeps each post's createdAt (stamping unset ones) and
// sync state.
func (s *Store) Upsert(ctx context.Context, posts []post.Post) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range posts {
			rec := s.prepareKept(p)
			if err := insertPost(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert post %d: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return &post.StorageError{Op: "upsert", Err: err}
	}

	slog.Debug("posts upserted", "count", len(posts))
	return nil
}

// Clear removes every post.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return &post.StorageError{Op: "clear", Err: err}
	}

	slog.Debug("post store cleared")
	return nil
}

// prepareKept applies defaults while keeping createdAt when it is set.
func (s *Store) prepareKept(p post.Post) post.Post {
	rec := p.WithDefaults()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	return rec
}

// inTx runs fn in a transaction, committing on success.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// insertPost writes a fully-defaulted record.
func insertPost(ctx context.Context, db execer, p post.Post) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO posts
		(id, userId, title, body, imageUrl, caption, likes, comments,
		 username, profilePicture, reactions, timestamp, isSynced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.OwnerID,
		p.Title,
		p.Body,
		p.MediaURL,
		p.Caption,
		p.LikeCount,
		encodeBlob(p.Comments, post.EmptyComments),
		p.AuthorName,
		p.AuthorAvatarURL,
		encodeBlob(p.Reactions, post.DefaultReactions),
		post.FormatTimestamp(p.CreatedAt),
		encodeSyncState(p.SyncState),
	)
	return err
}
