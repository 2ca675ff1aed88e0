package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/postsync/internal/post"
)

// encodeBlob converts an opaque blob to TEXT for storage.
// An empty blob is stored as fallback so the column always holds JSON.
func encodeBlob(b post.Blob, fallback post.Blob) string {
	if b.IsEmpty() {
		return string(fallback)
	}
	return string(b)
}

// decodeBlob returns the stored TEXT as an opaque blob, byte for byte.
// NULL columns (rows written by older clients) decode to fallback.
func decodeBlob(s sql.NullString, fallback post.Blob) post.Blob {
	if !s.Valid || s.String == "" {
		return fallback.Clone()
	}
	return post.Blob(s.String)
}

// encodeSyncState converts a SyncState to the isSynced integer column.
func encodeSyncState(state post.SyncState) int {
	if state == post.Synced {
		return 1
	}
	return 0
}

// decodeSyncState converts the isSynced column to a SyncState.
func decodeSyncState(v sql.NullInt64) post.SyncState {
	if v.Valid && v.Int64 != 0 {
		return post.Synced
	}
	return post.Pending
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// postColumns lists columns in the order scanPost expects.
const postColumns = `id, userId, title, body, imageUrl, caption, likes, comments,
	username, profilePicture, reactions, timestamp, isSynced`

// scanPost decodes one posts row.
func scanPost(row rowScanner) (post.Post, error) {
	var (
		p                                  post.Post
		ownerID, likes, isSynced           sql.NullInt64
		title, body, imageURL, caption     sql.NullString
		comments, username, avatar, reacts sql.NullString
		timestamp                          sql.NullString
	)

	err := row.Scan(
		&p.ID, &ownerID, &title, &body, &imageURL, &caption, &likes, &comments,
		&username, &avatar, &reacts, &timestamp, &isSynced,
	)
	if err != nil {
		return post.Post{}, fmt.Errorf("scan post: %w", err)
	}

	p.OwnerID = ownerID.Int64
	p.Title = title.String
	p.Body = body.String
	p.MediaURL = imageURL.String
	p.Caption = caption.String
	p.LikeCount = likes.Int64
	p.Comments = decodeBlob(comments, post.EmptyComments)
	p.AuthorName = username.String
	p.AuthorAvatarURL = avatar.String
	p.Reactions = decodeBlob(reacts, post.DefaultReactions)
	p.SyncState = decodeSyncState(isSynced)

	if timestamp.Valid && timestamp.String != "" {
		ts, err := post.ParseTimestamp(timestamp.String)
		if err != nil {
			return post.Post{}, fmt.Errorf("post %d: %w", p.ID, err)
		}
		p.CreatedAt = ts
	}

	return p, nil
}
