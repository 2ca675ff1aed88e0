package post

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Defaults applied to fields the caller leaves empty.
const (
	DefaultOwnerID    int64 = 1
	DefaultAuthorName       = "User"
	DefaultAvatarURL        = "https://i.imgur.com/abc123.jpg"
)

// TimestampLayout is the fixed-width ISO-8601 layout used for the timestamp
// column. Fixed width keeps lexical order equal to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp, including the millisecond
// form produced by JavaScript's toISOString.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// SyncState records whether the durable copy of a post matches the remote.
type SyncState int

const (
	// Pending means the post was created or replaced locally and has not been
	// acknowledged by the remote.
	Pending SyncState = iota
	// Synced means the post arrived from a successful reconciliation.
	Synced
)

// String returns "pending" or "synced".
func (s SyncState) String() string {
	if s == Synced {
		return "synced"
	}
	return "pending"
}

// MarshalJSON encodes the state as the wire boolean isSynced.
func (s SyncState) MarshalJSON() ([]byte, error) {
	if s == Synced {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// UnmarshalJSON accepts true/false, 0/1 (raw table rows) and null.
func (s *SyncState) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*s = Synced
	case "false", "0", "null":
		*s = Pending
	default:
		return fmt.Errorf("invalid isSynced value %s", data)
	}
	return nil
}

// Blob is an opaque JSON value. The store encodes it to TEXT and decodes it
// back byte for byte; nothing in postsync interprets its contents.
type Blob []byte

// Default blobs for comments and reactions.
var (
	EmptyComments    = Blob(`[]`)
	DefaultReactions = Blob(`{"likes":0}`)
)

// IsEmpty reports whether the blob carries no value (nil, empty or JSON null).
func (b Blob) IsEmpty() bool {
	trimmed := bytes.TrimSpace(b)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// MarshalJSON emits the blob verbatim; an empty blob is null.
func (b Blob) MarshalJSON() ([]byte, error) {
	if b.IsEmpty() {
		return []byte("null"), nil
	}
	return b, nil
}

// UnmarshalJSON stores a copy of the raw value.
func (b *Blob) UnmarshalJSON(data []byte) error {
	if b == nil {
		return fmt.Errorf("post.Blob: UnmarshalJSON on nil pointer")
	}
	*b = append((*b)[:0], data...)
	return nil
}

// Clone returns an independent copy of the blob.
func (b Blob) Clone() Blob {
	if b == nil {
		return nil
	}
	return append(Blob(nil), b...)
}

// Post is the unit of persistence.
type Post struct {
	ID              int64
	OwnerID         int64
	Title           string
	Body            string
	MediaURL        string
	Caption         string
	LikeCount       int64
	Comments        Blob
	AuthorName      string
	AuthorAvatarURL string
	Reactions       Blob
	CreatedAt       time.Time
	SyncState       SyncState
}

// wirePost is the JSON shape shared by the remote protocol and CLI output.
type wirePost struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	ImageURL       string    `json:"imageUrl"`
	Caption        string    `json:"caption"`
	Likes          int64     `json:"likes"`
	Comments       Blob      `json:"comments"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture"`
	Reactions      Blob      `json:"reactions"`
	Timestamp      string    `json:"timestamp,omitempty"`
	IsSynced       SyncState `json:"isSynced"`
}

// MarshalJSON encodes the post with the remote protocol's field names.
func (p Post) MarshalJSON() ([]byte, error) {
	w := wirePost{
		ID:             p.ID,
		UserID:         p.OwnerID,
		Title:          p.Title,
		Body:           p.Body,
		ImageURL:       p.MediaURL,
		Caption:        p.Caption,
		Likes:          p.LikeCount,
		Comments:       p.Comments,
		Username:       p.AuthorName,
		ProfilePicture: p.AuthorAvatarURL,
		Reactions:      p.Reactions,
		IsSynced:       p.SyncState,
	}
	if !p.CreatedAt.IsZero() {
		w.Timestamp = FormatTimestamp(p.CreatedAt)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the remote protocol's field names. Missing fields stay
// zero; call WithDefaults to fill them.
func (p *Post) UnmarshalJSON(data []byte) error {
	var w wirePost
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Post{
		ID:              w.ID,
		OwnerID:         w.UserID,
		Title:           w.Title,
		Body:            w.Body,
		MediaURL:        w.ImageURL,
		Caption:         w.Caption,
		LikeCount:       w.Likes,
		Comments:        w.Comments,
		AuthorName:      w.Username,
		AuthorAvatarURL: w.ProfilePicture,
		Reactions:       w.Reactions,
		SyncState:       w.IsSynced,
	}
	if w.Timestamp != "" {
		ts, err := ParseTimestamp(w.Timestamp)
		if err != nil {
			return err
		}
		p.CreatedAt = ts
	}
	return nil
}

// WithDefaults returns a copy of p with every empty field set to its default.
// Body falls back to Caption before falling back to the empty string.
// A negative LikeCount is floored at zero.
func (p Post) WithDefaults() Post {
	if p.OwnerID == 0 {
		p.OwnerID = DefaultOwnerID
	}
	if p.Body == "" {
		p.Body = p.Caption
	}
	if p.LikeCount < 0 {
		p.LikeCount = 0
	}
	if p.Comments.IsEmpty() {
		p.Comments = EmptyComments.Clone()
	}
	if p.AuthorName == "" {
		p.AuthorName = DefaultAuthorName
	}
	if p.AuthorAvatarURL == "" {
		p.AuthorAvatarURL = DefaultAvatarURL
	}
	if p.Reactions.IsEmpty() {
		p.Reactions = DefaultReactions.Clone()
	}
	return p
}

// Clone returns a deep copy of p.
func (p Post) Clone() Post {
	p.Comments = p.Comments.Clone()
	p.Reactions = p.Reactions.Clone()
	return p
}

// CloneAll deep-copies a collection. A nil input yields an empty slice.
func CloneAll(posts []Post) []Post {
	out := make([]Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}

// IDs returns the ids of posts in order.
func IDs(posts []Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
