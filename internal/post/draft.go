package post

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultTitle is used when a draft has no caption to derive a title from.
const DefaultTitle = "New Post"

// titleRunes caps the title derived from a caption.
const titleRunes = 30

// Identity is the current actor as supplied by the identity collaborator.
type Identity struct {
	ID        int64  `json:"id" yaml:"id"`
	Username  string `json:"username" yaml:"username"`
	AvatarURL string `json:"avatar_url,omitempty" yaml:"avatar_url"`
}

// IdentityProvider supplies the identity of whoever is composing posts.
type IdentityProvider interface {
	Current() Identity
}

// StaticIdentity is an IdentityProvider that always returns the same identity.
type StaticIdentity Identity

// Current implements IdentityProvider.
func (s StaticIdentity) Current() Identity {
	return Identity(s)
}

// Draft is a post being composed: a selected media reference and a caption.
type Draft struct {
	MediaURL string
	Caption  string
}

// FromDraft builds a new Pending post authored by who.
// The id is the Unix millisecond of now, the title is the first 30 runes of
// the caption (or DefaultTitle), and the body is the caption.
//
// Returns a ValidationError when the draft has no media or the identity has
// no username.
func FromDraft(d Draft, who Identity, now time.Time) (Post, error) {
	if strings.TrimSpace(d.MediaURL) == "" {
		return Post{}, &ValidationError{Field: "imageUrl", Message: "select an image first"}
	}
	if strings.TrimSpace(who.Username) == "" {
		return Post{}, &ValidationError{Field: "username", Message: "username is required"}
	}

	title := truncateRunes(d.Caption, titleRunes)
	if title == "" {
		title = DefaultTitle
	}

	p := Post{
		ID:              now.UnixMilli(),
		OwnerID:         who.ID,
		Title:           title,
		Body:            d.Caption,
		MediaURL:        d.MediaURL,
		Caption:         d.Caption,
		AuthorName:      who.Username,
		AuthorAvatarURL: who.AvatarURL,
		Comments:        EmptyComments.Clone(),
		Reactions:       DefaultReactions.Clone(),
		CreatedAt:       now.UTC(),
		SyncState:       Pending,
	}
	return p.WithDefaults(), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
