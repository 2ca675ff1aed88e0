package syncer

import "github.com/google/uuid"

// TokenGenerator produces the identifier sent with each sync request.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 sync tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, so tokens in the
// remote's access log sort by the order syncs were issued.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
