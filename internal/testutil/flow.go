package testutil

// FixedTokenGenerator returns the same sync token every time.
//
// Requests carrying a fixed token make recorded traffic byte-identical across
// runs, which keeps golden snapshots stable.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a new fixed token generator.
// If token is empty, Generate() returns "test-sync-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-sync-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
