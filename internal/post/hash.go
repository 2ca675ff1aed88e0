package post

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCollection separates collection digests from any other hash use.
const DomainCollection = "postsync/collection/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns a stable hex digest of an ordered collection.
// Two collections share a digest exactly when their canonical encodings match,
// so the digest changes with order as well as content.
func Digest(posts []Post) (string, error) {
	if posts == nil {
		posts = []Post{}
	}
	canonical, err := MarshalCanonical(posts)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hashWithDomain(DomainCollection, canonical), nil
}
