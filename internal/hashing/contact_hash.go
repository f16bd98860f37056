// Package hashing derives the non-reversible contact hash used to key
// conversations, holds, and the PII vault without ever persisting a raw
// channel address outside the vault itself.
package hashing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Hasher computes contact hashes under a single process-wide secret,
// loaded once at startup (see config.Config.ContactHashSecret).
type Hasher struct {
	secret []byte
}

// NewHasher builds a Hasher from the raw secret bytes.
func NewHasher(secret string) *Hasher {
	return &Hasher{secret: []byte(secret)}
}

// ContactHash returns the base64url, unpadded, 32-character HMAC-SHA256
// digest of (propertyID, channel, rawAddress). It is deterministic for
// the same inputs and carries no information that recovers rawAddress.
func (h *Hasher) ContactHash(propertyID, channel, rawAddress string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(propertyID))
	mac.Write([]byte("|"))
	mac.Write([]byte(channel))
	mac.Write([]byte("|"))
	mac.Write([]byte(rawAddress))
	digest := mac.Sum(nil)
	encoded := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(digest)
	if len(encoded) > 32 {
		encoded = encoded[:32]
	}
	return encoded
}
