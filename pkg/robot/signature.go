package robot

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// CheckSignature validates a webhook request signature. The platform signs
// each request by sorting {token, timestamp, nonce} lexicographically,
// concatenating, and taking the SHA-1 hex digest.
//
// The comparison is plain string equality, not constant time: this is a
// webhook handshake on a low-value shared token, not a secret comparison
// in a timing-sensitive path.
func CheckSignature(token, timestamp, nonce, signature string) bool {
	parts := []string{token, timestamp, nonce}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:]) == signature
}

// CheckSignature validates against the robot's configured token.
func (r *Robot) CheckSignature(timestamp, nonce, signature string) bool {
	return CheckSignature(r.token, timestamp, nonce, signature)
}
