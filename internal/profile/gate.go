package profile

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"
)

// Gate controls disclosure of sensitive profile fields (currently leaflets).
// It is configured with the hex SHA-256 digest of the emergency PIN; the
// cleartext PIN is never stored. With no digest configured the gate is
// permanently unlocked. A successful Verify unlocks the gate for the rest of
// the session; there is no re-lock. Gate is safe for concurrent use: unlock
// attempts and disclosure checks arrive on independent requests.
type Gate struct {
	digest string

	mu       sync.Mutex
	unlocked bool
}

// NewGate constructs a gate from a hex digest. An empty digest means no PIN
// is configured and the gate starts (and stays) unlocked.
func NewGate(pinDigest string) *Gate {
	d := strings.ToLower(strings.TrimSpace(pinDigest))
	return &Gate{digest: d, unlocked: d == ""}
}

// Unlocked reports whether sensitive fields may be shown.
func (g *Gate) Unlocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unlocked
}

// Verify hashes the candidate PIN and compares it against the configured
// digest in constant time. It returns true (and unlocks the gate) on a
// match, and true immediately when no digest is configured. Once unlocked,
// further calls return true regardless of input.
func (g *Gate) Verify(candidate string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unlocked {
		return true
	}
	sum := sha256.Sum256([]byte(candidate))
	got := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(got), []byte(g.digest)) == 1 {
		g.unlocked = true
	}
	return g.unlocked
}
