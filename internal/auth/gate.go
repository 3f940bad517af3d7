package auth

import (
	"crypto/subtle"
	"strings"
)

// Gate authorizes admin requests against one static secret.
type Gate struct {
	expected []byte
}

// NewGate builds a gate for secret. An empty secret authorizes nothing.
func NewGate(secret string) *Gate {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &Gate{}
	}
	return &Gate{expected: []byte("Bearer " + secret)}
}

// Enabled reports whether a secret is configured.
func (g *Gate) Enabled() bool {
	return g != nil && len(g.expected) > 0
}

// Authorize reports whether header is exactly "Bearer <secret>".
func (g *Gate) Authorize(header string) bool {
	if !g.Enabled() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), g.expected) == 1
}
