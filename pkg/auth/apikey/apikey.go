// Package apikey authenticates admin requests against the static keys
// declared in the glam config. Keys are SHA-256 hashed at construction
// and compared in constant time; plaintext keys are never retained.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/slamb2k/glam-mcp-sub003/pkg/auth"
)

// Key is one configured admin key and the caller it authenticates,
// mirroring the auth.api_keys config entries.
type Key struct {
	Value   string
	Subject string
	Scopes  []string
}

type entry struct {
	hash     [32]byte
	identity auth.Identity
}

// Authenticator votes Yes for bearer tokens matching a configured key.
type Authenticator struct {
	entries []entry
}

// New builds an authenticator from the configured keys.
func New(keys []Key) *Authenticator {
	a := &Authenticator{entries: make([]entry, 0, len(keys))}
	for _, k := range keys {
		a.entries = append(a.entries, entry{
			hash: sha256.Sum256([]byte(k.Value)),
			identity: auth.Identity{
				Subject: k.Subject,
				Scopes:  k.Scopes,
			},
		})
	}
	return a
}

// Authenticate checks the bearer token against the key set.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but matching no key
//   - Yes: key matched, with the configured identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := bearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	hash := sha256.Sum256([]byte(token))
	for _, e := range a.entries {
		if subtle.ConstantTimeCompare(hash[:], e.hash[:]) == 1 {
			id := e.identity
			return auth.AuthResult{Decision: auth.Yes, Identity: &id}
		}
	}
	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}

// bearerToken extracts the token from an Authorization: Bearer header.
// The second return is false when the header is absent or uses another
// scheme.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}
