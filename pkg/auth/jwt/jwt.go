// Package jwt provides a JWT authenticator that validates HS256-signed
// bearer tokens against a shared secret, with configurable issuer
// validation and claim extraction for subject and scopes.
package jwt

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/slamb2k/glam-mcp-sub003/pkg/auth"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Secret is the HS256 signing secret. Required.
	Secret string

	// Issuer is the expected JWT issuer (iss claim). If empty, issuer is not validated.
	Issuer string

	// UserClaim is the JWT claim used as the identity subject. Default: "sub".
	UserClaim string

	// ScopesClaim is the JWT claim used for authorization scopes. Default: "scope".
	// The value can be a space-separated string or a JSON array.
	ScopesClaim string
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.UserClaim == "" {
		c.UserClaim = "sub"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
}

// Authenticator validates HS256 JWT bearer tokens.
type Authenticator struct {
	config Config
}

// New creates a JWT authenticator with the given configuration.
func New(cfg Config) *Authenticator {
	cfg.applyDefaults()
	return &Authenticator{config: cfg}
}

// Authenticate extracts a bearer token from the Authorization header,
// validates it as a JWT, and returns an identity on success.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but invalid (expired, wrong issuer, bad signature)
//   - Yes: valid JWT with populated Identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("empty bearer token"),
		}
	}

	// API keys are opaque strings; only hand structurally JWT-shaped
	// tokens to the parser so the chain can fall through to the API key
	// authenticator otherwise.
	if strings.Count(tokenStr, ".") != 2 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}

	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(tokenStr, claims, func(*jwtlib.Token) (interface{}, error) {
		return []byte(a.config.Secret), nil
	}, opts...)
	if err != nil {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("validating token: %w", err),
		}
	}

	subject, _ := claims[a.config.UserClaim].(string)
	if subject == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("token missing %q claim", a.config.UserClaim),
		}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject: subject,
			Scopes:  parseScopes(claims[a.config.ScopesClaim]),
		},
	}
}

// parseScopes accepts either a space-separated string or a JSON array of
// strings, the two encodings seen in the wild for the scope claim.
func parseScopes(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return strings.Fields(t)
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
