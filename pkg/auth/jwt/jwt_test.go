package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/slamb2k/glam-mcp-sub003/pkg/auth"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest("GET", "/v1/registry/stats", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestAuthenticate_ValidToken(t *testing.T) {
	a := New(Config{Secret: testSecret, Issuer: "glam"})
	token := signToken(t, testSecret, jwtlib.MapClaims{
		"sub":   "alice",
		"iss":   "glam",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": "admin registry:write",
	})

	r := requestWithToken(token)
	result := a.Authenticate(r.Context(), r)
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err: %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want alice", result.Identity.Subject)
	}
	if len(result.Identity.Scopes) != 2 || result.Identity.Scopes[0] != "admin" {
		t.Errorf("Scopes = %v", result.Identity.Scopes)
	}
}

func TestAuthenticate_ScopesAsArray(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := signToken(t, testSecret, jwtlib.MapClaims{
		"sub":   "alice",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": []string{"admin", "registry:read"},
	})

	r := requestWithToken(token)
	result := a.Authenticate(r.Context(), r)
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err: %v)", result.Decision, result.Err)
	}
	if len(result.Identity.Scopes) != 2 {
		t.Errorf("Scopes = %v, want 2 entries", result.Identity.Scopes)
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := signToken(t, "other-secret", jwtlib.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	r := requestWithToken(token)
	result := a.Authenticate(r.Context(), r)
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for bad signature", result.Decision)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := signToken(t, testSecret, jwtlib.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	r := requestWithToken(token)
	result := a.Authenticate(r.Context(), r)
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for expired token", result.Decision)
	}
}

func TestAuthenticate_MissingExpiry(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := signToken(t, testSecret, jwtlib.MapClaims{"sub": "alice"})

	r := requestWithToken(token)
	result := a.Authenticate(r.Context(), r)
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for token without exp", result.Decision)
	}
}

func TestAuthenticate_WrongIssuer(t *testing.T) {
	a := New(Config{Secret: testSecret, Issuer: "glam"})
	token := signToken(t, testSecret, jwtlib.MapClaims{
		"sub": "alice",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	r := requestWithToken(token)
	result := a.Authenticate(r.Context(), r)
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for wrong issuer", result.Decision)
	}
}

func TestAuthenticate_MissingSubject(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := signToken(t, testSecret, jwtlib.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	r := requestWithToken(token)
	result := a.Authenticate(r.Context(), r)
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for missing subject", result.Decision)
	}
}

func TestAuthenticate_CustomUserClaim(t *testing.T) {
	a := New(Config{Secret: testSecret, UserClaim: "email"})
	token := signToken(t, testSecret, jwtlib.MapClaims{
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	r := requestWithToken(token)
	result := a.Authenticate(r.Context(), r)
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err: %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "alice@example.com" {
		t.Errorf("Subject = %q", result.Identity.Subject)
	}
}

func TestAuthenticate_Abstains(t *testing.T) {
	a := New(Config{Secret: testSecret})

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"opaque api key", "Bearer sk-opaque-api-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			result := a.Authenticate(r.Context(), r)
			if result.Decision != auth.Abstain {
				t.Errorf("Decision = %d, want Abstain", result.Decision)
			}
		})
	}
}
