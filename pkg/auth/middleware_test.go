package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

func TestMiddleware_BypassEndpoint(t *testing.T) {
	chain := &AuthChain{DefaultDecision: No}
	mw := Middleware(chain, []string{"/healthz"})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("bypass endpoint: status = %d, want 200", rec.Code)
	}
}

func TestMiddleware_NoAuth_Rejects(t *testing.T) {
	chain := &AuthChain{DefaultDecision: No}
	mw := Middleware(chain, DefaultBypassEndpoints)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/registry/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth: status = %d, want 401", rec.Code)
	}
}

func TestMiddleware_ValidAuth_Passes(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{
				Decision: Yes,
				Identity: &Identity{Subject: "alice"},
			}},
		},
		DefaultDecision: No,
	}
	mw := Middleware(chain, DefaultBypassEndpoints)

	var gotActor, gotSubject string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = storage.GetActor(r.Context())
		if id := IdentityFromContext(r.Context()); id != nil {
			gotSubject = id.Subject
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/registry/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("valid auth: status = %d, want 200", rec.Code)
	}
	if gotSubject != "alice" {
		t.Errorf("identity subject = %q, want alice", gotSubject)
	}
	if gotActor != "alice" {
		t.Errorf("storage actor = %q, want alice", gotActor)
	}
}

func TestMiddleware_EmptySubject_ServerError(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{}}},
		},
		DefaultDecision: No,
	}
	mw := Middleware(chain, nil)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/registry/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("empty subject: status = %d, want 500", rec.Code)
	}
}

func TestMiddleware_InvalidAuth_Rejects(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: No, Err: ErrUnauthenticated}},
		},
		DefaultDecision: Yes,
	}
	mw := Middleware(chain, nil)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/registry/export", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("invalid auth: status = %d, want 401", rec.Code)
	}
}
