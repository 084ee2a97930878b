package auth

import (
	"log/slog"
	"net/http"

	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

// Middleware creates HTTP middleware from an AuthChain.
// It checks the bypass list, runs authentication and injects the
// authenticated identity and storage actor into the request context.
func Middleware(chain *AuthChain, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check bypass list.
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// Run auth chain.
			result := chain.Authenticate(r.Context(), r)

			if result.Decision == No {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				http.Error(w, `{"error":{"type":"invalid_request","message":"authentication required"}}`, http.StatusUnauthorized)
				return
			}

			if result.Decision != Yes || result.Identity == nil {
				http.Error(w, `{"error":{"type":"invalid_request","message":"authentication required"}}`, http.StatusUnauthorized)
				return
			}

			// Validate identity.
			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				http.Error(w, `{"error":{"type":"server_error","message":"internal authentication error"}}`, http.StatusInternalServerError)
				return
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			// Inject identity into context.
			ctx := SetIdentity(r.Context(), result.Identity)

			// Attribute storage writes to the authenticated subject.
			ctx = storage.SetActor(ctx, result.Identity.Subject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}
