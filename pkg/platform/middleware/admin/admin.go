// Package admin guards the operational endpoints of the ops server.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"swiftpolicy/pkg/requestcontext"
)

// TokenHeader carries the shared operator token.
const TokenHeader = "X-Admin-Token"

// RequireAdminToken rejects requests whose TokenHeader does not match
// expectedToken. An empty expectedToken disables the guarded routes entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reason := check(expectedToken, r.Header.Get(TokenHeader)); reason != "" {
				ctx := r.Context()
				logger.WarnContext(ctx, "ops request rejected",
					"reason", reason,
					"path", r.URL.Path,
					"correlation_id", requestcontext.CorrelationID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func check(expected, sent string) string {
	switch {
	case expected == "":
		return "ops token not configured"
	case sent == "":
		return "token missing"
	case subtle.ConstantTimeCompare([]byte(sent), []byte(expected)) != 1:
		return "token mismatch"
	}
	return ""
}
