// Package correlation stamps every request with a correlation id so log lines
// and audit events from one request can be joined.
package correlation

import (
	"net/http"
	"regexp"

	"swiftpolicy/pkg/requestcontext"
)

const Header = "X-Correlation-ID"

var acceptable = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// Middleware reuses a well-formed inbound id and otherwise mints one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !acceptable.MatchString(id) {
			id = requestcontext.NewCorrelationID()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithCorrelationID(r.Context(), id)))
	})
}
