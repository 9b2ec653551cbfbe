// internal/api/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/newthinker/finwindow/internal/api/response"
	"github.com/newthinker/finwindow/internal/core"
)

// APIKeyHeader carries the client's key.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware that validates the X-API-Key header.
// If apiKey is empty, authentication is disabled.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			providedKey := r.Header.Get(APIKeyHeader)
			if providedKey == "" {
				response.Fail(w, core.WrapError(core.ErrUnauthorized, fmt.Errorf("missing %s header", APIKeyHeader)))
				return
			}
			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				response.Fail(w, core.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
