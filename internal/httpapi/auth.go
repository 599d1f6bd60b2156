package httpapi

import (
	"crypto/subtle"
	"net/http"
)

// RequireAuthCode rejects requests whose Authorization header does not equal
// code. The check runs before any body is read.
func RequireAuthCode(code string) func(http.Handler) http.Handler {
	want := []byte(code)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				authFailuresTotal.Inc()
				withRequestID(zlog.Warn(), r).Str("path", r.URL.Path).Msg("invalid authorization code")
				writeJSONError(w, http.StatusUnauthorized, detailInvalidAuth)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
