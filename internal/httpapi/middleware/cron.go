package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireCronSecret guards the external trigger endpoint. The secret may be
// sent as X-Cron-Secret or as ?secret= for callers that only issue plain GETs.
// With no secret configured the endpoint is closed.
func RequireCronSecret(secret string) func(http.Handler) http.Handler {
	secret = strings.TrimSpace(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get("X-Cron-Secret")
			if given == "" {
				given = r.URL.Query().Get("secret")
			}
			if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid cron secret"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
