// Package middleware holds the HTTP middleware chain shared by all routes.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth guards routes behind a static key, accepted either as a Bearer token
// in the Authorization header or in the X-API-Key header. With no key
// configured the wrapped handler is returned as-is: local runs stay open.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		want := []byte(apiKey)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := credential(r)
			if got == "" {
				deny(w, "missing credentials")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				deny(w, "bad credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// credential pulls the presented key out of the request. Bearer wins over
// X-API-Key when both are set.
func credential(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
