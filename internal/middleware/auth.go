package middleware

import (
	"net/http"
)

// Auth checks that the caller carries the 'authenticated=true' cookie set by
// the login handler. Login, the health probe and the MJPEG stream stay open;
// embedded stream viewers cannot carry auth headers.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" || r.URL.Path == "/api/health" || r.URL.Path == "/api/stream" {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie("authenticated")
		if err != nil || cookie.Value != "true" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"Unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
