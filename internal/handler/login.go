package handler

import (
	"net/http"

	"attendance/internal/config"
	"attendance/internal/logger"
)

// LoginHandler handles POST /auth/login by validating the password and
// issuing an auth cookie.
func LoginHandler(config *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		password := r.FormValue("password")
		if password != config.Password {
			logger.Warning("Failed login attempt from %s", r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid password"})
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "authenticated",
			Value:    "true",
			Path:     "/",
			MaxAge:   86400, // 1 day
			HttpOnly: true,
		})
		writeResult(w, true, "Logged in")
	}
}

// LogoutHandler clears the authentication cookie.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   "authenticated",
		Value:  "",
		Path:   "/",
		MaxAge: -1, // delete cookie
	})
	writeResult(w, true, "Logged out")
}
