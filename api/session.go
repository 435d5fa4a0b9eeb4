package api

import (
	"net/http"

	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/models"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
)

// SessionValidator resolves and revokes session tokens.
type SessionValidator interface {
	Validate(token string) (*models.Session, error)
	Revoke(token string)
}

// SessionHandler serves GET /session for the cookie's session.
func SessionHandler(sessions SessionValidator, cookie CookieConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(cookie.Name)
		if err != nil || c.Value == "" {
			respondJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not signed in"})
			return
		}

		sess, err := sessions.Validate(c.Value)
		if err != nil {
			logging.DebugLog("Session lookup failed [%s]: %v", utils.HashToken(c.Value), err)
			respondJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not signed in"})
			return
		}

		respondJSON(w, http.StatusOK, models.SessionResponse{
			UID:       sess.UID,
			Email:     sess.Email,
			ExpiresAt: sess.ExpiresAt,
		})
	}
}

// SignOutHandler serves POST /sign-out. It always succeeds.
func SignOutHandler(sessions SessionValidator, cookie CookieConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(cookie.Name); err == nil && c.Value != "" {
			sessions.Revoke(c.Value)
		}
		clearSessionCookie(w, cookie)
		respondJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
	}
}
