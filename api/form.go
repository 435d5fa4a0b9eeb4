package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/form"
	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/models"
)

// CookieConfig controls the session cookie set after sign-in.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthFormHandler serves POST /sign-up and POST /sign-in for ctrl's mode.
func AuthFormHandler(ctrl *form.Controller, cookie CookieConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.AuthFormRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logging.WarnLog("Form %s failed: invalid JSON", ctrl.Mode())
			respondJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid JSON"})
			return
		}

		res := ctrl.Submit(r.Context(), form.Credentials{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})

		switch res.Outcome {
		case form.OutcomeInvalid:
			respondJSON(w, http.StatusBadRequest, models.FormResponse{Errors: res.Errors})
		case form.OutcomeBusy:
			respondJSON(w, http.StatusConflict, models.FormResponse{Notice: res.Notice})
		case form.OutcomeFailed:
			respondJSON(w, http.StatusUnauthorized, models.FormResponse{Notice: res.Notice})
		case form.OutcomeSucceeded:
			if res.Session != nil {
				setSessionCookie(w, cookie, res.Session)
			}
			respondJSON(w, http.StatusOK, models.FormResponse{Notice: res.Notice, Redirect: res.Redirect})
		default:
			logging.ErrorLog("Form %s: unknown outcome %d", ctrl.Mode(), res.Outcome)
			respondJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal error"})
			return
		}

		logging.DebugLog("Form %s handled in %v", ctrl.Mode(), time.Since(start))
	}
}

func setSessionCookie(w http.ResponseWriter, cookie CookieConfig, sess *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookie.Name,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cookie CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
