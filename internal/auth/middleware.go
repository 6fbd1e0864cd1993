package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gdg-garage/levelup-api/internal/models"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// AuthMiddleware attaches the caller's user id to the request context when
// an API key or a session cookie identifies them. Anonymous requests pass
// through; operations decide for themselves whether they need a caller.
func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Check for API Key Header
		if apiKey := r.Header.Get("X-API-KEY"); apiKey != "" && h.db != nil {
			var keyModel models.APIKey
			if err := h.db.Where("key = ?", apiKey).First(&keyModel).Error; err == nil {
				if keyModel.Expired(time.Now()) {
					http.Error(w, "Unauthorized: API Key expired", http.StatusUnauthorized)
					return
				}

				h.db.Model(&keyModel).Update("last_used_at", time.Now())

				ctx := context.WithValue(r.Context(), UserIDKey, keyModel.UserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		// 2. Fallback to JWT Cookie
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// A stale session must not lock the caller out of public routes or
		// of logging in again; secured operations reject anonymous callers.
		userID, exp, err := h.ParseToken(cookie.Value)
		if err != nil {
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    "",
				MaxAge:   -1,
				HttpOnly: true,
				Path:     "/",
			})
			next.ServeHTTP(w, r)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration
		if !exp.IsZero() && time.Until(exp) < TokenDuration/2 {
			if newToken, err := h.GenerateToken(userID); err == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    newToken,
					Expires:  time.Now().Add(TokenDuration),
					HttpOnly: true,
					Path:     "/",
				})
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
