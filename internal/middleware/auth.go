// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/session"
	"github.com/zhouzirui/medibot/backend/pkg/utils"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "medibot_session"

type contextKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextKey{}).(string)
	return userID, ok && userID != ""
}

// RequireUser rejects requests without a valid session cookie with 401.
func RequireUser(sessions session.Store) func(http.Handler) http.Handler {
	log := logger.Component("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				utils.RespondError(w, http.StatusUnauthorized, "login required")
				return
			}

			userID, err := sessions.Lookup(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					log.Error().Err(err).Msg("session lookup failed")
				}
				utils.RespondError(w, http.StatusUnauthorized, "login required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
