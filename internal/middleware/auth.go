package middleware

import (
	"context"
	"errors"
	"net/http"

	"stackstore-be/internal/auth"
	"stackstore-be/internal/logger"
	"stackstore-be/internal/transport"
	"stackstore-be/internal/user"
	"stackstore-be/internal/utils"

	"go.uber.org/zap"
)

const staleSessionMessage = "Session is stale. Please sign in again."

// UserLookup confirms that the subject of a token still exists.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*user.User, error)
}

// AuthMiddleware attaches the token subject to the context. Requests without a token pass
// through anonymously; a token that fails to parse is rejected.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractAccessToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := user.ParseJWT(token)
		if err != nil {
			logger.FromCtx(r.Context()).Info("rejected access token", zap.Error(err))
			transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous requests and tokens whose user row no longer exists.
func RequireUser(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if users != nil {
				if _, err := users.GetUserByID(r.Context(), userID); err != nil {
					if errors.Is(err, user.ErrUserNotFound) {
						transport.WriteError(w, http.StatusUnauthorized, staleSessionMessage)
						return
					}
					logger.FromCtx(r.Context()).Error("session lookup failed", zap.Error(err))
					transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !utils.IsAdmin(r.Context()) {
			transport.WriteError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
