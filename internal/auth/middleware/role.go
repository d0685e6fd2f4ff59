package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
)

// UserGetter loads a user by id
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAdmin must run after RequireAuth. The role is read from the stored user on
// every request, the token's role claim is not trusted for this check.
func RequireAdmin(users UserGetter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					writeError(w, http.StatusNotFound, "user not found")
					return
				}
				logger.Error("failed to load user for admin check", zap.String("user_id", userID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if user.Role != models.RoleAdmin {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
