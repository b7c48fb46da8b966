package middleware

import (
	"context"
	"errors"
	"net/http"

	"draftpress/internal/common"
	"draftpress/internal/common/security"
	"draftpress/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDCtxKey contextKey = "userID"
	UserCtxKey   contextKey = "user"
)

// UserFinder resolves the identity named by a verified token.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticator must run after jwtauth.Verify. It turns the verification result into
// the caller's identity, or rejects with 401.
func Authenticator(users UserFinder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				reason := security.ClassifyTokenError(err)
				if reason == nil {
					reason = common.ErrTokenInvalid
				}
				logger.Debug("request not authenticated", zap.Error(reason), zap.String("path", r.URL.Path))
				common.RespondWithError(w, http.StatusUnauthorized, common.MsgNotLoggedIn)
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				logger.Debug("token without subject", zap.String("path", r.URL.Path))
				common.RespondWithError(w, http.StatusUnauthorized, common.MsgNotLoggedIn)
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					logger.Info("token for deleted user", zap.String("user_id", userID))
					common.RespondWithError(w, http.StatusUnauthorized, common.MsgUserGone)
					return
				}
				logger.Error("failed to load user for token", zap.String("user_id", userID), zap.Error(err))
				common.RespondWithError(w, http.StatusInternalServerError, common.MsgInternal)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, user.ID)
			ctx = context.WithValue(ctx, UserCtxKey, user.Public())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext returns the authenticated caller's id set by Authenticator.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok && userID != ""
}

// GetUserFromContext returns the authenticated caller without its password hash.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}
