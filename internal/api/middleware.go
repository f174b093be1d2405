package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"marketplace-service/internal/auth"
	"marketplace-service/internal/domain"
	"marketplace-service/internal/store"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the caller identity resolved from a bearer token: everything
// downstream access control needs, nothing about the token itself.
type Identity struct {
	UserID int64
	Role   domain.Role
}

// IdentityFromContext returns the caller identity stored by Authenticator.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}

// Authenticator resolves the Authorization bearer token to a caller
// identity. The token must be an access token and must still map to an
// active user; a deactivated account is rejected even with a valid token.
func (h *HTTPHandler) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			h.respondWithError(w, http.StatusUnauthorized, "Missing or malformed Authorization header")
			return
		}

		claims, err := h.tokens.Parse(tokenString)
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			h.respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		user, err := h.userStore.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				h.respondWithError(w, http.StatusUnauthorized, "User is inactive or no longer exists")
				return
			}
			h.logger.Error("authenticator failed to load user", zap.Int64("user_id", claims.UserID), zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Failed to authenticate request")
			return
		}

		ident := Identity{UserID: user.ID, Role: user.Role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, ident)))
	})
}

// RequireRoles rejects callers whose role is not in the allowed set. It must
// run after Authenticator.
func RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				respondStatic(w, http.StatusUnauthorized, "Request is not authenticated")
				return
			}
			if !allowed[ident.Role] {
				respondStatic(w, http.StatusForbidden, "Insufficient role for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
