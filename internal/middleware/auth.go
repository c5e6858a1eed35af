package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/student-api-be/internal/auth"
	"github.com/hongminglow/student-api-be/internal/http/respond"
	"github.com/hongminglow/student-api-be/internal/models"
	"github.com/hongminglow/student-api-be/internal/storage"
	"go.uber.org/zap"
)

type contextKey string

const (
	userContextKey   contextKey = "authenticated-user"
	claimsContextKey contextKey = "token-claims"
)

// Auth resolves the caller's identity from a bearer token: it verifies the
// signature, rejects revoked tokens, loads the user record, and stores both
// the user and the verified claims in the request context.
type Auth struct {
	tokens   *auth.TokenManager
	denylist auth.TokenDenylist
	users    storage.UserStore
	log      *zap.Logger
}

// NewAuth constructs the middleware.
func NewAuth(tokens *auth.TokenManager, denylist auth.TokenDenylist, users storage.UserStore, log *zap.Logger) *Auth {
	return &Auth{tokens: tokens, denylist: denylist, users: users, log: log}
}

// Require wraps a handler that needs an authenticated caller.
func (a *Auth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
			return
		}

		claims, err := a.tokens.Parse(token)
		if err != nil {
			respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
			return
		}

		revoked, err := a.denylist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			a.log.Error("denylist lookup failed", zap.Error(err))
			respond.Fail(w, http.StatusInternalServerError, "Unable to verify token")
			return
		}
		if revoked {
			respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
			return
		}
		user, err := a.users.FindUserByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
				return
			}
			a.log.Error("load authenticated user failed", zap.Int64("user_id", userID), zap.Error(err))
			respond.Fail(w, http.StatusInternalServerError, "Unable to verify token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// CallerFromContext returns the authenticated user stored by Require.
func CallerFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// ClaimsFromContext returns the verified token claims stored by Require.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("authorization header is empty")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errors.New("authorization header carries no token")
	}
	return token, nil
}
