package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kitchenlog/recipebox/internal/adapters/auth"
	usersdomain "github.com/kitchenlog/recipebox/internal/users/domain"
)

var (
	ErrMissingToken = errors.New("missing authentication token")
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrTokenExpired = errors.New("token has expired")
)

// UserLoader resolves an authenticated token subject to a user record.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*usersdomain.User, error)
}

// AuthMiddleware authenticates requests with a bearer token issued by the
// token service and verifies the account behind it is still active.
type AuthMiddleware struct {
	tokens *auth.TokenService
	users  UserLoader
}

func NewAuthMiddleware(tokens *auth.TokenService, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
	}
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteJSONError(w, ErrorCodeUnauthorized, ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		// Remove "Bearer " prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			WriteJSONError(w, ErrorCodeUnauthorized, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userID, err := m.tokens.Parse(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				WriteJSONError(w, ErrorCodeTokenExpired, ErrTokenExpired.Error(), http.StatusUnauthorized)
				return
			}
			WriteJSONError(w, ErrorCodeInvalidToken, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		// The token may outlive the account; reject subjects that no longer
		// resolve to an active user.
		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			WriteJSONError(w, ErrorCodeInvalidToken, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}
		if !user.IsActive {
			WriteJSONError(w, ErrorCodeUnauthorized, "User account is disabled", http.StatusUnauthorized)
			return
		}

		// Continue with the request
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), user.ID)))
	})
}
