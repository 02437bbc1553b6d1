package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// AccessTokenCookie is the cookie carrying the short-lived access token.
const AccessTokenCookie = "access_token"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserKey is the context key for the authenticated user
	UserKey contextKey = "user"
)

// TokenParser validates an access token and returns the principal id.
type TokenParser interface {
	ParseAccessToken(token string) (uuid.UUID, error)
}

// AuthMiddleware resolves the session cookie into a loaded user.
type AuthMiddleware struct {
	tokens TokenParser
	users  domain.UserRepository
}

func NewAuthMiddleware(tokens TokenParser, users domain.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Authenticate returns an Echo middleware that validates the access token
// cookie and injects the user into the request context. Deactivated users
// are rejected even while their token is still unexpired.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			userID, err := m.tokens.ParseAccessToken(cookie.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			user, err := m.users.GetByID(c.Request().Context(), userID)
			if err != nil {
				log.Debug().Err(err).Str("user_id", userID.String()).Msg("session user lookup failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			if !user.Active {
				return echo.NewHTTPError(http.StatusUnauthorized, "account deactivated")
			}

			ctx := context.WithValue(c.Request().Context(), UserKey, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRoles returns a middleware that rejects principals outside the
// given roles. It must run after Authenticate.
func RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !allowed[user.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// GetUser extracts the authenticated user from the context.
func GetUser(c echo.Context) *domain.User {
	if user, ok := c.Request().Context().Value(UserKey).(*domain.User); ok {
		return user
	}
	return nil
}

// GetUserID extracts the authenticated user's id from the context.
func GetUserID(c echo.Context) uuid.UUID {
	if user := GetUser(c); user != nil {
		return user.ID
	}
	return uuid.Nil
}
