package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
)

// RefreshTokenCookie is the cookie carrying the long-lived refresh token.
const RefreshTokenCookie = "refresh_token"

// LoginLimiter is the fixed-window rate limit applied to login attempts,
// keyed by source IP.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// AuthHandler handles login, refresh and session introspection.
type AuthHandler struct {
	auth       *service.AuthService
	limiter    LoginLimiter
	production bool
}

func NewAuthHandler(auth *service.AuthService, limiter LoginLimiter, production bool) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter, production: production}
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	if h.limiter != nil {
		allowed, err := h.limiter.Allow(c.Request().Context(), c.RealIP())
		if err != nil {
			// The limiter degrades open: an unavailable cache must not
			// lock everyone out.
			log.Warn().Err(err).Msg("login rate limiter unavailable")
		} else if !allowed {
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many login attempts"})
		}
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return BadRequest(c, "email and password are required", nil)
	}

	user, pair, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return WriteError(c, err)
	}

	if h.limiter != nil {
		if err := h.limiter.Reset(c.Request().Context(), c.RealIP()); err != nil {
			log.Debug().Err(err).Msg("login limiter reset failed")
		}
	}
	h.setSessionCookies(c, pair)
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	}

	user, pair, err := h.auth.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return WriteError(c, err)
	}

	h.setSessionCookies(c, pair)
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// Logout handles POST /auth/logout by expiring both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearCookie(c, middleware.AccessTokenCookie)
	h.clearCookie(c, RefreshTokenCookie)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookies(c echo.Context, pair *service.TokenPair) {
	c.SetCookie(h.sessionCookie(middleware.AccessTokenCookie, pair.AccessToken, pair.AccessExpiresAt))
	c.SetCookie(h.sessionCookie(RefreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresAt))
}

func (h *AuthHandler) sessionCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
}
