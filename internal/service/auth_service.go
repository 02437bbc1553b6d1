package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is one issued session: short-lived access token plus a refresh
// token, both delivered as httpOnly cookies by the handler.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type sessionClaims struct {
	TokenType string `json:"typ"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles login, token issuing and refresh.
type AuthService struct {
	users         domain.UserRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(users domain.UserRepository, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Login verifies credentials and issues a session. Unknown email, wrong
// password and deactivated accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	userID, err := s.parse(refreshToken, tokenTypeRefresh, s.refreshSecret)
	if err != nil {
		return nil, nil, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrUnauthorized
		}
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, domain.ErrUnauthorized
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// ParseAccessToken validates an access token and returns the principal id.
func (s *AuthService) ParseAccessToken(token string) (uuid.UUID, error) {
	userID, err := s.parse(token, tokenTypeAccess, s.accessSecret)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return userID, nil
}

// AccessTTL exposes the access token lifetime for cookie expiry.
func (s *AuthService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL exposes the refresh token lifetime for cookie expiry.
func (s *AuthService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *AuthService) issuePair(user *domain.User) (*TokenPair, error) {
	now := time.Now()
	access, err := s.sign(user, tokenTypeAccess, s.accessSecret, now, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, tokenTypeRefresh, s.refreshSecret, now, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}, nil
}

func (s *AuthService) sign(user *domain.User, tokenType string, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		TokenType: tokenType,
		Role:      string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *AuthService) parse(tokenString, wantType string, secret []byte) (uuid.UUID, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, domain.ErrUnauthorized
	}
	if claims.TokenType != wantType {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return uuid.Parse(claims.Subject)
}
