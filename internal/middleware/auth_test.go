package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
	"github.com/silambarasu-a/namma-finance-sub000/internal/testutil"
)

func newAuthMiddleware(t *testing.T) (*AuthMiddleware, *service.AuthService, *testutil.MockUserRepository) {
	t.Helper()
	users := testutil.NewMockUserRepository()
	auth := service.NewAuthService(users, "access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 7*24*time.Hour)
	return NewAuthMiddleware(auth, users), auth, users
}

func invoke(mw *AuthMiddleware, cookie *http.Cookie) (*httptest.ResponseRecorder, error, *domain.User) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/loans", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.User
	handler := mw.Authenticate()(func(c echo.Context) error {
		seen = GetUser(c)
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return rec, err, seen
}

type staticParser struct {
	id  uuid.UUID
	err error
}

func (p staticParser) ParseAccessToken(string) (uuid.UUID, error) {
	return p.id, p.err
}

func TestAuthenticate_MissingCookie(t *testing.T) {
	mw, _, _ := newAuthMiddleware(t)

	_, err, _ := invoke(mw, nil)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %v", err)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	mw, _, _ := newAuthMiddleware(t)

	_, err, _ := invoke(mw, &http.Cookie{Name: AccessTokenCookie, Value: "garbage"})
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %v", err)
	}
}

func TestAuthenticate_LoadsUserIntoContext(t *testing.T) {
	users := testutil.NewMockUserRepository()
	user := &domain.User{Email: "a@test.local", Name: "A", Role: domain.RoleAgent, Active: true}
	users.AddUser(user)
	mw := NewAuthMiddleware(staticParser{id: user.ID}, users)

	_, err, seen := invoke(mw, &http.Cookie{Name: AccessTokenCookie, Value: "valid"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if seen == nil || seen.ID != user.ID {
		t.Errorf("Expected user %s in context, got %v", user.ID, seen)
	}
}

func TestAuthenticate_DeactivatedUser(t *testing.T) {
	users := testutil.NewMockUserRepository()
	user := &domain.User{Email: "a@test.local", Name: "A", Role: domain.RoleAgent, Active: false}
	users.AddUser(user)
	mw := NewAuthMiddleware(staticParser{id: user.ID}, users)

	_, err, _ := invoke(mw, &http.Cookie{Name: AccessTokenCookie, Value: "valid"})
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for deactivated user, got %v", err)
	}
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	mw := NewAuthMiddleware(staticParser{id: uuid.New()}, testutil.NewMockUserRepository())

	_, err, _ := invoke(mw, &http.Cookie{Name: AccessTokenCookie, Value: "valid"})
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown user, got %v", err)
	}
}

func TestRequireRoles(t *testing.T) {
	e := echo.New()
	users := testutil.NewMockUserRepository()
	agent := &domain.User{Email: "a@test.local", Name: "A", Role: domain.RoleAgent, Active: true}
	users.AddUser(agent)
	mw := NewAuthMiddleware(staticParser{id: agent.ID}, users)

	run := func(allowed ...domain.Role) error {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "valid"})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := mw.Authenticate()(RequireRoles(allowed...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		}))
		return handler(c)
	}

	if err := run(domain.RoleAdmin, domain.RoleAgent); err != nil {
		t.Errorf("Expected agent allowed, got %v", err)
	}

	err := run(domain.RoleAdmin)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for agent, got %v", err)
	}
}

func TestGetUserID_NoUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if id := GetUserID(c); id != uuid.Nil {
		t.Errorf("Expected uuid.Nil, got %s", id)
	}
}
