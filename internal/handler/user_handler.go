package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
)

// UserHandler handles staff user administration HTTP requests.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUserRequest is the staff user creation body.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateManagerFlagsRequest toggles a manager's destructive-delete rights.
type UpdateManagerFlagsRequest struct {
	CanDeleteCollections bool `json:"canDeleteCollections"`
	CanDeleteCustomers   bool `json:"canDeleteCustomers"`
	CanDeleteUsers       bool `json:"canDeleteUsers"`
}

// CreateUser handles POST /api/v1/users. Admin only.
func (h *UserHandler) CreateUser(c echo.Context) error {
	actor := middleware.GetUser(c)

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}

	user, err := h.users.CreateUser(c.Request().Context(), actor, service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("User created")
	return c.JSON(http.StatusCreated, user)
}

// GetUsers handles GET /api/v1/users.
func (h *UserHandler) GetUsers(c echo.Context) error {
	actor := middleware.GetUser(c)
	page, limit := pagination(c)

	users, total, err := h.users.List(c.Request().Context(), actor, page, limit)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Data: users, Total: total, Page: page, Limit: limit})
}

// GetUser handles GET /api/v1/users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid user id", nil)
	}

	user, err := h.users.Get(c.Request().Context(), actor, id)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateManagerFlags handles PATCH /api/v1/users/:id/flags. Admin only,
// target must be a manager.
func (h *UserHandler) UpdateManagerFlags(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid user id", nil)
	}

	var req UpdateManagerFlagsRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}

	user, err := h.users.UpdateManagerFlags(c.Request().Context(), actor, id,
		req.CanDeleteCollections, req.CanDeleteCustomers, req.CanDeleteUsers)
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("user_id", id.String()).Msg("Manager flags updated")
	return c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/:id by deactivating the account.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid user id", nil)
	}

	if err := h.users.SetActive(c.Request().Context(), actor, id, false); err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("user_id", id.String()).Msg("User deactivated")
	return c.NoContent(http.StatusNoContent)
}
