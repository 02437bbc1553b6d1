package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
)

// CustomerHandler handles customer onboarding and KYC HTTP requests.
type CustomerHandler struct {
	customers   *service.CustomerService
	assignments *service.AssignmentService
}

func NewCustomerHandler(customers *service.CustomerService, assignments *service.AssignmentService) *CustomerHandler {
	return &CustomerHandler{customers: customers, assignments: assignments}
}

// CreateCustomerRequest is the customer onboarding request body.
type CreateCustomerRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth"`
	IDProof     string `json:"idProof"`
}

// UpdateKYCRequest is the KYC status update body.
type UpdateKYCRequest struct {
	Status string `json:"status"`
}

// AssignAgentRequest is the agent assignment body.
type AssignAgentRequest struct {
	AgentID string `json:"agentId"`
}

// CreateCustomer handles POST /api/v1/customers.
func (h *CustomerHandler) CreateCustomer(c echo.Context) error {
	actor := middleware.GetUser(c)

	var req CreateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return BadRequest(c, "date of birth must be in YYYY-MM-DD format", map[string]string{"field": "dateOfBirth"})
	}

	customer, err := h.customers.CreateCustomer(c.Request().Context(), actor, service.CreateCustomerInput{
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		DateOfBirth: dob,
		IDProof:     req.IDProof,
	})
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("customer_id", customer.ID.String()).Str("email", customer.Email).Msg("Customer created")
	return c.JSON(http.StatusCreated, customer)
}

// GetCustomers handles GET /api/v1/customers.
func (h *CustomerHandler) GetCustomers(c echo.Context) error {
	actor := middleware.GetUser(c)
	page, limit := pagination(c)

	customers, total, err := h.customers.List(c.Request().Context(), actor, page, limit)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Data: customers, Total: total, Page: page, Limit: limit})
}

// GetCustomer handles GET /api/v1/customers/:id.
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid customer id", nil)
	}

	customer, err := h.customers.Get(c.Request().Context(), actor, id)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

// UpdateKYC handles PATCH /api/v1/customers/:id/kyc.
func (h *CustomerHandler) UpdateKYC(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid customer id", nil)
	}

	var req UpdateKYCRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}

	if err := h.customers.UpdateKYC(c.Request().Context(), actor, id, domain.KYCStatus(req.Status)); err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("customer_id", id.String()).Str("status", req.Status).Msg("KYC status updated")
	return c.NoContent(http.StatusNoContent)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id by deactivating the
// customer's login.
func (h *CustomerHandler) DeleteCustomer(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid customer id", nil)
	}

	if err := h.customers.Deactivate(c.Request().Context(), actor, id); err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("customer_id", id.String()).Msg("Customer deactivated")
	return c.NoContent(http.StatusNoContent)
}

// AssignAgent handles POST /api/v1/customers/:id/agent, replacing any
// active assignment.
func (h *CustomerHandler) AssignAgent(c echo.Context) error {
	actor := middleware.GetUser(c)

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid customer id", nil)
	}

	var req AssignAgentRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		return BadRequest(c, "invalid agent id", map[string]string{"field": "agentId"})
	}

	assignment, err := h.assignments.Assign(c.Request().Context(), actor, agentID, customerID)
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("customer_id", customerID.String()).Str("agent_id", agentID.String()).Msg("Agent assigned")
	return c.JSON(http.StatusCreated, assignment)
}

// UnassignAgent handles DELETE /api/v1/customers/:id/agent.
func (h *CustomerHandler) UnassignAgent(c echo.Context) error {
	actor := middleware.GetUser(c)

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid customer id", nil)
	}

	if err := h.assignments.Unassign(c.Request().Context(), actor, customerID); err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("customer_id", customerID.String()).Msg("Agent unassigned")
	return c.NoContent(http.StatusNoContent)
}

// GetAgentAssignments handles GET /api/v1/agents/:id/assignments.
func (h *CustomerHandler) GetAgentAssignments(c echo.Context) error {
	actor := middleware.GetUser(c)

	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid agent id", nil)
	}

	assignments, err := h.assignments.ListByAgent(c.Request().Context(), actor, agentID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, assignments)
}
