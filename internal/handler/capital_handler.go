package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
)

// CapitalHandler handles investment and borrowing ledger HTTP requests.
type CapitalHandler struct {
	capital *service.CapitalService
}

func NewCapitalHandler(capital *service.CapitalService) *CapitalHandler {
	return &CapitalHandler{capital: capital}
}

// CapitalRequest is the shared body for investments and borrowings.
type CapitalRequest struct {
	Counterparty string `json:"counterparty"`
	Amount       string `json:"amount"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate,omitempty"`
}

func (r CapitalRequest) toInput() (service.CapitalInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return service.CapitalInput{}, err
	}
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return service.CapitalInput{}, err
	}
	input := service.CapitalInput{Counterparty: r.Counterparty, Amount: amount, StartDate: start}
	if r.EndDate != "" {
		end, err := time.Parse("2006-01-02", r.EndDate)
		if err != nil {
			return service.CapitalInput{}, err
		}
		input.EndDate = &end
	}
	return input, nil
}

// CreateInvestment handles POST /api/v1/investments.
func (h *CapitalHandler) CreateInvestment(c echo.Context) error {
	actor := middleware.GetUser(c)

	var req CapitalRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}
	input, err := req.toInput()
	if err != nil {
		return BadRequest(c, "amount must be a decimal number and dates in YYYY-MM-DD format", nil)
	}

	investment, err := h.capital.CreateInvestment(c.Request().Context(), actor, input)
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("investment_id", investment.ID.String()).Str("amount", investment.Amount.StringFixed(2)).Msg("Investment recorded")
	return c.JSON(http.StatusCreated, investment)
}

// GetInvestments handles GET /api/v1/investments.
func (h *CapitalHandler) GetInvestments(c echo.Context) error {
	actor := middleware.GetUser(c)
	page, limit := pagination(c)

	investments, total, err := h.capital.ListInvestments(c.Request().Context(), actor, page, limit)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Data: investments, Total: total, Page: page, Limit: limit})
}

// CreateBorrowing handles POST /api/v1/borrowings.
func (h *CapitalHandler) CreateBorrowing(c echo.Context) error {
	actor := middleware.GetUser(c)

	var req CapitalRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}
	input, err := req.toInput()
	if err != nil {
		return BadRequest(c, "amount must be a decimal number and dates in YYYY-MM-DD format", nil)
	}

	borrowing, err := h.capital.CreateBorrowing(c.Request().Context(), actor, input)
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("borrowing_id", borrowing.ID.String()).Str("amount", borrowing.Amount.StringFixed(2)).Msg("Borrowing recorded")
	return c.JSON(http.StatusCreated, borrowing)
}

// GetBorrowings handles GET /api/v1/borrowings.
func (h *CapitalHandler) GetBorrowings(c echo.Context) error {
	actor := middleware.GetUser(c)
	page, limit := pagination(c)

	borrowings, total, err := h.capital.ListBorrowings(c.Request().Context(), actor, page, limit)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Data: borrowings, Total: total, Page: page, Limit: limit})
}
