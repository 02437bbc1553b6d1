package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
)

// LoanHandler handles loan-related HTTP requests.
type LoanHandler struct {
	loans   *service.LoanService
	accrual *service.AccrualService
}

func NewLoanHandler(loans *service.LoanService, accrual *service.AccrualService) *LoanHandler {
	return &LoanHandler{loans: loans, accrual: accrual}
}

// ChargeRequest is one deducted-at-source charge in a loan request.
type ChargeRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

// CreateLoanRequest is the create loan request body. Money fields travel
// as strings to keep decimal precision across the wire.
type CreateLoanRequest struct {
	CustomerID         string          `json:"customerId"`
	Principal          string          `json:"principal"`
	InterestRate       string          `json:"interestRate"`
	TenureInstallments int             `json:"tenureInstallments"`
	Frequency          string          `json:"frequency"`
	CustomPeriodDays   int             `json:"customPeriodDays,omitempty"`
	RepaymentType      string          `json:"repaymentType"`
	GracePeriodDays    int             `json:"gracePeriodDays,omitempty"`
	LateFeeDailyRate   string          `json:"lateFeeDailyRate,omitempty"`
	PenaltyRate        string          `json:"penaltyRate,omitempty"`
	Charges            []ChargeRequest `json:"charges,omitempty"`
	StartDate          string          `json:"startDate,omitempty"`
	Remarks            *string         `json:"remarks,omitempty"`
}

// LoanActionRequest is the body of PATCH /loans/:id lifecycle transitions.
type LoanActionRequest struct {
	Action          string  `json:"action"`
	Remarks         *string `json:"remarks,omitempty"`
	DisbursedAmount *string `json:"disbursedAmount,omitempty"`
}

// TopUpRequest is the top-up request body.
type TopUpRequest struct {
	LoanID          string          `json:"loanId"`
	TopUpAmount     string          `json:"topUpAmount"`
	NewTenure       *int            `json:"newTenure,omitempty"`
	NewInterestRate *string         `json:"newInterestRate,omitempty"`
	Charges         []ChargeRequest `json:"charges,omitempty"`
	Remarks         *string         `json:"remarks,omitempty"`
}

func parseCharges(reqs []ChargeRequest) ([]service.ChargeInput, error) {
	charges := make([]service.ChargeInput, len(reqs))
	for i, r := range reqs {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, err
		}
		charges[i] = service.ChargeInput{Type: domain.ChargeType(r.Type), Amount: amount}
	}
	return charges, nil
}

// CreateLoan handles POST /api/v1/loans.
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	actor := middleware.GetUser(c)

	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return BadRequest(c, "invalid customer id", map[string]string{"field": "customerId"})
	}
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return BadRequest(c, "principal must be a decimal number", map[string]string{"field": "principal"})
	}
	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		return BadRequest(c, "interest rate must be a decimal number", map[string]string{"field": "interestRate"})
	}

	lateFee := decimal.Zero
	if req.LateFeeDailyRate != "" {
		if lateFee, err = decimal.NewFromString(req.LateFeeDailyRate); err != nil {
			return BadRequest(c, "late fee rate must be a decimal number", map[string]string{"field": "lateFeeDailyRate"})
		}
	}
	penalty := decimal.Zero
	if req.PenaltyRate != "" {
		if penalty, err = decimal.NewFromString(req.PenaltyRate); err != nil {
			return BadRequest(c, "penalty rate must be a decimal number", map[string]string{"field": "penaltyRate"})
		}
	}

	charges, err := parseCharges(req.Charges)
	if err != nil {
		return BadRequest(c, "charge amounts must be decimal numbers", map[string]string{"field": "charges"})
	}

	var startDate *time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return BadRequest(c, "start date must be in YYYY-MM-DD format", map[string]string{"field": "startDate"})
		}
		startDate = &parsed
	}

	loan, err := h.loans.CreateLoan(c.Request().Context(), actor, service.CreateLoanInput{
		CustomerID:         customerID,
		Principal:          principal,
		InterestRate:       rate,
		TenureInstallments: req.TenureInstallments,
		Frequency:          domain.Frequency(req.Frequency),
		CustomPeriodDays:   req.CustomPeriodDays,
		RepaymentType:      domain.RepaymentType(req.RepaymentType),
		GracePeriodDays:    req.GracePeriodDays,
		LateFeeDailyRate:   lateFee,
		PenaltyRate:        penalty,
		Charges:            charges,
		StartDate:          startDate,
		Remarks:            req.Remarks,
	})
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("loan_id", loan.ID.String()).Str("number", loan.Number).Str("customer_id", customerID.String()).Msg("Loan created")
	return c.JSON(http.StatusCreated, loan)
}

// GetLoans handles GET /api/v1/loans with status/customerId filters.
func (h *LoanHandler) GetLoans(c echo.Context) error {
	actor := middleware.GetUser(c)

	filter := domain.LoanFilter{}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = domain.LoanStatus(status)
		if !filter.Status.Valid() {
			return BadRequest(c, "unknown loan status", map[string]string{"field": "status"})
		}
	}
	if raw := c.QueryParam("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return BadRequest(c, "invalid customer id", map[string]string{"field": "customerId"})
		}
		filter.CustomerID = id
	}
	filter.Page, filter.Limit = pagination(c)

	loans, total, err := h.loans.List(c.Request().Context(), actor, filter)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Data: loans, Total: total, Page: filter.Page, Limit: filter.Limit})
}

// GetLoan handles GET /api/v1/loans/:id, returning the loan with its
// schedule, collections and charges.
func (h *LoanHandler) GetLoan(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid loan id", nil)
	}

	detail, err := h.loans.Get(c.Request().Context(), actor, id)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// UpdateLoan handles PATCH /api/v1/loans/:id lifecycle transitions.
func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid loan id", nil)
	}

	var req LoanActionRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}

	ctx := c.Request().Context()
	switch req.Action {
	case "approve":
		loan, err := h.loans.Approve(ctx, actor, id, req.Remarks)
		if err != nil {
			return WriteError(c, err)
		}
		log.Info().Str("loan_id", id.String()).Msg("Loan approved")
		return c.JSON(http.StatusOK, loan)
	case "disburse":
		var amount *decimal.Decimal
		if req.DisbursedAmount != nil && *req.DisbursedAmount != "" {
			parsed, err := decimal.NewFromString(*req.DisbursedAmount)
			if err != nil {
				return BadRequest(c, "disbursed amount must be a decimal number", map[string]string{"field": "disbursedAmount"})
			}
			amount = &parsed
		}
		loan, err := h.loans.Disburse(ctx, actor, id, amount, req.Remarks)
		if err != nil {
			return WriteError(c, err)
		}
		log.Info().Str("loan_id", id.String()).Msg("Loan disbursed")
		return c.JSON(http.StatusOK, loan)
	case "close":
		loan, err := h.loans.Close(ctx, actor, id, req.Remarks)
		if err != nil {
			return WriteError(c, err)
		}
		log.Info().Str("loan_id", id.String()).Msg("Loan closed")
		return c.JSON(http.StatusOK, loan)
	case "preclose":
		result, err := h.loans.Preclose(ctx, actor, id, req.Remarks)
		if err != nil {
			return WriteError(c, err)
		}
		log.Info().Str("loan_id", id.String()).Str("total", result.Preclosure.Total.StringFixed(2)).Msg("Loan preclosed")
		return c.JSON(http.StatusOK, result)
	case "default":
		loan, err := h.loans.MarkDefaulted(ctx, actor, id, req.Remarks)
		if err != nil {
			return WriteError(c, err)
		}
		log.Info().Str("loan_id", id.String()).Msg("Loan marked defaulted")
		return c.JSON(http.StatusOK, loan)
	default:
		return BadRequest(c, "unknown action", map[string]string{"field": "action"})
	}
}

// PenaltyRequest is the body of POST /loans/:id/penalty. An empty amount
// falls back to the loan's penalty rate on the outstanding principal.
type PenaltyRequest struct {
	Amount string `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ApplyPenalty handles POST /api/v1/loans/:id/penalty.
func (h *LoanHandler) ApplyPenalty(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid loan id", nil)
	}

	var req PenaltyRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}
	var amount *decimal.Decimal
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return BadRequest(c, "penalty amount must be a decimal number", map[string]string{"field": "amount"})
		}
		amount = &parsed
	}

	record, err := h.accrual.ApplyPenalty(c.Request().Context(), actor, id, service.PenaltyInput{
		Amount: amount,
		Reason: req.Reason,
	})
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("loan_id", id.String()).Str("amount", record.Amount.StringFixed(2)).Msg("Penalty applied")
	return c.JSON(http.StatusCreated, record)
}

// TopUpLoan handles POST /api/v1/loans/topup.
func (h *LoanHandler) TopUpLoan(c echo.Context) error {
	actor := middleware.GetUser(c)

	var req TopUpRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}

	loanID, err := uuid.Parse(req.LoanID)
	if err != nil {
		return BadRequest(c, "invalid loan id", map[string]string{"field": "loanId"})
	}
	amount, err := decimal.NewFromString(req.TopUpAmount)
	if err != nil {
		return BadRequest(c, "top-up amount must be a decimal number", map[string]string{"field": "topUpAmount"})
	}
	var newRate *decimal.Decimal
	if req.NewInterestRate != nil && *req.NewInterestRate != "" {
		parsed, err := decimal.NewFromString(*req.NewInterestRate)
		if err != nil {
			return BadRequest(c, "interest rate must be a decimal number", map[string]string{"field": "newInterestRate"})
		}
		newRate = &parsed
	}
	charges, err := parseCharges(req.Charges)
	if err != nil {
		return BadRequest(c, "charge amounts must be decimal numbers", map[string]string{"field": "charges"})
	}

	result, err := h.loans.TopUp(c.Request().Context(), actor, service.TopUpInput{
		LoanID:          loanID,
		TopUpAmount:     amount,
		NewTenure:       req.NewTenure,
		NewInterestRate: newRate,
		Charges:         charges,
		Remarks:         req.Remarks,
	})
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().
		Str("old_loan_id", result.OldLoan.ID.String()).
		Str("new_loan_id", result.NewLoan.ID.String()).
		Str("new_principal", result.Details.NewPrincipal.StringFixed(2)).
		Msg("Loan topped up")
	return c.JSON(http.StatusCreated, result)
}

// DeleteLoan handles DELETE /api/v1/loans/:id. Only pending loans can be
// deleted.
func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid loan id", nil)
	}

	if err := h.loans.DeletePending(c.Request().Context(), actor, id); err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("loan_id", id.String()).Msg("Pending loan deleted")
	return c.NoContent(http.StatusNoContent)
}

// pagination reads page/limit query parameters with the API defaults.
func pagination(c echo.Context) (page, limit int) {
	page, limit = 1, 20
	if raw := c.QueryParam("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return page, limit
}
