package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/calculator"
	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/money"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ListResponse wraps paginated collections.
type ListResponse struct {
	Data  any   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// WriteError maps a domain error onto the envelope and status code. Money
// safety errors carry their detail verbatim so the UI can display them;
// everything unexpected collapses to an opaque 500.
func WriteError(c echo.Context, err error) error {
	var overpay *calculator.OverpaymentError
	if errors.As(err, &overpay) {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "amount exceeds outstanding total",
			Message: err.Error(),
			Details: map[string]string{"outstanding": money.String(overpay.Outstanding)},
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidTerms),
		errors.Is(err, domain.ErrChargesExceedPrincipal),
		errors.Is(err, domain.ErrChargeTypeInvalid),
		errors.Is(err, domain.ErrKYCStatusInvalid),
		errors.Is(err, domain.ErrRoleInvalid),
		errors.Is(err, domain.ErrUserEmailInvalid),
		errors.Is(err, domain.ErrUserNameRequired),
		errors.Is(err, domain.ErrAmountInvalid),
		errors.Is(err, domain.ErrCapitalAmountInvalid):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid email or password"})
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrUserInactive):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "insufficient permissions"})
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrCollectionNotFound),
		errors.Is(err, domain.ErrAssignmentNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrStatusNotCollectable),
		errors.Is(err, domain.ErrLoanNotPending),
		errors.Is(err, domain.ErrLoanNotActive),
		errors.Is(err, domain.ErrHasOutstandingDues),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrReceiptConflict),
		errors.Is(err, domain.ErrOverpayment):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "conflicting state", Message: err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
	case errors.Is(err, domain.ErrTransientFailure):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "temporarily unavailable", Message: "please retry"})
	}

	id := c.Response().Header().Get(echo.HeaderXRequestID)
	log.Error().Err(err).Str("request_id", id).Str("path", c.Request().URL.Path).Msg("unhandled error")
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Message: id})
}

// BadRequest writes a 400 with field-level details.
func BadRequest(c echo.Context, message string, details any) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Message: message, Details: details})
}
