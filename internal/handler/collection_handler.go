package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
)

// CollectionHandler handles repayment collection HTTP requests.
type CollectionHandler struct {
	collections *service.CollectionService
}

func NewCollectionHandler(collections *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

// RecordCollectionRequest is the record repayment request body.
type RecordCollectionRequest struct {
	LoanID         string  `json:"loanId"`
	Amount         string  `json:"amount"`
	CollectionDate string  `json:"collectionDate,omitempty"`
	PaymentMethod  string  `json:"paymentMethod,omitempty"`
	Remarks        *string `json:"remarks,omitempty"`
}

// RecordCollection handles POST /api/v1/collections.
func (h *CollectionHandler) RecordCollection(c echo.Context) error {
	actor := middleware.GetUser(c)

	var req RecordCollectionRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "invalid request body", nil)
	}

	loanID, err := uuid.Parse(req.LoanID)
	if err != nil {
		return BadRequest(c, "invalid loan id", map[string]string{"field": "loanId"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return BadRequest(c, "amount must be a decimal number", map[string]string{"field": "amount"})
	}

	var collectedAt *time.Time
	if req.CollectionDate != "" {
		parsed, err := time.Parse("2006-01-02", req.CollectionDate)
		if err != nil {
			return BadRequest(c, "collection date must be in YYYY-MM-DD format", map[string]string{"field": "collectionDate"})
		}
		collectedAt = &parsed
	}

	result, err := h.collections.Record(c.Request().Context(), actor, service.RecordInput{
		LoanID:         loanID,
		Amount:         amount,
		CollectionDate: collectedAt,
		PaymentMethod:  req.PaymentMethod,
		Remarks:        req.Remarks,
	})
	if err != nil {
		return WriteError(c, err)
	}

	log.Info().
		Str("loan_id", loanID.String()).
		Str("collection_id", result.Collection.ID.String()).
		Str("amount", amount.StringFixed(2)).
		Str("receipt", result.Collection.ReceiptNumber).
		Msg("Collection recorded")
	return c.JSON(http.StatusCreated, result)
}

// GetCollections handles GET /api/v1/collections with loan/agent/date filters.
func (h *CollectionHandler) GetCollections(c echo.Context) error {
	actor := middleware.GetUser(c)

	filter := domain.CollectionFilter{}
	if raw := c.QueryParam("loanId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return BadRequest(c, "invalid loan id", map[string]string{"field": "loanId"})
		}
		filter.LoanID = id
	}
	if raw := c.QueryParam("agentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return BadRequest(c, "invalid agent id", map[string]string{"field": "agentId"})
		}
		filter.AgentID = id
	}
	if raw := c.QueryParam("startDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return BadRequest(c, "start date must be in YYYY-MM-DD format", map[string]string{"field": "startDate"})
		}
		filter.StartDate = &parsed
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return BadRequest(c, "end date must be in YYYY-MM-DD format", map[string]string{"field": "endDate"})
		}
		// Inclusive end of day.
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}
	filter.Page, filter.Limit = pagination(c)

	collections, total, err := h.collections.List(c.Request().Context(), actor, filter)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Data: collections, Total: total, Page: filter.Page, Limit: filter.Limit})
}

// GetCollection handles GET /api/v1/collections/:id.
func (h *CollectionHandler) GetCollection(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid collection id", nil)
	}

	collection, err := h.collections.Get(c.Request().Context(), actor, id)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, collection)
}

// DeleteCollection handles DELETE /api/v1/collections/:id, reversing the
// ledger allocation.
func (h *CollectionHandler) DeleteCollection(c echo.Context) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "invalid collection id", nil)
	}

	if err := h.collections.Delete(c.Request().Context(), actor, id); err != nil {
		return WriteError(c, err)
	}

	log.Info().Str("collection_id", id.String()).Msg("Collection deleted")
	return c.NoContent(http.StatusNoContent)
}
