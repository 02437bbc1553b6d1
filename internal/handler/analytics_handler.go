package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
)

// AnalyticsHandler handles dashboard and audit trail HTTP requests.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	audit     *service.AuditService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService, audit *service.AuditService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, audit: audit}
}

// GetSummary handles GET /api/v1/analytics. Accepts either a named period
// (today, week, month, all) or an explicit startDate/endDate range.
func (h *AnalyticsHandler) GetSummary(c echo.Context) error {
	actor := middleware.GetUser(c)

	var start, end *time.Time
	if raw := c.QueryParam("startDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return BadRequest(c, "start date must be in YYYY-MM-DD format", map[string]string{"field": "startDate"})
		}
		start = &parsed
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return BadRequest(c, "end date must be in YYYY-MM-DD format", map[string]string{"field": "endDate"})
		}
		bounded := parsed.Add(24*time.Hour - time.Nanosecond)
		end = &bounded
	}

	summary, err := h.analytics.Summary(c.Request().Context(), actor, c.QueryParam("period"), start, end)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetAuditTrail handles GET /api/v1/audit/:entityType/:entityId.
func (h *AnalyticsHandler) GetAuditTrail(c echo.Context) error {
	entityType := c.Param("entityType")
	entityID, err := uuid.Parse(c.Param("entityId"))
	if err != nil {
		return BadRequest(c, "invalid entity id", nil)
	}
	page, limit := pagination(c)

	entries, total, err := h.audit.ListByEntity(c.Request().Context(), entityType, entityID, page, limit)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Data: entries, Total: total, Page: page, Limit: limit})
}
