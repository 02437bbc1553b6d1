package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
)

// Handlers bundles the HTTP handlers for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Loans      *LoanHandler
	Collection *CollectionHandler
	Customers  *CustomerHandler
	Users      *UserHandler
	Capital    *CapitalHandler
	Analytics  *AnalyticsHandler
	WS         *WebSocketHandler
}

// RegisterRoutes sets up all API routes. Route-level role gates cover the
// coarse staff/back-office split; finer ownership checks live in the
// services.
func RegisterRoutes(e *echo.Echo, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	// Login and refresh are unauthenticated; the login handler applies its
	// own fixed-window limiter.
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	authed := api.Group("")
	authed.Use(auth.Authenticate())
	authed.Use(middleware.RateLimitMiddleware(limiter))

	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/logout", h.Auth.Logout)

	backOffice := middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager)
	staff := middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager, domain.RoleAgent)

	loans := authed.Group("/loans")
	loans.POST("", h.Loans.CreateLoan, backOffice)
	loans.GET("", h.Loans.GetLoans)
	loans.POST("/topup", h.Loans.TopUpLoan, backOffice)
	loans.GET("/:id", h.Loans.GetLoan)
	loans.PATCH("/:id", h.Loans.UpdateLoan, backOffice)
	loans.DELETE("/:id", h.Loans.DeleteLoan, backOffice)
	loans.POST("/:id/penalty", h.Loans.ApplyPenalty, backOffice)

	collections := authed.Group("/collections")
	collections.POST("", h.Collection.RecordCollection, staff)
	collections.GET("", h.Collection.GetCollections)
	collections.GET("/:id", h.Collection.GetCollection)
	collections.DELETE("/:id", h.Collection.DeleteCollection, backOffice)

	customers := authed.Group("/customers")
	customers.POST("", h.Customers.CreateCustomer, backOffice)
	customers.GET("", h.Customers.GetCustomers)
	customers.GET("/:id", h.Customers.GetCustomer)
	customers.PATCH("/:id/kyc", h.Customers.UpdateKYC, backOffice)
	customers.DELETE("/:id", h.Customers.DeleteCustomer, backOffice)
	customers.POST("/:id/agent", h.Customers.AssignAgent, backOffice)
	customers.DELETE("/:id/agent", h.Customers.UnassignAgent, backOffice)

	authed.GET("/agents/:id/assignments", h.Customers.GetAgentAssignments, staff)

	users := authed.Group("/users")
	users.POST("", h.Users.CreateUser, middleware.RequireRoles(domain.RoleAdmin))
	users.GET("", h.Users.GetUsers, backOffice)
	users.GET("/:id", h.Users.GetUser)
	users.PATCH("/:id/flags", h.Users.UpdateManagerFlags, middleware.RequireRoles(domain.RoleAdmin))
	users.DELETE("/:id", h.Users.DeleteUser, backOffice)

	authed.POST("/investments", h.Capital.CreateInvestment, backOffice)
	authed.GET("/investments", h.Capital.GetInvestments, backOffice)
	authed.POST("/borrowings", h.Capital.CreateBorrowing, backOffice)
	authed.GET("/borrowings", h.Capital.GetBorrowings, backOffice)

	authed.GET("/analytics", h.Analytics.GetSummary, backOffice)
	authed.GET("/audit/:entityType/:entityId", h.Analytics.GetAuditTrail, backOffice)

	if h.WS != nil {
		authed.GET("/ws", h.WS.HandleWS)
	}
}
