package handler

import (
	"net/http"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/websocket"
)

// WebSocketHandler upgrades authenticated connections and registers them
// with the event hub, scoped to the customers the principal may see.
type WebSocketHandler struct {
	hub            *websocket.Hub
	assignments    domain.AssignmentRepository
	customers      domain.CustomerRepository
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, assignments domain.AssignmentRepository, customers domain.CustomerRepository, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		assignments:    assignments,
		customers:      customers,
		allowedOrigins: originMap,
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Same-origin and non-browser clients carry no Origin header.
		return true
	}
	if h.allowedOrigins[origin] {
		return true
	}
	log.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// scopeFor resolves the visibility scope of the principal at connect time.
func (h *WebSocketHandler) scopeFor(c echo.Context, user *domain.User) (websocket.Scope, error) {
	switch user.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return websocket.ScopeAll(), nil
	case domain.RoleAgent:
		assignments, err := h.assignments.ListByAgent(c.Request().Context(), user.ID)
		if err != nil {
			return websocket.Scope{}, err
		}
		customerIDs := make([]uuid.UUID, 0, len(assignments))
		for _, a := range assignments {
			if a.Active {
				customerIDs = append(customerIDs, a.CustomerID)
			}
		}
		return websocket.ScopeCustomers(customerIDs...), nil
	default:
		customer, err := h.customers.GetByUserID(c.Request().Context(), user.ID)
		if err != nil {
			return websocket.Scope{}, err
		}
		return websocket.ScopeCustomers(customer.ID), nil
	}
}

// HandleWS handles GET /ws. Auth middleware runs first, so the principal
// is already loaded.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	scope, err := h.scopeFor(c, user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to resolve event scope")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve event scope")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, scope, h.hub)
	h.hub.Register(client)

	log.Info().Str("user_id", user.ID.String()).Str("client_id", client.ID()).Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
