package handler

import (
	"context"
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// TokenValidator resolves the session token on the upgrade URL to a user id
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userID int32, err error)
}

// WebSocketOptions configures the live update endpoint
type WebSocketOptions struct {
	// AllowedOrigins lists the browser origins that may connect. Requests
	// without an Origin header are not browsers and are let through.
	AllowedOrigins []string
	// MaxConnectionsPerUser caps open sockets per user; zero means no cap
	MaxConnectionsPerUser int
}

// WebSocketHandler upgrades authenticated requests into live update streams
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator TokenValidator
	origins   map[string]struct{}
	maxConns  int
	upgrader  ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, validator TokenValidator, opts WebSocketOptions) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:       hub,
		validator: validator,
		origins:   make(map[string]struct{}, len(opts.AllowedOrigins)),
		maxConns:  opts.MaxConnectionsPerUser,
	}
	for _, origin := range opts.AllowedOrigins {
		h.origins[origin] = struct{}{}
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originAllowed,
	}
	return h
}

func (h *WebSocketHandler) originAllowed(r *http.Request) bool {
	origin := r.Header.Get(echo.HeaderOrigin)
	if origin == "" {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
	return false
}

// HandleWS upgrades GET /ws?token=... and streams the caller's change events.
// Browsers cannot set headers on the upgrade request, so the session token
// travels on the query string.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return NewUnauthorizedError(c, "Missing session token")
	}

	userID, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket token rejected")
		return NewUnauthorizedError(c, "Invalid or expired session token")
	}

	// early answer while a plain HTTP status can still be sent; TryRegister
	// below is what enforces the cap
	if h.maxConns > 0 && h.hub.ClientCount(userID) >= h.maxConns {
		log.Warn().Int32("user_id", userID).Int("open", h.maxConns).Msg("WebSocket connection limit reached")
		return newProblem(c, http.StatusTooManyRequests, ErrorTypeRateLimit, "Too Many Requests",
			"Too many open live connections", nil)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered the request
		log.Debug().Err(err).Int32("user_id", userID).Msg("WebSocket upgrade failed")
		return nil
	}

	client := websocket.NewClient(conn, userID, h.hub)
	if !h.hub.TryRegister(client, h.maxConns) {
		log.Warn().Int32("user_id", userID).Int("open", h.maxConns).Msg("WebSocket connection limit reached after upgrade")
		msg := ws.FormatCloseMessage(ws.CloseTryAgainLater, "too many open live connections")
		_ = conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		return nil
	}
	log.Info().Int32("user_id", userID).Str("client_id", client.ID()).Msg("WebSocket client connected")

	go client.Serve()
	return nil
}
