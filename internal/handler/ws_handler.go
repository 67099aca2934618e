package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/middleware"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/response"
	ws "github.com/stemsi/kodemy-backend/internal/websocket"
)

// OrderReader loads an order owned by a user.
type OrderReader interface {
	GetOrder(ctx context.Context, userID, orderID int) (*model.Order, error)
}

// OrderStatusWatcher streams payment status changes for one order until
// stop is called.
type OrderStatusWatcher interface {
	WatchOrderStatus(ctx context.Context, orderID int) (<-chan model.OrderStatusEvent, func(), error)
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler pushes an order's payment status to the buyer over a WebSocket.
type WSHandler struct {
	orders   OrderReader
	watcher  OrderStatusWatcher
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(orders OrderReader, watcher OrderStatusWatcher, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		orders:   orders,
		watcher:  watcher,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// OrderStatusStream godoc
// WS /ws/v1/orders/:id/stream
// Sends a snapshot of the order, then every status change until the order
// settles or the client goes away. Clients may send {"action":"ping"}.
func (h *WSHandler) OrderStatusStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Ownership is checked before the upgrade so failures keep the JSON envelope.
	order, err := h.orders.GetOrder(c.Request.Context(), claims.UserID, orderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Int("order_id", orderID).
		Logger()
	wsLog.Info().Msg("Buyer connected")

	if err := ws.WriteTyped(conn, ws.StatusResponse{
		Event:         ws.EventSnapshot,
		OrderID:       order.ID,
		PaymentStatus: order.PaymentStatus,
		UpdatedAt:     order.UpdatedAt,
	}); err != nil {
		return
	}
	if ws.IsTerminal(order.PaymentStatus) {
		_ = ws.CloseNormal(conn, "order settled")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, stop, err := h.watcher.WatchOrderStatus(ctx, orderID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Subscribe to order status failed")
		_ = ws.WriteError(conn, "status stream unavailable")
		return
	}
	defer stop()

	// The reader only forwards actions; every write happens on this goroutine.
	actions := make(chan ws.Action)
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			select {
			case actions <- msg.Action:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case action := <-actions:
			switch action {
			case ws.ActionPing:
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			default:
				wsLog.Warn().Str("action", string(action)).Msg("Unknown action")
				_ = ws.WriteError(conn, "unknown action: "+string(action))
			}

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, ws.StatusResponse{
				Event:         ws.EventStatus,
				OrderID:       ev.OrderID,
				PaymentStatus: ev.PaymentStatus,
				UpdatedAt:     ev.UpdatedAt,
			}); err != nil {
				return
			}
			if ws.IsTerminal(ev.PaymentStatus) {
				wsLog.Info().Str("status", string(ev.PaymentStatus)).Msg("Order settled, closing stream")
				_ = ws.CloseNormal(conn, "order settled")
				return
			}
		}
	}
}
