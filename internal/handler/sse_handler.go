package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/middleware"
	"github.com/stemsi/kodemy-backend/internal/response"
	ws "github.com/stemsi/kodemy-backend/internal/websocket"
)

const keepAliveInterval = 30 * time.Second

// SSEHandler is the Server-Sent Events twin of the order WebSocket, for
// clients that cannot hold a socket open.
type SSEHandler struct {
	orders    OrderReader
	watcher   OrderStatusWatcher
	log       zerolog.Logger
	keepAlive time.Duration
}

func NewSSEHandler(orders OrderReader, watcher OrderStatusWatcher, log zerolog.Logger) *SSEHandler {
	return &SSEHandler{
		orders:    orders,
		watcher:   watcher,
		log:       log.With().Str("component", "sse_handler").Logger(),
		keepAlive: keepAliveInterval,
	}
}

// OrderStatusEvents godoc
// GET /orders/:id/events
func (h *SSEHandler) OrderStatusEvents(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reqCtx := c.Request.Context()

	order, err := h.orders.GetOrder(reqCtx, userID, orderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	h.writeEvent(c, ws.StatusResponse{
		Event:         ws.EventSnapshot,
		OrderID:       order.ID,
		PaymentStatus: order.PaymentStatus,
		UpdatedAt:     order.UpdatedAt,
	})
	if ws.IsTerminal(order.PaymentStatus) {
		return
	}

	ctx, cancel := context.WithCancel(reqCtx)
	defer cancel()

	events, stop, err := h.watcher.WatchOrderStatus(ctx, orderID)
	if err != nil {
		h.log.Error().Err(err).Int("order_id", orderID).Msg("Subscribe to order status failed")
		h.writeEvent(c, ws.ErrorResponse{Event: ws.EventError, Error: "status stream unavailable"})
		return
	}
	defer stop()

	keepAliveTicker := time.NewTicker(h.keepAlive)
	defer keepAliveTicker.Stop()

	pingPayload, _ := json.Marshal(ws.PongResponse{Event: ws.EventPong})

	h.log.Debug().Int("order_id", orderID).Msg("Buyer attached to order SSE")

	for {
		select {
		case <-reqCtx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			h.writeEvent(c, ws.StatusResponse{
				Event:         ws.EventStatus,
				OrderID:       ev.OrderID,
				PaymentStatus: ev.PaymentStatus,
				UpdatedAt:     ev.UpdatedAt,
			})
			if ws.IsTerminal(ev.PaymentStatus) {
				return
			}

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *SSEHandler) writeEvent(c *gin.Context, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
