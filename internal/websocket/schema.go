package websocket

import (
	"time"

	"github.com/stemsi/kodemy-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only message shape clients send on the order stream.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSnapshot Event = "snapshot"
	EventStatus   Event = "status"
	EventPong     Event = "pong"
)

// StatusResponse carries an order's payment status. The first message on a
// stream is a snapshot; later ones are live changes.
type StatusResponse struct {
	Event         Event               `json:"event"`
	OrderID       int                 `json:"orderId"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// IsTerminal reports whether no further status change is expected.
func IsTerminal(status model.PaymentStatus) bool {
	return status == model.PaymentStatusSuccess || status == model.PaymentStatusFailure
}
