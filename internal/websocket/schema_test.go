package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stemsi/kodemy-backend/internal/model"
)

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status model.PaymentStatus
		want   bool
	}{
		{model.PaymentStatusPending, false},
		{model.PaymentStatusChallenge, false},
		{model.PaymentStatusSuccess, true},
		{model.PaymentStatusFailure, true},
	}
	for _, tt := range tests {
		if got := IsTerminal(tt.status); got != tt.want {
			t.Errorf("IsTerminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusResponseWireFormat(t *testing.T) {
	raw, err := json.Marshal(StatusResponse{
		Event:         EventSnapshot,
		OrderID:       9,
		PaymentStatus: model.PaymentStatusPending,
		UpdatedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"event":"snapshot","orderId":9,"paymentStatus":"pending","updatedAt":"2025-01-02T03:04:05Z"}`
	if string(raw) != want {
		t.Errorf("payload = %s, want %s", raw, want)
	}
}
