// Package payment wraps the Midtrans Snap and Core APIs.
package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/model"
)

var (
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrMissingOrderID   = errors.New("notification has no order_id")
)

// Item is one purchased line sent to the gateway.
type Item struct {
	ID       int
	Name     string
	Price    int64
	Quantity int
}

// Transaction is the payment request for a single order.
type Transaction struct {
	OrderID       string
	Amount        int64
	CustomerName  string
	CustomerEmail string
	Items         []Item
}

// Session is what the client needs to open the Snap payment page.
type Session struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
}

// NotificationStatus is the authoritative state of a gateway transaction.
type NotificationStatus struct {
	OrderID           string
	TransactionStatus string
	FraudStatus       string
}

// Gateway is the payment provider used by checkout and the webhook.
type Gateway interface {
	CreateSession(tx Transaction) (*Session, error)
	VerifyNotification(n model.PaymentNotification) (*NotificationStatus, error)
	CheckStatus(orderID string) (*NotificationStatus, error)
}

// Midtrans implements Gateway against the Midtrans sandbox or production API.
type Midtrans struct {
	serverKey string
	clientURL string
	snap      snap.Client
	core      coreapi.Client
	log       zerolog.Logger
}

// NewMidtrans creates a Midtrans gateway.
func NewMidtrans(serverKey, clientURL string, production bool, log zerolog.Logger) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	m := &Midtrans{serverKey: serverKey, clientURL: clientURL, log: log}
	m.snap.New(serverKey, env)
	m.core.New(serverKey, env)
	return m
}

// CreateSession opens a Snap transaction for tx.
func (m *Midtrans) CreateSession(tx Transaction) (*Session, error) {
	items := make([]midtrans.ItemDetails, 0, len(tx.Items))
	for _, it := range tx.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    strconv.Itoa(it.ID),
			Name:  it.Name,
			Price: it.Price,
			Qty:   int32(it.Quantity),
		})
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  tx.OrderID,
			GrossAmt: tx.Amount,
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: tx.CustomerName,
			Email: tx.CustomerEmail,
		},
		Items: &items,
		Callbacks: &snap.Callbacks{
			Finish: FinishURL(m.clientURL, tx.OrderID),
		},
	}

	resp, mErr := m.snap.CreateTransaction(req)
	if mErr != nil {
		m.log.Error().Str("order_id", tx.OrderID).Str("error", mErr.GetMessage()).Msg("Snap transaction failed")
		return nil, fmt.Errorf("snap create transaction: %w", mErr)
	}

	return &Session{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// VerifyNotification checks the webhook signature (when sent) and then asks
// the Core API for the transaction's current state.
func (m *Midtrans) VerifyNotification(n model.PaymentNotification) (*NotificationStatus, error) {
	if n.OrderID == "" {
		return nil, ErrMissingOrderID
	}
	if n.SignatureKey != "" && !ValidSignature(n, m.serverKey) {
		return nil, ErrInvalidSignature
	}
	return m.CheckStatus(n.OrderID)
}

// CheckStatus fetches the transaction state for a gateway order id.
func (m *Midtrans) CheckStatus(orderID string) (*NotificationStatus, error) {
	resp, mErr := m.core.CheckTransaction(orderID)
	if mErr != nil {
		m.log.Error().Str("order_id", orderID).Str("error", mErr.GetMessage()).Msg("Transaction status check failed")
		return nil, fmt.Errorf("check transaction %s: %w", orderID, mErr)
	}

	return &NotificationStatus{
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
	}, nil
}

// Signature computes the Midtrans notification signature:
// sha512(order_id + status_code + gross_amount + server_key), hex encoded.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// ValidSignature reports whether n was signed with serverKey.
func ValidSignature(n model.PaymentNotification, serverKey string) bool {
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) == 1
}

// FinishURL is where Snap sends the buyer after paying.
func FinishURL(clientURL, orderID string) string {
	return fmt.Sprintf("%s/payment?status=success&orderId=%s", clientURL, orderID)
}
