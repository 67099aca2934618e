package model

import "time"

// PaymentStatus tracks an order through the payment gateway.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusChallenge PaymentStatus = "challenge"
	PaymentStatusFailure   PaymentStatus = "failure"
)

// Order is a single checkout by a user.
type Order struct {
	ID              int           `json:"id" gorm:"primaryKey"`
	OrderAt         time.Time     `json:"orderAt" gorm:"not null"`
	PaymentMethod   string        `json:"paymentMethod" gorm:"size:100;not null"`
	PaymentStatus   PaymentStatus `json:"paymentStatus" gorm:"size:32;not null;default:pending"`
	TotalPrice      int64         `json:"totalPrice" gorm:"not null"`
	UserID          int           `json:"UserId" gorm:"not null;index"`
	MidtransOrderID *string       `json:"midtransOrderId" gorm:"size:128;index"`
	OrderDetails    []OrderDetail `json:"OrderDetails,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// OrderDetail is one purchased course line within an order.
type OrderDetail struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Price     int64     `json:"price" gorm:"not null"`
	OrderID   int       `json:"OrderId" gorm:"not null;index"`
	CourseID  int       `json:"CourseId" gorm:"not null;index"`
	Course    *Course   `json:"Course,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CheckoutRequest is the payload for buying a course. The course id is
// accepted under either casing, or from the query string.
type CheckoutRequest struct {
	CourseID      int    `json:"courseId" form:"courseId"`
	CourseIDAlt   int    `json:"CourseId"`
	PaymentMethod string `json:"paymentMethod" form:"paymentMethod"`
}

// ResolvedCourseID returns whichever course id field was provided.
func (r CheckoutRequest) ResolvedCourseID() int {
	if r.CourseID != 0 {
		return r.CourseID
	}
	return r.CourseIDAlt
}

// PaymentNotification is the webhook body posted by the payment gateway.
type PaymentNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

// EnrollmentJob is queued when an order is paid.
type EnrollmentJob struct {
	CourseID int `json:"course_id"`
	Quantity int `json:"quantity"`
}

// OrderStatusEvent is published whenever an order's payment status changes.
type OrderStatusEvent struct {
	OrderID       int           `json:"orderId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
