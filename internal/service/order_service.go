package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/payment"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/response"
)

// DefaultPaymentMethod is recorded when checkout names none.
const DefaultPaymentMethod = "Credit Card"

// EnrollmentQueue hands paid enrollments to the background worker.
type EnrollmentQueue interface {
	EnqueueEnrollment(ctx context.Context, job model.EnrollmentJob) error
}

// StatusPublisher announces payment status changes to live subscribers.
type StatusPublisher interface {
	PublishOrderStatus(ctx context.Context, orderID int, status model.PaymentStatus) error
}

// CheckoutOrder is the order summary returned by checkout.
type CheckoutOrder struct {
	ID            int                 `json:"id"`
	OrderAt       time.Time           `json:"orderAt"`
	PaymentMethod string              `json:"paymentMethod"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	TotalPrice    int64               `json:"totalPrice"`
	CourseName    string              `json:"courseName"`
}

// CheckoutResult pairs the new order with its payment session.
type CheckoutResult struct {
	Order   CheckoutOrder    `json:"order"`
	Payment *payment.Session `json:"payment"`
}

// OrderService runs checkout and applies gateway notifications.
type OrderService struct {
	orders    repository.OrderRepository
	courses   repository.CourseRepository
	users     repository.UserRepository
	gateway   payment.Gateway
	queue     EnrollmentQueue
	publisher StatusPublisher
	cache     CourseCache
	log       zerolog.Logger
	now       func() time.Time
}

// NewOrderService creates an OrderService. queue, publisher and cache may be
// nil; enrollments are then applied inline and no events are sent.
func NewOrderService(
	orders repository.OrderRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	gateway payment.Gateway,
	queue EnrollmentQueue,
	publisher StatusPublisher,
	cache CourseCache,
	log zerolog.Logger,
) *OrderService {
	if cache == nil {
		cache = noopCache{}
	}
	return &OrderService{
		orders:    orders,
		courses:   courses,
		users:     users,
		gateway:   gateway,
		queue:     queue,
		publisher: publisher,
		cache:     cache,
		log:       log.With().Str("component", "order_service").Logger(),
		now:       time.Now,
	}
}

// Checkout creates a pending order for one course and opens a payment session.
func (s *OrderService) Checkout(ctx context.Context, userID int, req model.CheckoutRequest) (*CheckoutResult, error) {
	courseID := req.ResolvedCourseID()
	if courseID == 0 {
		return nil, response.BadRequest("Course ID is required")
	}
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, response.NotFound("Course not found")
		}
		return nil, fmt.Errorf("get course: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}

	now := s.now()
	order := &model.Order{
		OrderAt:       now,
		PaymentMethod: paymentMethod,
		PaymentStatus: model.PaymentStatusPending,
		TotalPrice:    course.Price,
		UserID:        user.ID,
	}
	detail := &model.OrderDetail{
		Quantity: 1,
		Price:    course.Price,
		CourseID: course.ID,
	}
	if err := s.orders.CreateWithDetail(ctx, order, detail); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	gatewayOrderID := GatewayOrderID(order.ID, now)
	session, err := s.gateway.CreateSession(payment.Transaction{
		OrderID:       gatewayOrderID,
		Amount:        course.Price,
		CustomerName:  user.FullName,
		CustomerEmail: user.Email,
		Items: []payment.Item{
			{ID: course.ID, Name: course.Title, Price: course.Price, Quantity: 1},
		},
	})
	if err != nil {
		s.log.Error().Err(err).Int("order_id", order.ID).Msg("Payment session failed")
		return nil, response.PaymentGateway(err)
	}

	if err := s.orders.SetMidtransOrderID(ctx, order.ID, gatewayOrderID); err != nil {
		s.log.Error().Err(err).Int("order_id", order.ID).Msg("Saving gateway order id failed")
		return nil, response.PaymentGateway(err)
	}

	s.log.Info().
		Int("order_id", order.ID).
		Int("course_id", course.ID).
		Str("gateway_order_id", gatewayOrderID).
		Msg("Checkout created")

	return &CheckoutResult{
		Order: CheckoutOrder{
			ID:            order.ID,
			OrderAt:       order.OrderAt,
			PaymentMethod: order.PaymentMethod,
			PaymentStatus: order.PaymentStatus,
			TotalPrice:    order.TotalPrice,
			CourseName:    course.Title,
		},
		Payment: session,
	}, nil
}

// HandleNotification verifies a gateway webhook and applies the resulting
// payment status. An unmapped gateway status leaves the order untouched.
func (s *OrderService) HandleNotification(ctx context.Context, n model.PaymentNotification) error {
	status, err := s.gateway.VerifyNotification(n)
	if err != nil {
		return fmt.Errorf("verify notification: %w", err)
	}

	order, err := s.orders.GetByMidtransID(ctx, status.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("order with midtrans id %s: %w", status.OrderID, repository.ErrNotFound)
		}
		return fmt.Errorf("find order: %w", err)
	}

	next := MapPaymentStatus(status.TransactionStatus, status.FraudStatus)
	if next == "" {
		s.log.Warn().
			Int("order_id", order.ID).
			Str("transaction_status", status.TransactionStatus).
			Str("fraud_status", status.FraudStatus).
			Msg("Unmapped payment status, order left unchanged")
		return nil
	}

	// Gateways resend notifications, sometimes concurrently. Only the update
	// that actually moves the order into success counts as an enrollment.
	firstPaid := false
	if next == model.PaymentStatusSuccess {
		firstPaid, err = s.orders.MarkPaid(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
	} else if err := s.orders.UpdatePaymentStatus(ctx, order.ID, next); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	s.log.Info().
		Int("order_id", order.ID).
		Str("from", string(order.PaymentStatus)).
		Str("to", string(next)).
		Msg("Payment status updated")

	if s.publisher != nil {
		if err := s.publisher.PublishOrderStatus(ctx, order.ID, next); err != nil {
			s.log.Warn().Err(err).Int("order_id", order.ID).Msg("Publishing order status failed")
		}
	}

	if firstPaid {
		return s.recordEnrollment(ctx, order.ID)
	}
	return nil
}

func (s *OrderService) recordEnrollment(ctx context.Context, orderID int) error {
	detail, err := s.orders.GetDetailByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get order detail: %w", err)
	}

	job := model.EnrollmentJob{CourseID: detail.CourseID, Quantity: detail.Quantity}
	if s.queue != nil {
		err := s.queue.EnqueueEnrollment(ctx, job)
		if err == nil {
			return nil
		}
		s.log.Warn().Err(err).Int("order_id", orderID).Msg("Enrollment enqueue failed, applying inline")
	}

	if err := s.courses.IncrementEnrollment(ctx, job.CourseID, job.Quantity); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("increment enrollment: %w", err)
	}
	s.cache.InvalidateCourses(ctx, job.CourseID)
	return nil
}

// GetOrder returns one of the caller's orders with its purchased courses.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, response.NotFound("Order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, response.Forbidden("You don't have permission to view this order")
	}
	return order, nil
}

// MapPaymentStatus converts gateway transaction and fraud statuses into an
// order payment status. It returns "" for combinations with no mapping.
func MapPaymentStatus(transactionStatus, fraudStatus string) model.PaymentStatus {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "challenge":
			return model.PaymentStatusChallenge
		case "accept":
			return model.PaymentStatusSuccess
		}
	case "settlement":
		return model.PaymentStatusSuccess
	case "cancel", "deny", "expire":
		return model.PaymentStatusFailure
	case "pending":
		return model.PaymentStatusPending
	}
	return ""
}

// GatewayOrderID builds the unique order id sent to the gateway.
func GatewayOrderID(orderID int, at time.Time) string {
	return fmt.Sprintf("ORDER-%d-%d", orderID, at.UnixMilli())
}
