package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/middleware"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/response"
	"github.com/stemsi/kodemy-backend/internal/service"
)

// OrderHandler handles checkout, gateway webhooks and order lookups.
type OrderHandler struct {
	orderService *service.OrderService
	log          zerolog.Logger
}

func NewOrderHandler(orderService *service.OrderService, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log.With().Str("component", "order_handler").Logger(),
	}
}

// Checkout godoc
// POST /orders/checkout
// Accepts courseId (or CourseId) in the body, or courseId in the query.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req model.CheckoutRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.ResolvedCourseID() == 0 {
		req.CourseID, _ = strconv.Atoi(c.Query("courseId"))
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = c.Query("paymentMethod")
	}

	result, err := h.orderService.Checkout(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Checkout successful", result)
}

// HandleNotification godoc
// POST /orders/notification
// Gateway webhook. Failures are answered here with 500 so the gateway
// retries; they never reach the error handler.
func (h *OrderHandler) HandleNotification(c *gin.Context) {
	var n model.PaymentNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		h.log.Warn().Err(err).Msg("Unreadable payment notification")
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrInvalidPayload, err.Error())
		return
	}

	if err := h.orderService.HandleNotification(c.Request.Context(), n); err != nil {
		h.log.Error().Err(err).Str("order_id", n.OrderID).Msg("Payment notification failed")
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrInternal, err.Error())
		return
	}

	response.Success(c, http.StatusOK, nil)
}

// GetOrder godoc
// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, order)
}
