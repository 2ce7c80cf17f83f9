package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/pkg/bind"
	"github.com/shashiranjanraj/pustak/pkg/middleware"
	"github.com/shashiranjanraj/pustak/pkg/response"
)

// PaymentController handles the two-step card payment flow: create an
// intent, then confirm it after the client completes the provider UI.
type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

type createIntentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// CreateIntent opens a payment intent for the caller's order.
func (c *PaymentController) CreateIntent(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	var req createIntentRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	intent, err := c.payments.CreateIntent(r.Context(), id.UserID, req.OrderID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, intent)
}

type confirmPaymentRequest struct {
	OrderID         string `json:"orderId" validate:"required"`
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

// Confirm checks the payment with the provider and, on success, moves
// the order to Processing.
func (c *PaymentController) Confirm(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	var req confirmPaymentRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	order, err := c.payments.Confirm(r.Context(), id.UserID, req.OrderID, req.PaymentIntentID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, order)
}
