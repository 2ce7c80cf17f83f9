package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/pkg/bind"
	"github.com/shashiranjanraj/pustak/pkg/middleware"
	"github.com/shashiranjanraj/pustak/pkg/response"
)

// OrderController handles checkout, order history and the return flow.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Line-item fields are checked by the order service.
type orderLineRequest struct {
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

// createOrderRequest carries the address either inline or as a saved
// address id; the service requires one of the two.
type createOrderRequest struct {
	Items          []orderLineRequest `json:"items" validate:"required"`
	AddressDetails *models.Address    `json:"addressDetails"`
	AddressID      string             `json:"addressId"`
	PaymentMethod  string             `json:"paymentMethod" validate:"required"`
}

// Create places an order.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	var req createOrderRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.OrderLine{BookID: item.BookID, Quantity: item.Quantity})
	}

	order, err := c.orders.Create(r.Context(), id.UserID, services.CreateOrderInput{
		Items:         lines,
		Address:       req.AddressDetails,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, order)
}

// ListMine returns the caller's orders.
func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	orders, err := c.orders.ListMine(r.Context(), id.UserID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, orders)
}

// Get returns one order; owner or admin.
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	order, err := c.orders.Get(r.Context(), id.UserID, id.Role == models.RoleAdmin, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, order)
}

// ListAll returns every order with buyer details. Admin only.
func (c *OrderController) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.ListAll(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, orders)
}

// Cancel aborts a pending order.
func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	order, err := c.orders.Cancel(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, order)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetStatus overwrites an order's status. Admin only.
func (c *OrderController) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	order, err := c.orders.SetStatus(r.Context(), chi.URLParam(r, "id"), models.Status(req.Status))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, order)
}

// Delete removes an order. Admin only.
func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}

	response.Message(w, "Order deleted", nil)
}

type returnRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RequestReturn opens a return on a delivered order.
func (c *OrderController) RequestReturn(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	var req returnRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	order, err := c.orders.RequestReturn(r.Context(), id.UserID, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, order)
}

// ResolveReturn approves or rejects a return request. Admin only.
// The action comes from the URL: /return/approve or /return/reject.
func (c *OrderController) ResolveReturn(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if action != "approve" && action != "reject" {
		response.Error(w, http.StatusBadRequest, "Action must be approve or reject")
		return
	}

	order, err := c.orders.ResolveReturn(r.Context(), chi.URLParam(r, "id"), action == "approve")
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, order)
}

// CompleteReturn marks an approved return as handed back.
func (c *OrderController) CompleteReturn(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	order, err := c.orders.CompleteReturn(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, order)
}
