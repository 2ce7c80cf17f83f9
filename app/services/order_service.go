package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
	"github.com/shashiranjanraj/pustak/pkg/logger"
	"github.com/shashiranjanraj/pustak/pkg/metrics"
	"github.com/shashiranjanraj/pustak/pkg/ws"
)

// OrderService drives the order lifecycle: checkout with atomic stock
// reservation, the cancel path, the admin status escape hatch, and the
// delivered-order return flow.
type OrderService struct {
	orders OrderStore
	books  BookStore
	users  UserStore
	feed   Feed     // optional
	trail  Recorder // optional
	window time.Duration
	now    func() time.Time
}

func NewOrderService(orders OrderStore, books BookStore, users UserStore, feed Feed, trail Recorder, returnWindow time.Duration) *OrderService {
	return &OrderService{
		orders: orders,
		books:  books,
		users:  users,
		feed:   feed,
		trail:  trail,
		window: returnWindow,
		now:    time.Now,
	}
}

// OrderLine is one requested line item at checkout.
type OrderLine struct {
	BookID   string
	Quantity int
}

// CreateOrderInput is the checkout payload. The shipping address comes
// either inline, snapshotted verbatim onto the order, or as a saved
// address id resolved from the caller's address book.
type CreateOrderInput struct {
	Items         []OrderLine
	Address       *models.Address
	AddressID     string
	PaymentMethod string
}

// Create places an order. Every line is first checked against current
// stock so obviously doomed orders fail before anything is written;
// then each line's stock is taken with a conditional atomic decrement.
// If a decrement loses the race, the units already taken are returned
// and the whole order fails, so a multi-line order never partially
// reserves stock.
func (s *OrderService) Create(ctx context.Context, userID string, in CreateOrderInput) (*models.Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	if len(in.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "Order must contain at least one item")
	}
	if !models.ValidPaymentMethod(in.PaymentMethod) {
		return nil, apperr.New(apperr.KindValidation, "Invalid payment method")
	}

	var address models.Address
	switch {
	case in.Address != nil:
		address = *in.Address
	case in.AddressID != "":
		user, err := s.users.FindByID(ctx, uid)
		if err != nil {
			return nil, err
		}
		idx := user.AddressByID(in.AddressID)
		if idx < 0 {
			return nil, apperr.New(apperr.KindValidation, "Address not found")
		}
		address = user.Addresses[idx]
	default:
		return nil, apperr.New(apperr.KindValidation, "Address details are required")
	}

	// First pass: resolve books, validate quantities, snapshot prices.
	items := make([]models.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return nil, apperr.New(apperr.KindValidation, "Quantity must be at least 1")
		}

		bid, err := parseID(line.BookID)
		if err != nil {
			return nil, err
		}

		book, err := s.books.Get(ctx, bid)
		if err != nil {
			return nil, err
		}

		if book.Stock < line.Quantity {
			return nil, apperr.Newf(apperr.KindInsufficientStock, "Insufficient stock for %q", book.Title)
		}

		items = append(items, models.OrderItem{
			BookID:   book.ID,
			Title:    book.Title,
			Author:   book.Author,
			Price:    book.Price,
			Quantity: line.Quantity,
		})
	}

	// Second pass: take the stock. On failure, give back what was taken.
	taken := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if err := s.books.DecrementStock(ctx, item.BookID, item.Quantity); err != nil {
			s.compensate(ctx, taken)
			if apperr.IsKind(err, apperr.KindInsufficientStock) {
				metrics.StockConflicts.Inc()
				return nil, apperr.Newf(apperr.KindInsufficientStock, "Insufficient stock for %q", item.Title)
			}
			return nil, err
		}
		taken = append(taken, item)
	}
	s.invalidateBooks(items)

	order := &models.Order{
		UserID:         uid,
		Items:          items,
		AddressDetails: address,
		PaymentMethod:  in.PaymentMethod,
		Status:         models.StatusPending,
		ReturnStatus:   models.ReturnNone,
	}
	order.TotalAmount = order.Total()

	if err := s.orders.Create(ctx, order); err != nil {
		// the stock is already taken; give it back before failing
		s.compensate(ctx, taken)
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	s.record(order, userID, "created", "")
	s.broadcast("order.created", order)

	return order, nil
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, userID string) ([]models.Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return s.orders.FindByUser(ctx, uid)
}

// Get returns one order. Non-owners need the admin role.
func (s *OrderService) Get(ctx context.Context, userID string, isAdmin bool, orderID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		uid, err := parseID(userID)
		if err != nil {
			return nil, err
		}
		if !order.IsOwnedBy(uid) {
			return nil, apperr.New(apperr.KindForbidden, "Forbidden")
		}
	}

	return order, nil
}

// AdminOrder is an order enriched with the buyer's identity for the
// admin listing.
type AdminOrder struct {
	models.Order
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ListAll returns every order with buyer details, newest first.
func (s *OrderService) ListAll(ctx context.Context) ([]AdminOrder, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]struct{}, len(orders))
	ids := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.UserID]; !ok {
			seen[o.UserID] = struct{}{}
			ids = append(ids, o.UserID)
		}
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]AdminOrder, 0, len(orders))
	for _, o := range orders {
		ao := AdminOrder{Order: o}
		if u, ok := users[o.UserID]; ok {
			ao.Username = u.Username
			ao.Email = u.Email
		}
		out = append(out, ao)
	}

	return out, nil
}

// Cancel aborts a pending order and returns its stock. Once the order
// has moved past Pending the cancel path is closed.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*models.Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsOwnedBy(uid) {
		return nil, apperr.New(apperr.KindForbidden, "Forbidden")
	}
	if !order.CanCancel() {
		return nil, apperr.New(apperr.KindInvalidTransition, "Only pending orders can be cancelled")
	}

	order.Status = models.StatusCancelled
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.restock(ctx, order.Items)

	metrics.OrderStatusChanges.WithLabelValues(string(models.StatusCancelled)).Inc()
	s.record(order, userID, "cancelled", "")
	s.broadcast("order.status", order)

	return order, nil
}

// SetStatus is the admin escape hatch: it moves an order to any of the
// five statuses without transition checks. Entering Delivered stamps
// the delivery time the return window is measured from.
func (s *OrderService) SetStatus(ctx context.Context, orderID string, status models.Status) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.New(apperr.KindValidation, "Invalid order status")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Status = status
	if status == models.StatusDelivered && order.DeliveredAt == nil {
		t := s.now().UTC()
		order.DeliveredAt = &t
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	metrics.OrderStatusChanges.WithLabelValues(string(status)).Inc()
	s.record(order, "", "status", string(status))
	s.broadcast("order.status", order)

	return order, nil
}

// Delete removes an order outright. Admin only; stock is not touched.
func (s *OrderService) Delete(ctx context.Context, orderID string) error {
	oid, err := parseID(orderID)
	if err != nil {
		return err
	}

	if err := s.orders.Delete(ctx, oid); err != nil {
		return err
	}

	s.trailRecord(orderID, "", "deleted", "")
	return nil
}

// RequestReturn opens a return on a delivered order. The window is
// enforced against the server-stored delivery time, never a
// client-supplied date.
func (s *OrderService) RequestReturn(ctx context.Context, userID, orderID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, apperr.New(apperr.KindValidation, "Return reason is required")
	}

	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsOwnedBy(uid) {
		return nil, apperr.New(apperr.KindForbidden, "Forbidden")
	}
	if order.Status != models.StatusDelivered {
		return nil, apperr.New(apperr.KindInvalidTransition, "Only delivered orders can be returned")
	}
	if order.ReturnStatus != models.ReturnNone {
		return nil, apperr.New(apperr.KindInvalidTransition, "A return has already been requested")
	}
	if !order.ReturnWindowOpen(s.now(), s.window) {
		return nil, apperr.New(apperr.KindInvalidTransition, "Return window has closed")
	}

	now := s.now().UTC()
	order.ReturnStatus = models.ReturnRequested
	order.ReturnReason = reason
	order.ReturnRequestDate = &now

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.record(order, userID, "return_requested", reason)
	s.broadcast("order.return", order)

	return order, nil
}

// ResolveReturn approves or rejects a requested return.
func (s *OrderService) ResolveReturn(ctx context.Context, orderID string, approve bool) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ReturnStatus != models.ReturnRequested {
		return nil, apperr.New(apperr.KindInvalidTransition, "No pending return request")
	}

	if approve {
		order.ReturnStatus = models.ReturnApproved
	} else {
		order.ReturnStatus = models.ReturnRejected
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.record(order, "", "return_resolved", string(order.ReturnStatus))
	s.broadcast("order.return", order)

	return order, nil
}

// CompleteReturn is the owner handing the goods back: an approved
// return becomes Returned and the units go back in stock.
func (s *OrderService) CompleteReturn(ctx context.Context, userID, orderID string) (*models.Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsOwnedBy(uid) {
		return nil, apperr.New(apperr.KindForbidden, "Forbidden")
	}
	if order.ReturnStatus != models.ReturnApproved {
		return nil, apperr.New(apperr.KindInvalidTransition, "Return is not approved")
	}

	order.ReturnStatus = models.ReturnReturned
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.restock(ctx, order.Items)

	s.record(order, userID, "return_completed", "")
	s.broadcast("order.return", order)

	return order, nil
}

func (s *OrderService) load(ctx context.Context, orderID string) (*models.Order, error) {
	oid, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, oid)
}

// compensate returns stock taken by a partially failed reservation.
// Failures here are logged, not surfaced: the order itself already
// failed and a stuck counter is recoverable, a lost error is not.
func (s *OrderService) compensate(ctx context.Context, taken []models.OrderItem) {
	if len(taken) == 0 {
		return
	}
	for _, item := range taken {
		if err := s.books.IncrementStock(ctx, item.BookID, item.Quantity); err != nil {
			logger.WithCtx(ctx).Error("stock compensation failed",
				"book_id", item.BookID.Hex(), "quantity", item.Quantity, "error", err)
		}
	}
	s.invalidateBooks(taken)
}

func (s *OrderService) restock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.books.IncrementStock(ctx, item.BookID, item.Quantity); err != nil {
			logger.WithCtx(ctx).Error("stock restore failed",
				"book_id", item.BookID.Hex(), "quantity", item.Quantity, "error", err)
		}
	}
	s.invalidateBooks(items)
}

// invalidateBooks drops the cached catalogue entries whose stock the
// order paths changed behind the catalogue service's back.
func (s *OrderService) invalidateBooks(items []models.OrderItem) {
	keys := make([]string, 0, len(items)+1)
	keys = append(keys, bookListKey)
	for _, item := range items {
		keys = append(keys, bookKeyPrefix+item.BookID.Hex())
	}
	cacheDel(keys...)
}

func (s *OrderService) record(order *models.Order, userID, action, detail string) {
	s.trailRecord(order.ID.Hex(), userID, action, detail)
}

func (s *OrderService) trailRecord(orderID, userID, action, detail string) {
	if s.trail != nil {
		s.trail.Record(orderID, userID, action, detail)
	}
}

func (s *OrderService) broadcast(eventType string, order *models.Order) {
	if s.feed != nil {
		s.feed.Broadcast(ws.Event{Type: eventType, OrderID: order.ID.Hex(), Data: order})
	}
}
