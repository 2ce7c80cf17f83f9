package services

import (
	"context"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
	"github.com/shashiranjanraj/pustak/pkg/metrics"
	"github.com/shashiranjanraj/pustak/pkg/payment"
)

// PaymentService bridges orders to the payment provider. Amounts cross
// the boundary in the currency's minor unit: a stored total of 1020
// becomes 102000 paise.
type PaymentService struct {
	orders   OrderStore
	provider payment.Provider
	currency string
}

func NewPaymentService(orders OrderStore, provider payment.Provider, currency string) *PaymentService {
	return &PaymentService{orders: orders, provider: provider, currency: currency}
}

// CheckoutIntent is what the client needs to drive the provider's
// payment UI.
type CheckoutIntent struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// CreateIntent opens a payment intent for the caller's order.
func (s *PaymentService) CreateIntent(ctx context.Context, userID, orderID string) (*CheckoutIntent, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	amountMinor := order.TotalAmount * 100
	intent, err := s.provider.CreateIntent(ctx, amountMinor, s.currency, order.ID.Hex())
	if err != nil {
		return nil, err
	}

	return &CheckoutIntent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amountMinor,
		Currency:     s.currency,
	}, nil
}

// Confirm checks the intent's status with the provider once. Only a
// provider-reported success attaches the payment to the order and moves
// it to Processing; anything else leaves the order untouched.
func (s *PaymentService) Confirm(ctx context.Context, userID, orderID, intentID string) (*models.Order, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusPending {
		return nil, apperr.New(apperr.KindInvalidTransition, "Order is not awaiting payment")
	}

	intent, err := s.provider.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}

	if intent.Status != payment.StatusSucceeded {
		return nil, apperr.New(apperr.KindPaymentIncomplete, "Payment not completed")
	}

	order.PaymentID = intent.ID
	order.Status = models.StatusProcessing

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	metrics.OrderStatusChanges.WithLabelValues(string(models.StatusProcessing)).Inc()
	return order, nil
}

func (s *PaymentService) ownedOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	if !order.IsOwnedBy(uid) {
		return nil, apperr.New(apperr.KindForbidden, "Forbidden")
	}

	return order, nil
}
