// Package payment abstracts the card payment gateway behind a Provider
// interface so the order flow never talks to Stripe directly.
package payment

import "context"

// Intent statuses as reported by the provider.
const (
	StatusSucceeded = "succeeded"
)

// Intent is a provider-side payment attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Provider creates and inspects payment intents. Amounts are in the
// currency's minor unit (paise for INR).
type Provider interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, orderID string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}
