// Package payment is the boundary to the external payment processor. The
// core never computes payment success itself; it only asks this collaborator.
package payment

import (
	"context"
)

// Intent is a created payment intent, exposing only what the frontend needs.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
}

// SubscriptionCheckout describes a recurring monthly subscription checkout.
type SubscriptionCheckout struct {
	AmountMonthly      int64
	Currency           string
	ProductName        string
	ProductDescription string
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

// Service is the external payment collaborator.
type Service interface {
	// CreateIntent creates a one-time payment intent for the given amount in
	// minor units.
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)

	// IsSucceeded reports whether the referenced payment intent completed.
	IsSucceeded(ctx context.Context, intentID string) (bool, error)

	// CreateSubscriptionCheckout creates a hosted checkout for a monthly
	// subscription and returns its URL.
	CreateSubscriptionCheckout(ctx context.Context, req SubscriptionCheckout) (string, error)
}
