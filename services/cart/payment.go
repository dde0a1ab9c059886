// File: services/cart/payment.go
package cart

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// PaymentHandoff produces the token the payment flow needs to collect the
// cart total. Actual payment processing stays with the external collaborator.
type PaymentHandoff interface {
	CreateHandoff(ctx context.Context, sessionID string, amount float64, currency string) (string, error)
}

// StripePaymentHandoff creates a PaymentIntent for the cart total and hands
// its client secret to the caller.
type StripePaymentHandoff struct {
	Logger *zap.Logger
}

func (h *StripePaymentHandoff) CreateHandoff(ctx context.Context, sessionID string, amount float64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(amount * 100))),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("sessionId", sessionID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	h.Logger.Info("created payment intent",
		zap.String("sessionId", sessionID),
		zap.String("paymentIntent", pi.ID))
	return pi.ClientSecret, nil
}

// OpaqueTokenHandoff is the fallback when no stripe key is configured: the
// engine still issues a handoff token, it just carries no payment intent.
type OpaqueTokenHandoff struct{}

func (OpaqueTokenHandoff) CreateHandoff(ctx context.Context, sessionID string, amount float64, currency string) (string, error) {
	return uuid.New().String(), nil
}

// NewPaymentHandoff picks the stripe-backed handoff when a key is configured.
func NewPaymentHandoff(stripeKey string, logger *zap.Logger) PaymentHandoff {
	if stripeKey == "" {
		return OpaqueTokenHandoff{}
	}
	return &StripePaymentHandoff{Logger: logger}
}
