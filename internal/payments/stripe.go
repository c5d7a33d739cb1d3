package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/webhook"
)

// StripeCheckout implements CheckoutProvider on Stripe Checkout.
type StripeCheckout struct {
	successURL string
	cancelURL  string
}

// NewStripeCheckout sets the global Stripe key and returns a provider.
func NewStripeCheckout(secretKey, successURL, cancelURL string) *StripeCheckout {
	stripe.Key = secretKey
	return &StripeCheckout{successURL: successURL, cancelURL: cancelURL}
}

func (c *StripeCheckout) CreateSession(ctx context.Context, p Payment, pkg CreditPackage) (CheckoutSession, error) {
	_ = ctx // stripe-go v74 manages its own request contexts

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(pkg.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
	params.AddMetadata("payment_id", p.ID)
	params.AddMetadata("company_id", p.CompanyID)

	s, err := session.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

var ErrUnhandledEvent = errors.New("unhandled webhook event")

// WebhookEvent is the subset of a Stripe event the confirmation flow needs.
type WebhookEvent struct {
	Type      string
	PaymentID string
	SessionID string
}

// ParseWebhook verifies the Stripe signature and extracts the payment
// reference. Returns ErrUnhandledEvent for event types we ignore.
func ParseWebhook(payload []byte, sigHeader, secret string) (WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("verify webhook: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
	default:
		return WebhookEvent{Type: string(event.Type)}, ErrUnhandledEvent
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode checkout session: %w", err)
	}
	return WebhookEvent{
		Type:      string(event.Type),
		PaymentID: cs.Metadata["payment_id"],
		SessionID: cs.ID,
	}, nil
}
