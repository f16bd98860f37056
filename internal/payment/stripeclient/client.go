// Package stripeclient wraps stripe-go's checkout session API behind
// the narrow broker.SessionProvider contract, so the broker never
// imports the Stripe SDK directly.
package stripeclient

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

const (
	successURL = "https://hotelly.ia.br/success"
	cancelURL  = "https://hotelly.ia.br/cancel"
)

// Client is a thin adapter over stripe-go, holding the process-wide
// secret key.
type Client struct {
	secretKey string
}

// New builds a Client bound to secretKey. Stripe's SDK keeps its API
// key as a package-level global, so every call sets it before issuing
// a request rather than relying on init-time configuration.
func New(secretKey string) *Client {
	return &Client{secretKey: secretKey}
}

func (c *Client) configure() {
	stripe.Key = c.secretKey
}

// CreateCheckoutSession creates a Stripe Checkout Session for a fixed
// amount/currency, presenting idempotencyKey so a retried call never
// creates a second session.
func (c *Client) CreateCheckoutSession(ctx context.Context, amountCents int64, currency, idempotencyKey string, metadata map[string]string) (sessionID, url string, err error) {
	c.configure()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Hotel reservation hold"),
					},
				},
			},
		},
		Metadata: metadata,
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	sess, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("stripeclient: create session: %w", err)
	}
	return sess.ID, sess.URL, nil
}

// RetrieveCheckoutSessionURL retrieves a previously created session
// and returns its current URL.
func (c *Client) RetrieveCheckoutSessionURL(ctx context.Context, sessionID string) (string, error) {
	c.configure()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("stripeclient: retrieve session: %w", err)
	}
	return sess.URL, nil
}
