// Package gateway talks to the payment gateway. Amounts cross this boundary
// in minor currency units (paise), never as decimals.
package gateway

import "context"

// PaymentIntent is a gateway-side order awaiting payment. The client pays
// against intent ID on the gateway's checkout surface.
type PaymentIntent struct {
	ID       string
	Amount   int64
	Currency string
}

// Refund is the gateway's record of a refund.
type Refund struct {
	ID     string
	Status string
}

// Gateway is the payment provider contract. VerifySignature is pure
// computation; the other calls go over the wire.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string) (*PaymentIntent, error)
	// VerifySignature checks the client-supplied signature over the intent
	// and payment identifiers against the shared key secret.
	VerifySignature(intentID, paymentID, signature string) bool
	// Refund returns the full captured amount of the payment. Refunding a
	// payment that was already fully refunded succeeds and reports the
	// existing refund.
	Refund(ctx context.Context, paymentID string, amountMinor int64) (*Refund, error)
}
