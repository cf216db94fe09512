package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/razorpay/razorpay-go"
)

// Gateway is the external payment processor: order creation, payment lookup,
// refund execution. Services depend on this interface so tests can substitute
// a fake; a failed gateway call must never be treated as success.
type Gateway interface {
	// CreateOrder registers an order for the given amount (minor units)
	// and returns the gateway order id the client pays against.
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error)

	// PaymentAmount returns the captured gross amount (minor units) of a
	// gateway payment.
	PaymentAmount(ctx context.Context, paymentID string) (float64, error)

	// Refund executes a refund of the given amount (minor units) against a
	// payment and returns the gateway-issued refund id.
	Refund(ctx context.Context, paymentID string, amount float64) (string, error)
}

// RazorpayGateway implements Gateway over the Razorpay SDK.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   int64(math.Round(amount)),
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("gateway order creation failed: %w", err)
	}
	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("gateway order response missing id")
	}
	return orderID, nil
}

func (g *RazorpayGateway) PaymentAmount(ctx context.Context, paymentID string) (float64, error) {
	body, err := g.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("gateway payment fetch failed for %s: %w", paymentID, err)
	}
	switch amt := body["amount"].(type) {
	case float64:
		return amt, nil
	case int64:
		return float64(amt), nil
	default:
		return 0, fmt.Errorf("gateway payment %s has no numeric amount", paymentID)
	}
}

func (g *RazorpayGateway) Refund(ctx context.Context, paymentID string, amount float64) (string, error) {
	body, err := g.client.Payment.Refund(paymentID, int(math.Round(amount)), nil, nil)
	if err != nil {
		return "", fmt.Errorf("gateway refund failed for payment %s: %w", paymentID, err)
	}
	refundID, ok := body["id"].(string)
	if !ok || refundID == "" {
		return "", fmt.Errorf("gateway refund response missing id")
	}
	return refundID, nil
}
