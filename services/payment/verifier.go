package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks gateway payment proofs against the shared key secret.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// VerifySignature recomputes the HMAC-SHA256 of "orderID|paymentID" under the
// shared secret and compares it to the provided signature in constant time.
func (v *Verifier) VerifySignature(orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Proof is a gateway-issued payment confirmation as submitted by the client.
type Proof struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// VerifyProof is VerifySignature over a Proof value.
func (v *Verifier) VerifyProof(p Proof) error {
	return v.VerifySignature(p.OrderID, p.PaymentID, p.Signature)
}

// CancellationRefund computes the refund for a user-initiated cancellation of
// a paid teleconsultation: the platform fee (feeRate of gross) and the tax on
// that fee (taxRate of the fee) are withheld. Doctor-initiated rejection
// refunds the full gross and does not go through this function.
func CancellationRefund(gross, feeRate, taxRate float64) float64 {
	fee := gross * feeRate
	tax := fee * taxRate
	return gross - fee - tax
}
