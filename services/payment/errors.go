package payment

import "errors"

var (
	// ErrInvalidSignature means the gateway payment proof does not match
	// the recomputed HMAC. Terminal: the triggering booking or purchase
	// must not be persisted.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrDuplicatePayment means the gateway payment id was already used to
	// create a booking.
	ErrDuplicatePayment = errors.New("payment id already consumed")
)
