package quota

import "errors"

var (
	// ErrSubscriptionNotFound means the catalog item does not exist.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrPurchaseNotFound means the partner has no purchase record.
	ErrPurchaseNotFound = errors.New("subscription purchase not found")

	// ErrQuotaExhausted means the purchase has no service-boy slots left;
	// no service boy was created.
	ErrQuotaExhausted = errors.New("service boy quota exhausted")

	// ErrMissingFields rejects incomplete input.
	ErrMissingFields = errors.New("missing required fields")
)
