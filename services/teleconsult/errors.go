package teleconsult

import "errors"

var (
	// ErrNotFound means no teleconsultation exists with the given id.
	ErrNotFound = errors.New("teleconsultation not found")

	// ErrWrongState means the requested transition's precondition does not
	// hold for the current status (or the caller is not the owning
	// doctor/patient).
	ErrWrongState = errors.New("teleconsultation is not in the required state")

	// ErrMissingFields rejects a booking with incomplete input.
	ErrMissingFields = errors.New("missing required booking fields")

	// ErrRefundFailed means the gateway refund call did not succeed; the
	// status transition was blocked and the appointment keeps its prior
	// status.
	ErrRefundFailed = errors.New("gateway refund failed")

	// ErrPayoutFailed means the doctor's wallet credit (or the gross
	// amount lookup it needs) failed; the COMPLETED transition was rolled
	// back to IN_PROGRESS.
	ErrPayoutFailed = errors.New("doctor payout failed")
)
