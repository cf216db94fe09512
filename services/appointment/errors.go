package appointment

import "errors"

var (
	// ErrNotFound means no appointment exists with the given id.
	ErrNotFound = errors.New("appointment not found")

	// ErrNotScheduled means the appointment was no longer SCHEDULED when
	// an accept attempt landed; another service boy won the race or the
	// appointment was cancelled. Distinguished from ErrNotFound so callers
	// can report "already taken" instead of retrying blindly.
	ErrNotScheduled = errors.New("appointment is not scheduled")

	// ErrNotAcceptedByCaller means a completion attempt by a service boy
	// who is not the recorded acceptor, or on a non-ACCEPTED appointment.
	ErrNotAcceptedByCaller = errors.New("appointment not accepted by caller")

	// ErrTerminalState means the appointment is already COMPLETED or
	// CANCELLED and cannot be cancelled.
	ErrTerminalState = errors.New("appointment already in a terminal state")

	// ErrAlreadyPaid means the cash for this appointment was already
	// marked collected.
	ErrAlreadyPaid = errors.New("appointment already marked paid")

	// ErrReportNotAllowed means a report upload was attempted before
	// completion or after a report already exists.
	ErrReportNotAllowed = errors.New("report upload not permitted")

	// ErrMissingFields rejects a booking with incomplete input.
	ErrMissingFields = errors.New("missing required booking fields")

	// ErrUnknownStatus rejects an admin override to a status outside the
	// appointment vocabulary.
	ErrUnknownStatus = errors.New("unknown appointment status")
)
