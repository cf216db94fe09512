package teleconsultRepo

import (
	"context"
	"errors"

	"medilink/models"
)

// ErrNoMatch is returned when a conditional transition matched no document.
var ErrNoMatch = errors.New("no matching teleconsultation")

// ErrNotFound is returned by reads for a missing teleconsultation.
var ErrNotFound = errors.New("teleconsultation not found")

// TeleconsultRepository persists teleconsultation appointments. Transition
// methods carry their state predicate into the write, mirroring the
// appointment repository.
type TeleconsultRepository interface {
	Insert(ctx context.Context, t *models.TeleconsultAppointment) error
	GetByID(ctx context.Context, id string) (*models.TeleconsultAppointment, error)

	// AcceptScheduled moves SCHEDULED -> ACCEPTED for the owning doctor.
	AcceptScheduled(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error)

	// StartAccepted moves ACCEPTED -> IN_PROGRESS and records the video
	// call id.
	StartAccepted(ctx context.Context, id, doctorID, videoCallID string) (*models.TeleconsultAppointment, error)

	// CompleteInProgress moves IN_PROGRESS -> COMPLETED for the owning
	// doctor.
	CompleteInProgress(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error)

	// RevertToInProgress undoes a COMPLETED transition whose payout failed.
	RevertToInProgress(ctx context.Context, id string) error

	// CancelActive moves SCHEDULED/ACCEPTED/IN_PROGRESS -> CANCELLED and
	// records the gateway refund id.
	CancelActive(ctx context.Context, id, refundID string) (*models.TeleconsultAppointment, error)

	// RejectScheduled moves SCHEDULED -> REJECTED for the owning doctor and
	// records the gateway refund id.
	RejectScheduled(ctx context.Context, id, doctorID, refundID string) (*models.TeleconsultAppointment, error)

	// Reschedule moves the consultation to a new slot/date for the owning
	// doctor while it is still SCHEDULED or ACCEPTED, stamping
	// isRescheduled.
	Reschedule(ctx context.Context, id, doctorID, slotID, date string) (*models.TeleconsultAppointment, error)

	// AttachPrescription records the prescription URL once the owning
	// doctor has COMPLETED the consultation.
	AttachPrescription(ctx context.Context, id, doctorID, url string) (*models.TeleconsultAppointment, error)
}
