package appointmentRepo

import (
	"context"
	"errors"

	"medilink/models"
)

// ErrNoMatch is returned when a conditional update matched no document:
// either the row does not exist or its current state no longer satisfies the
// transition predicate. Callers distinguish the two with GetByID.
var ErrNoMatch = errors.New("no matching appointment")

// ErrNotFound is returned by reads for a missing appointment.
var ErrNotFound = errors.New("appointment not found")

// AppointmentRepository persists lab/home-service appointments. Every
// transition method is a single conditional update: the state predicate and
// the mutation travel in one write so concurrent callers resolve at the
// database, not in application memory.
type AppointmentRepository interface {
	Insert(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	Delete(ctx context.Context, id string) error

	// ClaimScheduled moves SCHEDULED -> ACCEPTED and stamps acceptedBy,
	// predicated on the row still being SCHEDULED.
	ClaimScheduled(ctx context.Context, id, serviceBoyID string) (*models.Appointment, error)

	// CompleteAccepted moves ACCEPTED -> COMPLETED, predicated on
	// acceptedBy matching the caller.
	CompleteAccepted(ctx context.Context, id, serviceBoyID string) (*models.Appointment, error)

	// CancelActive moves any non-terminal status to CANCELLED and records
	// the cancelling actor in acceptedBy for audit.
	CancelActive(ctx context.Context, id, actorID string) (*models.Appointment, error)

	// SetStatus forces a status unconditionally (admin support correction).
	SetStatus(ctx context.Context, id, status string) (*models.Appointment, error)

	// MarkPaid flags a single appointment's cash as collected.
	MarkPaid(ctx context.Context, id string) (*models.Appointment, error)

	// MarkReceivedByPartner bulk-settles every paid, unsettled appointment
	// completed by the given service boy. Returns the number settled.
	MarkReceivedByPartner(ctx context.Context, serviceBoyID string) (int64, error)

	// AttachReport records the uploaded report, predicated on the
	// appointment being COMPLETED with no report yet.
	AttachReport(ctx context.Context, id, reportName string) (*models.Appointment, error)
}
