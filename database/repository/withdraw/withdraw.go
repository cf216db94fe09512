package withdrawRepo

import (
	"context"
	"errors"
	"time"

	"medilink/models"
)

// ErrNoMatch is returned when Resolve finds no PENDING withdraw with the
// given id: it is either missing or already resolved.
var ErrNoMatch = errors.New("no matching withdraw")

// ErrNotFound is returned by reads for a missing withdraw.
var ErrNotFound = errors.New("withdraw not found")

// WithdrawRepository persists withdraw requests.
type WithdrawRepository interface {
	Insert(ctx context.Context, w *models.Withdraw) error
	GetByID(ctx context.Context, id string) (*models.Withdraw, error)
	ListByOwner(ctx context.Context, owner models.OwnerRef) ([]models.Withdraw, error)

	// Resolve moves PENDING -> status (SUCCESS or REJECTED), predicated on
	// the withdraw still being PENDING.
	Resolve(ctx context.Context, id, status string, resolvedAt time.Time) (*models.Withdraw, error)

	// RevertToPending undoes a REJECTED resolution whose wallet credit-back
	// failed, so the reservation can be retried.
	RevertToPending(ctx context.Context, id string) error

	// Delete removes a withdraw that could not be persisted consistently
	// with its wallet reservation.
	Delete(ctx context.Context, id string) error
}
