package subscriptionRepo

import (
	"context"
	"errors"
	"time"

	"medilink/models"
)

// ErrNoMatch is returned by AllocateServiceBoy when the purchase has no
// remaining quota, and by RenewPurchase for a missing purchase.
var ErrNoMatch = errors.New("no matching subscription purchase")

// ErrNotFound is returned by reads for missing catalog items or purchases.
var ErrNotFound = errors.New("subscription not found")

// ErrDuplicatePartner is returned by InsertPurchase when the partner already
// holds a purchase row. Backed by a unique index, so two concurrent first
// purchases resolve to one row.
var ErrDuplicatePartner = errors.New("partner already has a subscription purchase")

// SubscriptionRepository persists the subscription catalog, per-partner
// purchase records, service boys, and the partner subscription flag.
type SubscriptionRepository interface {
	GetCatalogItem(ctx context.Context, id string) (*models.Subscription, error)

	GetPurchaseByPartner(ctx context.Context, partnerID string) (*models.SubscriptionPurchase, error)
	GetPurchaseByID(ctx context.Context, id string) (*models.SubscriptionPurchase, error)
	ListPurchasesByPartner(ctx context.Context, partnerID string) ([]models.SubscriptionPurchase, error)

	// InsertPurchase creates the partner's purchase row. Returns
	// ErrDuplicatePartner when a row for the partner already exists.
	InsertPurchase(ctx context.Context, p *models.SubscriptionPurchase) error

	// RenewPurchase extends expiry from now and stamps renewedAt, leaving
	// the remaining quota untouched.
	RenewPurchase(ctx context.Context, id string, expiresAt, renewedAt time.Time) (*models.SubscriptionPurchase, error)

	// AllocateServiceBoy decrements the purchase's remaining quota and
	// inserts the service boy in one transaction. Returns ErrNoMatch when
	// the quota is exhausted; in that case no row is created.
	AllocateServiceBoy(ctx context.Context, purchaseID string, boy *models.ServiceBoy) error

	SetPartnerSubscribed(ctx context.Context, partnerID string, subscribed bool) error

	// SetPartnerBoysAvailability flips availability for every service boy
	// of a partner. Returns the number affected.
	SetPartnerBoysAvailability(ctx context.Context, partnerID string, available bool) (int64, error)

	// PartnerIDsWithPurchases lists partners holding at least one purchase
	// row, for the expiry sweep.
	PartnerIDsWithPurchases(ctx context.Context) ([]string, error)
}
