package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	subscriptionRepo "medilink/database/repository/subscription"
	"medilink/models"
	"medilink/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages a partner's purchasable service-boy capacity: subscription
// purchase/renewal, quota allocation, and expiry evaluation.
type Service interface {
	PurchaseOrRenew(ctx context.Context, partnerID, subscriptionID string, proof payment.Proof) (*models.SubscriptionPurchase, error)
	AddServiceBoy(ctx context.Context, partnerID, purchaseID string, boy models.ServiceBoy) (*models.ServiceBoy, error)
	ListPurchases(ctx context.Context, partnerID string) ([]models.SubscriptionPurchase, error)
	EvaluateExpiry(ctx context.Context, partnerID string) error
	SweepExpired(ctx context.Context) error
}

// DefaultQuotaService implements Service.
type DefaultQuotaService struct {
	Repo     subscriptionRepo.SubscriptionRepository
	Verifier *payment.Verifier
	Logger   *zap.Logger
}

func NewService(repo subscriptionRepo.SubscriptionRepository, verifier *payment.Verifier, logger *zap.Logger) *DefaultQuotaService {
	return &DefaultQuotaService{Repo: repo, Verifier: verifier, Logger: logger}
}

// PurchaseOrRenew verifies the payment proof, then creates the partner's
// purchase record or renews the existing one. Renewal extends expiry from
// now, not from the prior expiry, and leaves the remaining quota unchanged.
func (s *DefaultQuotaService) PurchaseOrRenew(ctx context.Context, partnerID, subscriptionID string, proof payment.Proof) (*models.SubscriptionPurchase, error) {
	if partnerID == "" || subscriptionID == "" {
		return nil, ErrMissingFields
	}
	if err := s.Verifier.VerifyProof(proof); err != nil {
		s.Logger.Warn("subscription purchase rejected: bad payment signature",
			zap.String("partner_id", partnerID),
			zap.String("order_id", proof.OrderID),
		)
		return nil, err
	}

	sub, err := s.Repo.GetCatalogItem(ctx, subscriptionID)
	if errors.Is(err, subscriptionRepo.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.AddDate(0, sub.TimePeriodMonths, 0)

	existing, err := s.Repo.GetPurchaseByPartner(ctx, partnerID)
	switch {
	case errors.Is(err, subscriptionRepo.ErrNotFound):
		purchase := &models.SubscriptionPurchase{
			ID:                      uuid.New().String(),
			PartnerID:               partnerID,
			SubscriptionID:          subscriptionID,
			NumberOfServiceBoysLeft: sub.NumberOfServiceBoys,
			PurchasedAt:             now,
			ExpiresAt:               expiresAt,
		}
		insertErr := s.Repo.InsertPurchase(ctx, purchase)
		if errors.Is(insertErr, subscriptionRepo.ErrDuplicatePartner) {
			// Lost a first-purchase race; the winner's row is the
			// partner's record, so this call renews it instead.
			winner, err := s.Repo.GetPurchaseByPartner(ctx, partnerID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve concurrent purchase: %w", err)
			}
			return s.renew(ctx, partnerID, winner.ID, expiresAt, now)
		}
		if insertErr != nil {
			return nil, fmt.Errorf("failed to record subscription purchase: %w", insertErr)
		}
		if err := s.Repo.SetPartnerSubscribed(ctx, partnerID, true); err != nil {
			return nil, err
		}
		s.Logger.Info("subscription purchased",
			zap.String("partner_id", partnerID),
			zap.String("subscription_id", subscriptionID),
			zap.Int("service_boys", sub.NumberOfServiceBoys),
		)
		return purchase, nil

	case err != nil:
		return nil, err

	default:
		return s.renew(ctx, partnerID, existing.ID, expiresAt, now)
	}
}

func (s *DefaultQuotaService) renew(ctx context.Context, partnerID, purchaseID string, expiresAt, renewedAt time.Time) (*models.SubscriptionPurchase, error) {
	renewed, err := s.Repo.RenewPurchase(ctx, purchaseID, expiresAt, renewedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to renew subscription: %w", err)
	}
	if err := s.Repo.SetPartnerSubscribed(ctx, partnerID, true); err != nil {
		return nil, err
	}
	s.Logger.Info("subscription renewed",
		zap.String("partner_id", partnerID),
		zap.Time("expires_at", expiresAt),
	)
	return renewed, nil
}

// AddServiceBoy consumes one unit of the purchase's quota and creates the
// service boy; the two effects are one transaction. At zero quota the call
// fails with ErrQuotaExhausted and no row is created.
func (s *DefaultQuotaService) AddServiceBoy(ctx context.Context, partnerID, purchaseID string, boy models.ServiceBoy) (*models.ServiceBoy, error) {
	if partnerID == "" || purchaseID == "" || boy.Name == "" || boy.Phone == "" {
		return nil, ErrMissingFields
	}

	boy.ID = uuid.New().String()
	boy.PartnerID = partnerID
	boy.PurchaseID = purchaseID
	boy.Available = true
	boy.CreatedAt = time.Now()

	err := s.Repo.AllocateServiceBoy(ctx, purchaseID, &boy)
	if errors.Is(err, subscriptionRepo.ErrNoMatch) {
		if _, getErr := s.Repo.GetPurchaseByID(ctx, purchaseID); errors.Is(getErr, subscriptionRepo.ErrNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, ErrQuotaExhausted
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("service boy added",
		zap.String("partner_id", partnerID),
		zap.String("purchase_id", purchaseID),
		zap.String("service_boy_id", boy.ID),
	)
	return &boy, nil
}

// ListPurchases returns the partner's purchase rows after reconciling the
// expiry state, mirroring the listing-triggered evaluation of the source
// system.
func (s *DefaultQuotaService) ListPurchases(ctx context.Context, partnerID string) ([]models.SubscriptionPurchase, error) {
	if err := s.EvaluateExpiry(ctx, partnerID); err != nil {
		return nil, err
	}
	return s.Repo.ListPurchasesByPartner(ctx, partnerID)
}

// EvaluateExpiry drops the partner's subscribed flag and forces all their
// service boys unavailable once every purchase row has lapsed. A partner
// holding no purchase rows at all counts as lapsed, so a removed row cannot
// leave a stale subscribed flag behind.
func (s *DefaultQuotaService) EvaluateExpiry(ctx context.Context, partnerID string) error {
	purchases, err := s.Repo.ListPurchasesByPartner(ctx, partnerID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, p := range purchases {
		if !p.Expired(now) {
			return nil
		}
	}

	if err := s.Repo.SetPartnerSubscribed(ctx, partnerID, false); err != nil {
		return err
	}
	n, err := s.Repo.SetPartnerBoysAvailability(ctx, partnerID, false)
	if err != nil {
		return err
	}
	s.Logger.Info("partner subscription expired",
		zap.String("partner_id", partnerID),
		zap.Int64("service_boys_disabled", n),
	)
	return nil
}

// SweepExpired evaluates expiry for every partner holding a purchase row.
// Run periodically so partners who never list their subscriptions still
// expire.
func (s *DefaultQuotaService) SweepExpired(ctx context.Context) error {
	partnerIDs, err := s.Repo.PartnerIDsWithPurchases(ctx)
	if err != nil {
		return err
	}
	for _, partnerID := range partnerIDs {
		if err := s.EvaluateExpiry(ctx, partnerID); err != nil {
			s.Logger.Error("expiry evaluation failed",
				zap.String("partner_id", partnerID),
				zap.Error(err),
			)
		}
	}
	return nil
}
