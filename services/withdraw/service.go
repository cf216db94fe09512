package withdraw

import (
	"context"
	"errors"
	"fmt"
	"time"

	withdrawRepo "medilink/database/repository/withdraw"
	"medilink/models"
	"medilink/services/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service moves funds out of wallets with reservation semantics: the amount
// is debited when the request is created, credited back on REJECTED, and left
// untouched on SUCCESS.
type Service interface {
	Request(ctx context.Context, owner models.OwnerRef, amount float64, paymentMethodID string) (*models.Withdraw, error)
	Resolve(ctx context.Context, id, resolution string) (*models.Withdraw, error)
	List(ctx context.Context, owner models.OwnerRef) ([]models.Withdraw, error)
}

// DefaultWithdrawService implements Service.
type DefaultWithdrawService struct {
	Repo   withdrawRepo.WithdrawRepository
	Ledger ledger.Service
	Logger *zap.Logger
}

func NewService(repo withdrawRepo.WithdrawRepository, ldg ledger.Service, logger *zap.Logger) *DefaultWithdrawService {
	return &DefaultWithdrawService{Repo: repo, Ledger: ldg, Logger: logger}
}

// Request reserves the amount by debiting the wallet first, then records the
// PENDING withdraw. If the record cannot be written the debit is compensated
// so no money is stranded.
func (s *DefaultWithdrawService) Request(ctx context.Context, owner models.OwnerRef, amount float64, paymentMethodID string) (*models.Withdraw, error) {
	if owner.ID == "" || paymentMethodID == "" {
		return nil, ErrMissingFields
	}
	if _, err := s.Ledger.Debit(ctx, owner, amount); err != nil {
		return nil, err
	}

	w := &models.Withdraw{
		ID:              uuid.New().String(),
		Owner:           owner,
		Amount:          amount,
		PaymentMethodID: paymentMethodID,
		Status:          models.WithdrawPending,
		CreatedAt:       time.Now(),
	}
	if err := s.Repo.Insert(ctx, w); err != nil {
		if _, creditErr := s.Ledger.Credit(ctx, owner, amount); creditErr != nil {
			s.Logger.Error("withdraw insert and compensation both failed; wallet short",
				zap.String("owner_id", owner.ID),
				zap.Float64("amount", amount),
				zap.Error(creditErr),
			)
		}
		return nil, fmt.Errorf("failed to record withdraw: %w", err)
	}
	s.Logger.Info("withdraw requested",
		zap.String("withdraw_id", w.ID),
		zap.String("owner_id", owner.ID),
		zap.Float64("amount", amount),
	)
	return w, nil
}

// Resolve finalizes a PENDING withdraw. REJECTED credits the reserved amount
// back; SUCCESS leaves the balance at its post-reservation value. A second
// resolve finds the row no longer PENDING and fails with ErrAlreadyResolved.
func (s *DefaultWithdrawService) Resolve(ctx context.Context, id, resolution string) (*models.Withdraw, error) {
	if resolution != models.WithdrawSuccess && resolution != models.WithdrawRejected {
		return nil, ErrInvalidResolution
	}

	w, err := s.Repo.Resolve(ctx, id, resolution, time.Now())
	if errors.Is(err, withdrawRepo.ErrNoMatch) {
		if _, getErr := s.Repo.GetByID(ctx, id); errors.Is(getErr, withdrawRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyResolved
	}
	if err != nil {
		return nil, err
	}

	if resolution == models.WithdrawRejected {
		if _, err := s.Ledger.Credit(ctx, w.Owner, w.Amount); err != nil {
			// Put the withdraw back to PENDING so the credit-back can
			// be retried instead of silently losing the reservation.
			s.Logger.Error("credit-back failed, reverting withdraw to pending",
				zap.String("withdraw_id", id),
				zap.Error(err),
			)
			if revertErr := s.Repo.RevertToPending(ctx, id); revertErr != nil {
				s.Logger.Error("withdraw revert failed; manual reconciliation required",
					zap.String("withdraw_id", id),
					zap.Error(revertErr),
				)
			}
			return nil, fmt.Errorf("failed to return reserved amount: %w", err)
		}
	}

	s.Logger.Info("withdraw resolved",
		zap.String("withdraw_id", id),
		zap.String("resolution", resolution),
	)
	return w, nil
}

func (s *DefaultWithdrawService) List(ctx context.Context, owner models.OwnerRef) ([]models.Withdraw, error) {
	return s.Repo.ListByOwner(ctx, owner)
}
