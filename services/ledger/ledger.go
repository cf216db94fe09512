package ledger

import (
	"context"
	"errors"
	"fmt"

	walletRepo "medilink/database/repository/wallet"
	"medilink/models"

	"go.uber.org/zap"
)

// Service applies debits and credits to actor wallets. Both operations are
// forwarded as single atomic read-modify-writes against the persisted
// balance; the service never computes a new balance in application memory.
type Service interface {
	Credit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error)
	Debit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error)
	Balance(ctx context.Context, owner models.OwnerRef) (float64, error)
}

// DefaultLedger is the wallet-repository-backed Service implementation.
type DefaultLedger struct {
	Repo   walletRepo.WalletRepository
	Logger *zap.Logger
}

func NewLedger(repo walletRepo.WalletRepository, logger *zap.Logger) *DefaultLedger {
	return &DefaultLedger{Repo: repo, Logger: logger}
}

func (l *DefaultLedger) Credit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	w, err := l.Repo.Credit(ctx, owner, amount)
	if err != nil {
		return nil, fmt.Errorf("ledger credit failed: %w", err)
	}
	l.Logger.Info("wallet credited",
		zap.String("owner_kind", string(owner.Kind)),
		zap.String("owner_id", owner.ID),
		zap.Float64("amount", amount),
		zap.Float64("balance", w.Amount),
	)
	return w, nil
}

func (l *DefaultLedger) Debit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	w, err := l.Repo.Debit(ctx, owner, amount)
	if errors.Is(err, walletRepo.ErrNoMatch) {
		// The guarded decrement matched nothing: missing wallet or a
		// balance below the amount. Tell the caller which.
		if _, getErr := l.Repo.Get(ctx, owner); errors.Is(getErr, walletRepo.ErrNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, ErrInsufficientBalance
	}
	if err != nil {
		return nil, fmt.Errorf("ledger debit failed: %w", err)
	}
	l.Logger.Info("wallet debited",
		zap.String("owner_kind", string(owner.Kind)),
		zap.String("owner_id", owner.ID),
		zap.Float64("amount", amount),
		zap.Float64("balance", w.Amount),
	)
	return w, nil
}

func (l *DefaultLedger) Balance(ctx context.Context, owner models.OwnerRef) (float64, error) {
	w, err := l.Repo.Get(ctx, owner)
	if errors.Is(err, walletRepo.ErrNotFound) {
		return 0, ErrWalletNotFound
	}
	if err != nil {
		return 0, err
	}
	return w.Amount, nil
}
