package walletRepo

import (
	"context"
	"errors"

	"medilink/models"
)

// ErrNoMatch is returned by Debit when no wallet row satisfies the balance
// predicate: either the wallet does not exist or its balance is below the
// requested amount.
var ErrNoMatch = errors.New("no matching wallet")

// ErrNotFound is returned by reads for a missing wallet.
var ErrNotFound = errors.New("wallet not found")

// WalletRepository applies balance changes as single atomic operations on the
// persisted amount. There is deliberately no Set method: balances move only
// by increment/decrement so concurrent mutations never lose updates.
type WalletRepository interface {
	// Credit atomically increments the owner's balance, creating the
	// wallet on first credit.
	Credit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error)

	// Debit atomically decrements the owner's balance, predicated on the
	// persisted balance covering the amount.
	Debit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error)

	Get(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error)
}
