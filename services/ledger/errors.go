package ledger

import "errors"

var (
	// ErrInvalidAmount rejects zero or negative amounts before any
	// balance is touched.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance means a debit would take the wallet below
	// zero; the balance is left unchanged.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrWalletNotFound means the actor has no wallet yet.
	ErrWalletNotFound = errors.New("wallet not found")
)
