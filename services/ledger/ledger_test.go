package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	walletRepo "medilink/database/repository/wallet"
	"medilink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memWalletRepo is an in-memory WalletRepository whose Debit applies the same
// guarded decrement as the Mongo implementation.
type memWalletRepo struct {
	mu      sync.Mutex
	wallets map[models.OwnerRef]*models.Wallet
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{wallets: make(map[models.OwnerRef]*models.Wallet)}
}

func (r *memWalletRepo) Credit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[owner]
	if !ok {
		w = &models.Wallet{Owner: owner}
		r.wallets[owner] = w
	}
	w.Amount += amount
	w.UpdatedAt = time.Now()
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) Debit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[owner]
	if !ok || w.Amount < amount {
		return nil, walletRepo.ErrNoMatch
	}
	w.Amount -= amount
	w.UpdatedAt = time.Now()
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) Get(ctx context.Context, owner models.OwnerRef) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[owner]
	if !ok {
		return nil, walletRepo.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func newTestLedger() (*DefaultLedger, *memWalletRepo) {
	repo := newMemWalletRepo()
	return NewLedger(repo, zap.NewNop()), repo
}

func TestLedgerCredit(t *testing.T) {
	ctx := context.Background()
	owner := models.OwnerRef{Kind: models.OwnerDoctor, ID: "doc-1"}

	t.Run("creates the wallet on first credit", func(t *testing.T) {
		l, _ := newTestLedger()
		w, err := l.Credit(ctx, owner, 500)
		require.NoError(t, err)
		assert.Equal(t, 500.0, w.Amount)
	})

	t.Run("accumulates across credits", func(t *testing.T) {
		l, _ := newTestLedger()
		_, err := l.Credit(ctx, owner, 500)
		require.NoError(t, err)
		w, err := l.Credit(ctx, owner, 250)
		require.NoError(t, err)
		assert.Equal(t, 750.0, w.Amount)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		l, _ := newTestLedger()
		_, err := l.Credit(ctx, owner, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = l.Credit(ctx, owner, -10)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestLedgerDebit(t *testing.T) {
	ctx := context.Background()
	owner := models.OwnerRef{Kind: models.OwnerPartner, ID: "partner-1"}

	t.Run("debits a covered amount", func(t *testing.T) {
		l, _ := newTestLedger()
		_, err := l.Credit(ctx, owner, 1000)
		require.NoError(t, err)
		w, err := l.Debit(ctx, owner, 400)
		require.NoError(t, err)
		assert.Equal(t, 600.0, w.Amount)
	})

	t.Run("insufficient balance leaves the balance untouched", func(t *testing.T) {
		l, _ := newTestLedger()
		_, err := l.Credit(ctx, owner, 100)
		require.NoError(t, err)

		_, err = l.Debit(ctx, owner, 101)
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		balance, err := l.Balance(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 100.0, balance)
	})

	t.Run("missing wallet is distinguished from insufficient balance", func(t *testing.T) {
		l, _ := newTestLedger()
		_, err := l.Debit(ctx, models.OwnerRef{Kind: models.OwnerDoctor, ID: "nobody"}, 10)
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		l, _ := newTestLedger()
		_, err := l.Debit(ctx, owner, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestLedgerBalance(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	_, err := l.Balance(ctx, models.OwnerRef{Kind: models.OwnerVendor, ID: "v-1"})
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestLedgerConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	owner := models.OwnerRef{Kind: models.OwnerDoctor, ID: "doc-c"}
	l, _ := newTestLedger()

	_, err := l.Credit(ctx, owner, 1000)
	require.NoError(t, err)

	// 20 workers each try to take 100; only 10 can succeed.
	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Debit(ctx, owner, 100); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	balance, err := l.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}
