package withdraw

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	withdrawRepo "medilink/database/repository/withdraw"
	"medilink/models"
	"medilink/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memWithdrawRepo keeps withdraws in memory with the same PENDING-predicated
// Resolve as the Mongo implementation.
type memWithdrawRepo struct {
	mu         sync.Mutex
	items      map[string]*models.Withdraw
	failInsert bool
}

func newMemWithdrawRepo() *memWithdrawRepo {
	return &memWithdrawRepo{items: make(map[string]*models.Withdraw)}
}

func (r *memWithdrawRepo) Insert(ctx context.Context, w *models.Withdraw) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert {
		return errors.New("insert failed")
	}
	cp := *w
	r.items[w.ID] = &cp
	return nil
}

func (r *memWithdrawRepo) GetByID(ctx context.Context, id string) (*models.Withdraw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return nil, withdrawRepo.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *memWithdrawRepo) ListByOwner(ctx context.Context, owner models.OwnerRef) ([]models.Withdraw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Withdraw
	for _, w := range r.items {
		if w.Owner == owner {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *memWithdrawRepo) Resolve(ctx context.Context, id, status string, resolvedAt time.Time) (*models.Withdraw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok || w.Status != models.WithdrawPending {
		return nil, withdrawRepo.ErrNoMatch
	}
	w.Status = status
	w.ResolvedAt = &resolvedAt
	cp := *w
	return &cp, nil
}

func (r *memWithdrawRepo) RevertToPending(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok || w.Status != models.WithdrawRejected {
		return withdrawRepo.ErrNoMatch
	}
	w.Status = models.WithdrawPending
	w.ResolvedAt = nil
	return nil
}

func (r *memWithdrawRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return withdrawRepo.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// balanceLedger is an in-memory ledger with a switchable credit failure for
// exercising the compensation paths.
type balanceLedger struct {
	mu         sync.Mutex
	balances   map[models.OwnerRef]float64
	failCredit bool
}

func newBalanceLedger() *balanceLedger {
	return &balanceLedger{balances: make(map[models.OwnerRef]float64)}
}

func (l *balanceLedger) Credit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failCredit {
		return nil, errors.New("ledger unavailable")
	}
	l.balances[owner] += amount
	return &models.Wallet{Owner: owner, Amount: l.balances[owner]}, nil
}

func (l *balanceLedger) Debit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balances[owner]
	if !ok {
		return nil, ledger.ErrWalletNotFound
	}
	if b < amount {
		return nil, ledger.ErrInsufficientBalance
	}
	l.balances[owner] -= amount
	return &models.Wallet{Owner: owner, Amount: l.balances[owner]}, nil
}

func (l *balanceLedger) Balance(ctx context.Context, owner models.OwnerRef) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[owner], nil
}

func newTestService(balance float64) (*DefaultWithdrawService, *memWithdrawRepo, *balanceLedger, models.OwnerRef) {
	repo := newMemWithdrawRepo()
	ldg := newBalanceLedger()
	owner := models.OwnerRef{Kind: models.OwnerPartner, ID: "partner-1"}
	ldg.balances[owner] = balance
	return NewService(repo, ldg, zap.NewNop()), repo, ldg, owner
}

func TestRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves the amount immediately", func(t *testing.T) {
		svc, _, ldg, owner := newTestService(500)
		w, err := svc.Request(ctx, owner, 300, "pm-1")
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawPending, w.Status)

		balance, _ := ldg.Balance(ctx, owner)
		assert.Equal(t, 200.0, balance)
	})

	t.Run("insufficient balance reserves nothing", func(t *testing.T) {
		svc, repo, ldg, owner := newTestService(100)
		_, err := svc.Request(ctx, owner, 300, "pm-1")
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		assert.Empty(t, repo.items)

		balance, _ := ldg.Balance(ctx, owner)
		assert.Equal(t, 100.0, balance)
	})

	t.Run("failed insert credits the reservation back", func(t *testing.T) {
		svc, repo, ldg, owner := newTestService(500)
		repo.failInsert = true

		_, err := svc.Request(ctx, owner, 300, "pm-1")
		require.Error(t, err)

		balance, _ := ldg.Balance(ctx, owner)
		assert.Equal(t, 500.0, balance)
	})

	t.Run("missing payment method", func(t *testing.T) {
		svc, _, _, owner := newTestService(500)
		_, err := svc.Request(ctx, owner, 300, "")
		assert.ErrorIs(t, err, ErrMissingFields)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("success keeps the post-reservation balance", func(t *testing.T) {
		svc, _, ldg, owner := newTestService(500)
		w, err := svc.Request(ctx, owner, 300, "pm-1")
		require.NoError(t, err)

		got, err := svc.Resolve(ctx, w.ID, models.WithdrawSuccess)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawSuccess, got.Status)
		require.NotNil(t, got.ResolvedAt)

		balance, _ := ldg.Balance(ctx, owner)
		assert.Equal(t, 200.0, balance)
	})

	t.Run("rejection returns the reserved amount", func(t *testing.T) {
		svc, _, ldg, owner := newTestService(500)
		w, err := svc.Request(ctx, owner, 300, "pm-1")
		require.NoError(t, err)

		got, err := svc.Resolve(ctx, w.ID, models.WithdrawRejected)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawRejected, got.Status)

		balance, _ := ldg.Balance(ctx, owner)
		assert.Equal(t, 500.0, balance)
	})

	t.Run("reject then approve cycle is symmetric", func(t *testing.T) {
		svc, _, ldg, owner := newTestService(500)

		w1, err := svc.Request(ctx, owner, 300, "pm-1")
		require.NoError(t, err)
		balance, _ := ldg.Balance(ctx, owner)
		assert.Equal(t, 200.0, balance)

		_, err = svc.Resolve(ctx, w1.ID, models.WithdrawRejected)
		require.NoError(t, err)
		balance, _ = ldg.Balance(ctx, owner)
		assert.Equal(t, 500.0, balance)

		w2, err := svc.Request(ctx, owner, 300, "pm-1")
		require.NoError(t, err)
		balance, _ = ldg.Balance(ctx, owner)
		assert.Equal(t, 200.0, balance)

		_, err = svc.Resolve(ctx, w2.ID, models.WithdrawSuccess)
		require.NoError(t, err)
		balance, _ = ldg.Balance(ctx, owner)
		assert.Equal(t, 200.0, balance)
	})

	t.Run("a second resolution is rejected", func(t *testing.T) {
		svc, _, ldg, owner := newTestService(500)
		w, err := svc.Request(ctx, owner, 300, "pm-1")
		require.NoError(t, err)

		_, err = svc.Resolve(ctx, w.ID, models.WithdrawRejected)
		require.NoError(t, err)
		_, err = svc.Resolve(ctx, w.ID, models.WithdrawRejected)
		assert.ErrorIs(t, err, ErrAlreadyResolved)

		// The credit-back must not run twice.
		balance, _ := ldg.Balance(ctx, owner)
		assert.Equal(t, 500.0, balance)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _, _, _ := newTestService(500)
		_, err := svc.Resolve(ctx, "nope", models.WithdrawSuccess)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("resolution outside the vocabulary", func(t *testing.T) {
		svc, _, _, owner := newTestService(500)
		w, err := svc.Request(ctx, owner, 300, "pm-1")
		require.NoError(t, err)
		_, err = svc.Resolve(ctx, w.ID, "MAYBE")
		assert.ErrorIs(t, err, ErrInvalidResolution)
	})

	t.Run("failed credit-back reverts the withdraw to pending", func(t *testing.T) {
		svc, repo, ldg, owner := newTestService(500)
		w, err := svc.Request(ctx, owner, 300, "pm-1")
		require.NoError(t, err)

		ldg.failCredit = true
		_, err = svc.Resolve(ctx, w.ID, models.WithdrawRejected)
		require.Error(t, err)

		stored, getErr := repo.GetByID(ctx, w.ID)
		require.NoError(t, getErr)
		assert.Equal(t, models.WithdrawPending, stored.Status)

		// Retry succeeds once the ledger recovers.
		ldg.failCredit = false
		_, err = svc.Resolve(ctx, w.ID, models.WithdrawRejected)
		require.NoError(t, err)
		balance, _ := ldg.Balance(ctx, owner)
		assert.Equal(t, 500.0, balance)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, _, _, owner := newTestService(1000)

	_, err := svc.Request(ctx, owner, 100, "pm-1")
	require.NoError(t, err)
	_, err = svc.Request(ctx, owner, 200, "pm-1")
	require.NoError(t, err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := svc.List(ctx, models.OwnerRef{Kind: models.OwnerDoctor, ID: "doc-1"})
	require.NoError(t, err)
	assert.Empty(t, other)
}
