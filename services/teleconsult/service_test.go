package teleconsult

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	teleconsultRepo "medilink/database/repository/teleconsult"
	"medilink/models"
	"medilink/services/ledger"
	"medilink/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memTeleconsultRepo mirrors the Mongo repository's conditional transitions
// in memory.
type memTeleconsultRepo struct {
	mu    sync.Mutex
	items map[string]*models.TeleconsultAppointment
}

func newMemTeleconsultRepo() *memTeleconsultRepo {
	return &memTeleconsultRepo{items: make(map[string]*models.TeleconsultAppointment)}
}

func (r *memTeleconsultRepo) Insert(ctx context.Context, t *models.TeleconsultAppointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.items[t.ID] = &cp
	return nil
}

func (r *memTeleconsultRepo) GetByID(ctx context.Context, id string) (*models.TeleconsultAppointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, teleconsultRepo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTeleconsultRepo) update(id string, pred func(*models.TeleconsultAppointment) bool, mutate func(*models.TeleconsultAppointment)) (*models.TeleconsultAppointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok || !pred(t) {
		return nil, teleconsultRepo.ErrNoMatch
	}
	mutate(t)
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (r *memTeleconsultRepo) AcceptScheduled(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error) {
	return r.update(id,
		func(t *models.TeleconsultAppointment) bool {
			return t.Status == models.TeleconsultScheduled && t.DoctorID == doctorID
		},
		func(t *models.TeleconsultAppointment) { t.Status = models.TeleconsultAccepted })
}

func (r *memTeleconsultRepo) StartAccepted(ctx context.Context, id, doctorID, videoCallID string) (*models.TeleconsultAppointment, error) {
	return r.update(id,
		func(t *models.TeleconsultAppointment) bool {
			return t.Status == models.TeleconsultAccepted && t.DoctorID == doctorID
		},
		func(t *models.TeleconsultAppointment) {
			t.Status = models.TeleconsultInProgress
			t.VideoCallID = videoCallID
		})
}

func (r *memTeleconsultRepo) CompleteInProgress(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error) {
	return r.update(id,
		func(t *models.TeleconsultAppointment) bool {
			return t.Status == models.TeleconsultInProgress && t.DoctorID == doctorID
		},
		func(t *models.TeleconsultAppointment) { t.Status = models.TeleconsultCompleted })
}

func (r *memTeleconsultRepo) RevertToInProgress(ctx context.Context, id string) error {
	_, err := r.update(id,
		func(t *models.TeleconsultAppointment) bool { return t.Status == models.TeleconsultCompleted },
		func(t *models.TeleconsultAppointment) { t.Status = models.TeleconsultInProgress })
	return err
}

func (r *memTeleconsultRepo) CancelActive(ctx context.Context, id, refundID string) (*models.TeleconsultAppointment, error) {
	return r.update(id,
		func(t *models.TeleconsultAppointment) bool {
			switch t.Status {
			case models.TeleconsultScheduled, models.TeleconsultAccepted, models.TeleconsultInProgress:
				return true
			}
			return false
		},
		func(t *models.TeleconsultAppointment) {
			t.Status = models.TeleconsultCancelled
			t.RefundID = refundID
		})
}

func (r *memTeleconsultRepo) RejectScheduled(ctx context.Context, id, doctorID, refundID string) (*models.TeleconsultAppointment, error) {
	return r.update(id,
		func(t *models.TeleconsultAppointment) bool {
			return t.Status == models.TeleconsultScheduled && t.DoctorID == doctorID
		},
		func(t *models.TeleconsultAppointment) {
			t.Status = models.TeleconsultRejected
			t.RefundID = refundID
		})
}

func (r *memTeleconsultRepo) Reschedule(ctx context.Context, id, doctorID, slotID, date string) (*models.TeleconsultAppointment, error) {
	return r.update(id,
		func(t *models.TeleconsultAppointment) bool {
			return t.DoctorID == doctorID &&
				(t.Status == models.TeleconsultScheduled || t.Status == models.TeleconsultAccepted)
		},
		func(t *models.TeleconsultAppointment) {
			t.SlotID = slotID
			t.Date = date
			t.IsRescheduled = true
		})
}

func (r *memTeleconsultRepo) AttachPrescription(ctx context.Context, id, doctorID, url string) (*models.TeleconsultAppointment, error) {
	return r.update(id,
		func(t *models.TeleconsultAppointment) bool {
			return t.DoctorID == doctorID && t.Status == models.TeleconsultCompleted
		},
		func(t *models.TeleconsultAppointment) { t.PrescriptionURL = url })
}

// fakeGateway serves fixed payment amounts and records refunds.
type fakeGateway struct {
	mu        sync.Mutex
	amounts   map[string]float64
	refunds   map[string]float64
	failFetch bool
	failRef   bool
	nextRefID int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		amounts: make(map[string]float64),
		refunds: make(map[string]float64),
	}
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	return "order_fake", nil
}

func (g *fakeGateway) PaymentAmount(ctx context.Context, paymentID string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFetch {
		return 0, errors.New("gateway down")
	}
	amt, ok := g.amounts[paymentID]
	if !ok {
		return 0, errors.New("unknown payment")
	}
	return amt, nil
}

func (g *fakeGateway) Refund(ctx context.Context, paymentID string, amount float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRef {
		return "", errors.New("refund declined")
	}
	g.nextRefID++
	id := fmt.Sprintf("rfnd_%d", g.nextRefID)
	g.refunds[id] = amount
	return id, nil
}

// fakeLedger records credits and optionally fails them.
type fakeLedger struct {
	mu         sync.Mutex
	credits    map[models.OwnerRef]float64
	failCredit bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{credits: make(map[models.OwnerRef]float64)}
}

func (l *fakeLedger) Credit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failCredit {
		return nil, errors.New("ledger unavailable")
	}
	l.credits[owner] += amount
	return &models.Wallet{Owner: owner, Amount: l.credits[owner]}, nil
}

func (l *fakeLedger) Debit(ctx context.Context, owner models.OwnerRef, amount float64) (*models.Wallet, error) {
	return nil, ledger.ErrInsufficientBalance
}

func (l *fakeLedger) Balance(ctx context.Context, owner models.OwnerRef) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credits[owner], nil
}

const testSecret = "tele-secret"

func signProof(orderID, paymentID string) payment.Proof {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return payment.Proof{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: hex.EncodeToString(mac.Sum(nil)),
	}
}

type fixture struct {
	svc     *DefaultTeleconsultService
	repo    *memTeleconsultRepo
	gateway *fakeGateway
	ledger  *fakeLedger
}

func newFixture() *fixture {
	repo := newMemTeleconsultRepo()
	gw := newFakeGateway()
	ldg := newFakeLedger()
	svc := NewService(repo, ldg, gw, payment.NewVerifier(testSecret), nil, zap.NewNop(), 0.02, 0.18)
	return &fixture{svc: svc, repo: repo, gateway: gw, ledger: ldg}
}

func (f *fixture) book(t *testing.T, paymentID string, gross float64) *models.TeleconsultAppointment {
	t.Helper()
	f.gateway.mu.Lock()
	f.gateway.amounts[paymentID] = gross
	f.gateway.mu.Unlock()

	tc, err := f.svc.Book(context.Background(), BookRequest{
		PatientID: "patient-1",
		DoctorID:  "doc-1",
		SlotID:    "slot-1",
		Date:      "2026-09-01",
		Proof:     signProof("order_"+paymentID, paymentID),
	})
	require.NoError(t, err)
	return tc
}

func TestTeleconsultBook(t *testing.T) {
	ctx := context.Background()

	t.Run("valid proof creates SCHEDULED", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		assert.Equal(t, models.TeleconsultScheduled, tc.Status)
		assert.Equal(t, "pay_1", tc.PaymentID)
	})

	t.Run("bad signature writes nothing", func(t *testing.T) {
		f := newFixture()
		proof := signProof("order_x", "pay_x")
		proof.Signature = "forged"
		_, err := f.svc.Book(ctx, BookRequest{
			PatientID: "patient-1",
			DoctorID:  "doc-1",
			SlotID:    "slot-1",
			Date:      "2026-09-01",
			Proof:     proof,
		})
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
		assert.Empty(t, f.repo.items)
	})

	t.Run("incomplete input is rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Book(ctx, BookRequest{PatientID: "patient-1"})
		assert.ErrorIs(t, err, ErrMissingFields)
	})
}

func TestTeleconsultLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("accept, start, complete", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)

		got, err := f.svc.Accept(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultAccepted, got.Status)

		got, err = f.svc.Start(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultInProgress, got.Status)
		assert.NotEmpty(t, got.VideoCallID)

		got, err = f.svc.Complete(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultCompleted, got.Status)
	})

	t.Run("another doctor cannot transition", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		_, err := f.svc.Accept(ctx, tc.ID, "doc-2")
		assert.ErrorIs(t, err, ErrWrongState)
	})

	t.Run("start requires ACCEPTED", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		_, err := f.svc.Start(ctx, tc.ID, "doc-1")
		assert.ErrorIs(t, err, ErrWrongState)
	})

	t.Run("missing id", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Accept(ctx, "nope", "doc-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTeleconsultComplete(t *testing.T) {
	ctx := context.Background()
	doctor := models.OwnerRef{Kind: models.OwnerDoctor, ID: "doc-1"}

	advanceToInProgress := func(t *testing.T, f *fixture, id string) {
		t.Helper()
		_, err := f.svc.Accept(ctx, id, "doc-1")
		require.NoError(t, err)
		_, err = f.svc.Start(ctx, id, "doc-1")
		require.NoError(t, err)
	}

	t.Run("credits the doctor the full gross exactly once", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		advanceToInProgress(t, f, tc.ID)

		_, err := f.svc.Complete(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, 1000.0, f.ledger.credits[doctor])

		// A second complete finds the row no longer IN_PROGRESS.
		_, err = f.svc.Complete(ctx, tc.ID, "doc-1")
		assert.ErrorIs(t, err, ErrWrongState)
		assert.Equal(t, 1000.0, f.ledger.credits[doctor])
	})

	t.Run("payout failure reverts to IN_PROGRESS", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		advanceToInProgress(t, f, tc.ID)
		f.ledger.failCredit = true

		_, err := f.svc.Complete(ctx, tc.ID, "doc-1")
		assert.ErrorIs(t, err, ErrPayoutFailed)

		stored, err := f.repo.GetByID(ctx, tc.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultInProgress, stored.Status)
		assert.Zero(t, f.ledger.credits[doctor])

		// Retry succeeds once the ledger recovers.
		f.ledger.failCredit = false
		_, err = f.svc.Complete(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, 1000.0, f.ledger.credits[doctor])
	})

	t.Run("gateway lookup failure reverts to IN_PROGRESS", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		advanceToInProgress(t, f, tc.ID)
		f.gateway.failFetch = true

		_, err := f.svc.Complete(ctx, tc.ID, "doc-1")
		assert.ErrorIs(t, err, ErrPayoutFailed)

		stored, err := f.repo.GetByID(ctx, tc.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultInProgress, stored.Status)
	})
}

func TestTeleconsultCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("withholds fee plus tax from the refund", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)

		got, err := f.svc.Cancel(ctx, tc.ID, "patient-1")
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultCancelled, got.Status)
		require.NotEmpty(t, got.RefundID)
		// 1000 gross: 20 fee, 3.6 tax on fee, 976.4 back.
		assert.InDelta(t, 976.4, f.gateway.refunds[got.RefundID], 1e-9)
	})

	t.Run("only the booking patient may cancel", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		_, err := f.svc.Cancel(ctx, tc.ID, "patient-2")
		assert.ErrorIs(t, err, ErrWrongState)
	})

	t.Run("refund failure blocks the cancellation", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		f.gateway.failRef = true

		_, err := f.svc.Cancel(ctx, tc.ID, "patient-1")
		assert.ErrorIs(t, err, ErrRefundFailed)

		stored, err := f.repo.GetByID(ctx, tc.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultScheduled, stored.Status)
		assert.Empty(t, stored.RefundID)
	})

	t.Run("completed consultations cannot be cancelled", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		_, err := f.svc.Accept(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		_, err = f.svc.Start(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		_, err = f.svc.Complete(ctx, tc.ID, "doc-1")
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, tc.ID, "patient-1")
		assert.ErrorIs(t, err, ErrWrongState)
	})
}

func TestTeleconsultReject(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds the full gross with no fee", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)

		got, err := f.svc.Reject(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultRejected, got.Status)
		require.NotEmpty(t, got.RefundID)
		assert.Equal(t, 1000.0, f.gateway.refunds[got.RefundID])
	})

	t.Run("only from SCHEDULED", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		_, err := f.svc.Accept(ctx, tc.ID, "doc-1")
		require.NoError(t, err)

		_, err = f.svc.Reject(ctx, tc.ID, "doc-1")
		assert.ErrorIs(t, err, ErrWrongState)
	})

	t.Run("refund failure blocks the rejection", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		f.gateway.failRef = true

		_, err := f.svc.Reject(ctx, tc.ID, "doc-1")
		assert.ErrorIs(t, err, ErrRefundFailed)

		stored, err := f.repo.GetByID(ctx, tc.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TeleconsultScheduled, stored.Status)
	})
}

func TestTeleconsultRescheduleAndPrescription(t *testing.T) {
	ctx := context.Background()

	t.Run("reschedule stamps the flag and new slot", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)

		got, err := f.svc.Reschedule(ctx, tc.ID, "doc-1", "slot-9", "2026-09-15")
		require.NoError(t, err)
		assert.True(t, got.IsRescheduled)
		assert.Equal(t, "slot-9", got.SlotID)
		assert.Equal(t, "2026-09-15", got.Date)
	})

	t.Run("reschedule requires a live pre-call status", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		_, err := f.svc.Accept(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		_, err = f.svc.Start(ctx, tc.ID, "doc-1")
		require.NoError(t, err)

		_, err = f.svc.Reschedule(ctx, tc.ID, "doc-1", "slot-9", "2026-09-15")
		assert.ErrorIs(t, err, ErrWrongState)
	})

	t.Run("another doctor cannot reschedule", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)

		_, err := f.svc.Reschedule(ctx, tc.ID, "doc-2", "slot-9", "2026-09-15")
		assert.ErrorIs(t, err, ErrWrongState)

		stored, err := f.repo.GetByID(ctx, tc.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsRescheduled)
		assert.Equal(t, "slot-1", stored.SlotID)
	})

	t.Run("prescription only after completion", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)

		_, err := f.svc.AttachPrescription(ctx, tc.ID, "doc-1", "prescriptions/rx-1")
		assert.ErrorIs(t, err, ErrWrongState)

		_, err = f.svc.Accept(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		_, err = f.svc.Start(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		_, err = f.svc.Complete(ctx, tc.ID, "doc-1")
		require.NoError(t, err)

		got, err := f.svc.AttachPrescription(ctx, tc.ID, "doc-1", "prescriptions/rx-1")
		require.NoError(t, err)
		assert.Equal(t, "prescriptions/rx-1", got.PrescriptionURL)
	})

	t.Run("another doctor cannot attach a prescription", func(t *testing.T) {
		f := newFixture()
		tc := f.book(t, "pay_1", 1000)
		_, err := f.svc.Accept(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		_, err = f.svc.Start(ctx, tc.ID, "doc-1")
		require.NoError(t, err)
		_, err = f.svc.Complete(ctx, tc.ID, "doc-1")
		require.NoError(t, err)

		_, err = f.svc.AttachPrescription(ctx, tc.ID, "doc-2", "prescriptions/rx-1")
		assert.ErrorIs(t, err, ErrWrongState)

		stored, err := f.repo.GetByID(ctx, tc.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.PrescriptionURL)
	})
}
