package teleconsult

import (
	"context"
	"errors"
	"fmt"
	"time"

	teleconsultRepo "medilink/database/repository/teleconsult"
	"medilink/models"
	"medilink/services/ledger"
	"medilink/services/payment"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// How long a consumed gateway payment id is remembered by the replay guard.
const paymentGuardTTL = 24 * time.Hour

// BookRequest carries the input for booking a teleconsultation. Booking is
// capture-on-book: the payment proof must verify before anything persists.
type BookRequest struct {
	PatientID    string        `json:"patient_id"`
	PatientName  string        `json:"patient_name"`
	PatientPhone string        `json:"patient_phone"`
	DoctorID     string        `json:"doctor_id"`
	SlotID       string        `json:"slot_id"`
	Date         string        `json:"date"`
	Proof        payment.Proof `json:"proof"`
}

// Service is the teleconsultation state machine, coupled to the payment
// verifier for capture-on-book and refund-on-cancel/reject, and to the ledger
// for pay-on-complete.
type Service interface {
	Book(ctx context.Context, req BookRequest) (*models.TeleconsultAppointment, error)
	Get(ctx context.Context, id string) (*models.TeleconsultAppointment, error)
	Accept(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error)
	Start(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error)
	Complete(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error)
	Cancel(ctx context.Context, id, patientID string) (*models.TeleconsultAppointment, error)
	Reject(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error)
	Reschedule(ctx context.Context, id, doctorID, slotID, date string) (*models.TeleconsultAppointment, error)
	AttachPrescription(ctx context.Context, id, doctorID, url string) (*models.TeleconsultAppointment, error)
}

// DefaultTeleconsultService implements Service.
type DefaultTeleconsultService struct {
	Repo     teleconsultRepo.TeleconsultRepository
	Ledger   ledger.Service
	Gateway  payment.Gateway
	Verifier *payment.Verifier
	Cache    *redis.Client
	Logger   *zap.Logger

	// Withheld on user-initiated cancellation: fee = FeeRate of gross,
	// plus FeeTaxRate of the fee.
	FeeRate    float64
	FeeTaxRate float64
}

func NewService(
	repo teleconsultRepo.TeleconsultRepository,
	ldg ledger.Service,
	gateway payment.Gateway,
	verifier *payment.Verifier,
	cache *redis.Client,
	logger *zap.Logger,
	feeRate, feeTaxRate float64,
) *DefaultTeleconsultService {
	return &DefaultTeleconsultService{
		Repo:       repo,
		Ledger:     ldg,
		Gateway:    gateway,
		Verifier:   verifier,
		Cache:      cache,
		Logger:     logger,
		FeeRate:    feeRate,
		FeeTaxRate: feeTaxRate,
	}
}

// Book verifies the gateway payment proof and creates the appointment in
// SCHEDULED. A bad signature is terminal: no row is written.
func (s *DefaultTeleconsultService) Book(ctx context.Context, req BookRequest) (*models.TeleconsultAppointment, error) {
	if req.PatientID == "" || req.DoctorID == "" || req.SlotID == "" || req.Date == "" {
		return nil, ErrMissingFields
	}
	if err := s.Verifier.VerifyProof(req.Proof); err != nil {
		s.Logger.Warn("teleconsultation booking rejected: bad payment signature",
			zap.String("order_id", req.Proof.OrderID),
			zap.String("payment_id", req.Proof.PaymentID),
		)
		return nil, err
	}

	// A verified payment id buys exactly one booking.
	if s.Cache != nil {
		ok, err := s.Cache.SetNX(ctx, "telepay:"+req.Proof.PaymentID, 1, paymentGuardTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("payment replay guard unavailable: %w", err)
		}
		if !ok {
			return nil, payment.ErrDuplicatePayment
		}
	}

	t := &models.TeleconsultAppointment{
		ID:           uuid.New().String(),
		PatientID:    req.PatientID,
		PatientName:  req.PatientName,
		PatientPhone: req.PatientPhone,
		DoctorID:     req.DoctorID,
		SlotID:       req.SlotID,
		Date:         req.Date,
		Status:       models.TeleconsultScheduled,
		OrderID:      req.Proof.OrderID,
		PaymentID:    req.Proof.PaymentID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.Repo.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to book teleconsultation: %w", err)
	}
	s.Logger.Info("teleconsultation booked",
		zap.String("teleconsult_id", t.ID),
		zap.String("doctor_id", t.DoctorID),
		zap.String("payment_id", t.PaymentID),
	)
	return t, nil
}

func (s *DefaultTeleconsultService) Get(ctx context.Context, id string) (*models.TeleconsultAppointment, error) {
	t, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, teleconsultRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *DefaultTeleconsultService) Accept(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error) {
	t, err := s.Repo.AcceptScheduled(ctx, id, doctorID)
	if errors.Is(err, teleconsultRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("teleconsultation accepted", zap.String("teleconsult_id", id), zap.String("doctor_id", doctorID))
	return t, nil
}

// Start opens the video consultation, assigning a call id.
func (s *DefaultTeleconsultService) Start(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error) {
	t, err := s.Repo.StartAccepted(ctx, id, doctorID, uuid.New().String())
	if errors.Is(err, teleconsultRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("teleconsultation started", zap.String("teleconsult_id", id), zap.String("video_call_id", t.VideoCallID))
	return t, nil
}

// Complete moves IN_PROGRESS -> COMPLETED and credits the doctor's wallet
// with the full gross order amount fetched from the gateway. Status change
// and payout are one unit of work: if the payout cannot be recorded, the
// transition is rolled back to IN_PROGRESS rather than left COMPLETED with no
// payout.
func (s *DefaultTeleconsultService) Complete(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error) {
	t, err := s.Repo.CompleteInProgress(ctx, id, doctorID)
	if errors.Is(err, teleconsultRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	gross, err := s.Gateway.PaymentAmount(ctx, t.PaymentID)
	if err != nil {
		s.compensateComplete(ctx, id, err)
		return nil, ErrPayoutFailed
	}
	owner := models.OwnerRef{Kind: models.OwnerDoctor, ID: doctorID}
	if _, err := s.Ledger.Credit(ctx, owner, gross); err != nil {
		s.compensateComplete(ctx, id, err)
		return nil, ErrPayoutFailed
	}

	s.Logger.Info("teleconsultation completed, doctor paid",
		zap.String("teleconsult_id", id),
		zap.String("doctor_id", doctorID),
		zap.Float64("gross", gross),
	)
	return t, nil
}

func (s *DefaultTeleconsultService) compensateComplete(ctx context.Context, id string, cause error) {
	s.Logger.Error("payout failed, reverting completion",
		zap.String("teleconsult_id", id),
		zap.Error(cause),
	)
	if err := s.Repo.RevertToInProgress(ctx, id); err != nil {
		// Stuck COMPLETED without payout; needs operator follow-up.
		s.Logger.Error("compensation failed: teleconsultation left COMPLETED without payout",
			zap.String("teleconsult_id", id),
			zap.Error(err),
		)
	}
}

// Cancel is the user-initiated, refund-bearing exit. The refund (net of the
// platform fee and the tax on it) must succeed at the gateway before the
// status persists; a failed refund leaves the appointment in its prior
// status.
func (s *DefaultTeleconsultService) Cancel(ctx context.Context, id, patientID string) (*models.TeleconsultAppointment, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.PatientID != patientID || !isActive(t.Status) {
		return nil, ErrWrongState
	}

	gross, err := s.Gateway.PaymentAmount(ctx, t.PaymentID)
	if err != nil {
		s.Logger.Error("refund blocked: gateway payment lookup failed",
			zap.String("teleconsult_id", id), zap.Error(err))
		return nil, ErrRefundFailed
	}
	refund := payment.CancellationRefund(gross, s.FeeRate, s.FeeTaxRate)
	refundID, err := s.Gateway.Refund(ctx, t.PaymentID, refund)
	if err != nil {
		s.Logger.Error("refund failed, cancellation blocked",
			zap.String("teleconsult_id", id), zap.Error(err))
		return nil, ErrRefundFailed
	}

	updated, err := s.Repo.CancelActive(ctx, id, refundID)
	if errors.Is(err, teleconsultRepo.ErrNoMatch) {
		// Refund went out but the status moved underneath us.
		s.Logger.Error("refund issued but cancellation lost a status race",
			zap.String("teleconsult_id", id),
			zap.String("refund_id", refundID),
		)
		return nil, ErrWrongState
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("teleconsultation cancelled, refund issued",
		zap.String("teleconsult_id", id),
		zap.String("refund_id", refundID),
		zap.Float64("refund", refund),
	)
	return updated, nil
}

// Reject is the doctor-initiated exit from SCHEDULED. The full gross is
// refunded with no fee deduction; the refund must succeed before REJECTED
// persists.
func (s *DefaultTeleconsultService) Reject(ctx context.Context, id, doctorID string) (*models.TeleconsultAppointment, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.DoctorID != doctorID || t.Status != models.TeleconsultScheduled {
		return nil, ErrWrongState
	}

	gross, err := s.Gateway.PaymentAmount(ctx, t.PaymentID)
	if err != nil {
		s.Logger.Error("refund blocked: gateway payment lookup failed",
			zap.String("teleconsult_id", id), zap.Error(err))
		return nil, ErrRefundFailed
	}
	refundID, err := s.Gateway.Refund(ctx, t.PaymentID, gross)
	if err != nil {
		s.Logger.Error("refund failed, rejection blocked",
			zap.String("teleconsult_id", id), zap.Error(err))
		return nil, ErrRefundFailed
	}

	updated, err := s.Repo.RejectScheduled(ctx, id, doctorID, refundID)
	if errors.Is(err, teleconsultRepo.ErrNoMatch) {
		s.Logger.Error("refund issued but rejection lost a status race",
			zap.String("teleconsult_id", id),
			zap.String("refund_id", refundID),
		)
		return nil, ErrWrongState
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("teleconsultation rejected, full refund issued",
		zap.String("teleconsult_id", id),
		zap.String("refund_id", refundID),
		zap.Float64("refund", gross),
	)
	return updated, nil
}

func (s *DefaultTeleconsultService) Reschedule(ctx context.Context, id, doctorID, slotID, date string) (*models.TeleconsultAppointment, error) {
	if slotID == "" || date == "" {
		return nil, ErrMissingFields
	}
	t, err := s.Repo.Reschedule(ctx, id, doctorID, slotID, date)
	if errors.Is(err, teleconsultRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id)
	}
	return t, err
}

func (s *DefaultTeleconsultService) AttachPrescription(ctx context.Context, id, doctorID, url string) (*models.TeleconsultAppointment, error) {
	if url == "" {
		return nil, ErrMissingFields
	}
	t, err := s.Repo.AttachPrescription(ctx, id, doctorID, url)
	if errors.Is(err, teleconsultRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id)
	}
	return t, err
}

func isActive(status string) bool {
	switch status {
	case models.TeleconsultScheduled, models.TeleconsultAccepted, models.TeleconsultInProgress:
		return true
	}
	return false
}

func (s *DefaultTeleconsultService) classifyNoMatch(ctx context.Context, id string) error {
	if _, err := s.Repo.GetByID(ctx, id); errors.Is(err, teleconsultRepo.ErrNotFound) {
		return ErrNotFound
	}
	return ErrWrongState
}
