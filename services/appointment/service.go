package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentRepo "medilink/database/repository/appointment"
	"medilink/models"
	"medilink/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookRequest carries the input for creating a lab/home-service appointment.
// Gateway bookings must include a payment proof; cash bookings must not.
type BookRequest struct {
	PatientName   string         `json:"patient_name"`
	PatientPhone  string         `json:"patient_phone"`
	PatientAge    int            `json:"patient_age"`
	PatientGender string         `json:"patient_gender"`
	ServiceID     string         `json:"service_id"`
	PartnerID     string         `json:"partner_id"`
	AddressID     string         `json:"address_id"`
	ModeOfPayment string         `json:"mode_of_payment"`
	Proof         *payment.Proof `json:"proof,omitempty"`
}

// Service is the lab/home-service appointment state machine.
type Service interface {
	Book(ctx context.Context, req BookRequest) (*models.Appointment, error)
	Get(ctx context.Context, id string) (*models.Appointment, error)
	Accept(ctx context.Context, id, serviceBoyID string) (*models.Appointment, error)
	Complete(ctx context.Context, id, serviceBoyID string) (*models.Appointment, error)
	Cancel(ctx context.Context, id, actorID string) (*models.Appointment, error)
	OverrideStatus(ctx context.Context, id, status string) (*models.Appointment, error)
	MarkPaid(ctx context.Context, id string) (*models.Appointment, error)
	MarkReceivedByPartner(ctx context.Context, serviceBoyID string) (int64, error)
	AttachReport(ctx context.Context, id, reportName string) (*models.Appointment, error)
	Remove(ctx context.Context, id string) error
}

// DefaultAppointmentService implements Service over the appointment
// repository, with gateway bookings verified before anything is persisted.
type DefaultAppointmentService struct {
	Repo     appointmentRepo.AppointmentRepository
	Verifier *payment.Verifier
	Logger   *zap.Logger
}

func NewService(repo appointmentRepo.AppointmentRepository, verifier *payment.Verifier, logger *zap.Logger) *DefaultAppointmentService {
	return &DefaultAppointmentService{Repo: repo, Verifier: verifier, Logger: logger}
}

func (s *DefaultAppointmentService) Book(ctx context.Context, req BookRequest) (*models.Appointment, error) {
	if req.PatientName == "" || req.PatientPhone == "" || req.ServiceID == "" || req.PartnerID == "" {
		return nil, ErrMissingFields
	}
	if req.ModeOfPayment != models.PaymentModeCash && req.ModeOfPayment != models.PaymentModeGateway {
		return nil, ErrMissingFields
	}

	appt := &models.Appointment{
		ID:            uuid.New().String(),
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		PatientAge:    req.PatientAge,
		PatientGender: req.PatientGender,
		ServiceID:     req.ServiceID,
		PartnerID:     req.PartnerID,
		AddressID:     req.AddressID,
		Status:        models.AppointmentScheduled,
		ModeOfPayment: req.ModeOfPayment,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if req.ModeOfPayment == models.PaymentModeGateway {
		if req.Proof == nil {
			return nil, ErrMissingFields
		}
		if err := s.Verifier.VerifyProof(*req.Proof); err != nil {
			s.Logger.Warn("appointment booking rejected: bad payment signature",
				zap.String("order_id", req.Proof.OrderID),
				zap.String("payment_id", req.Proof.PaymentID),
			)
			return nil, err
		}
		appt.OrderID = req.Proof.OrderID
		appt.PaymentID = req.Proof.PaymentID
		appt.IsPaid = true
	}

	if err := s.Repo.Insert(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}
	s.Logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("partner_id", appt.PartnerID),
		zap.String("mode", appt.ModeOfPayment),
	)
	return appt, nil
}

func (s *DefaultAppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, appointmentRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return appt, err
}

// Accept claims a SCHEDULED appointment for a service boy. The conditional
// update resolves concurrent acceptors to exactly one winner; losers find the
// row no longer matches the predicate.
func (s *DefaultAppointmentService) Accept(ctx context.Context, id, serviceBoyID string) (*models.Appointment, error) {
	appt, err := s.Repo.ClaimScheduled(ctx, id, serviceBoyID)
	if errors.Is(err, appointmentRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id, ErrNotScheduled)
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("appointment accepted",
		zap.String("appointment_id", id),
		zap.String("service_boy_id", serviceBoyID),
	)
	return appt, nil
}

func (s *DefaultAppointmentService) Complete(ctx context.Context, id, serviceBoyID string) (*models.Appointment, error) {
	appt, err := s.Repo.CompleteAccepted(ctx, id, serviceBoyID)
	if errors.Is(err, appointmentRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id, ErrNotAcceptedByCaller)
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("appointment completed",
		zap.String("appointment_id", id),
		zap.String("service_boy_id", serviceBoyID),
	)
	return appt, nil
}

// Cancel moves any non-terminal appointment to CANCELLED. The cancelling
// actor is recorded in acceptedBy for audit even when no prior acceptance
// existed.
func (s *DefaultAppointmentService) Cancel(ctx context.Context, id, actorID string) (*models.Appointment, error) {
	appt, err := s.Repo.CancelActive(ctx, id, actorID)
	if errors.Is(err, appointmentRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id, ErrTerminalState)
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("appointment cancelled",
		zap.String("appointment_id", id),
		zap.String("actor_id", actorID),
	)
	return appt, nil
}

// OverrideStatus forces an appointment to any status, bypassing the
// transition graph. Support correction only; the power is intentional.
func (s *DefaultAppointmentService) OverrideStatus(ctx context.Context, id, status string) (*models.Appointment, error) {
	switch status {
	case models.AppointmentScheduled, models.AppointmentAccepted,
		models.AppointmentCompleted, models.AppointmentCancelled:
	default:
		return nil, ErrUnknownStatus
	}
	appt, err := s.Repo.SetStatus(ctx, id, status)
	if errors.Is(err, appointmentRepo.ErrNoMatch) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Warn("appointment status overridden",
		zap.String("appointment_id", id),
		zap.String("status", status),
	)
	return appt, nil
}

func (s *DefaultAppointmentService) MarkPaid(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.Repo.MarkPaid(ctx, id)
	if errors.Is(err, appointmentRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id, ErrAlreadyPaid)
	}
	return appt, err
}

func (s *DefaultAppointmentService) MarkReceivedByPartner(ctx context.Context, serviceBoyID string) (int64, error) {
	n, err := s.Repo.MarkReceivedByPartner(ctx, serviceBoyID)
	if err != nil {
		return 0, err
	}
	s.Logger.Info("cash settlement recorded",
		zap.String("service_boy_id", serviceBoyID),
		zap.Int64("appointments", n),
	)
	return n, nil
}

// AttachReport records the uploaded report name. The upload itself happens in
// the storage collaborator before this is called.
func (s *DefaultAppointmentService) AttachReport(ctx context.Context, id, reportName string) (*models.Appointment, error) {
	appt, err := s.Repo.AttachReport(ctx, id, reportName)
	if errors.Is(err, appointmentRepo.ErrNoMatch) {
		return nil, s.classifyNoMatch(ctx, id, ErrReportNotAllowed)
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("report attached",
		zap.String("appointment_id", id),
		zap.String("report", reportName),
	)
	return appt, nil
}

// Remove hard-deletes an appointment. Explicit admin action only.
func (s *DefaultAppointmentService) Remove(ctx context.Context, id string) error {
	err := s.Repo.Delete(ctx, id)
	if errors.Is(err, appointmentRepo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// classifyNoMatch turns a failed conditional update into ErrNotFound when the
// row does not exist, or the supplied conflict error when it does.
func (s *DefaultAppointmentService) classifyNoMatch(ctx context.Context, id string, conflict error) error {
	if _, err := s.Repo.GetByID(ctx, id); errors.Is(err, appointmentRepo.ErrNotFound) {
		return ErrNotFound
	}
	return conflict
}
