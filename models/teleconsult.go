package models

import "time"

// Teleconsultation statuses.
const (
	TeleconsultScheduled  = "SCHEDULED"
	TeleconsultAccepted   = "ACCEPTED"
	TeleconsultInProgress = "IN_PROGRESS"
	TeleconsultCompleted  = "COMPLETED"
	TeleconsultRejected   = "REJECTED"
	TeleconsultCancelled  = "CANCELLED"
)

// TeleconsultAppointment is a scheduled video consultation with a doctor.
// RefundID is present only when status is CANCELLED or REJECTED. The doctor's
// wallet is credited exactly once, at the COMPLETED transition.
type TeleconsultAppointment struct {
	ID              string    `bson:"id" json:"id"`
	PatientID       string    `bson:"patient_id" json:"patient_id"`
	PatientName     string    `bson:"patient_name" json:"patient_name"`
	PatientPhone    string    `bson:"patient_phone" json:"patient_phone"`
	DoctorID        string    `bson:"doctor_id" json:"doctor_id"`
	SlotID          string    `bson:"slot_id" json:"slot_id"`
	Date            string    `bson:"date" json:"date"` // "YYYY-MM-DD"
	Status          string    `bson:"status" json:"status"`
	OrderID         string    `bson:"order_id" json:"order_id"`
	PaymentID       string    `bson:"payment_id" json:"payment_id"`
	RefundID        string    `bson:"refund_id,omitempty" json:"refund_id,omitempty"`
	PrescriptionURL string    `bson:"prescription_url,omitempty" json:"prescription_url,omitempty"`
	IsRescheduled   bool      `bson:"is_rescheduled" json:"is_rescheduled"`
	VideoCallID     string    `bson:"video_call_id,omitempty" json:"video_call_id,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}
