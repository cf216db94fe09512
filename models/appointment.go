package models

import "time"

// Appointment statuses. Transitions are enforced by the appointment service
// through conditional updates; only the admin override bypasses the graph.
const (
	AppointmentScheduled = "SCHEDULED"
	AppointmentAccepted  = "ACCEPTED"
	AppointmentCompleted = "COMPLETED"
	AppointmentCancelled = "CANCELLED"
)

// Payment modes for lab/home-service appointments.
const (
	PaymentModeCash    = "cash"
	PaymentModeGateway = "gateway"
)

// Appointment represents a requested lab or home-collection service.
// AcceptedBy is set iff status is ACCEPTED or COMPLETED, except after a
// cancellation, where it records the cancelling actor for audit.
type Appointment struct {
	ID                  string    `bson:"id" json:"id"`
	PatientName         string    `bson:"patient_name" json:"patient_name"`
	PatientPhone        string    `bson:"patient_phone" json:"patient_phone"`
	PatientAge          int       `bson:"patient_age,omitempty" json:"patient_age,omitempty"`
	PatientGender       string    `bson:"patient_gender,omitempty" json:"patient_gender,omitempty"`
	ServiceID           string    `bson:"service_id" json:"service_id"`
	PartnerID           string    `bson:"partner_id" json:"partner_id"`
	AddressID           string    `bson:"address_id,omitempty" json:"address_id,omitempty"` // home collection only
	AcceptedBy          string    `bson:"accepted_by,omitempty" json:"accepted_by,omitempty"`
	Status              string    `bson:"status" json:"status"`
	ModeOfPayment       string    `bson:"mode_of_payment" json:"mode_of_payment"`
	OrderID             string    `bson:"order_id,omitempty" json:"order_id,omitempty"`
	PaymentID           string    `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
	IsPaid              bool      `bson:"is_paid" json:"is_paid"`
	IsReceivedByPartner bool      `bson:"is_received_by_partner" json:"is_received_by_partner"`
	IsReportUploaded    bool      `bson:"is_report_uploaded" json:"is_report_uploaded"`
	ReportName          string    `bson:"report_name,omitempty" json:"report_name,omitempty"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at" json:"updated_at"`
}
