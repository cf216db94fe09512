package models

// Role-scoped response shaping. Each function builds a fresh projection per
// call; nothing here is shared or mutated across requests.

// AppointmentView is the caller-facing shape of an appointment.
type AppointmentView map[string]interface{}

// ViewAsUser shapes an appointment for the booking patient. Internal
// settlement flags are omitted.
func ViewAsUser(a *Appointment) AppointmentView {
	return AppointmentView{
		"id":                 a.ID,
		"service_id":         a.ServiceID,
		"partner_id":         a.PartnerID,
		"status":             a.Status,
		"mode_of_payment":    a.ModeOfPayment,
		"is_paid":            a.IsPaid,
		"is_report_uploaded": a.IsReportUploaded,
		"report_name":        a.ReportName,
		"created_at":         a.CreatedAt,
	}
}

// ViewAsPartner shapes an appointment for the owning partner, including
// cash-settlement state.
func ViewAsPartner(a *Appointment) AppointmentView {
	return AppointmentView{
		"id":                     a.ID,
		"patient_name":           a.PatientName,
		"patient_phone":          a.PatientPhone,
		"service_id":             a.ServiceID,
		"address_id":             a.AddressID,
		"accepted_by":            a.AcceptedBy,
		"status":                 a.Status,
		"mode_of_payment":        a.ModeOfPayment,
		"is_paid":                a.IsPaid,
		"is_received_by_partner": a.IsReceivedByPartner,
		"is_report_uploaded":     a.IsReportUploaded,
		"created_at":             a.CreatedAt,
		"updated_at":             a.UpdatedAt,
	}
}

// ViewAsServiceBoy shapes an appointment for field staff: enough to find the
// patient and settle cash, nothing more.
func ViewAsServiceBoy(a *Appointment) AppointmentView {
	return AppointmentView{
		"id":              a.ID,
		"patient_name":    a.PatientName,
		"patient_phone":   a.PatientPhone,
		"service_id":      a.ServiceID,
		"address_id":      a.AddressID,
		"status":          a.Status,
		"mode_of_payment": a.ModeOfPayment,
		"is_paid":         a.IsPaid,
	}
}
