package handlers

import (
	"medilink/services/appointment"
	"medilink/services/ledger"
	"medilink/services/payment"
	"medilink/services/quota"
	"medilink/services/storage"
	"medilink/services/teleconsult"
	"medilink/services/withdraw"
)

// HandlerBundle groups all endpoint handlers' dependencies into one struct.
type HandlerBundle struct {
	AppointmentService appointment.Service
	TeleconsultService teleconsult.Service
	QuotaService       quota.Service
	WithdrawService    withdraw.Service
	LedgerService      ledger.Service
	StorageService     storage.StorageService
	PaymentGateway     payment.Gateway
}
