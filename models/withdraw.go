package models

import "time"

// Withdraw statuses. A withdraw is terminal once SUCCESS or REJECTED.
const (
	WithdrawPending  = "PENDING"
	WithdrawSuccess  = "SUCCESS"
	WithdrawRejected = "REJECTED"
)

// Withdraw is a request to move funds from a wallet to a bank account.
// The amount is debited from the wallet when the withdraw is created
// (reservation semantics); on REJECTED it is credited back, on SUCCESS no
// further balance change occurs.
type Withdraw struct {
	ID              string     `bson:"id" json:"id"`
	Owner           OwnerRef   `bson:",inline" json:"owner"`
	Amount          float64    `bson:"amount" json:"amount"`
	PaymentMethodID string     `bson:"payment_method_id" json:"payment_method_id"`
	Status          string     `bson:"status" json:"status"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	ResolvedAt      *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
