package models

import "time"

// OwnerKind identifies which kind of actor a wallet or withdraw belongs to.
type OwnerKind string

const (
	OwnerPartner OwnerKind = "partner"
	OwnerDoctor  OwnerKind = "doctor"
	OwnerVendor  OwnerKind = "vendor"
)

// OwnerRef points at exactly one partner, doctor, or vendor.
type OwnerRef struct {
	Kind OwnerKind `bson:"owner_kind" json:"owner_kind"`
	ID   string    `bson:"owner_id" json:"owner_id"`
}

// Wallet is the running balance owed to an actor, withdrawable to a bank
// account. Amount is in minor currency units and never goes below zero;
// it is mutated only through the ledger, never assigned from request bodies.
type Wallet struct {
	Owner     OwnerRef  `bson:",inline" json:"owner"`
	Amount    float64   `bson:"amount" json:"amount"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
