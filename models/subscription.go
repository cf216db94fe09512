package models

import "time"

// Subscription is a catalog item a partner can buy to obtain service-boy
// capacity for a period of time.
type Subscription struct {
	ID                  string  `bson:"id" json:"id"`
	Name                string  `bson:"name" json:"name"`
	Price               float64 `bson:"price" json:"price"`
	NumberOfServiceBoys int     `bson:"number_of_service_boys" json:"number_of_service_boys"`
	TimePeriodMonths    int     `bson:"time_period_months" json:"time_period_months"`
}

// SubscriptionPurchase is the one active/renewable purchase record per partner.
// NumberOfServiceBoysLeft never goes below zero; every service-boy addition
// decrements it by one, atomically with the service-boy insert.
type SubscriptionPurchase struct {
	ID                      string     `bson:"id" json:"id"`
	PartnerID               string     `bson:"partner_id" json:"partner_id"`
	SubscriptionID          string     `bson:"subscription_id" json:"subscription_id"`
	NumberOfServiceBoysLeft int        `bson:"number_of_service_boys_left" json:"number_of_service_boys_left"`
	PurchasedAt             time.Time  `bson:"purchased_at" json:"purchased_at"`
	ExpiresAt               time.Time  `bson:"expires_at" json:"expires_at"`
	RenewedAt               *time.Time `bson:"renewed_at,omitempty" json:"renewed_at,omitempty"`
}

// Expired reports whether the purchase has lapsed as of now.
func (p *SubscriptionPurchase) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}
