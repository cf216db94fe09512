package models

import "time"

// ServiceBoy is field staff fulfilling home-service appointments on a
// partner's behalf. Each row consumes one unit of the partner's subscription
// quota at creation time.
type ServiceBoy struct {
	ID         string    `bson:"id" json:"id"`
	PartnerID  string    `bson:"partner_id" json:"partner_id"`
	PurchaseID string    `bson:"purchase_id" json:"purchase_id"`
	Name       string    `bson:"name" json:"name"`
	Phone      string    `bson:"phone" json:"phone"`
	Zone       string    `bson:"zone,omitempty" json:"zone,omitempty"`
	Available  bool      `bson:"available" json:"available"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
