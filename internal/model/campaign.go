// internal/model/campaign.go
package model

import "time"

// Campaign is a single hospital-initiated blood request spanning many donors.
type Campaign struct {
	ID             string    `db:"id" json:"id"`
	HospitalID     string    `db:"hospital_id" json:"hospital_id"`
	BloodType      string    `db:"blood_type" json:"blood_type"` // concrete type or ALL
	Quantity       int       `db:"quantity" json:"quantity"`
	RadiusKm       float64   `db:"radius_km" json:"radius_km"`
	BroadcastAll   bool      `db:"broadcast_all" json:"broadcast_all"`
	DonorsMatched  int       `db:"donors_matched" json:"donors_matched"`
	DonorsNotified int       `db:"donors_notified" json:"donors_notified"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CampaignInput is what a hospital submits to start a campaign.
type CampaignInput struct {
	HospitalID   string  `json:"hospital_id"`
	BloodType    string  `json:"blood_type"`
	Quantity     int     `json:"quantity"`
	RadiusKm     float64 `json:"radius"`
	BroadcastAll bool    `json:"broadcast_all"`
}
