// internal/model/blood_request.go
package model

import "time"

// RequestStatus is the lifecycle state of a BloodRequest.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusActive    RequestStatus = "ACTIVE"
	StatusFulfilled RequestStatus = "FULFILLED"
	StatusCancelled RequestStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s RequestStatus) Terminal() bool {
	return s == StatusFulfilled || s == StatusCancelled
}

// Open reports whether s accepts a terminal transition.
func (s RequestStatus) Open() bool {
	return s == StatusPending || s == StatusActive
}

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// BloodRequest is one hospital-donor pairing produced by a campaign.
type BloodRequest struct {
	ID                 string        `db:"id" json:"id"`
	CampaignID         string        `db:"campaign_id" json:"campaign_id"`
	HospitalID         string        `db:"hospital_id" json:"hospital_id"`
	DonorID            string        `db:"donor_id" json:"donor_id"`
	BloodType          BloodType     `db:"blood_type" json:"blood_type"`
	Quantity           int           `db:"quantity" json:"quantity"`
	DistanceKm         float64       `db:"distance_km" json:"distance_km"`
	RadiusKm           float64       `db:"radius_km" json:"radius_km"`
	Status             RequestStatus `db:"status" json:"status"`
	NotificationSent   bool          `db:"notification_sent" json:"notification_sent"`
	NotificationSentAt *time.Time    `db:"notification_sent_at" json:"notification_sent_at,omitempty"`
	CancelledAt        *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	FulfilledAt        *time.Time    `db:"fulfilled_at" json:"fulfilled_at,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
}

// RequestStats holds per-status record counts.
type RequestStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Fulfilled int `json:"fulfilled"`
	Cancelled int `json:"cancelled"`
}

// NewRequestStats derives the stats from raw per-status counts. Cancelled is
// whatever is left after the open and fulfilled buckets.
func NewRequestStats(counts map[RequestStatus]int) RequestStats {
	s := RequestStats{
		Pending:   counts[StatusPending],
		Active:    counts[StatusActive],
		Fulfilled: counts[StatusFulfilled],
	}
	for _, n := range counts {
		s.Total += n
	}
	s.Cancelled = s.Total - s.Pending - s.Active - s.Fulfilled
	return s
}
