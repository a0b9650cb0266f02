// internal/model/directory.go
package model

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DonorStatus mirrors the donor directory's eligibility flag.
type DonorStatus string

const (
	DonorActive   DonorStatus = "active"
	DonorInactive DonorStatus = "inactive"
)

// Donor is the read-only view of a donor profile.
type Donor struct {
	ID             string       `db:"id" json:"id"`
	Name           string       `db:"name" json:"name"`
	BloodGroup     BloodType    `db:"blood_group" json:"blood_group"`
	Phone          string       `db:"phone" json:"phone,omitempty"`
	Email          string       `db:"email" json:"email,omitempty"`
	TelegramChatID int64        `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	Location       *Coordinates `json:"location,omitempty"`
	Status         DonorStatus  `db:"status" json:"status"`
}

// Hospital is the read-only view of a hospital profile.
type Hospital struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Location     *Coordinates `json:"location,omitempty"`
	ContactEmail string       `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone string       `db:"contact_phone" json:"contact_phone,omitempty"`
}

// MatchedDonor is a donor found by the matcher together with its distance
// from the hospital at match time.
type MatchedDonor struct {
	Donor      Donor
	DistanceKm float64
}
