package service

import (
	"context"
	"fmt"
	"time"

	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/repository"
)

// RequestMaterializer turns a match list into persisted PENDING records, one
// per donor.
type RequestMaterializer struct {
	Campaigns repository.CampaignRepositoryInterface
	Now       func() time.Time
	NewID     func() string
}

// Materialize writes the campaign and its records in one batch. With no
// matches nothing is written and an empty slice is returned.
func (m *RequestMaterializer) Materialize(ctx context.Context, campaign *model.Campaign, req model.TypeRequest, matches []model.MatchedDonor) ([]model.BloodRequest, error) {
	if len(matches) == 0 {
		return []model.BloodRequest{}, nil
	}

	now := m.Now()
	records := make([]model.BloodRequest, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, match := range matches {
		if seen[match.Donor.ID] {
			continue
		}
		seen[match.Donor.ID] = true

		records = append(records, model.BloodRequest{
			ID:         m.NewID(),
			CampaignID: campaign.ID,
			HospitalID: campaign.HospitalID,
			DonorID:    match.Donor.ID,
			BloodType:  req.RecordType(match.Donor.BloodGroup),
			Quantity:   campaign.Quantity,
			DistanceKm: match.DistanceKm,
			RadiusKm:   campaign.RadiusKm,
			Status:     model.StatusPending,
			CreatedAt:  now,
		})
	}

	campaign.DonorsMatched = len(records)
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}

	if err := m.Campaigns.CreateWithRequests(ctx, campaign, records); err != nil {
		return nil, fmt.Errorf("persist campaign %s: %w", campaign.ID, err)
	}
	return records, nil
}
