package service

import (
	"context"
	"fmt"

	"github.com/unclebandit/blood-dispatch/internal/geo"
	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/repository"
)

// DonorMatcher finds active, compatible donors within a radius of a point.
type DonorMatcher struct {
	Donors repository.DonorDirectory
}

// Match returns every eligible donor within radiusKm of origin with its
// distance. The directory may over-return (it prefilters with a bounding
// box); eligibility, compatibility and the exact distance are checked here.
// No match is an empty slice, not an error. Order is unspecified.
func (m *DonorMatcher) Match(ctx context.Context, origin model.Coordinates, radiusKm float64, req model.TypeRequest) ([]model.MatchedDonor, error) {
	types := req.CompatibleDonorTypes()
	candidates, err := m.Donors.FindNearby(ctx, origin, radiusKm, types)
	if err != nil {
		return nil, fmt.Errorf("find nearby donors: %w", err)
	}

	allowed := make(map[model.BloodType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	seen := make(map[string]bool, len(candidates))
	matches := []model.MatchedDonor{}
	for _, d := range candidates {
		if seen[d.ID] || d.Status != model.DonorActive || d.Location == nil || !allowed[d.BloodGroup] {
			continue
		}
		distance := geo.Distance(origin, *d.Location)
		if !(distance <= radiusKm) {
			continue
		}
		seen[d.ID] = true
		matches = append(matches, model.MatchedDonor{Donor: d, DistanceKm: distance})
	}
	return matches, nil
}
