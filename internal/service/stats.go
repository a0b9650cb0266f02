package service

import (
	"context"
	"fmt"

	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/repository"
)

// StatisticsAggregator answers per-status count queries. Unknown hospitals
// and campaigns yield all-zero stats.
type StatisticsAggregator struct {
	Requests repository.BloodRequestRepositoryInterface
}

func (s *StatisticsAggregator) StatsForHospital(ctx context.Context, hospitalID string) (model.RequestStats, error) {
	counts, err := s.Requests.CountByHospital(ctx, hospitalID)
	if err != nil {
		return model.RequestStats{}, fmt.Errorf("count requests for hospital %s: %w", hospitalID, err)
	}
	return model.NewRequestStats(counts), nil
}

func (s *StatisticsAggregator) StatsForCampaign(ctx context.Context, campaignID string) (model.RequestStats, error) {
	counts, err := s.Requests.CountByCampaign(ctx, campaignID)
	if err != nil {
		return model.RequestStats{}, fmt.Errorf("count requests for campaign %s: %w", campaignID, err)
	}
	return model.NewRequestStats(counts), nil
}
