package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
	"github.com/unclebandit/blood-dispatch/internal/gateway"
	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/queue"
	"github.com/unclebandit/blood-dispatch/internal/repository"
)

// Dependencies are the collaborators the engine is assembled from.
type Dependencies struct {
	Hospitals repository.HospitalDirectory
	Donors    repository.DonorDirectory
	Campaigns repository.CampaignRepositoryInterface
	Requests  repository.BloodRequestRepositoryInterface
	Gateway   gateway.Gateway
	Messages  repository.OutboundMessageRepositoryInterface // optional notification log
	Events    queue.Queue                                   // optional
	Logger    *zap.Logger

	Concurrency int
	Timeout     time.Duration

	Now   func() time.Time
	NewID func() string
}

// BloodRequestService is the dispatch engine: campaign creation, lifecycle
// operations and read queries.
type BloodRequestService struct {
	Hospitals    repository.HospitalDirectory
	Campaigns    repository.CampaignRepositoryInterface
	Requests     repository.BloodRequestRepositoryInterface
	Messages     repository.OutboundMessageRepositoryInterface
	Matcher      *DonorMatcher
	Materializer *RequestMaterializer
	Dispatcher   *NotificationDispatcher
	Lifecycle    *LifecycleManager
	Stats        *StatisticsAggregator
	Events       queue.Queue
	Logger       *zap.Logger
	NewID        func() string
}

// CampaignDetails is a campaign together with the status counts of its
// records.
type CampaignDetails struct {
	model.Campaign
	Stats model.RequestStats `json:"stats"`
}

func NewBloodRequestService(d Dependencies) *BloodRequestService {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = func() string { return uuid.NewString() }
	}

	notifier := NewNotifier(d.Gateway, d.Messages, d.Logger)
	notifier.Now = d.Now
	lifecycle := &LifecycleManager{
		Requests:  d.Requests,
		Hospitals: d.Hospitals,
		Donors:    d.Donors,
		Notifier:  notifier,
		Events:    d.Events,
		Logger:    d.Logger,
		Now:       d.Now,
	}
	return &BloodRequestService{
		Hospitals: d.Hospitals,
		Campaigns: d.Campaigns,
		Requests:  d.Requests,
		Messages:  d.Messages,
		Matcher:   &DonorMatcher{Donors: d.Donors},
		Materializer: &RequestMaterializer{
			Campaigns: d.Campaigns,
			Now:       d.Now,
			NewID:     d.NewID,
		},
		Dispatcher: &NotificationDispatcher{
			Donors:      d.Donors,
			Campaigns:   d.Campaigns,
			Lifecycle:   lifecycle,
			Notifier:    notifier,
			Logger:      d.Logger,
			Concurrency: d.Concurrency,
			Timeout:     d.Timeout,
		},
		Lifecycle: lifecycle,
		Stats:     &StatisticsAggregator{Requests: d.Requests},
		Events:    d.Events,
		Logger:    d.Logger,
		NewID:     d.NewID,
	}
}

// CreateCampaign matches donors for the hospital's need, persists one PENDING
// record per donor and notifies them all. The returned records reflect the
// dispatch outcome: ACTIVE where the notification went out, PENDING
// otherwise. Notification failures are logged, never returned.
func (s *BloodRequestService) CreateCampaign(ctx context.Context, in model.CampaignInput) ([]model.BloodRequest, error) {
	req, err := validateCampaignInput(in)
	if err != nil {
		return nil, err
	}

	hospital, err := s.Hospitals.FindByID(ctx, in.HospitalID)
	if err != nil {
		return nil, err
	}
	if hospital.Location == nil {
		return nil, appErrors.NewInvalidArgument("hospital_id", "hospital has no location")
	}

	matches, err := s.Matcher.Match(ctx, *hospital.Location, in.RadiusKm, req)
	if err != nil {
		return nil, err
	}

	campaign := &model.Campaign{
		ID:           s.NewID(),
		HospitalID:   hospital.ID,
		BloodType:    req.String(),
		Quantity:     in.Quantity,
		RadiusKm:     in.RadiusKm,
		BroadcastAll: req.IsAny(),
	}
	log := s.Logger.With(zap.String("campaign_id", campaign.ID), zap.String("hospital_id", hospital.ID))

	records, err := s.Materializer.Materialize(ctx, campaign, req, matches)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		log.Info("no donors matched", zap.String("blood_type", req.String()), zap.Float64("radius_km", in.RadiusKm))
		return records, nil
	}
	log.Info("blood request campaign created",
		zap.String("blood_type", req.String()),
		zap.Int("donors_matched", len(records)),
	)
	for _, br := range records {
		publishEvent(s.Events, s.Logger, queue.EventCreated, br, br.CreatedAt)
	}

	updated, _ := s.Dispatcher.Dispatch(ctx, campaign, hospital.Name, records)
	return updated, nil
}

func validateCampaignInput(in model.CampaignInput) (model.TypeRequest, error) {
	if strings.TrimSpace(in.HospitalID) == "" {
		return model.TypeRequest{}, appErrors.NewInvalidArgument("hospital_id", "is required")
	}
	if in.Quantity <= 0 {
		return model.TypeRequest{}, appErrors.NewInvalidArgument("quantity", "must be positive")
	}
	if in.RadiusKm <= 0 {
		return model.TypeRequest{}, appErrors.NewInvalidArgument("radius", "must be positive")
	}
	return model.ParseTypeRequest(in.BloodType, in.BroadcastAll)
}

// Cancel withdraws an open request.
func (s *BloodRequestService) Cancel(ctx context.Context, id string) error {
	_, err := s.Lifecycle.Cancel(ctx, id)
	return err
}

// Respond records a donor accepting the request. donorID may be empty when
// the caller is not acting as a specific donor.
func (s *BloodRequestService) Respond(ctx context.Context, id, donorID string) error {
	_, err := s.Lifecycle.Respond(ctx, id, donorID)
	return err
}

func (s *BloodRequestService) StatsForHospital(ctx context.Context, hospitalID string) (model.RequestStats, error) {
	return s.Stats.StatsForHospital(ctx, hospitalID)
}

func (s *BloodRequestService) GetRequest(ctx context.Context, id string) (*model.BloodRequest, error) {
	return s.Requests.GetByID(ctx, id)
}

// ListForHospital returns the hospital's records, newest first. An empty
// status means all statuses.
func (s *BloodRequestService) ListForHospital(ctx context.Context, hospitalID, status string) ([]model.BloodRequest, error) {
	st := model.RequestStatus(strings.ToUpper(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, appErrors.NewInvalidArgument("status", "unknown status "+status)
	}
	return s.Requests.ListByHospital(ctx, hospitalID, st)
}

func (s *BloodRequestService) ListForDonor(ctx context.Context, donorID string) ([]model.BloodRequest, error) {
	return s.Requests.ListByDonor(ctx, donorID)
}

// NotificationsForRequest returns the notification log of one request,
// oldest first. Without a configured log it is always empty.
func (s *BloodRequestService) NotificationsForRequest(ctx context.Context, id string) ([]model.OutboundMessage, error) {
	if _, err := s.Requests.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if s.Messages == nil {
		return []model.OutboundMessage{}, nil
	}
	return s.Messages.ListByRequest(ctx, id)
}

// GetCampaignDetails fetches a campaign with its per-status counts.
func (s *BloodRequestService) GetCampaignDetails(ctx context.Context, id string) (*CampaignDetails, error) {
	campaign, err := s.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats.StatsForCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{Campaign: *campaign, Stats: stats}, nil
}
