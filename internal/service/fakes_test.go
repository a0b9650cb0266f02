package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
	"github.com/unclebandit/blood-dispatch/internal/gateway"
	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/repository"
)

// ---------- directories ----------

type fakeHospitals struct {
	hospitals map[string]*model.Hospital
}

func (f *fakeHospitals) FindByID(ctx context.Context, id string) (*model.Hospital, error) {
	h, ok := f.hospitals[id]
	if !ok {
		return nil, appErrors.NewNotFound("hospital", id)
	}
	cp := *h
	return &cp, nil
}

// fakeDonors over-returns like the bounding-box query: everything of a
// requested type, regardless of distance or status.
type fakeDonors struct {
	donors []model.Donor
}

func (f *fakeDonors) FindByID(ctx context.Context, id string) (*model.Donor, error) {
	for _, d := range f.donors {
		if d.ID == id {
			cp := d
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("donor", id)
}

func (f *fakeDonors) FindNearby(ctx context.Context, origin model.Coordinates, radiusKm float64, types []model.BloodType) ([]model.Donor, error) {
	allowed := map[model.BloodType]bool{}
	for _, t := range types {
		allowed[t] = true
	}
	var out []model.Donor
	for _, d := range f.donors {
		if allowed[d.BloodGroup] {
			out = append(out, d)
		}
	}
	return out, nil
}

// ---------- store ----------

// fakeStore backs both campaign and request repositories. Every method holds
// the lock for its whole body, so conditional updates are atomic like the
// SQL versions.
type fakeStore struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	requests  map[string]*model.BloodRequest
	order     []string
	batches   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns: map[string]*model.Campaign{},
		requests:  map[string]*model.BloodRequest{},
	}
}

func (s *fakeStore) put(br model.BloodRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := br
	s.requests[br.ID] = &cp
	s.order = append(s.order, br.ID)
}

func (s *fakeStore) status(id string) model.RequestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id].Status
}

func (s *fakeStore) CreateWithRequests(ctx context.Context, c *model.Campaign, requests []model.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	cp := *c
	s.campaigns[c.ID] = &cp
	for _, br := range requests {
		br := br
		s.requests[br.ID] = &br
		s.order = append(s.order, br.ID)
	}
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*model.BloodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	br, ok := s.requests[id]
	if !ok {
		return nil, appErrors.NewNotFound("blood request", id)
	}
	cp := *br
	return &cp, nil
}

func (s *fakeStore) list(match func(*model.BloodRequest) bool) []model.BloodRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.BloodRequest{}
	for _, id := range s.order {
		if br := s.requests[id]; match(br) {
			out = append(out, *br)
		}
	}
	return out
}

func (s *fakeStore) ListByHospital(ctx context.Context, hospitalID string, status model.RequestStatus) ([]model.BloodRequest, error) {
	return s.list(func(br *model.BloodRequest) bool {
		return br.HospitalID == hospitalID && (status == "" || br.Status == status)
	}), nil
}

func (s *fakeStore) ListByDonor(ctx context.Context, donorID string) ([]model.BloodRequest, error) {
	return s.list(func(br *model.BloodRequest) bool { return br.DonorID == donorID }), nil
}

func (s *fakeStore) ListByCampaign(ctx context.Context, campaignID string) ([]model.BloodRequest, error) {
	return s.list(func(br *model.BloodRequest) bool { return br.CampaignID == campaignID }), nil
}

func (s *fakeStore) MarkNotified(ctx context.Context, id string, at time.Time) (*model.BloodRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	br, ok := s.requests[id]
	if !ok || br.Status != model.StatusPending {
		return nil, repository.ErrStatusConflict
	}
	br.Status = model.StatusActive
	br.NotificationSent = true
	br.NotificationSentAt = &at
	cp := *br
	return &cp, nil
}

func (s *fakeStore) Transition(ctx context.Context, id string, to model.RequestStatus, at time.Time, from ...model.RequestStatus) (*model.BloodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	br, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrStatusConflict
	}
	allowed := false
	for _, f := range from {
		if br.Status == f {
			allowed = true
		}
	}
	if !allowed {
		return nil, repository.ErrStatusConflict
	}
	br.Status = to
	switch to {
	case model.StatusCancelled:
		br.CancelledAt = &at
	case model.StatusFulfilled:
		br.FulfilledAt = &at
	}
	cp := *br
	return &cp, nil
}

func (s *fakeStore) count(match func(*model.BloodRequest) bool) map[model.RequestStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[model.RequestStatus]int{}
	for _, br := range s.requests {
		if match(br) {
			out[br.Status]++
		}
	}
	return out
}

func (s *fakeStore) CountByHospital(ctx context.Context, hospitalID string) (map[model.RequestStatus]int, error) {
	return s.count(func(br *model.BloodRequest) bool { return br.HospitalID == hospitalID }), nil
}

func (s *fakeStore) CountByCampaign(ctx context.Context, campaignID string) (map[model.RequestStatus]int, error) {
	return s.count(func(br *model.BloodRequest) bool { return br.CampaignID == campaignID }), nil
}

// campaign side, reached through campaignStore
type campaignStore struct{ *fakeStore }

func (c campaignStore) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	camp, ok := c.campaigns[id]
	if !ok {
		return nil, appErrors.NewNotFound("campaign", id)
	}
	cp := *camp
	return &cp, nil
}

func (c campaignStore) UpdateDonorsNotified(ctx context.Context, id string, notified int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if camp, ok := c.campaigns[id]; ok {
		camp.DonorsNotified = notified
	}
	return nil
}

func (c campaignStore) donorsNotified(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.campaigns[id].DonorsNotified
}

// ---------- gateway ----------

type sentMessage struct {
	To  gateway.Contact
	Msg gateway.Message
}

type fakeGateway struct {
	mu    sync.Mutex
	sent  []sentMessage
	fail  map[string]error // by address
	block chan struct{}    // when set, Send waits for it to close
}

func (g *fakeGateway) Send(ctx context.Context, to gateway.Contact, msg gateway.Message) (gateway.Receipt, error) {
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMessage{To: to, Msg: msg})
	if err, ok := g.fail[to.Address]; ok {
		return gateway.Receipt{}, err
	}
	return gateway.Receipt{ExternalID: fmt.Sprintf("ext-%d", len(g.sent))}, nil
}

func (g *fakeGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.sent...)
}

// ---------- notification log ----------

type fakeMessages struct {
	mu   sync.Mutex
	rows []model.OutboundMessage
	err  error
}

func (m *fakeMessages) Create(ctx context.Context, msg *model.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	msg.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *msg)
	return nil
}

func (m *fakeMessages) ListByRequest(ctx context.Context, requestID string) ([]model.OutboundMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.OutboundMessage{}
	for _, row := range m.rows {
		if row.RequestID == requestID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *fakeMessages) all() []model.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OutboundMessage(nil), m.rows...)
}

// byRecipient indexes the log; a recipient with several rows keeps the last.
func (m *fakeMessages) byRecipient() map[string]model.OutboundMessage {
	out := map[string]model.OutboundMessage{}
	for _, row := range m.all() {
		out[row.Recipient] = row
	}
	return out
}

// ---------- fixture ----------

var (
	fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	origin   = model.Coordinates{Latitude: 0, Longitude: 0}
)

// north returns a point roughly km kilometres north of the origin.
func north(km float64) *model.Coordinates {
	return &model.Coordinates{Latitude: km / 111.195, Longitude: 0}
}

func donor(id string, bt model.BloodType, km float64) model.Donor {
	return model.Donor{
		ID:         id,
		Name:       "Donor " + id,
		BloodGroup: bt,
		Phone:      "+2547000" + id,
		Location:   north(km),
		Status:     model.DonorActive,
	}
}

type fixture struct {
	svc      *BloodRequestService
	store    *fakeStore
	gw       *fakeGateway
	log      *fakeMessages
	donors   *fakeDonors
	nextID   int
	idMu     sync.Mutex
	campaign campaignStore
}

func newFixture(donors ...model.Donor) *fixture {
	f := &fixture{
		store:  newFakeStore(),
		gw:     &fakeGateway{fail: map[string]error{}},
		log:    &fakeMessages{},
		donors: &fakeDonors{donors: donors},
	}
	f.campaign = campaignStore{f.store}
	hospitals := &fakeHospitals{hospitals: map[string]*model.Hospital{
		"h1": {ID: "h1", Name: "City Hospital", Location: &origin, ContactEmail: "blood@city.example"},
	}}
	f.svc = NewBloodRequestService(Dependencies{
		Hospitals:   hospitals,
		Donors:      f.donors,
		Campaigns:   f.campaign,
		Requests:    f.store,
		Gateway:     f.gw,
		Messages:    f.log,
		Logger:      zap.NewNop(),
		Concurrency: 4,
		Timeout:     2 * time.Second,
		Now:         func() time.Time { return fixedNow },
		NewID:       f.newID,
	})
	return f
}

func (f *fixture) newID() string {
	f.idMu.Lock()
	defer f.idMu.Unlock()
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}
