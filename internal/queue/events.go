package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/model"
)

// TopicRequestEvents carries RequestEvent payloads.
const TopicRequestEvents = "blood_request_events"

type EventKind string

const (
	EventCreated   EventKind = "request.created"
	EventActivated EventKind = "request.activated"
	EventCancelled EventKind = "request.cancelled"
	EventFulfilled EventKind = "request.fulfilled"
)

// RequestEvent records one lifecycle step of a blood request.
type RequestEvent struct {
	Kind       EventKind           `json:"kind"`
	RequestID  string              `json:"request_id"`
	CampaignID string              `json:"campaign_id"`
	HospitalID string              `json:"hospital_id"`
	DonorID    string              `json:"donor_id"`
	Status     model.RequestStatus `json:"status"`
	At         time.Time           `json:"at"`
}

func NewRequestEvent(kind EventKind, br model.BloodRequest, at time.Time) RequestEvent {
	return RequestEvent{
		Kind:       kind,
		RequestID:  br.ID,
		CampaignID: br.CampaignID,
		HospitalID: br.HospitalID,
		DonorID:    br.DonorID,
		Status:     br.Status,
		At:         at,
	}
}

// EventSink receives forwarded request events.
type EventSink interface {
	Append(ctx context.Context, ev RequestEvent) error
}

// LogSink only logs events. Used when no stream is configured.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Append(ctx context.Context, ev RequestEvent) error {
	s.Logger.Info("blood request event",
		zap.String("kind", string(ev.Kind)),
		zap.String("request_id", ev.RequestID),
		zap.String("status", string(ev.Status)),
	)
	return nil
}

// StartEventForwarder subscribes sink to the request events topic. Failed
// appends are retried by the queue.
func StartEventForwarder(q Queue, sink EventSink, timeout time.Duration, logger *zap.Logger) error {
	err := q.Subscribe(TopicRequestEvents, func(payload any) error {
		ev, ok := payload.(RequestEvent)
		if !ok {
			logger.Warn("invalid payload type on request events topic", zap.String("type", fmt.Sprintf("%T", payload)))
			return nil // no retry
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sink.Append(ctx, ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicRequestEvents, err)
	}
	return nil
}
