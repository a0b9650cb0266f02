package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
	"github.com/unclebandit/blood-dispatch/internal/gateway"
	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/queue"
	"github.com/unclebandit/blood-dispatch/internal/repository"
)

// LifecycleManager owns every status change of a blood request after
// creation:
//
//	PENDING -> ACTIVE                (notification sent)
//	PENDING|ACTIVE -> CANCELLED      (hospital withdrew)
//	PENDING|ACTIVE -> FULFILLED      (donor responded)
//
// FULFILLED and CANCELLED are terminal. Every transition is a conditional
// update on the current status, so concurrent callers cannot both win.
type LifecycleManager struct {
	Requests  repository.BloodRequestRepositoryInterface
	Hospitals repository.HospitalDirectory
	Donors    repository.DonorDirectory
	Notifier  *Notifier
	Events    queue.Queue
	Logger    *zap.Logger
	Now       func() time.Time
}

// Activate marks a PENDING record as notified and ACTIVE.
func (l *LifecycleManager) Activate(ctx context.Context, id string) (*model.BloodRequest, error) {
	now := l.Now()
	br, err := l.Requests.MarkNotified(ctx, id, now)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, l.rejected(ctx, id, "activate")
		}
		return nil, err
	}
	publishEvent(l.Events, l.Logger, queue.EventActivated, *br, now)
	return br, nil
}

// Cancel withdraws an open request and tells the donor. The donor message is
// best-effort: the cancellation stands whether or not it is delivered.
func (l *LifecycleManager) Cancel(ctx context.Context, id string) (*model.BloodRequest, error) {
	now := l.Now()
	br, err := l.Requests.Transition(ctx, id, model.StatusCancelled, now, model.StatusPending, model.StatusActive)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, l.rejected(ctx, id, "cancel")
		}
		return nil, err
	}
	l.Logger.Info("blood request cancelled", zap.String("request_id", id), zap.String("donor_id", br.DonorID))
	publishEvent(l.Events, l.Logger, queue.EventCancelled, *br, now)

	l.notifyDonorOfCancellation(ctx, br)
	return br, nil
}

// Respond records a donor accepting the request. A non-empty donorID must be
// the record's donor. The hospital is told on a best-effort basis.
func (l *LifecycleManager) Respond(ctx context.Context, id, donorID string) (*model.BloodRequest, error) {
	if donorID != "" {
		current, err := l.Requests.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.DonorID != donorID {
			return nil, appErrors.NewNotFoundDetail("blood request", id, "blood request not found or not assigned to you")
		}
	}

	now := l.Now()
	br, err := l.Requests.Transition(ctx, id, model.StatusFulfilled, now, model.StatusPending, model.StatusActive)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, l.rejected(ctx, id, "respond to")
		}
		return nil, err
	}
	l.Logger.Info("blood request fulfilled", zap.String("request_id", id), zap.String("donor_id", br.DonorID))
	publishEvent(l.Events, l.Logger, queue.EventFulfilled, *br, now)

	l.notifyHospitalOfResponse(ctx, br)
	return br, nil
}

// rejected explains a failed conditional update: either the record is gone or
// its current status does not allow the action.
func (l *LifecycleManager) rejected(ctx context.Context, id, action string) error {
	current, err := l.Requests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return appErrors.NewInvalidStateTransition(id, string(current.Status), action)
}

func (l *LifecycleManager) notifyDonorOfCancellation(ctx context.Context, br *model.BloodRequest) {
	log := l.Logger.With(zap.String("request_id", br.ID), zap.String("donor_id", br.DonorID))

	donor, err := l.Donors.FindByID(ctx, br.DonorID)
	if err != nil {
		log.Warn("cancellation notice skipped: donor lookup failed", zap.Error(err))
		return
	}
	contact, ok := gateway.DonorContact(donor)
	if !ok {
		log.Warn("cancellation notice skipped: donor has no contact channel")
		return
	}

	hospitalName := br.HospitalID
	if h, err := l.Hospitals.FindByID(ctx, br.HospitalID); err == nil {
		hospitalName = h.Name
	}

	body := RenderTemplate(donorCancelTemplate, map[string]string{
		"hospital_name": hospitalName,
		"blood_type":    string(br.BloodType),
	})
	msg := gateway.Message{Subject: "Blood request cancelled", Body: body, RequestID: br.ID}
	if err := l.Notifier.Send(ctx, contact, msg, 1); err != nil {
		log.Warn("cancellation notice failed", zap.Error(err))
	}
}

func (l *LifecycleManager) notifyHospitalOfResponse(ctx context.Context, br *model.BloodRequest) {
	log := l.Logger.With(zap.String("request_id", br.ID), zap.String("hospital_id", br.HospitalID))

	hospital, err := l.Hospitals.FindByID(ctx, br.HospitalID)
	if err != nil {
		log.Warn("response notice skipped: hospital lookup failed", zap.Error(err))
		return
	}
	contact, ok := gateway.HospitalContact(hospital)
	if !ok {
		log.Warn("response notice skipped: no contact information for hospital")
		return
	}

	donorName := br.DonorID
	if d, err := l.Donors.FindByID(ctx, br.DonorID); err == nil && d.Name != "" {
		donorName = d.Name
	}

	body := RenderTemplate(hospitalRespondTemplate, map[string]string{
		"donor_name": donorName,
		"blood_type": string(br.BloodType),
		"request_id": br.ID,
	})
	msg := gateway.Message{Subject: hospitalRespondSubject, Body: body, RequestID: br.ID}
	if err := l.Notifier.Send(ctx, contact, msg, 1); err != nil {
		log.Warn("response notice failed", zap.Error(err))
	}
}
