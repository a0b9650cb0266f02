package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/blood-dispatch/internal/gateway"
	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/repository"
)

// DispatchReport summarises one campaign fan-out.
type DispatchReport struct {
	Attempted int // gateway was called, whatever the outcome
	Delivered int
	Failed    int
	Skipped   int // no donor profile or no contact channel
	Abandoned int // still running when the campaign timeout hit

	GatewayUnavailable bool
}

type notifyOutcome int

const (
	outcomeSkipped notifyOutcome = iota
	outcomeDelivered
	outcomeFailed
	outcomeAbandoned
)

// result of one per-donor task; each task owns exactly one record
type notifyResult struct {
	index       int
	outcome     notifyOutcome
	unavailable bool
	record      *model.BloodRequest
}

// NotificationDispatcher notifies the donor of every freshly materialized
// record concurrently. One donor's failure never affects another's.
type NotificationDispatcher struct {
	Donors      repository.DonorDirectory
	Campaigns   repository.CampaignRepositoryInterface
	Lifecycle   *LifecycleManager
	Notifier    *Notifier
	Logger      *zap.Logger
	Concurrency int
	Timeout     time.Duration
}

// Dispatch runs the fan-out and waits for it, bounded by Timeout. It returns
// the records with the state each task left them in (ACTIVE on delivery,
// otherwise unchanged) and a report. Records whose task had not reported by
// the deadline are re-read, since the task may have activated them anyway.
// It never fails: per-donor errors are logged and the record stays PENDING.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, campaign *model.Campaign, hospitalName string, records []model.BloodRequest) ([]model.BloodRequest, DispatchReport) {
	var report DispatchReport
	updated := append([]model.BloodRequest(nil), records...)
	if len(records) == 0 {
		return updated, report
	}

	var (
		dctx   context.Context
		cancel context.CancelFunc
	)
	if d.Timeout > 0 {
		dctx, cancel = context.WithTimeout(ctx, d.Timeout)
	} else {
		dctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	results := make(chan notifyResult, len(records))
	go func() {
		var g errgroup.Group
		if d.Concurrency > 0 {
			g.SetLimit(d.Concurrency)
		}
		for i, br := range records {
			i, br := i, br
			g.Go(func() error {
				results <- d.notifyOne(dctx, i, br, campaign, hospitalName)
				return nil
			})
		}
		_ = g.Wait()
	}()

	collected, unavailable := 0, 0
	done := make([]bool, len(records))
	apply := func(r notifyResult) {
		collected++
		done[r.index] = true
		switch r.outcome {
		case outcomeDelivered:
			report.Attempted++
			report.Delivered++
			if r.record != nil {
				updated[r.index] = *r.record
			}
		case outcomeFailed:
			report.Attempted++
			report.Failed++
			if r.unavailable {
				unavailable++
			}
		case outcomeSkipped:
			report.Skipped++
		case outcomeAbandoned:
			report.Abandoned++
		}
	}

wait:
	for collected < len(records) {
		select {
		case r := <-results:
			apply(r)
		case <-dctx.Done():
			break wait
		}
	}
	for drained := false; !drained && collected < len(records); {
		select {
		case r := <-results:
			apply(r)
		default:
			drained = true
		}
	}
	report.Abandoned += len(records) - collected
	report.GatewayUnavailable = report.Attempted > 0 && unavailable == report.Attempted
	if collected < len(records) {
		d.refreshUnreported(context.WithoutCancel(ctx), updated, done)
	}

	d.logReport(campaign, report)

	// every record a task got through, delivered or not; abandoned ones are out
	notified := report.Attempted + report.Skipped
	campaign.DonorsNotified = notified
	if err := d.Campaigns.UpdateDonorsNotified(context.WithoutCancel(ctx), campaign.ID, notified); err != nil {
		d.Logger.Error("failed to update donors_notified", zap.String("campaign_id", campaign.ID), zap.Error(err))
	}

	return updated, report
}

func (d *NotificationDispatcher) notifyOne(ctx context.Context, index int, br model.BloodRequest, campaign *model.Campaign, hospitalName string) notifyResult {
	res := notifyResult{index: index}
	if ctx.Err() != nil {
		res.outcome = outcomeAbandoned
		return res
	}
	log := d.Logger.With(zap.String("request_id", br.ID), zap.String("donor_id", br.DonorID))

	donor, err := d.Donors.FindByID(ctx, br.DonorID)
	if err != nil {
		log.Warn("skipping notification: donor lookup failed", zap.Error(err))
		res.outcome = outcomeSkipped
		return res
	}
	contact, ok := gateway.DonorContact(donor)
	if !ok {
		log.Warn("skipping notification: donor has no contact channel")
		res.outcome = outcomeSkipped
		return res
	}

	msg := gateway.Message{
		Subject: "Urgent blood request",
		Body: RenderTemplate(donorRequestTemplate, map[string]string{
			"hospital_name": hospitalName,
			"blood_type":    string(br.BloodType),
			"radius":        strconv.FormatFloat(campaign.RadiusKm, 'f', -1, 64),
		}),
		RequestID: br.ID,
	}
	if err := d.Notifier.Send(ctx, contact, msg, 1); err != nil {
		log.Warn("notification failed", zap.String("channel", string(contact.Channel)), zap.Error(err))
		res.outcome = outcomeFailed
		res.unavailable = errors.Is(err, gateway.ErrGatewayUnavailable)
		return res
	}

	res.outcome = outcomeDelivered
	activated, err := d.Lifecycle.Activate(ctx, br.ID)
	if err != nil {
		log.Warn("notification sent but record not activated", zap.Error(err))
		return res
	}
	res.record = activated
	log.Info("notification sent", zap.String("channel", string(contact.Channel)))
	return res
}

// refreshUnreported re-reads the records whose task result never arrived. A
// task still running afterwards can change its record again; the row stays
// the source of truth.
func (d *NotificationDispatcher) refreshUnreported(ctx context.Context, updated []model.BloodRequest, done []bool) {
	for i := range updated {
		if done[i] {
			continue
		}
		fresh, err := d.Lifecycle.Requests.GetByID(ctx, updated[i].ID)
		if err != nil {
			d.Logger.Warn("could not re-read abandoned record", zap.String("request_id", updated[i].ID), zap.Error(err))
			continue
		}
		updated[i] = *fresh
	}
}

func (d *NotificationDispatcher) logReport(campaign *model.Campaign, report DispatchReport) {
	fields := []zap.Field{
		zap.String("campaign_id", campaign.ID),
		zap.Int("attempted", report.Attempted),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("abandoned", report.Abandoned),
	}
	switch {
	case report.GatewayUnavailable:
		d.Logger.Error("notification gateway unavailable for every donor; records left PENDING", fields...)
	case report.Failed > 0 || report.Abandoned > 0:
		d.Logger.Warn("campaign dispatched with partial notification failure", fields...)
	default:
		d.Logger.Info("campaign dispatched", fields...)
	}
}
