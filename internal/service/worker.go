package service

import (
	"context"
	"encoding/json"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/gateway"
)

const defaultMaxRetries = 3

// JobRequeuer puts a notification job back on the broker.
type JobRequeuer interface {
	Publish(ctx context.Context, job gateway.NotificationJob) error
}

// Worker delivers notification jobs handed off by the server in amqp mode.
// Every delivery attempt lands in the outbound message log through Notifier.
type Worker struct {
	Notifier   *Notifier
	Requeue    JobRequeuer
	MaxRetries int
	Logger     *zap.Logger
}

func NewWorker(notifier *Notifier, requeue JobRequeuer, logger *zap.Logger) *Worker {
	return &Worker{
		Notifier:   notifier,
		Requeue:    requeue,
		MaxRetries: defaultMaxRetries,
		Logger:     logger,
	}
}

// Start processes deliveries until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.Process(ctx, d)
		}
	}
}

// Process delivers one job. A failed delivery is republished with its
// attempt count bumped until MaxRetries is reached, then dropped.
func (w *Worker) Process(ctx context.Context, d amqp.Delivery) {
	var job gateway.NotificationJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.Logger.Error("invalid notification job", zap.Error(err))
		_ = d.Ack(false)
		return
	}
	log := w.Logger.With(
		zap.String("request_id", job.Message.RequestID),
		zap.String("channel", string(job.Contact.Channel)),
		zap.Int("attempt", job.Attempt),
	)

	// job.Attempt counts requeues, the log counts deliveries
	err := w.Notifier.Send(ctx, job.Contact, job.Message, job.Attempt+1)
	if err == nil {
		log.Info("notification delivered")
		_ = d.Ack(false)
		return
	}

	if job.Attempt >= w.MaxRetries {
		log.Error("notification dropped after retries", zap.Error(err))
		_ = d.Ack(false)
		return
	}

	log.Warn("notification failed, requeueing", zap.Error(err))
	job.Attempt++
	if perr := w.Requeue.Publish(ctx, job); perr != nil {
		log.Error("requeue failed", zap.Error(perr))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
