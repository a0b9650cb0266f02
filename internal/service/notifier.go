package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/gateway"
	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/repository"
)

// Notifier sends through the gateway and appends every attempt to the
// outbound message log. Log writes are best-effort: a failed write is logged
// and never changes the send result.
type Notifier struct {
	Gateway  gateway.Gateway
	Messages repository.OutboundMessageRepositoryInterface // nil disables the log
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewNotifier(gw gateway.Gateway, messages repository.OutboundMessageRepositoryInterface, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		Gateway:  gw,
		Messages: messages,
		Logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send delivers msg to to and records the outcome as delivery attempt
// number attempt (1-based).
func (n *Notifier) Send(ctx context.Context, to gateway.Contact, msg gateway.Message, attempt int) error {
	receipt, err := n.Gateway.Send(ctx, to, msg)
	n.record(ctx, to, msg, attempt, receipt, err)
	return err
}

func (n *Notifier) record(ctx context.Context, to gateway.Contact, msg gateway.Message, attempt int, receipt gateway.Receipt, sendErr error) {
	if n.Messages == nil {
		return
	}
	row := &model.OutboundMessage{
		RequestID:  msg.RequestID,
		Channel:    string(to.Channel),
		Recipient:  to.Address,
		Subject:    msg.Subject,
		Body:       msg.Body,
		Status:     model.MessageSent,
		Attempt:    attempt,
		ExternalID: receipt.ExternalID,
		CreatedAt:  n.Now(),
	}
	switch {
	case sendErr != nil:
		row.Status = model.MessageFailed
		row.LastError = sendErr.Error()
	case receipt.Queued:
		row.Status = model.MessageQueued
	}

	// the send already happened; a cancelled caller must not lose its record
	if err := n.Messages.Create(context.WithoutCancel(ctx), row); err != nil {
		n.Logger.Warn("failed to record outbound message",
			zap.String("request_id", msg.RequestID),
			zap.String("channel", row.Channel),
			zap.String("status", string(row.Status)),
			zap.Error(err),
		)
	}
}
