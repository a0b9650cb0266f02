package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/queue"
)

// publishEvent is fire-and-forget; a missing subscriber is not an error for
// the lifecycle.
func publishEvent(q queue.Queue, logger *zap.Logger, kind queue.EventKind, br model.BloodRequest, at time.Time) {
	if q == nil {
		return
	}
	if err := q.Publish(queue.TopicRequestEvents, queue.NewRequestEvent(kind, br, at)); err != nil {
		logger.Debug("request event not published",
			zap.String("kind", string(kind)),
			zap.String("request_id", br.ID),
			zap.Error(err),
		)
	}
}
