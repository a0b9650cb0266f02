package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unclebandit/blood-dispatch/internal/model"
)

type OutboundMessageRepositoryInterface interface {
	Create(ctx context.Context, msg *model.OutboundMessage) error
	ListByRequest(ctx context.Context, requestID string) ([]model.OutboundMessage, error)
}

type OutboundMessageRepository struct {
	DB *sql.DB
}

// Create appends msg to the notification log and fills in its ID. A
// RequestID that is not a blood request id is stored as NULL.
func (r *OutboundMessageRepository) Create(ctx context.Context, msg *model.OutboundMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	var requestID sql.NullString
	if validID(msg.RequestID) {
		requestID = sql.NullString{String: msg.RequestID, Valid: true}
	}

	query := `
        INSERT INTO outbound_messages
        (request_id, channel, recipient, subject, body, status, last_error, attempt, external_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query,
		requestID, msg.Channel, msg.Recipient, msg.Subject, msg.Body,
		string(msg.Status), msg.LastError, msg.Attempt, msg.ExternalID, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert outbound message: %w", err)
	}
	return nil
}

// ListByRequest returns every message sent about a request, oldest first.
func (r *OutboundMessageRepository) ListByRequest(ctx context.Context, requestID string) ([]model.OutboundMessage, error) {
	out := []model.OutboundMessage{}
	if !validID(requestID) {
		return out, nil
	}

	query := `
        SELECT id, request_id, channel, recipient, subject, body, status, last_error, attempt, external_id, created_at
        FROM outbound_messages
        WHERE request_id=$1
        ORDER BY created_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list outbound messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			msg    model.OutboundMessage
			reqID  sql.NullString
			status string
		)
		err := rows.Scan(&msg.ID, &reqID, &msg.Channel, &msg.Recipient, &msg.Subject, &msg.Body,
			&status, &msg.LastError, &msg.Attempt, &msg.ExternalID, &msg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbound message: %w", err)
		}
		msg.RequestID = reqID.String
		msg.Status = model.MessageStatus(status)
		out = append(out, msg)
	}
	return out, rows.Err()
}

var _ OutboundMessageRepositoryInterface = (*OutboundMessageRepository)(nil)
