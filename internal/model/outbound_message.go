// internal/model/outbound_message.go
package model

import "time"

type MessageStatus string

const (
	MessageQueued MessageStatus = "QUEUED" // accepted by the broker, worker not done yet
	MessageSent   MessageStatus = "SENT"
	MessageFailed MessageStatus = "FAILED"
)

// OutboundMessage is one row of the notification log: a single send
// attempt to a donor or a hospital.
type OutboundMessage struct {
	ID         int64         `db:"id" json:"id"`
	RequestID  string        `db:"request_id" json:"request_id,omitempty"`
	Channel    string        `db:"channel" json:"channel"`
	Recipient  string        `db:"recipient" json:"recipient"`
	Subject    string        `db:"subject" json:"subject,omitempty"`
	Body       string        `db:"body" json:"body"`
	Status     MessageStatus `db:"status" json:"status"`
	LastError  string        `db:"last_error" json:"last_error,omitempty"`
	Attempt    int           `db:"attempt" json:"attempt"`
	ExternalID string        `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}
