// Package gateway delivers notification messages over SMS, email, Telegram or
// a message broker. The dispatch engine only sees the Gateway interface.
package gateway

import (
	"context"
	"errors"
	"strconv"

	"github.com/unclebandit/blood-dispatch/internal/model"
)

var (
	// ErrGatewayUnavailable means the channel itself is down, as opposed to a
	// single message being rejected.
	ErrGatewayUnavailable = errors.New("notification gateway unavailable")
	// ErrNoContact means the recipient has no usable contact channel.
	ErrNoContact = errors.New("no contact channel")
)

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelTelegram Channel = "telegram"
)

type Contact struct {
	Channel Channel `json:"channel"`
	Address string  `json:"address"`
}

type Message struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
	// RequestID ties the message to a blood request in the notification
	// log. Providers never see it.
	RequestID string `json:"request_id,omitempty"`
}

// Receipt describes an accepted message.
type Receipt struct {
	ExternalID string // provider message id, when the provider returns one
	Queued     bool   // handed to the broker; a worker does the real send
}

// Gateway sends one message. A nil error means the provider (or broker)
// accepted it; there is no delivery confirmation beyond the receipt.
type Gateway interface {
	Send(ctx context.Context, to Contact, msg Message) (Receipt, error)
}

// DonorContact picks a donor's channel: Telegram, then phone, then email.
func DonorContact(d *model.Donor) (Contact, bool) {
	switch {
	case d == nil:
		return Contact{}, false
	case d.TelegramChatID != 0:
		return Contact{Channel: ChannelTelegram, Address: strconv.FormatInt(d.TelegramChatID, 10)}, true
	case d.Phone != "":
		return Contact{Channel: ChannelSMS, Address: d.Phone}, true
	case d.Email != "":
		return Contact{Channel: ChannelEmail, Address: d.Email}, true
	}
	return Contact{}, false
}

// HospitalContact picks a hospital's channel: email, then phone.
func HospitalContact(h *model.Hospital) (Contact, bool) {
	switch {
	case h == nil:
		return Contact{}, false
	case h.ContactEmail != "":
		return Contact{Channel: ChannelEmail, Address: h.ContactEmail}, true
	case h.ContactPhone != "":
		return Contact{Channel: ChannelSMS, Address: h.ContactPhone}, true
	}
	return Contact{}, false
}
