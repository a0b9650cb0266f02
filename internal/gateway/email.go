package gateway

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// EmailGateway sends notifications through Resend.
type EmailGateway struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

func NewEmailGateway(apiKey, from string, logger *zap.Logger) *EmailGateway {
	return NewEmailGatewayWithClient(resend.NewClient(apiKey), from, logger)
}

func NewEmailGatewayWithClient(client *resend.Client, from string, logger *zap.Logger) *EmailGateway {
	return &EmailGateway{client: client, from: from, logger: logger}
}

func (g *EmailGateway) Send(ctx context.Context, to Contact, msg Message) (Receipt, error) {
	subject := msg.Subject
	if subject == "" {
		subject = "Blood request update"
	}

	sent, err := g.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    g.from,
		To:      []string{to.Address},
		Subject: subject,
		Text:    msg.Body,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("resend send to %s: %w", to.Address, err)
	}

	g.logger.Debug("email accepted", zap.String("to", to.Address), zap.String("message_id", sent.Id))
	return Receipt{ExternalID: sent.Id}, nil
}

var _ Gateway = (*EmailGateway)(nil)
