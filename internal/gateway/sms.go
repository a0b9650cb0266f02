package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type smsPayload struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

type smsResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type smsError struct {
	Message string `json:"message"`
}

// SMSGateway posts messages to an HTTP SMS provider at {baseURL}/messages.
type SMSGateway struct {
	client *resty.Client
	from   string
	logger *zap.Logger
}

func NewSMSGateway(baseURL, apiKey, from string, timeout time.Duration, logger *zap.Logger) *SMSGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &SMSGateway{client: client, from: from, logger: logger}
}

func (g *SMSGateway) Send(ctx context.Context, to Contact, msg Message) (Receipt, error) {
	var result smsResponse
	var apiErr smsError

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(smsPayload{To: to.Address, From: g.from, Body: msg.Body}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/messages")
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: sms request: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode() >= 500:
		return Receipt{}, fmt.Errorf("%w: sms provider returned %d", ErrGatewayUnavailable, resp.StatusCode())
	case resp.IsError():
		return Receipt{}, fmt.Errorf("sms rejected for %s: %d %s", to.Address, resp.StatusCode(), apiErr.Message)
	}

	g.logger.Debug("sms accepted",
		zap.String("to", to.Address),
		zap.String("sid", result.SID),
		zap.String("status", result.Status),
	)
	return Receipt{ExternalID: result.SID}, nil
}

var _ Gateway = (*SMSGateway)(nil)
