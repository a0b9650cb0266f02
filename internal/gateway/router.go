package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Router sends each message through the gateway registered for the
// contact's channel.
type Router struct {
	routes map[Channel]Gateway
}

func NewRouter() *Router {
	return &Router{routes: make(map[Channel]Gateway)}
}

// Handle registers g for ch. A nil g is ignored so optional channels can be
// wired unconditionally.
func (r *Router) Handle(ch Channel, g Gateway) *Router {
	if g != nil {
		r.routes[ch] = g
	}
	return r
}

func (r *Router) Send(ctx context.Context, to Contact, msg Message) (Receipt, error) {
	g, ok := r.routes[to.Channel]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: no %q channel configured", ErrGatewayUnavailable, to.Channel)
	}
	return g.Send(ctx, to, msg)
}

var _ Gateway = (*Router)(nil)

// DirectConfig holds provider credentials. A channel whose credentials are
// empty stays unconfigured and its sends fail with ErrGatewayUnavailable.
type DirectConfig struct {
	SMSAPIURL string
	SMSAPIKey string
	SMSFrom   string

	ResendAPIKey string
	EmailFrom    string

	TelegramBotToken string

	Timeout time.Duration
}

// NewDirectRouter wires every configured provider into a Router.
func NewDirectRouter(cfg DirectConfig, logger *zap.Logger) (*Router, error) {
	r := NewRouter()
	if cfg.SMSAPIURL != "" {
		r.Handle(ChannelSMS, NewSMSGateway(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSFrom, cfg.Timeout, logger))
	}
	if cfg.ResendAPIKey != "" {
		r.Handle(ChannelEmail, NewEmailGateway(cfg.ResendAPIKey, cfg.EmailFrom, logger))
	}
	if cfg.TelegramBotToken != "" {
		tg, err := NewTelegramGateway(cfg.TelegramBotToken, logger)
		if err != nil {
			return nil, err
		}
		r.Handle(ChannelTelegram, tg)
	}
	if len(r.routes) == 0 {
		logger.Warn("no notification provider configured; every send will fail")
	}
	return r, nil
}
