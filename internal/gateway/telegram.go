package gateway

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramGateway pushes notifications to donors' Telegram chats.
type TelegramGateway struct {
	bot    telegramSender
	logger *zap.Logger
}

func NewTelegramGateway(token string, logger *zap.Logger) (*TelegramGateway, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &TelegramGateway{bot: api, logger: logger}, nil
}

func (g *TelegramGateway) Send(ctx context.Context, to Contact, msg Message) (Receipt, error) {
	chatID, err := strconv.ParseInt(to.Address, 10, 64)
	if err != nil {
		return Receipt{}, fmt.Errorf("invalid telegram chat id %q: %w", to.Address, err)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	sent, err := g.bot.Send(tgbotapi.NewMessage(chatID, msg.Body))
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: telegram send to %d: %v", ErrGatewayUnavailable, chatID, err)
	}

	g.logger.Debug("telegram message sent", zap.Int64("chat_id", chatID), zap.Int("message_id", sent.MessageID))
	return Receipt{ExternalID: strconv.Itoa(sent.MessageID)}, nil
}

var _ Gateway = (*TelegramGateway)(nil)
