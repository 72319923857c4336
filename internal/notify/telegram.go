package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"poolwatch/internal/model"
)

// TelegramSink delivers formatted event messages to a Telegram channel.
type TelegramSink struct {
	bot       *tgbotapi.BotAPI
	channel   string
	txBaseURL string
	dryRun    bool
	logger    *zap.Logger
}

// NewTelegramSink builds a sink posting to the given @channel. With
// dryRun set, messages are logged instead of sent.
func NewTelegramSink(botToken, channel, txBaseURL string, dryRun bool, logger *zap.Logger) (*TelegramSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	return &TelegramSink{
		bot:       bot,
		channel:   channel,
		txBaseURL: txBaseURL,
		dryRun:    dryRun,
		logger:    logger,
	}, nil
}

func (s *TelegramSink) Notify(_ context.Context, outcome model.Outcome) error {
	text := FormatMessage(outcome, s.txBaseURL)
	if text == "" {
		return nil
	}

	if s.dryRun {
		s.logger.Info("telegram dry run", zap.String("message", text))
		return nil
	}

	msg := tgbotapi.NewMessageToChannel(s.channel, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
