// Package telegram connects the bot state machine to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/spigell/hh-resume-bot/internal/bot"
	"github.com/spigell/hh-resume-bot/internal/utils"
)

const pollTimeoutSeconds = 60

// api is the subset of *tgbotapi.BotAPI the adapter uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// DispatchFunc receives every text message.
type DispatchFunc func(ctx context.Context, msg bot.Message)

type Client struct {
	api    api
	logger *zap.Logger
}

func New(token string, logger *zap.Logger) (*Client, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	c := newClient(botAPI, logger)
	c.logger.Info("authorized in telegram", zap.String("bot", botAPI.Self.UserName))

	return c, nil
}

func newClient(a api, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: a, logger: logger}
}

// Send implements bot.Sender.
func (c *Client) Send(_ context.Context, chatID int64, reply bot.Reply) error {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if markup, ok := replyMarkup(reply.Keyboard); ok {
		msg.ReplyMarkup = markup
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("sending message to chat %d: %w", chatID, err)
	}

	c.logger.Debug("message sent",
		zap.Int64("chat_id", chatID),
		zap.String("text", utils.TruncateForLog(reply.Text, 200)),
	)
	return nil
}

// Run long-polls updates and hands text messages to dispatch until ctx is done.
func (c *Client) Run(ctx context.Context, dispatch DispatchFunc) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds

	updates := c.api.GetUpdatesChan(cfg)

	c.logger.Info("waiting for telegram updates")

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			c.logger.Info("stopped receiving telegram updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			msg, ok := toMessage(update)
			if !ok {
				continue
			}
			dispatch(ctx, msg)
		}
	}
}

// toMessage keeps only text messages from real users.
func toMessage(update tgbotapi.Update) (bot.Message, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil || m.Text == "" {
		return bot.Message{}, false
	}

	name := strings.TrimSpace(strings.Join([]string{m.From.FirstName, m.From.LastName}, " "))

	return bot.Message{
		UserID:   m.From.ID,
		ChatID:   m.Chat.ID,
		Text:     m.Text,
		FullName: name,
	}, true
}

func replyMarkup(keyboard bot.Keyboard) (tgbotapi.ReplyKeyboardMarkup, bool) {
	if len(keyboard) == 0 {
		return tgbotapi.ReplyKeyboardMarkup{}, false
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}

	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup, true
}
