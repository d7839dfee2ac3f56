package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier pushes operator-facing alerts to a Telegram chat.
type Notifier interface {
	SendMessage(text string) error
}

type client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

type noopClient struct{}

func (noopClient) SendMessage(string) error { return nil }

// NewClient creates a Notifier for the given bot token and chat. An empty
// token yields a no-op notifier so alerting stays optional in local setups.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	if botToken == "" {
		return noopClient{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{bot: bot, chatID: chatID}, nil
}

// SendMessage delivers text to the configured chat using Markdown parse mode.
func (c *client) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}
