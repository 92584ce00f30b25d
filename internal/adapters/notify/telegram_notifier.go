package notify

import (
	"context"
	"fmt"
	"html"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
)

// telegram caps message text at 4096 characters
const maxTelegramPreview = 3000

// TelegramNotifier sends notifications to a Telegram chat
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger, opts ...bot.Option) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}

	tgBot, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    tgBot,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Notify sends the notification as an HTML message
func (n *TelegramNotifier) Notify(ctx context.Context, note *core.Notification) error {
	msg, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      formatTelegram(note),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	n.logger.Debug("Telegram notification sent",
		zap.Int64("chat_id", n.chatID),
		zap.Int("message_id", msg.ID))
	return nil
}

func formatTelegram(note *core.Notification) string {
	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(note.Title), html.EscapeString(note.Message))
	if note.BigText == "" {
		return text
	}

	preview := note.BigText
	if len(preview) > maxTelegramPreview {
		preview = preview[:maxTelegramPreview]
		for !utf8.ValidString(preview) {
			preview = preview[:len(preview)-1]
		}
		preview += "..."
	}
	return text + "\n\n<pre>" + html.EscapeString(preview) + "</pre>"
}
