package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

// DirectNotifier sends a notification as a private message to its user.
// Telegram private chat ids equal user ids.
type DirectNotifier struct {
	api API
	log *zap.Logger
}

var _ ports.Notifier = (*DirectNotifier)(nil)

func NewDirectNotifier(api API, log *zap.Logger) *DirectNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirectNotifier{api: api, log: log.Named("telegram")}
}

func (n *DirectNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(string(notification.UserID)) == "" {
		return fmt.Errorf("direct message needs a user")
	}

	chat, err := chatTarget(string(notification.UserID))
	if err != nil {
		return err
	}
	return deliver(n.api, n.log, chat, tgbotapi.EscapeText(tgbotapi.ModeHTML, notification.Text), notification)
}

// ChannelNotifier posts to the notification's channel and mentions the user
// when there is one.
type ChannelNotifier struct {
	api API
	log *zap.Logger
}

var _ ports.Notifier = (*ChannelNotifier)(nil)

func NewChannelNotifier(api API, log *zap.Logger) *ChannelNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChannelNotifier{api: api, log: log.Named("telegram")}
}

func (n *ChannelNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(notification.Channel) == "" {
		return fmt.Errorf("tenant %s has no operator channel", notification.TenantID)
	}

	chat, err := chatTarget(notification.Channel)
	if err != nil {
		return err
	}

	text := tgbotapi.EscapeText(tgbotapi.ModeHTML, notification.Text)
	if user := string(notification.UserID); user != "" {
		text = mention(user) + " " + text
	}
	return deliver(n.api, n.log, chat, text, notification)
}

// deliver sends the message, then its attachments. Once the message is out
// the notification counts as delivered: attachment failures are only logged so
// a fallback notifier does not repeat the text.
func deliver(api API, log *zap.Logger, chat tgbotapi.BaseChat, html string, notification domain.Notification) error {
	if markup, ok := actionKeyboard(notification.Actions); ok {
		chat.ReplyMarkup = markup
	}

	msg := tgbotapi.MessageConfig{BaseChat: chat, Text: html, ParseMode: tgbotapi.ModeHTML}
	if _, err := api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	chat.ReplyMarkup = nil
	for _, path := range notification.Attachments {
		doc := tgbotapi.DocumentConfig{
			BaseFile: tgbotapi.BaseFile{BaseChat: chat, File: tgbotapi.FilePath(path)},
			Caption:  filepath.Base(path),
		}
		if _, err := api.Send(doc); err != nil {
			log.Warn("send attachment failed",
				zap.String("tenant", string(notification.TenantID)),
				zap.String("file", filepath.Base(path)),
				zap.Error(err),
			)
		}
	}

	return nil
}

func actionKeyboard(actions []domain.Action) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(actions) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, action := range actions {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(action.Label, action.Payload()))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...)), true
}

func mention(user string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%s">%s</a>`, user, tgbotapi.EscapeText(tgbotapi.ModeHTML, user))
}
