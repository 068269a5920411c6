package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI the adapters use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ API = (*tgbotapi.BotAPI)(nil)

func NewBot(token string) (*tgbotapi.BotAPI, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	bot.Debug = false
	return bot, nil
}

// chatTarget addresses a numeric chat id or an @channel username.
func chatTarget(raw string) (tgbotapi.BaseChat, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return tgbotapi.BaseChat{}, fmt.Errorf("chat target is empty")
	}
	if strings.HasPrefix(target, "@") {
		return tgbotapi.BaseChat{ChannelUsername: target}, nil
	}

	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return tgbotapi.BaseChat{}, fmt.Errorf("invalid chat target %q", raw)
	}
	return tgbotapi.BaseChat{ChatID: id}, nil
}

func chatKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
