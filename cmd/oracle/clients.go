package main

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"dream-oracle/internal/config"
	"dream-oracle/internal/line"
	"dream-oracle/internal/telegram"
)

func newLineClient(cfg *config.Config) (*messaging_api.MessagingApiAPI, error) {
	if !cfg.LineEnabled {
		return nil, nil
	}
	api, err := line.NewClient(cfg.LineAccessToken)
	if err != nil {
		return nil, fmt.Errorf("line client: %w", err)
	}
	return api, nil
}

func newTelegramAPI(cfg *config.Config) (*tgbotapi.BotAPI, error) {
	if !cfg.TelegramEnabled {
		return nil, nil
	}
	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return api, nil
}
