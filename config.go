package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/wazadio/bot/shared/utils"
)

// AppConfig holds the bot-level application settings
type AppConfig struct {
	BotToken         string
	BotUsername      string
	GroupID          int64
	Environment      string
	CleaningSchedule string
}

// NewAppConfig builds the application configuration from environment
// variables. Missing required values are startup failures.
func NewAppConfig() (*AppConfig, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	groupIDRaw := os.Getenv("TELEGRAM_GROUP_ID")
	if groupIDRaw == "" {
		return nil, fmt.Errorf("TELEGRAM_GROUP_ID environment variable is required")
	}
	groupID, err := strconv.ParseInt(groupIDRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_GROUP_ID %q: %w", groupIDRaw, err)
	}

	return &AppConfig{
		BotToken:         token,
		BotUsername:      os.Getenv("TELEGRAM_BOT_USERNAME"),
		GroupID:          groupID,
		Environment:      utils.GetEnvOrDefault("ENVIRONMENT", "development"),
		CleaningSchedule: utils.GetEnvOrDefault("TELEGRAM_CLEANING_SCHEDULE", "00:01"),
	}, nil
}
