package repository

import (
	"context"

	"telegram-markov-bot/internal/domain/model"
)

// SettingsRepository is the port for per-chat settings.
// Load never surfaces storage problems: a missing or corrupt record is replaced by
// the persisted defaults. Its error is reserved for a cancelled context.
type SettingsRepository interface {
	Load(ctx context.Context, chatID int64) (model.ChatSettings, error)
	Save(ctx context.Context, chatID int64, s model.ChatSettings) error
}
