package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
	"telegram-markov-bot/internal/infra/logging"
)

// Compile-time check
var _ SettingsUseCase = (*settingsUC)(nil)

// SettingsUseCase reads and edits per-chat settings. Every edit is a locked
// load-modify-save of the whole record, so concurrent edits of one chat never lose fields.
type SettingsUseCase interface {
	Get(ctx context.Context, chatID int64) (model.ChatSettings, error)
	Update(ctx context.Context, chatID int64, mutate func(*model.ChatSettings) error) (model.ChatSettings, error)
	ToggleAutoReply(ctx context.Context, chatID int64) (model.ChatSettings, error)
	SetChance(ctx context.Context, chatID int64, n int) (model.ChatSettings, error)
	SetMaxLen(ctx context.Context, chatID int64, n int) (model.ChatSettings, error)
	SetMinSamples(ctx context.Context, chatID int64, n int) (model.ChatSettings, error)
	SetDefaultSize(ctx context.Context, chatID int64, size model.GenSize) (model.ChatSettings, error)
}

type settingsUC struct {
	repo  repository.SettingsRepository
	locks repository.ChatLocker
	log   *zerolog.Logger
}

func NewSettingsUseCase(repo repository.SettingsRepository, locks repository.ChatLocker, logger *zerolog.Logger) *settingsUC {
	return &settingsUC{repo: repo, locks: locks, log: logger}
}

func (u *settingsUC) Get(ctx context.Context, chatID int64) (model.ChatSettings, error) {
	return u.repo.Load(ctx, chatID)
}

func (u *settingsUC) Update(ctx context.Context, chatID int64, mutate func(*model.ChatSettings) error) (model.ChatSettings, error) {
	defer logging.TraceDuration(u.log, "SettingsUC.Update")()

	unlock := u.locks.Lock(chatID)
	defer unlock()

	s, err := u.repo.Load(ctx, chatID)
	if err != nil {
		return model.ChatSettings{}, err
	}
	if err := mutate(&s); err != nil {
		return model.ChatSettings{}, err
	}
	if err := u.repo.Save(ctx, chatID, s); err != nil {
		logging.With(ctx, u.log).Error().Err(err).Msg("failed to save settings")
		return model.ChatSettings{}, err
	}
	return s, nil
}

func (u *settingsUC) ToggleAutoReply(ctx context.Context, chatID int64) (model.ChatSettings, error) {
	return u.Update(ctx, chatID, func(s *model.ChatSettings) error {
		s.AutoReplyEnabled = !s.AutoReplyEnabled
		return nil
	})
}

func (u *settingsUC) SetChance(ctx context.Context, chatID int64, n int) (model.ChatSettings, error) {
	if !model.ValidAutoReplyChanceN(n) {
		return model.ChatSettings{}, rangeErr("chance", n, model.MinAutoReplyChanceN, model.MaxAutoReplyChanceN)
	}
	return u.Update(ctx, chatID, func(s *model.ChatSettings) error {
		s.AutoReplyChanceN = n
		return nil
	})
}

func (u *settingsUC) SetMaxLen(ctx context.Context, chatID int64, n int) (model.ChatSettings, error) {
	if !model.ValidMaxStoreTextLen(n) {
		return model.ChatSettings{}, rangeErr("max length", n, model.MinStoreTextLen, model.MaxStoreTextLen)
	}
	return u.Update(ctx, chatID, func(s *model.ChatSettings) error {
		s.MaxStoreTextLen = n
		return nil
	})
}

func (u *settingsUC) SetMinSamples(ctx context.Context, chatID int64, n int) (model.ChatSettings, error) {
	if !model.ValidMinSamples(n) {
		return model.ChatSettings{}, rangeErr("min samples", n, model.MinMinSamples, model.MaxMinSamples)
	}
	return u.Update(ctx, chatID, func(s *model.ChatSettings) error {
		s.MinSamples = n
		return nil
	})
}

func (u *settingsUC) SetDefaultSize(ctx context.Context, chatID int64, size model.GenSize) (model.ChatSettings, error) {
	if !size.Valid() {
		return model.ChatSettings{}, fmt.Errorf("default size %d: %w", size, domain.ErrInvalidArgument)
	}
	return u.Update(ctx, chatID, func(s *model.ChatSettings) error {
		s.DefaultGenSize = size
		return nil
	})
}

func rangeErr(field string, n, lo, hi int) error {
	return fmt.Errorf("%s %d outside %d..%d: %w", field, n, lo, hi, domain.ErrInvalidArgument)
}
