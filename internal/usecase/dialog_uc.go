package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
)

// Compile-time check
var _ DialogUseCase = (*dialogUC)(nil)

// InputError describes a rejected numeric answer in the settings dialog.
// The dialog stays pending so the user can try again.
type InputError struct {
	NotNumber bool
	Min, Max  int
	Example   int
}

func (e *InputError) Error() string {
	if e.NotNumber {
		return "settings input: not a number"
	}
	return fmt.Sprintf("settings input: outside %d..%d", e.Min, e.Max)
}

func (e *InputError) Unwrap() error { return domain.ErrInvalidArgument }

// DialogUseCase drives the "press a button, then type a number" settings flow.
type DialogUseCase interface {
	Begin(ctx context.Context, key model.DialogKey, step model.SettingsStep) error
	Pending(ctx context.Context, key model.DialogKey) (model.SettingsStep, error)
	Cancel(ctx context.Context, key model.DialogKey) error
	// Submit applies text as the answer to the pending step and ends the dialog.
	Submit(ctx context.Context, key model.DialogKey, text string) (model.ChatSettings, error)
}

type stepRule struct {
	min, max, example int
	apply             func(ctx context.Context, u SettingsUseCase, chatID int64, n int) (model.ChatSettings, error)
}

var dialogSteps = map[model.SettingsStep]stepRule{
	model.StepAwaitingChance: {
		min: model.MinAutoReplyChanceN, max: model.MaxAutoReplyChanceN, example: 3,
		apply: func(ctx context.Context, u SettingsUseCase, chatID int64, n int) (model.ChatSettings, error) {
			return u.SetChance(ctx, chatID, n)
		},
	},
	model.StepAwaitingMaxLen: {
		min: model.MinStoreTextLen, max: model.MaxStoreTextLen, example: 80,
		apply: func(ctx context.Context, u SettingsUseCase, chatID int64, n int) (model.ChatSettings, error) {
			return u.SetMaxLen(ctx, chatID, n)
		},
	},
	model.StepAwaitingMinSamples: {
		min: model.MinMinSamples, max: model.MaxMinSamples, example: 4,
		apply: func(ctx context.Context, u SettingsUseCase, chatID int64, n int) (model.ChatSettings, error) {
			return u.SetMinSamples(ctx, chatID, n)
		},
	},
}

type dialogUC struct {
	states   repository.DialogStateRepository
	settings SettingsUseCase
	log      *zerolog.Logger
}

func NewDialogUseCase(states repository.DialogStateRepository, settings SettingsUseCase, logger *zerolog.Logger) *dialogUC {
	return &dialogUC{states: states, settings: settings, log: logger}
}

func (d *dialogUC) Begin(ctx context.Context, key model.DialogKey, step model.SettingsStep) error {
	if !step.Pending() {
		return fmt.Errorf("dialog step %q: %w", step, domain.ErrInvalidArgument)
	}
	return d.states.SetState(ctx, key, &model.DialogState{Step: step})
}

func (d *dialogUC) Pending(ctx context.Context, key model.DialogKey) (model.SettingsStep, error) {
	st, err := d.states.GetState(ctx, key)
	if err != nil {
		return model.StepIdle, err
	}
	if st == nil {
		return model.StepIdle, nil
	}
	return st.Step, nil
}

func (d *dialogUC) Cancel(ctx context.Context, key model.DialogKey) error {
	return d.states.ClearState(ctx, key)
}

func (d *dialogUC) Submit(ctx context.Context, key model.DialogKey, text string) (model.ChatSettings, error) {
	step, err := d.Pending(ctx, key)
	if err != nil {
		return model.ChatSettings{}, err
	}
	rule, ok := dialogSteps[step]
	if !ok {
		return model.ChatSettings{}, fmt.Errorf("no pending settings input: %w", domain.ErrNotFound)
	}

	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return model.ChatSettings{}, &InputError{NotNumber: true, Min: rule.min, Max: rule.max, Example: rule.example}
	}
	if n < rule.min || n > rule.max {
		return model.ChatSettings{}, &InputError{Min: rule.min, Max: rule.max, Example: rule.example}
	}

	s, err := rule.apply(ctx, d.settings, key.ChatID, n)
	if err != nil {
		return model.ChatSettings{}, err
	}
	if err := d.states.ClearState(ctx, key); err != nil {
		d.log.Warn().Err(err).Int64("chat_id", key.ChatID).Msg("failed to clear dialog state")
	}
	return s, nil
}
