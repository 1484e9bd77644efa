package repository

import (
	"context"

	"telegram-markov-bot/internal/domain/model"
)

// DialogStateRepository is the port for the settings input flow state.
// GetState returns a zero DialogState (StepIdle) when nothing is pending.
type DialogStateRepository interface {
	SetState(ctx context.Context, key model.DialogKey, state *model.DialogState) error
	GetState(ctx context.Context, key model.DialogKey) (*model.DialogState, error)
	ClearState(ctx context.Context, key model.DialogKey) error
}
