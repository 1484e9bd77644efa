package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
)

var _ repository.DialogStateRepository = (*StateRepo)(nil)

// StateRepo keeps the settings input flow state in Redis.
type StateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewStateRepo(client RedisClient) *StateRepo {
	return &StateRepo{
		client: client,
		ttl:    15 * time.Minute, // an abandoned prompt expires
	}
}

func (s *StateRepo) stateKey(key model.DialogKey) string {
	return fmt.Sprintf("settings_dialog:%d:%d", key.ChatID, key.UserID)
}

func (s *StateRepo) SetState(ctx context.Context, key model.DialogKey, state *model.DialogState) error {
	if state == nil || !state.Step.Pending() {
		return s.ClearState(ctx, key)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(key), data, s.ttl)
}

func (s *StateRepo) GetState(ctx context.Context, key model.DialogKey) (*model.DialogState, error) {
	data, err := s.client.Get(ctx, s.stateKey(key))
	if errors.Is(err, Nil) {
		return &model.DialogState{}, nil
	}
	if err != nil {
		return nil, err
	}

	var state model.DialogState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, key model.DialogKey) error {
	return s.client.Del(ctx, s.stateKey(key))
}
