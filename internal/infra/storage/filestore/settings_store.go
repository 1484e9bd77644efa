package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
	"telegram-markov-bot/internal/infra/keylock"
	"telegram-markov-bot/internal/infra/metrics"
)

var _ repository.SettingsRepository = (*SettingsStore)(nil)

// SettingsStore keeps one JSON settings object per chat.
type SettingsStore struct {
	dir   string
	locks *keylock.Map
	log   *zerolog.Logger
}

func NewSettingsStore(dir string, logger *zerolog.Logger) (*SettingsStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	l := logger.With().Str("component", "SettingsStore").Logger()
	return &SettingsStore{dir: dir, locks: keylock.New(), log: &l}, nil
}

func (s *SettingsStore) path(chatID int64) string {
	return chatFile(s.dir, chatID, ".json")
}

// Load returns the chat settings. A missing or unparsable record is replaced on disk
// by the defaults, which are returned; the failure is logged, not reported.
func (s *SettingsStore) Load(ctx context.Context, chatID int64) (model.ChatSettings, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatSettings{}, err
	}
	unlock := s.locks.Lock(chatID)
	defer unlock()

	data, err := os.ReadFile(s.path(chatID))
	if err == nil {
		settings, perr := decodeSettings(data)
		if perr == nil {
			return settings, nil
		}
		err = perr
	}

	cause := "corrupt"
	if errors.Is(err, fs.ErrNotExist) {
		cause = "missing"
	} else {
		s.log.Warn().Err(err).Int64("chat_id", chatID).Msg("settings record unusable, resetting to defaults")
	}
	metrics.IncSettingsReset(cause)

	settings := model.DefaultChatSettings()
	if werr := s.write(chatID, settings); werr != nil {
		metrics.IncStorageError("settings", "reset")
		s.log.Warn().Err(werr).Int64("chat_id", chatID).Msg("failed to persist default settings")
	}
	return settings, nil
}

// Save overwrites the whole record.
func (s *SettingsStore) Save(ctx context.Context, chatID int64, settings model.ChatSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.Lock(chatID)
	defer unlock()

	if err := s.write(chatID, settings); err != nil {
		return fmt.Errorf("save settings for chat %d: %w", chatID, err)
	}
	return nil
}

func (s *SettingsStore) write(chatID int64, settings model.ChatSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path(chatID), append(data, '\n'))
}

// settingsRecord accepts the current keys and the snake_case keys written by the
// previous bot. Absent fields keep their defaults.
type settingsRecord struct {
	AutoReplyEnabled *bool `json:"autoReplyEnabled"`
	AutoReplyChanceN *int  `json:"autoReplyChanceN"`
	MaxStoreTextLen  *int  `json:"maxStoreTextLen"`
	MinSamples       *int  `json:"minSamples"`
	DefaultGenSize   *int  `json:"defaultGenSize"`

	LegacyAutoReplyEnabled *bool `json:"auto_reply_enabled"`
	LegacyAutoReplyChanceN *int  `json:"auto_reply_chance_n"`
	LegacyMaxStoreTextLen  *int  `json:"max_store_text_len"`
	LegacyMinSamples       *int  `json:"min_samples"`
	LegacyDefaultGenSize   *int  `json:"default_gen_size"`
}

var errNotObject = errors.New("settings record is not a JSON object")

func decodeSettings(data []byte) (model.ChatSettings, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.ChatSettings{}, errNotObject
	}

	var rec settingsRecord
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return model.ChatSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	if dec.More() {
		return model.ChatSettings{}, errors.New("decode settings: trailing data")
	}

	s := model.DefaultChatSettings()
	pickBool(&s.AutoReplyEnabled, rec.AutoReplyEnabled, rec.LegacyAutoReplyEnabled)
	pickInt(&s.AutoReplyChanceN, rec.AutoReplyChanceN, rec.LegacyAutoReplyChanceN)
	pickInt(&s.MaxStoreTextLen, rec.MaxStoreTextLen, rec.LegacyMaxStoreTextLen)
	pickInt(&s.MinSamples, rec.MinSamples, rec.LegacyMinSamples)
	size := int(s.DefaultGenSize)
	pickInt(&size, rec.DefaultGenSize, rec.LegacyDefaultGenSize)
	s.DefaultGenSize = model.GenSize(size)
	return s, nil
}

func pickBool(dst *bool, current, legacy *bool) {
	switch {
	case current != nil:
		*dst = *current
	case legacy != nil:
		*dst = *legacy
	}
}

func pickInt(dst *int, current, legacy *int) {
	switch {
	case current != nil:
		*dst = *current
	case legacy != nil:
		*dst = *legacy
	}
}
