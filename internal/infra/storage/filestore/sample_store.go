package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
	"telegram-markov-bot/internal/infra/keylock"
	"telegram-markov-bot/internal/infra/metrics"
)

var _ repository.SampleRepository = (*SampleStore)(nil)

// SampleStore keeps each chat corpus in its own text file.
// Access to one chat's file is serialized; different chats never wait on each other.
type SampleStore struct {
	dir   string
	locks *keylock.Map
	log   *zerolog.Logger
}

func NewSampleStore(dir string, logger *zerolog.Logger) (*SampleStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dialogs dir: %w", err)
	}
	l := logger.With().Str("component", "SampleStore").Logger()
	return &SampleStore{dir: dir, locks: keylock.New(), log: &l}, nil
}

func (s *SampleStore) path(chatID int64) string {
	return chatFile(s.dir, chatID, ".txt")
}

// Path exposes the corpus location for operators.
func (s *SampleStore) Path(chatID int64) string {
	return s.path(chatID)
}

func (s *SampleStore) Ensure(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.Lock(chatID)
	defer unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("ensure chat %d: %w", chatID, err)
	}
	f, err := os.OpenFile(s.path(chatID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("ensure chat %d: %w", chatID, err)
	}
	return f.Close()
}

// Load returns the corpus in insertion order. Read failures degrade to an empty corpus.
func (s *SampleStore) Load(ctx context.Context, chatID int64) []string {
	unlock := s.locks.Lock(chatID)
	data, err := os.ReadFile(s.path(chatID))
	unlock()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			metrics.IncStorageError("corpus", "load")
			s.log.Warn().Err(err).Int64("chat_id", chatID).Msg("corpus unreadable, treating as empty")
		}
		return []string{}
	}

	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Append normalizes text to a single line and adds it to the end of the corpus.
func (s *SampleStore) Append(ctx context.Context, chatID int64, text string) error {
	line := model.NormalizeSample(text)
	if line == "" {
		return fmt.Errorf("append to chat %d: empty sample: %w", chatID, domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.locks.Lock(chatID)
	defer unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("append to chat %d: %w", chatID, err)
	}
	f, err := os.OpenFile(s.path(chatID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("append to chat %d: %w", chatID, err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to chat %d: %w", chatID, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to chat %d: sync: %w", chatID, err)
	}
	return f.Close()
}

// Clear atomically replaces the corpus with an empty one.
func (s *SampleStore) Clear(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.Lock(chatID)
	defer unlock()

	if err := writeFileAtomic(s.path(chatID), nil); err != nil {
		return fmt.Errorf("clear chat %d: %w", chatID, err)
	}
	return nil
}

func (s *SampleStore) Size(ctx context.Context, chatID int64) int64 {
	fi, err := os.Stat(s.path(chatID))
	if err != nil {
		return 0
	}
	return fi.Size()
}
