package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
	"telegram-markov-bot/internal/infra/logging"
	"telegram-markov-bot/internal/infra/metrics"
)

// Compile-time check
var _ CorpusUseCase = (*corpusUC)(nil)

// CorpusInfo summarizes a chat corpus for /info.
type CorpusInfo struct {
	Samples int   `json:"samples"`
	Bytes   int64 `json:"bytes"`
}

// CorpusUseCase collects chat messages into the per-chat corpus.
type CorpusUseCase interface {
	Ensure(ctx context.Context, chatID int64) error
	Info(ctx context.Context, chatID int64) (CorpusInfo, error)
	// Ingest stores text when the chat settings allow it and reports whether it did.
	Ingest(ctx context.Context, chatID int64, text string, s model.ChatSettings) (bool, error)
	Clear(ctx context.Context, chatID int64) error
}

type corpusUC struct {
	samples repository.SampleRepository
	log     *zerolog.Logger
}

func NewCorpusUseCase(samples repository.SampleRepository, logger *zerolog.Logger) *corpusUC {
	return &corpusUC{samples: samples, log: logger}
}

func (c *corpusUC) Ensure(ctx context.Context, chatID int64) error {
	return c.samples.Ensure(ctx, chatID)
}

func (c *corpusUC) Info(ctx context.Context, chatID int64) (CorpusInfo, error) {
	defer logging.TraceDuration(c.log, "CorpusUC.Info")()
	if err := ctx.Err(); err != nil {
		return CorpusInfo{}, err
	}
	return CorpusInfo{
		Samples: len(c.samples.Load(ctx, chatID)),
		Bytes:   c.samples.Size(ctx, chatID),
	}, nil
}

func (c *corpusUC) Ingest(ctx context.Context, chatID int64, text string, s model.ChatSettings) (bool, error) {
	if reason := rejectReason(text, s); reason != "" {
		metrics.IncSampleRejected(reason)
		return false, nil
	}
	if err := c.samples.Append(ctx, chatID, text); err != nil {
		logging.With(ctx, c.log).Error().Err(err).Msg("failed to store sample")
		return false, err
	}
	metrics.IncSampleAppended()
	return true, nil
}

func (c *corpusUC) Clear(ctx context.Context, chatID int64) error {
	if err := c.samples.Clear(ctx, chatID); err != nil {
		return err
	}
	metrics.IncCorpusCleared()
	logging.With(ctx, c.log).Info().Int64("chat_id", chatID).Msg("corpus cleared")
	return nil
}

// rejectReason mirrors model.IsStorable and names the failed check for metrics.
func rejectReason(text string, s model.ChatSettings) string {
	if model.IsStorable(text, s) {
		return ""
	}
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return "empty"
	case strings.HasPrefix(trimmed, model.CommandPrefix):
		return "command"
	default:
		return "too_long"
	}
}
