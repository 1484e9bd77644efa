package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain"
	"telegram-markov-bot/internal/domain/markov"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
	"telegram-markov-bot/internal/infra/logging"
	"telegram-markov-bot/internal/infra/metrics"
)

// Compile-time check
var _ GenerateUseCase = (*generateUC)(nil)

// GenerateConfig tunes how replies are produced.
type GenerateConfig struct {
	CommandAttempts   int     // walks per explicit request
	AutoReplyAttempts int     // walks per spontaneous reply
	Filler            string  // sent when an explicit request yields nothing
	CapsChance        float64 // probability of shouting the reply
}

// Rand is the randomness used for the reply dice and caps. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// NotEnoughSamplesError is returned when the corpus is below the chat's minimum.
type NotEnoughSamplesError struct {
	Have, Need int
}

func (e *NotEnoughSamplesError) Error() string {
	return fmt.Sprintf("corpus has %d samples, need %d", e.Have, e.Need)
}

func (e *NotEnoughSamplesError) Unwrap() error { return domain.ErrNotEnoughSamples }

// GenerateUseCase produces replies from a chat corpus.
type GenerateUseCase interface {
	// OnDemand answers an explicit request. It never returns an empty text: when
	// nothing novel is found the filler is returned.
	OnDemand(ctx context.Context, chatID int64, size model.GenSize) (string, error)
	// OnDemandDefault is OnDemand with the chat's default size.
	OnDemandDefault(ctx context.Context, chatID int64) (string, error)
	// AutoReply rolls the chat's reply dice after a stored message. ok is false when
	// the bot stays silent.
	AutoReply(ctx context.Context, chatID int64, s model.ChatSettings) (text string, ok bool, err error)
	// Sample runs the raw generator over the stored corpus: no minimum, no filler, no styling.
	// attempts <= 0 selects the explicit-request budget.
	Sample(ctx context.Context, chatID int64, size model.GenSize, attempts int) (markov.Result, error)
}

type generateUC struct {
	samples  repository.SampleRepository
	settings SettingsUseCase
	gen      *markov.Generator
	rng      Rand
	cfg      GenerateConfig
	log      *zerolog.Logger
}

// NewGenerateUseCase wires the generator. A nil rng selects the process-wide source.
func NewGenerateUseCase(samples repository.SampleRepository, settings SettingsUseCase, rng Rand, cfg GenerateConfig, logger *zerolog.Logger) *generateUC {
	var src markov.Source
	if rng == nil {
		rng = globalRand{}
	} else {
		src = rng
	}
	if cfg.CommandAttempts <= 0 {
		cfg.CommandAttempts = 300
	}
	if cfg.AutoReplyAttempts <= 0 {
		cfg.AutoReplyAttempts = 200
	}
	return &generateUC{
		samples:  samples,
		settings: settings,
		gen:      markov.NewGenerator(src),
		rng:      rng,
		cfg:      cfg,
		log:      logger,
	}
}

func (g *generateUC) OnDemand(ctx context.Context, chatID int64, size model.GenSize) (string, error) {
	defer logging.TraceDuration(g.log, "GenerateUC.OnDemand")()

	if !size.Valid() {
		metrics.ObserveGeneration("invalid", "command", "invalid", 0)
		return "", fmt.Errorf("size %d: %w", size, domain.ErrInvalidArgument)
	}
	s, err := g.settings.Get(ctx, chatID)
	if err != nil {
		return "", err
	}
	return g.onDemand(ctx, chatID, size, s)
}

func (g *generateUC) OnDemandDefault(ctx context.Context, chatID int64) (string, error) {
	defer logging.TraceDuration(g.log, "GenerateUC.OnDemandDefault")()

	s, err := g.settings.Get(ctx, chatID)
	if err != nil {
		return "", err
	}
	return g.onDemand(ctx, chatID, g.defaultSize(ctx, s), s)
}

func (g *generateUC) onDemand(ctx context.Context, chatID int64, size model.GenSize, s model.ChatSettings) (string, error) {
	samples := g.samples.Load(ctx, chatID)
	if len(samples) < s.MinSamples {
		metrics.ObserveGeneration(size.String(), "command", "not_enough", 0)
		return "", &NotEnoughSamplesError{Have: len(samples), Need: s.MinSamples}
	}

	res, err := g.gen.Generate(samples, g.cfg.CommandAttempts, size)
	if err != nil {
		return "", err
	}
	result := "ok"
	text := res.Text
	if !res.OK {
		result = "filler"
		text = g.cfg.Filler
	}
	metrics.ObserveGeneration(size.String(), "command", result, res.Attempts)
	return g.style(text), nil
}

func (g *generateUC) AutoReply(ctx context.Context, chatID int64, s model.ChatSettings) (string, bool, error) {
	if !s.AutoReplyEnabled {
		return "", false, nil
	}
	if g.rng.IntN(s.EffectiveChanceN()) != 0 {
		return "", false, nil
	}

	samples := g.samples.Load(ctx, chatID)
	if len(samples) < s.MinSamples {
		return "", false, nil
	}
	size := g.defaultSize(ctx, s)
	res, err := g.gen.Generate(samples, g.cfg.AutoReplyAttempts, size)
	if err != nil {
		return "", false, err
	}
	if !res.OK {
		metrics.ObserveGeneration(size.String(), "auto", "empty", res.Attempts)
		return "", false, nil
	}
	metrics.ObserveGeneration(size.String(), "auto", "ok", res.Attempts)
	return g.style(res.Text), true, nil
}

func (g *generateUC) Sample(ctx context.Context, chatID int64, size model.GenSize, attempts int) (markov.Result, error) {
	defer logging.TraceDuration(g.log, "GenerateUC.Sample")()

	if !size.Valid() {
		return markov.Result{}, fmt.Errorf("size %d: %w", size, domain.ErrInvalidArgument)
	}
	if attempts <= 0 {
		attempts = g.cfg.CommandAttempts
	}
	res, err := g.gen.Generate(g.samples.Load(ctx, chatID), attempts, size)
	if err != nil {
		return markov.Result{}, err
	}
	result := "ok"
	if !res.OK {
		result = "empty"
	}
	metrics.ObserveGeneration(size.String(), "operator", result, res.Attempts)
	return res, nil
}

// defaultSize falls back to ANY for a hand-edited default outside the known classes.
func (g *generateUC) defaultSize(ctx context.Context, s model.ChatSettings) model.GenSize {
	if s.DefaultGenSize.Valid() {
		return s.DefaultGenSize
	}
	logging.With(ctx, g.log).Warn().Int("default_gen_size", int(s.DefaultGenSize)).Msg("unknown default size, using any")
	return model.GenSizeAny
}

// style lowercases the reply and occasionally shouts it.
func (g *generateUC) style(text string) string {
	text = strings.ToLower(text)
	if g.cfg.CapsChance > 0 && g.rng.Float64() < g.cfg.CapsChance {
		return strings.ToUpper(text)
	}
	return text
}

// IsNotEnoughSamples extracts the corpus shortfall from err.
func IsNotEnoughSamples(err error) (*NotEnoughSamplesError, bool) {
	var e *NotEnoughSamplesError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
