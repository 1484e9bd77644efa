package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/infra/logging"
	"telegram-markov-bot/internal/infra/metrics"
	"telegram-markov-bot/internal/usecase"
)

// KakTrigger is the literal message answered with a canned phrase.
const KakTrigger = "как"

// BotFacade composes usecases into high-level bot commands.
// Methods return rendered text so the Telegram adapter only handles transport and keyboards.
type BotFacade struct {
	CorpusUC   usecase.CorpusUseCase
	SettingsUC usecase.SettingsUseCase
	GenerateUC usecase.GenerateUseCase
	DialogUC   usecase.DialogUseCase

	t   Translator
	log *zerolog.Logger
}

func NewBotFacade(
	corpusUC usecase.CorpusUseCase,
	settingsUC usecase.SettingsUseCase,
	generateUC usecase.GenerateUseCase,
	dialogUC usecase.DialogUseCase,
	t Translator,
	logger *zerolog.Logger,
) *BotFacade {
	l := logger.With().Str("component", "BotFacade").Logger()
	return &BotFacade{
		CorpusUC:   corpusUC,
		SettingsUC: settingsUC,
		GenerateUC: generateUC,
		DialogUC:   dialogUC,
		t:          t,
		log:        &l,
	}
}

// MessageResult is what the bot should send back for a plain text message.
// Menu is set when the settings keyboard should follow the replies.
type MessageResult struct {
	Replies []string
	Menu    *model.ChatSettings
}

// HandleJoin prepares storage for a chat the bot was just added to and returns the greeting.
func (b *BotFacade) HandleJoin(ctx context.Context, chatID int64) (string, error) {
	if err := b.CorpusUC.Ensure(ctx, chatID); err != nil {
		return "", fmt.Errorf("ensure chat: %w", err)
	}
	if _, err := b.SettingsUC.Get(ctx, chatID); err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	metrics.IncChatsJoined()
	logging.With(ctx, b.log).Info().Int64("chat_id", chatID).Msg("joined chat")
	return b.t.T("meeting"), nil
}

func (b *BotFacade) HandleHelp(ctx context.Context, chatID int64) string {
	b.ensure(ctx, chatID)
	return b.t.T("help")
}

func (b *BotFacade) HandleKak(ctx context.Context, chatID int64) string {
	b.ensure(ctx, chatID)
	return b.t.T("kak_reply")
}

func (b *BotFacade) HandleInfo(ctx context.Context, chatID int64) (string, error) {
	b.ensure(ctx, chatID)
	info, err := b.CorpusUC.Info(ctx, chatID)
	if err != nil {
		return "", err
	}
	return b.t.T("info", info.Samples, info.Bytes), nil
}

// HandleSettings returns the record behind the settings menu.
func (b *BotFacade) HandleSettings(ctx context.Context, chatID int64) (model.ChatSettings, error) {
	b.ensure(ctx, chatID)
	return b.SettingsUC.Get(ctx, chatID)
}

// HandleGen serves /gen [size]. An empty arg uses the chat default; unknown aliases mean any.
// A corpus below the chat minimum is answered with an explanation, not an error.
func (b *BotFacade) HandleGen(ctx context.Context, chatID int64, arg string) (string, error) {
	b.ensure(ctx, chatID)

	var (
		text string
		err  error
	)
	if strings.TrimSpace(arg) == "" {
		text, err = b.GenerateUC.OnDemandDefault(ctx, chatID)
	} else {
		text, err = b.GenerateUC.OnDemand(ctx, chatID, model.ParseGenSize(arg))
	}
	if e, ok := usecase.IsNotEnoughSamples(err); ok {
		return b.t.T("not_enough_samples", e.Need), nil
	}
	return text, err
}

// HandleGenSize serves the size buttons. text is empty when the corpus is too small;
// the caller shows alert instead of posting text.
func (b *BotFacade) HandleGenSize(ctx context.Context, chatID int64, size model.GenSize) (text string, alert string, err error) {
	text, err = b.GenerateUC.OnDemand(ctx, chatID, size)
	return b.genButtonResult(text, err)
}

// HandleGenDefaultSize is HandleGenSize with the chat default, falling back to any
// when the stored default is not a size.
func (b *BotFacade) HandleGenDefaultSize(ctx context.Context, chatID int64) (text string, alert string, err error) {
	text, err = b.GenerateUC.OnDemandDefault(ctx, chatID)
	return b.genButtonResult(text, err)
}

func (b *BotFacade) genButtonResult(text string, err error) (string, string, error) {
	if _, ok := usecase.IsNotEnoughSamples(err); ok {
		return "", b.t.T("few_samples_alert"), nil
	}
	if err != nil {
		return "", "", err
	}
	return text, b.t.T("generated"), nil
}

// HandleMessage handles plain group text: a pending settings answer, or a corpus
// sample that may trigger an auto reply.
func (b *BotFacade) HandleMessage(ctx context.Context, key model.DialogKey, text string) (MessageResult, error) {
	step, err := b.DialogUC.Pending(ctx, key)
	if err != nil {
		b.log.Warn().Err(err).Int64("chat_id", key.ChatID).Msg("dialog state unavailable")
	}
	if step.Pending() {
		return b.submitDialog(ctx, key, text)
	}

	chatID := key.ChatID
	b.ensure(ctx, chatID)
	s, err := b.SettingsUC.Get(ctx, chatID)
	if err != nil {
		return MessageResult{}, err
	}
	stored, err := b.CorpusUC.Ingest(ctx, chatID, text, s)
	if err != nil || !stored {
		return MessageResult{}, err
	}

	reply, ok, err := b.GenerateUC.AutoReply(ctx, chatID, s)
	if err != nil || !ok {
		return MessageResult{}, err
	}
	return MessageResult{Replies: []string{reply}}, nil
}

func (b *BotFacade) submitDialog(ctx context.Context, key model.DialogKey, text string) (MessageResult, error) {
	s, err := b.DialogUC.Submit(ctx, key, text)
	var inErr *usecase.InputError
	switch {
	case errors.As(err, &inErr):
		if inErr.NotNumber {
			return MessageResult{Replies: []string{b.t.T("need_number", inErr.Example)}}, nil
		}
		return MessageResult{Replies: []string{b.t.T("out_of_range", inErr.Min, inErr.Max)}}, nil
	case err != nil:
		return MessageResult{}, err
	}
	return MessageResult{Replies: []string{b.t.T("done")}, Menu: &s}, nil
}

// BeginInput starts the numeric input flow for step and returns its prompt.
func (b *BotFacade) BeginInput(ctx context.Context, key model.DialogKey, step model.SettingsStep) (string, error) {
	if err := b.DialogUC.Begin(ctx, key, step); err != nil {
		return "", err
	}
	switch step {
	case model.StepAwaitingChance:
		return b.t.T("prompt_chance"), nil
	case model.StepAwaitingMaxLen:
		return b.t.T("prompt_maxlen"), nil
	default:
		return b.t.T("prompt_minsamples"), nil
	}
}

// CancelInput drops any pending input of key; menus call it on refresh and close.
func (b *BotFacade) CancelInput(ctx context.Context, key model.DialogKey) {
	if err := b.DialogUC.Cancel(ctx, key); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", key.ChatID).Msg("failed to cancel dialog")
	}
}

// HandleClear wipes the corpus. Callers check administrator rights first.
func (b *BotFacade) HandleClear(ctx context.Context, chatID int64) (string, error) {
	if err := b.CorpusUC.Clear(ctx, chatID); err != nil {
		return "", err
	}
	return b.t.T("cleared"), nil
}

// ensure creates the corpus file; failures only cost the file and are logged.
func (b *BotFacade) ensure(ctx context.Context, chatID int64) {
	if err := b.CorpusUC.Ensure(ctx, chatID); err != nil {
		logging.With(ctx, b.log).Warn().Err(err).Int64("chat_id", chatID).Msg("ensure chat failed")
	}
}
