package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/application"
	"telegram-markov-bot/internal/config"
	"telegram-markov-bot/internal/domain/ports/adapter"
	"telegram-markov-bot/internal/infra/logging"
	"telegram-markov-bot/internal/infra/metrics"
	red "telegram-markov-bot/internal/infra/redis"
	"telegram-markov-bot/internal/infra/worker"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// RateLimiter is satisfied by the Redis limiter and its in-process fallback.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter polls updates and delegates them to the BotFacade.
// Updates are dispatched to the worker pool keyed by chat id.
type RealTelegramBotAdapter struct {
	bot         botAPI
	selfID      int64
	facade      *application.BotFacade
	translator  application.Translator
	rateLimiter RateLimiter
	perMinute   int
	pool        *worker.Pool
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	dev           bool
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	limits config.RateLimitConfig,
	facade *application.BotFacade,
	translator application.Translator,
	rateLimiter RateLimiter,
	pool *worker.Pool,
	dev bool,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	a, err := newAdapter(bot, bot.Self.ID, cfg, limits, facade, translator, rateLimiter, pool, logger)
	if err != nil {
		return nil, err
	}
	a.dev = dev
	return a, nil
}

func newAdapter(
	bot botAPI,
	selfID int64,
	cfg *config.BotConfig,
	limits config.RateLimitConfig,
	facade *application.BotFacade,
	translator application.Translator,
	rateLimiter RateLimiter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if translator == nil {
		return nil, errors.New("translator is nil")
	}
	if pool == nil {
		return nil, errors.New("worker pool is nil")
	}

	adminMap := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	l := logger.With().Str("component", "TelegramBot").Logger()

	return &RealTelegramBotAdapter{
		bot:         bot,
		selfID:      selfID,
		facade:      facade,
		translator:  translator,
		rateLimiter: rateLimiter,
		perMinute:   limits.PerMinute,
		pool:        pool,
		log:         &l,
		adminIDsMap: adminMap,
	}, nil
}

// StartPolling runs until ctx is canceled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	defer cancel()

	r.pool.Start(ctx)
	defer r.pool.Stop()

	if err := r.SetMenuCommands(ctx); err != nil {
		r.log.Warn().Err(err).Msg("failed to set menu commands")
	}
	r.log.Info().Int64("bot_id", r.selfID).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.dispatch(up)
		}
	}
}

func (r *RealTelegramBotAdapter) dispatch(up tgbotapi.Update) {
	chatID := updateChatID(up)
	err := r.pool.Submit(chatID, func(ctx context.Context) error {
		return r.handleUpdate(ctx, up)
	})
	if err != nil {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Int("update_id", up.UpdateID).Msg("update dropped")
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// updateChatID picks the chat an update belongs to; it is the sharding key.
func updateChatID(up tgbotapi.Update) int64 {
	switch {
	case up.Message != nil && up.Message.Chat != nil:
		return up.Message.Chat.ID
	case up.CallbackQuery != nil && up.CallbackQuery.Message != nil && up.CallbackQuery.Message.Chat != nil:
		return up.CallbackQuery.Message.Chat.ID
	case up.CallbackQuery != nil && up.CallbackQuery.From != nil:
		return up.CallbackQuery.From.ID
	case up.MyChatMember != nil:
		return up.MyChatMember.Chat.ID
	}
	return 0
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, ulid.Make().String())
	if chatID := updateChatID(update); chatID != 0 {
		ctx = logging.WithChatID(ctx, chatID)
	}

	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.From != nil {
			ctx = logging.WithTgID(ctx, update.CallbackQuery.From.ID)
		}
		return r.handleQuery(ctx, update.CallbackQuery)
	case update.MyChatMember != nil:
		return r.handleMyChatMember(ctx, update.MyChatMember)
	case update.Message != nil:
		if update.Message.From != nil {
			ctx = logging.WithTgID(ctx, update.Message.From.ID)
		}
		return r.handleMessage(ctx, update.Message)
	}
	return nil
}

// allow applies the per-user per-command limit. Limiter failures let the request through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, chatID, userID int64, command string) bool {
	if r.rateLimiter == nil || r.perMinute <= 0 {
		return true
	}
	ok, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(chatID, userID, command), r.perMinute, time.Minute)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
	}
	return ok
}

// isAdmin trusts the configured operators, then asks Telegram for the member status.
func (r *RealTelegramBotAdapter) isAdmin(ctx context.Context, chatID, userID int64) bool {
	if _, ok := r.adminIDsMap[userID]; ok {
		return true
	}
	member, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("chat member lookup failed")
		return false
	}
	return member.IsAdministrator() || member.IsCreator()
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendButtons sends a message with inline callback buttons.
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = toMarkup(rows)
	_, err := r.bot.Send(msg)
	return err
}

// editButtons replaces the text and keyboard of an existing menu message.
func (r *RealTelegramBotAdapter) editButtons(chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	_, err := r.bot.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, toMarkup(rows)))
	return err
}

func (r *RealTelegramBotAdapter) editText(chatID int64, messageID int, text string) error {
	_, err := r.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func toMarkup(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			data := btn.Data
			if data == "" {
				data = label
			}
			kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
		kbRows = append(kbRows, kr)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}
