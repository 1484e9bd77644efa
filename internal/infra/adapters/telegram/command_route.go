package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-markov-bot/internal/infra/logging"
	"telegram-markov-bot/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"help":     r.handleHelpCommand,
		"settings": r.handleSettingsCommand,
		"info":     r.handleInfoCommand,
		"gen":      r.handleGenCommand,
		"clear":    r.adminOnly(r.handleClearCommand),
	}
}

func (r *RealTelegramBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if message.From == nil {
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("unknown_user"))
		}
		if !r.isAdmin(ctx, message.Chat.ID, message.From.ID) {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("not_admin"))
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, message)
	}
}

// handleCommand runs a known command. Unknown commands report handled=false and
// are treated as plain text.
func (r *RealTelegramBotAdapter) handleCommand(ctx context.Context, message *tgbotapi.Message) (bool, error) {
	cmd := message.Command()
	handler, ok := r.commandRoutes()[cmd]
	if !ok {
		return false, nil
	}
	metrics.IncTelegramCommand(cmd)

	var userID int64
	if message.From != nil {
		userID = message.From.ID
	}
	if !r.allow(ctx, message.Chat.ID, userID, cmd) {
		return true, r.SendMessage(ctx, message.Chat.ID, r.translator.T("rate_limited"))
	}
	if err := handler(ctx, message); err != nil {
		logging.With(ctx, r.log).Error().Err(err).Str("command", cmd).Msg("command failed")
		return true, err
	}
	return true, nil
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, message.Chat.ID, r.facade.HandleHelp(ctx, message.Chat.ID))
}

func (r *RealTelegramBotAdapter) handleSettingsCommand(ctx context.Context, message *tgbotapi.Message) error {
	s, err := r.facade.HandleSettings(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	return r.SendButtons(ctx, message.Chat.ID, r.translator.T("settings_title"), settingsRows(s, r.translator))
}

func (r *RealTelegramBotAdapter) handleInfoCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleInfo(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

// handleGenCommand serves /gen [size].
func (r *RealTelegramBotAdapter) handleGenCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleGen(ctx, message.Chat.ID, message.CommandArguments())
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleClearCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendButtons(ctx, message.Chat.ID, r.translator.T("clear_confirm"), clearConfirmRows(r.translator))
}

// SetMenuCommands publishes the command list shown by Telegram clients.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "gen", Description: "gen [any|small|medium|large]"},
		tgbotapi.BotCommand{Command: "info", Description: "info"},
		tgbotapi.BotCommand{Command: "settings", Description: "settings"},
		tgbotapi.BotCommand{Command: "clear", Description: "clear"},
		tgbotapi.BotCommand{Command: "help", Description: "help"},
	)
	_, err := r.bot.Request(cfg)
	return err
}
