package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/infra/logging"
)

// callbackAnswer is the toast (or alert) shown to the user who pressed a button.
type callbackAnswer struct {
	Text  string
	Alert bool
}

// callbackCtx carries what every button handler needs from the query.
type callbackCtx struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Data      string
}

func (c callbackCtx) key() model.DialogKey {
	return model.DialogKey{ChatID: c.ChatID, UserID: c.UserID}
}

type cbHandler func(ctx context.Context, q callbackCtx) (callbackAnswer, error)

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		cbRefresh:         r.refreshCBRoute,
		cbClose:           r.closeCBRoute,
		cbToggleAutoReply: r.toggleCBRoute,
		cbChance:          r.inputCBRoute(model.StepAwaitingChance),
		cbMaxLen:          r.inputCBRoute(model.StepAwaitingMaxLen),
		cbMinSamples:      r.inputCBRoute(model.StepAwaitingMinSamples),
		cbDefSize:         r.defSizeMenuCBRoute,
		cbGenMenu:         r.genMenuCBRoute,
		cbClearConfirm:    r.clearConfirmCBRoute,
		cbClearYes:        r.clearYesCBRoute,
	}
}

// Prefix-match callbacks, tried after the exact routes.
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: prefixGen, Fn: r.genPrefixCBRoute},
		{Prefix: prefixDefSize, Fn: r.defSizePrefixCBRoute},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	answer := callbackAnswer{}
	defer func() {
		cb := tgbotapi.NewCallback(cq.ID, answer.Text)
		cb.ShowAlert = answer.Alert
		if _, err := r.bot.Request(cb); err != nil {
			logging.With(ctx, r.log).Debug().Err(err).Msg("callback answer failed")
		}
	}()

	if cq.Message == nil || cq.Message.Chat == nil {
		return nil
	}
	q := callbackCtx{
		ChatID:    cq.Message.Chat.ID,
		MessageID: cq.Message.MessageID,
		Data:      cq.Data,
	}
	if cq.From != nil {
		q.UserID = cq.From.ID
	}

	fn := r.matchCallback(cq.Data)
	if fn == nil {
		logging.With(ctx, r.log).Debug().Str("data", cq.Data).Msg("unknown callback")
		return nil
	}
	if !r.allow(ctx, q.ChatID, q.UserID, "cb:"+cq.Data) {
		answer = callbackAnswer{Text: r.translator.T("rate_limited"), Alert: true}
		return nil
	}

	a, err := fn(ctx, q)
	answer = a
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Str("data", cq.Data).Msg("callback failed")
		return err
	}
	return nil
}

func (r *RealTelegramBotAdapter) matchCallback(data string) cbHandler {
	if fn, ok := r.cbRoutes()[data]; ok {
		return fn
	}
	for _, p := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, p.Prefix) {
			return p.Fn
		}
	}
	return nil
}

func (r *RealTelegramBotAdapter) refreshCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	r.facade.CancelInput(ctx, q.key())
	s, err := r.facade.HandleSettings(ctx, q.ChatID)
	if err != nil {
		return callbackAnswer{}, err
	}
	return callbackAnswer{}, r.editButtons(q.ChatID, q.MessageID, r.translator.T("settings_title"), settingsRows(s, r.translator))
}

func (r *RealTelegramBotAdapter) closeCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	r.facade.CancelInput(ctx, q.key())
	return callbackAnswer{}, r.editText(q.ChatID, q.MessageID, r.translator.T("settings_closed"))
}

func (r *RealTelegramBotAdapter) toggleCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	s, err := r.facade.SettingsUC.ToggleAutoReply(ctx, q.ChatID)
	if err != nil {
		return callbackAnswer{}, err
	}
	if err := r.editButtons(q.ChatID, q.MessageID, r.translator.T("settings_title"), settingsRows(s, r.translator)); err != nil {
		return callbackAnswer{}, err
	}
	return callbackAnswer{Text: r.translator.T("ok")}, nil
}

func (r *RealTelegramBotAdapter) inputCBRoute(step model.SettingsStep) cbHandler {
	return func(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
		if q.UserID == 0 {
			return callbackAnswer{Text: r.translator.T("unknown_user_alert"), Alert: true}, nil
		}
		prompt, err := r.facade.BeginInput(ctx, q.key(), step)
		if err != nil {
			return callbackAnswer{}, err
		}
		return callbackAnswer{}, r.SendMessage(ctx, q.ChatID, prompt)
	}
}

func (r *RealTelegramBotAdapter) defSizeMenuCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	return callbackAnswer{}, r.SendButtons(ctx, q.ChatID, r.translator.T("prompt_defsize"), sizeRows(prefixDefSize, r.translator))
}

func (r *RealTelegramBotAdapter) genMenuCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	return callbackAnswer{}, r.SendButtons(ctx, q.ChatID, r.translator.T("prompt_gen_size"), sizeRows(prefixGen, r.translator))
}

// genPrefixCBRoute serves gen:N. A code that is not a size falls back to the chat default.
func (r *RealTelegramBotAdapter) genPrefixCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	var (
		text, alert string
		err         error
	)
	if size, ok := parseSizeCode(strings.TrimPrefix(q.Data, prefixGen)); ok {
		text, alert, err = r.facade.HandleGenSize(ctx, q.ChatID, size)
	} else {
		text, alert, err = r.facade.HandleGenDefaultSize(ctx, q.ChatID)
	}
	if err != nil {
		return callbackAnswer{}, err
	}
	if text == "" {
		return callbackAnswer{Text: alert, Alert: true}, nil
	}
	if err := r.SendMessage(ctx, q.ChatID, text); err != nil {
		return callbackAnswer{}, err
	}
	return callbackAnswer{Text: alert}, nil
}

func (r *RealTelegramBotAdapter) defSizePrefixCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	size, ok := parseSizeCode(strings.TrimPrefix(q.Data, prefixDefSize))
	if !ok {
		return callbackAnswer{}, nil
	}
	s, err := r.facade.SettingsUC.SetDefaultSize(ctx, q.ChatID, size)
	if err != nil {
		return callbackAnswer{}, err
	}
	if err := r.editButtons(q.ChatID, q.MessageID, r.translator.T("settings_title"), settingsRows(s, r.translator)); err != nil {
		return callbackAnswer{}, err
	}
	return callbackAnswer{Text: r.translator.T("default_size_set", size.String())}, nil
}

func (r *RealTelegramBotAdapter) clearConfirmCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	return callbackAnswer{}, r.SendButtons(ctx, q.ChatID, r.translator.T("clear_confirm"), clearConfirmRows(r.translator))
}

// clearYesCBRoute re-checks rights: the confirm keyboard may be pressed by anyone.
func (r *RealTelegramBotAdapter) clearYesCBRoute(ctx context.Context, q callbackCtx) (callbackAnswer, error) {
	if q.UserID == 0 {
		return callbackAnswer{Text: r.translator.T("unknown_user_alert"), Alert: true}, nil
	}
	if !r.isAdmin(ctx, q.ChatID, q.UserID) {
		return callbackAnswer{Text: r.translator.T("need_admin_alert"), Alert: true}, nil
	}
	text, err := r.facade.HandleClear(ctx, q.ChatID)
	if err != nil {
		return callbackAnswer{}, err
	}
	return callbackAnswer{}, r.SendMessage(ctx, q.ChatID, text)
}

func parseSizeCode(code string) (model.GenSize, bool) {
	n, err := strconv.Atoi(code)
	if err != nil {
		return model.GenSizeAny, false
	}
	g := model.GenSize(n)
	return g, g.Valid()
}
