package telegram

import (
	"strconv"

	"telegram-markov-bot/internal/application"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/adapter"
)

const (
	cbToggleAutoReply = "set:toggle_autoreply"
	cbChance          = "set:chance"
	cbMaxLen          = "set:maxlen"
	cbMinSamples      = "set:minsamples"
	cbDefSize         = "set:defsize"
	cbRefresh         = "set:refresh"
	cbClose           = "set:close"
	cbGenMenu         = "gen:menu"
	cbClearConfirm    = "clear:confirm"
	cbClearYes        = "clear:yes"

	prefixGen     = "gen:"
	prefixDefSize = "defsize:"
)

func settingsRows(s model.ChatSettings, t application.Translator) [][]adapter.InlineButton {
	state := t.T("state_off")
	if s.AutoReplyEnabled {
		state = t.T("state_on")
	}
	return [][]adapter.InlineButton{
		{{Text: t.T("btn_autoreply", state), Data: cbToggleAutoReply}},
		{
			{Text: t.T("btn_chance", s.AutoReplyChanceN), Data: cbChance},
			{Text: t.T("btn_maxlen", s.MaxStoreTextLen), Data: cbMaxLen},
		},
		{
			{Text: t.T("btn_minsamples", s.MinSamples), Data: cbMinSamples},
			{Text: t.T("btn_defsize", s.DefaultGenSize.String()), Data: cbDefSize},
		},
		{
			{Text: t.T("btn_generate"), Data: cbGenMenu},
			{Text: t.T("btn_clear"), Data: cbClearConfirm},
		},
		{
			{Text: t.T("btn_refresh"), Data: cbRefresh},
			{Text: t.T("btn_close"), Data: cbClose},
		},
	}
}

// sizeRows lists every size under prefix followed by a back button.
func sizeRows(prefix string, t application.Translator) [][]adapter.InlineButton {
	row := make([]adapter.InlineButton, 0, len(model.AllGenSizes))
	for _, g := range model.AllGenSizes {
		row = append(row, adapter.InlineButton{Text: g.String(), Data: prefix + strconv.Itoa(int(g))})
	}
	return [][]adapter.InlineButton{
		row,
		{{Text: t.T("btn_back"), Data: cbRefresh}},
	}
}

func clearConfirmRows(t application.Translator) [][]adapter.InlineButton {
	return [][]adapter.InlineButton{{
		{Text: t.T("btn_clear_yes"), Data: cbClearYes},
		{Text: t.T("btn_cancel"), Data: cbRefresh},
	}}
}
