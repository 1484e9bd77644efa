//go:build !integration

package telegram

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-markov-bot/internal/application"
	"telegram-markov-bot/internal/config"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/adapter"
	"telegram-markov-bot/internal/infra/i18n"
	"telegram-markov-bot/internal/infra/keylock"
	"telegram-markov-bot/internal/infra/memstate"
	"telegram-markov-bot/internal/infra/storage/filestore"
	"telegram-markov-bot/internal/infra/worker"
	"telegram-markov-bot/internal/usecase"
)

const (
	testBotID  = int64(1000)
	testChatID = int64(-42)
	adminID    = int64(1)
	userID     = int64(7)
)

// fakeBot records everything the adapter sends.
type fakeBot struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	memberFn  func(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	updatesCh chan tgbotapi.Update
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	if f.memberFn != nil {
		return f.memberFn(cfg)
	}
	return tgbotapi.ChatMember{Status: "member"}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updatesCh
}

func (f *fakeBot) StopReceivingUpdates() {}

func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeBot) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeBot) lastCallback() tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if cb, ok := f.requests[i].(tgbotapi.CallbackConfig); ok {
			return cb
		}
	}
	return tgbotapi.CallbackConfig{}
}

type quietRand struct{ r *rand.Rand }

func (q quietRand) IntN(n int) int { return q.r.IntN(n) }
func (quietRand) Float64() float64 { return 0.99 }

type harness struct {
	bot      *fakeBot
	adapter  *RealTelegramBotAdapter
	facade   *application.BotFacade
	tr       *i18n.Translator
	samples  *filestore.SampleStore
	settings *filestore.SettingsStore
}

func newHarness(t *testing.T, perMinute int) harness {
	t.Helper()
	l := zerolog.Nop()
	dir := t.TempDir()

	samples, err := filestore.NewSampleStore(filepath.Join(dir, "dialogs"), &l)
	require.NoError(t, err)
	settingsStore, err := filestore.NewSettingsStore(filepath.Join(dir, "settings"), &l)
	require.NoError(t, err)
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "ru")
	require.NoError(t, err)

	settingsUC := usecase.NewSettingsUseCase(settingsStore, keylock.New(), &l)
	rng := quietRand{r: rand.New(rand.NewPCG(1, 2))}
	facade := application.NewBotFacade(
		usecase.NewCorpusUseCase(samples, &l),
		settingsUC,
		usecase.NewGenerateUseCase(samples, settingsUC, rng, usecase.GenerateConfig{Filler: "че", CapsChance: 0.1}, &l),
		usecase.NewDialogUseCase(memstate.NewStateRepo(0), settingsUC, &l),
		tr,
		&l,
	)

	fb := &fakeBot{updatesCh: make(chan tgbotapi.Update)}
	a, err := newAdapter(fb, testBotID,
		&config.BotConfig{AdminIDs: []int64{adminID}},
		config.RateLimitConfig{PerMinute: perMinute},
		facade, tr, memstate.NewRateLimiter(), worker.NewPool(2, 4, &l), &l)
	require.NoError(t, err)
	return harness{bot: fb, adapter: a, facade: facade, tr: tr, samples: samples, settings: settingsStore}
}

func textUpdate(from int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: from},
		Chat:      &tgbotapi.Chat{ID: testChatID, Type: "group"},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, c := range text {
			if c == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: from},
		Message: &tgbotapi.Message{
			MessageID: 55,
			Chat:      &tgbotapi.Chat{ID: testChatID},
		},
		Data: data,
	}}
}

func (h harness) handle(t *testing.T, up tgbotapi.Update) {
	t.Helper()
	require.NoError(t, h.adapter.handleUpdate(context.Background(), up))
}

func TestHelpCommand(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, textUpdate(userID, "/help"))
	assert.Equal(t, []string{h.tr.T("help")}, h.bot.texts())
}

func TestKakIsAnsweredAndNotStored(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, textUpdate(userID, "как"))
	assert.Equal(t, []string{h.tr.T("kak_reply")}, h.bot.texts())

	got := h.samples.Load(context.Background(), testChatID)
	assert.Empty(t, got)
}

func TestPlainTextIsStored(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, textUpdate(userID, "привет всем в чате"))

	got := h.samples.Load(context.Background(), testChatID)
	assert.Equal(t, []string{"привет всем в чате"}, got)
}

func TestSenderlessTextIsNotStored(t *testing.T) {
	h := newHarness(t, 0)
	up := textUpdate(userID, "сообщение от имени канала")
	up.Message.From = nil
	h.handle(t, up)

	assert.Empty(t, h.samples.Load(context.Background(), testChatID))
	assert.Empty(t, h.bot.texts())
}

func TestUnknownCommandIsNotStored(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, textUpdate(userID, "/weather now"))

	got := h.samples.Load(context.Background(), testChatID)
	assert.Empty(t, got)
	assert.Empty(t, h.bot.texts())
}

func TestSettingsMenuAndToggle(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, textUpdate(userID, "/settings"))

	msg, ok := h.bot.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, h.tr.T("settings_title"), msg.Text)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 5)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cbToggleAutoReply, *kb.InlineKeyboard[0][0].CallbackData)

	h.handle(t, callbackUpdate(userID, cbToggleAutoReply))

	edit, ok := h.bot.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 55, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, h.tr.T("btn_autoreply", h.tr.T("state_off")), edit.ReplyMarkup.InlineKeyboard[0][0].Text)
	assert.Equal(t, h.tr.T("ok"), h.bot.lastCallback().Text)

	s, err := h.facade.SettingsUC.Get(context.Background(), testChatID)
	require.NoError(t, err)
	assert.False(t, s.AutoReplyEnabled)
}

func TestChanceDialog(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, callbackUpdate(userID, cbChance))
	assert.Equal(t, []string{h.tr.T("prompt_chance")}, h.bot.texts())

	h.handle(t, textUpdate(userID, "abc"))
	assert.Equal(t, h.tr.T("need_number", 3), h.bot.texts()[1])

	h.handle(t, textUpdate(userID, "5"))
	texts := h.bot.texts()
	require.Len(t, texts, 4)
	assert.Equal(t, h.tr.T("done"), texts[2])
	assert.Equal(t, h.tr.T("settings_title"), texts[3])

	s, err := h.facade.SettingsUC.Get(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, 5, s.AutoReplyChanceN)

	got := h.samples.Load(context.Background(), testChatID)
	assert.Empty(t, got, "dialog answers are not corpus samples")
}

func TestRefreshCancelsDialog(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, callbackUpdate(userID, cbMaxLen))
	h.handle(t, callbackUpdate(userID, cbRefresh))
	h.handle(t, textUpdate(userID, "123"))

	s, err := h.facade.SettingsUC.Get(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, 80, s.MaxStoreTextLen)
}

func TestClearRequiresAdmin(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, textUpdate(userID, "/clear"))
	assert.Equal(t, []string{h.tr.T("not_admin")}, h.bot.texts())

	h.handle(t, textUpdate(adminID, "/clear"))
	assert.Equal(t, h.tr.T("clear_confirm"), h.bot.texts()[1])
}

func TestClearYesChecksAdmin(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	require.NoError(t, h.samples.Append(ctx, testChatID, "первая фраза тут"))

	h.handle(t, callbackUpdate(userID, cbClearYes))
	cb := h.bot.lastCallback()
	assert.True(t, cb.ShowAlert)
	assert.Equal(t, h.tr.T("need_admin_alert"), cb.Text)
	got := h.samples.Load(ctx, testChatID)
	assert.Len(t, got, 1)

	h.bot.memberFn = func(tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
		return tgbotapi.ChatMember{Status: "creator"}, nil
	}
	h.handle(t, callbackUpdate(userID, cbClearYes))
	assert.Contains(t, h.bot.texts(), h.tr.T("cleared"))
	got = h.samples.Load(ctx, testChatID)
	assert.Empty(t, got)
}

func TestGenCallbackWithTooFewSamples(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, callbackUpdate(userID, "gen:1"))

	cb := h.bot.lastCallback()
	assert.True(t, cb.ShowAlert)
	assert.Equal(t, h.tr.T("few_samples_alert"), cb.Text)
	assert.Empty(t, h.bot.texts())
}

func TestGenCallbackInvalidCodeWithUnknownDefault(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	s := model.DefaultChatSettings()
	s.DefaultGenSize = model.GenSize(9)
	require.NoError(t, h.settings.Save(ctx, testChatID, s))
	for _, line := range []string{"я иду домой", "ты идёшь домой", "я иду в школу", "мы идём в парк", "я иду в парк сегодня"} {
		require.NoError(t, h.samples.Append(ctx, testChatID, line))
	}

	h.handle(t, callbackUpdate(userID, "gen:x"))

	cb := h.bot.lastCallback()
	assert.False(t, cb.ShowAlert)
	assert.Equal(t, h.tr.T("generated"), cb.Text)
	assert.Len(t, h.bot.texts(), 1)
}

func TestDefSizeCallback(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(t, callbackUpdate(userID, "defsize:3"))

	s, err := h.facade.SettingsUC.Get(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, "large", s.DefaultGenSize.String())
	assert.Equal(t, h.tr.T("default_size_set", "large"), h.bot.lastCallback().Text)
}

func TestGreetOnlyOnJoin(t *testing.T) {
	h := newHarness(t, 0)
	join := func(oldStatus, newStatus string) tgbotapi.Update {
		return tgbotapi.Update{MyChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          tgbotapi.Chat{ID: testChatID},
			OldChatMember: tgbotapi.ChatMember{User: &tgbotapi.User{ID: testBotID}, Status: oldStatus},
			NewChatMember: tgbotapi.ChatMember{User: &tgbotapi.User{ID: testBotID}, Status: newStatus},
		}}
	}

	h.handle(t, join("left", "member"))
	h.handle(t, join("member", "administrator"))
	assert.Equal(t, []string{h.tr.T("meeting")}, h.bot.texts())
}

func TestCommandRateLimit(t *testing.T) {
	h := newHarness(t, 1)
	h.handle(t, textUpdate(userID, "/help"))
	h.handle(t, textUpdate(userID, "/help"))
	assert.Equal(t, []string{h.tr.T("help"), h.tr.T("rate_limited")}, h.bot.texts())

	// other users keep their own budget
	h.handle(t, textUpdate(adminID, "/help"))
	assert.Equal(t, h.tr.T("help"), h.bot.texts()[2])
}

func TestToMarkupSkipsEmptyRows(t *testing.T) {
	kb := toMarkup([][]adapter.InlineButton{
		{{Text: "a", Data: "x"}},
		{},
		{{Text: " ", Data: "y"}, {Text: "c"}},
	})
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "•", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "c", *kb.InlineKeyboard[1][1].CallbackData)
}

func TestStartPollingDispatchesToPool(t *testing.T) {
	h := newHarness(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.adapter.StartPolling(ctx) }()

	h.bot.updatesCh <- textUpdate(userID, "/help")
	require.Eventually(t, func() bool { return len(h.bot.texts()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
