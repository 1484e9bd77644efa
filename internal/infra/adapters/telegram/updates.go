package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-markov-bot/internal/application"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/infra/logging"
)

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Chat == nil {
		return nil
	}
	chatID := message.Chat.ID

	if len(message.NewChatMembers) > 0 {
		// the greeting itself is sent from the my_chat_member update
		for _, u := range message.NewChatMembers {
			if u.ID != r.selfID {
				continue
			}
			if _, err := r.facade.HandleSettings(ctx, chatID); err != nil {
				logging.With(ctx, r.log).Warn().Err(err).Msg("prepare chat failed")
			}
			break
		}
		return nil
	}
	if message.Text == "" {
		return nil
	}
	logging.With(ctx, r.log).Debug().Str("text", logging.Preview(message.Text, r.dev)).Msg("message received")

	if message.IsCommand() {
		handled, err := r.handleCommand(ctx, message)
		if handled {
			return err
		}
	}

	if strings.TrimSpace(message.Text) == application.KakTrigger {
		return r.SendMessage(ctx, chatID, r.facade.HandleKak(ctx, chatID))
	}

	// anonymous admins and channel posts have no sender and are neither stored nor
	// accepted as settings input
	if message.From == nil {
		return nil
	}
	key := model.DialogKey{ChatID: chatID, UserID: message.From.ID}
	res, err := r.facade.HandleMessage(ctx, key, message.Text)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("message handling failed")
		return err
	}
	for _, reply := range res.Replies {
		if err := r.SendMessage(ctx, chatID, reply); err != nil {
			return err
		}
	}
	if res.Menu != nil {
		return r.SendButtons(ctx, chatID, r.translator.T("settings_title"), settingsRows(*res.Menu, r.translator))
	}
	return nil
}

// handleMyChatMember greets a chat when the bot becomes a member of it.
// Status changes between member kinds (member to administrator) are not joins.
func (r *RealTelegramBotAdapter) handleMyChatMember(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) error {
	if upd.NewChatMember.User == nil || upd.NewChatMember.User.ID != r.selfID {
		return nil
	}
	if !isPresent(upd.NewChatMember.Status) || isPresent(upd.OldChatMember.Status) {
		return nil
	}
	chatID := upd.Chat.ID
	text, err := r.facade.HandleJoin(ctx, chatID)
	if err != nil {
		return err
	}
	if err := r.SendMessage(ctx, chatID, text); err != nil {
		// the bot may lack the right to write yet
		logging.With(ctx, r.log).Warn().Err(err).Msg("greeting not delivered")
	}
	return nil
}

func isPresent(status string) bool {
	switch status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}
