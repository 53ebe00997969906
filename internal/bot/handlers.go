package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/platform/schedule"
)

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.MyChatMember != nil {
		b.handleMembership(update.MyChatMember)

		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)

		return
	}

	if msg.Text == "" {
		return
	}

	if freq, ok := schedule.ParseChoice(msg.Text); ok {
		b.handleScheduleChoice(ctx, msg, freq)

		return
	}

	b.handleText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	b.logger.Info().
		Str(LogFieldCommand, msg.Command()).
		Int64(LogFieldUserID, msg.From.ID).
		Int64(LogFieldChatID, msg.Chat.ID).
		Msg("Handling command")

	if b.commands.route(ctx, msg) {
		return
	}

	// Group chats carry commands addressed to other bots.
	if msg.Chat.IsPrivate() {
		b.reply(msg, ReplyUnknownCommand)
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	_, err := b.archive.Append(ctx, authorOf(msg.From), chatOf(msg.Chat), msg.Text)

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrTooLong):
		b.reply(msg, ReplyTooLong)
	default:
		b.logger.Error().Err(err).Int64(LogFieldChatID, msg.Chat.ID).Msg("failed to archive message")
	}
}

func (b *Bot) handleStart(_ context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}

	b.reply(msg, ReplyGreeting)
}

func (b *Bot) handleDigest(_ context.Context, msg *tgbotapi.Message) {
	job := domain.DigestJob{
		SubscriberID:  msg.From.ID,
		ChatID:        msg.Chat.ID,
		Kind:          domain.JobOnDemand,
		CorrelationID: uuid.NewString(),
		CreatedAt:     b.now().UTC(),
	}

	if err := b.queue.Push(job); err != nil {
		b.logger.Warn().Err(err).Str(LogFieldCorrelationID, job.CorrelationID).Msg("on-demand digest rejected")
		b.reply(msg, ReplyDigestUnavailable)

		return
	}

	b.logger.Info().
		Str(LogFieldCorrelationID, job.CorrelationID).
		Int64(LogFieldChatID, job.ChatID).
		Msg("on-demand digest queued")
	b.reply(msg, ReplyDigestQueued)
}

func (b *Bot) handleScheduleMenu(_ context.Context, msg *tgbotapi.Message) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, ReplyScheduleMenu)
	reply.ReplyMarkup = scheduleKeyboard()

	b.send(reply)
}

func (b *Bot) handleScheduleChoice(ctx context.Context, msg *tgbotapi.Message, freq domain.Frequency) {
	if err := b.registry.SetSchedule(ctx, msg.From.ID, msg.Chat.ID, freq, b.now().UTC()); err != nil {
		b.logger.Error().Err(err).
			Int64(LogFieldUserID, msg.From.ID).
			Str(LogFieldFrequency, string(freq)).
			Msg("failed to set schedule")
		b.reply(msg, ReplyScheduleFailed)

		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(ReplyScheduleSetFmt, schedule.Label(freq)))
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)

	b.send(reply)
}

func (b *Bot) handleMembership(update *tgbotapi.ChatMemberUpdated) {
	oldStatus := update.OldChatMember.Status
	newStatus := update.NewChatMember.Status

	b.logger.Info().
		Int64(LogFieldChatID, update.Chat.ID).
		Str(LogFieldOldStatus, oldStatus).
		Str(LogFieldNewStatus, newStatus).
		Msg("membership changed")

	if !joined(oldStatus, newStatus) {
		return
	}

	b.send(tgbotapi.NewMessage(update.Chat.ID, ReplyAddedToChat))
}

// joined reports a transition from outside the chat into it.
func joined(oldStatus, newStatus string) bool {
	wasOut := oldStatus == memberStatusLeft || oldStatus == memberStatusKicked
	isIn := newStatus == memberStatusMember || newStatus == memberStatusAdministrator

	return wasOut && isIn
}

func scheduleKeyboard() tgbotapi.ReplyKeyboardMarkup {
	choices := schedule.Choices()
	rows := make([][]tgbotapi.KeyboardButton, 0, len(choices))

	for _, labels := range choices {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}

		rows = append(rows, row)
	}

	return tgbotapi.NewOneTimeReplyKeyboard(rows...)
}

func authorOf(u *tgbotapi.User) domain.User {
	return domain.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}

func chatOf(c *tgbotapi.Chat) domain.Chat {
	return domain.Chat{ID: c.ID, Title: c.Title}
}
