package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
)

// Archive stores incoming chat messages.
type Archive interface {
	Append(ctx context.Context, author domain.User, chat domain.Chat, plaintext string) (domain.MessageRef, error)
}

// ScheduleSetter updates subscriber schedules chosen from the /schedule menu.
type ScheduleSetter interface {
	SetSchedule(ctx context.Context, subscriberID, chatID int64, freq domain.Frequency, now time.Time) error
}

// JobQueue accepts on-demand digest jobs.
type JobQueue interface {
	Push(job domain.DigestJob) error
}

// telegramAPI is the subset of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}
