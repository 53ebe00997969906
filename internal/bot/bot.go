package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/chat-digest-bot/internal/core/ports"
)

// Config holds the Telegram settings of the bot.
type Config struct {
	Token string
	// UpdateTimeout is the long polling timeout in seconds.
	UpdateTimeout int
}

type Bot struct {
	archive  Archive
	registry ScheduleSetter
	queue    JobQueue
	api      telegramAPI
	logger   *zerolog.Logger
	now      func() time.Time
	commands *commandRegistry

	updateTimeout int
}

func New(cfg Config, archive Archive, registry ScheduleSetter, queue JobQueue, logger *zerolog.Logger) (*Bot, error) {
	updateTimeout := defaultUpdateTimeout
	if cfg.UpdateTimeout > 0 {
		updateTimeout = cfg.UpdateTimeout
	}

	client := &http.Client{Timeout: httpClientTimeout(updateTimeout)}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf(errFmtCreateAPI, err)
	}

	logger.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	b := newBot(api, archive, registry, queue, logger)
	b.updateTimeout = updateTimeout

	return b, nil
}

// httpClientTimeout bounds every Bot API request. Long polls are held open by
// Telegram for up to updateTimeout seconds.
func httpClientTimeout(updateTimeout int) time.Duration {
	return time.Duration(updateTimeout)*time.Second + httpTimeoutMargin
}

func newBot(api telegramAPI, archive Archive, registry ScheduleSetter, queue JobQueue, logger *zerolog.Logger) *Bot {
	b := &Bot{
		archive:  archive,
		registry: registry,
		queue:    queue,
		api:      api,
		logger:   logger,
		now:      time.Now,

		updateTimeout: defaultUpdateTimeout,
	}
	b.commands = b.newCommandRegistry()

	return b
}

// Run consumes updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.updateTimeout
	u.AllowedUpdates = []string{updateMessage, updateMyChatMember}

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf(errFmtRunCanceled, ctx.Err())
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			b.handleUpdate(ctx, update)
		}
	}
}

// SendText delivers text to a chat. Markdown Telegram cannot parse is resent as plain text.
// The call returns once ctx is done even if the request is still in flight.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string, mode ports.FormatMode) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	if mode == ports.FormatMarkdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	err := b.sendContext(ctx, msg)
	if err != nil && msg.ParseMode != "" && isParseError(err) {
		b.logger.Warn().Err(err).Int64(LogFieldChatID, chatID).Msg("markdown rejected, resending as plain text")

		msg.ParseMode = ""
		err = b.sendContext(ctx, msg)
	}

	if err != nil {
		return fmt.Errorf(errFmtSendMessage, chatID, err)
	}

	return nil
}

// sendContext sends c and stops waiting when ctx is done. The request itself
// is bounded by the HTTP client timeout.
func (b *Bot) sendContext(ctx context.Context, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)

	go func() {
		_, err := b.api.Send(c)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	b.send(tgbotapi.NewMessage(msg.Chat.ID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error().Err(err).Msg("failed to send reply")
	}
}

func isParseError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	return strings.HasPrefix(apiErr.Message, markdownParseErrorPrefix)
}
