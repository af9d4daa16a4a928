// Package bot connects the moderator to the Telegram Bot API: it turns
// updates into events and implements the moderation transport.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"aufseher/internal/logging"
	"aufseher/internal/metrics"
	"aufseher/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, ev model.Event) error
}

// Bot receives updates by long polling and performs moderation actions.
type Bot struct {
	api     telegramAPI
	limiter *rate.Limiter
	log     *slog.Logger
	wg      sync.WaitGroup
}

// New creates a Bot with the given Telegram token. Outgoing requests are
// throttled to perSecond.
func New(token string, perSecond float64, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("authorized", "username", api.Self.UserName)
	return newBot(api, perSecond, log), nil
}

func newBot(api telegramAPI, perSecond float64, log *slog.Logger) *Bot {
	return &Bot{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond))),
		log:     log,
	}
}

// Run starts the long-polling loop and hands every update to h on its own
// goroutine. It blocks until ctx is cancelled and in-flight updates are done.
// In-flight updates keep running after cancellation; their calls are bounded
// by the moderator's timeouts.
func (b *Bot) Run(ctx context.Context, h Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "edited_message"}

	updates := b.api.GetUpdatesChan(u)
	work := context.WithoutCancel(ctx)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			ev := Extract(update)
			if ev.Kind == model.EventOther {
				continue
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.dispatch(work, h, ev)
			}()
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, h Handler, ev model.Event) {
	log := b.log.With("event_id", uuid.NewString())
	ctx = logging.WithLogger(ctx, log)
	kind := string(ev.Kind)

	start := time.Now()
	metrics.EventsTotal.WithLabelValues(kind).Inc()
	err := h.Handle(ctx, ev)
	metrics.EventDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EventErrors.WithLabelValues(kind).Inc()
		log.Error("handle event",
			"kind", kind,
			"chat_title", ev.Chat.DisplayTitle(),
			"chat_id", ev.Chat.ID,
			"message_id", ev.MessageID,
			"error", err,
		)
	}
}

// MemberRole returns the live status of userID in chatID.
func (b *Bot) MemberRole(ctx context.Context, chatID, userID int64) (model.Role, error) {
	var member tgbotapi.ChatMember
	err := b.do(ctx, func() error {
		var err error
		member, err = b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
		})
		return err
	})
	if err != nil {
		return "", err
	}
	switch {
	case member.IsCreator():
		return model.RoleOwner, nil
	case member.IsAdministrator():
		return model.RoleAdministrator, nil
	}
	return model.RoleMember, nil
}

// DeleteMessage deletes one message.
func (b *Bot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return b.do(ctx, func() error {
		_, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
		return err
	})
}

// BanMember bans userID from chatID, optionally removing all their messages.
func (b *Bot) BanMember(ctx context.Context, chatID, userID int64, revokeMessages bool) error {
	return b.do(ctx, func() error {
		_, err := b.api.Request(tgbotapi.BanChatMemberConfig{
			ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
			RevokeMessages:   revokeMessages,
		})
		return err
	})
}

// SendMessage posts text to chatID in the given parse mode.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	msg.DisableWebPagePreview = true
	return b.do(ctx, func() error {
		_, err := b.api.Send(msg)
		return err
	})
}

// Reply answers messageID with plain text and returns the new message's ID.
func (b *Bot) Reply(ctx context.Context, chatID int64, messageID int, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	var sent tgbotapi.Message
	err := b.do(ctx, func() error {
		var err error
		sent, err = b.api.Send(msg)
		return err
	})
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// do waits for the rate limiter, then runs call until it returns or ctx ends.
// The API client takes no context, so an abandoned call finishes in the
// background and its result is dropped.
func (b *Bot) do(ctx context.Context, call func() error) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- call() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
