package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aufseher/internal/logging"
	"aufseher/internal/metrics"
	"aufseher/internal/model"
)

// Outcome is the terminal state of an enforcement run.
type Outcome string

// Enforcement outcomes.
const (
	OutcomeEnforced  Outcome = "enforced"
	OutcomeExempt    Outcome = "exempt"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

type memberKey struct {
	chatID int64
	userID int64
}

type messageKey struct {
	chatID    int64
	messageID int
}

// Scope records what enforcement already did while handling one event, so
// overlapping verdicts of that event neither repeat a ban nor delete the same
// message twice. A Scope belongs to a single event and is not safe for
// concurrent use.
type Scope struct {
	members  map[memberKey]bool
	messages map[messageKey]bool
}

// NewScope returns an empty Scope.
func NewScope() *Scope {
	return &Scope{
		members:  make(map[memberKey]bool),
		messages: make(map[messageKey]bool),
	}
}

// Executor runs the exemption check and the delete, ban, notify sequence.
type Executor struct {
	transport Transport
	journal   Journal
	log       *slog.Logger
	timeout   time.Duration
}

// NewExecutor creates an Executor. journal may be nil. Each transport call is
// bounded by timeout.
func NewExecutor(transport Transport, journal Journal, log *slog.Logger, timeout time.Duration) *Executor {
	return &Executor{
		transport: transport,
		journal:   journal,
		log:       log,
		timeout:   timeout,
	}
}

// Enforce acts on a verdict against t.User in t.Chat. Owners and
// administrators are never acted on. With a non-nil t.Scope, a member already
// enforced against in that scope is skipped and a message already deleted in
// it is not deleted again. Nothing is remembered across scopes.
//
// A failed delete does not stop the ban. A failed ban stops the run before
// the notice. The returned error joins every step failure.
func (e *Executor) Enforce(ctx context.Context, t Target) (Outcome, error) {
	log := logging.From(ctx, e.log).With(
		"user_name", t.User.FullName(),
		"user_id", t.User.ID,
		"chat_title", t.Chat.DisplayTitle(),
		"chat_id", t.Chat.ID,
	)

	member := memberKey{chatID: t.Chat.ID, userID: t.User.ID}
	if t.Scope != nil && t.Scope.members[member] {
		log.Debug("member already enforced against, skipping")
		metrics.EnforcementSteps.WithLabelValues("start", "duplicate").Inc()
		return OutcomeDuplicate, nil
	}

	var role model.Role
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		role, err = e.transport.MemberRole(ctx, t.Chat.ID, t.User.ID)
		return err
	})
	metrics.Step("check_exemption", err)
	if err != nil {
		log.Error("get member role", "error", err)
		return OutcomeFailed, fmt.Errorf("get member role: %w", err)
	}
	if role.Privileged() {
		log.Warn("user is an admin or owner, skipping ban", "role", role)
		metrics.EnforcementSteps.WithLabelValues("check_exemption", "exempt").Inc()
		return OutcomeExempt, nil
	}

	action := &model.Action{
		ChatID:     t.Chat.ID,
		ChatTitle:  t.Chat.Title,
		UserID:     t.User.ID,
		UserName:   t.User.FullName(),
		MessageID:  t.MessageID,
		Surface:    t.Verdict.Surface.Kind,
		Source:     t.Verdict.Source,
		Rule:       t.Verdict.RuleSource(),
		Normalized: t.Verdict.Normalized,
	}
	var errs []error
	if t.Scope != nil {
		t.Scope.members[member] = true
	}

	message := messageKey{chatID: t.Chat.ID, messageID: t.MessageID}
	switch {
	case t.MessageID == 0:
	case t.Scope != nil && t.Scope.messages[message]:
		log.Debug("message already deleted", "message_id", t.MessageID)
	default:
		if t.Scope != nil {
			t.Scope.messages[message] = true
		}
		err = e.call(ctx, func(ctx context.Context) error {
			return e.transport.DeleteMessage(ctx, t.Chat.ID, t.MessageID)
		})
		metrics.Step("delete", err)
		if err != nil {
			log.Error("delete message", "message_id", t.MessageID, "error", err)
			errs = append(errs, fmt.Errorf("delete message %d: %w", t.MessageID, err))
		} else {
			action.Deleted = true
		}
	}

	err = e.call(ctx, func(ctx context.Context) error {
		return e.transport.BanMember(ctx, t.Chat.ID, t.User.ID, true)
	})
	metrics.Step("ban", err)
	if err != nil {
		log.Error("ban member", "error", err)
		errs = append(errs, fmt.Errorf("ban member: %w", err))
		e.record(ctx, log, action, errs)
		return OutcomeFailed, errors.Join(errs...)
	}
	action.Banned = true
	log.Warn("user has been banned", "surface", t.Verdict.Surface.Kind, "rule", t.Verdict.RuleSource())

	err = e.call(ctx, func(ctx context.Context) error {
		return e.transport.SendMessage(ctx, t.Chat.ID, BanNotice(t.User), tgbotapi.ModeMarkdownV2)
	})
	metrics.Step("notify", err)
	if err != nil {
		log.Error("send ban notice", "error", err)
		errs = append(errs, fmt.Errorf("send ban notice: %w", err))
	} else {
		action.Notified = true
	}

	e.record(ctx, log, action, errs)
	return OutcomeEnforced, errors.Join(errs...)
}

// BanNotice formats the public MarkdownV2 notice naming the removed user.
func BanNotice(u model.User) string {
	name := tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, strings.ReplaceAll(u.FullName(), `\`, `\\`))
	return fmt.Sprintf("User [%s \\(%d\\)](tg://user?id=%d) has been banned\\.", name, u.ID, u.ID)
}

func (e *Executor) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return fn(ctx)
}

func (e *Executor) record(ctx context.Context, log *slog.Logger, a *model.Action, errs []error) {
	if e.journal == nil {
		return
	}
	if len(errs) > 0 {
		a.Error = errors.Join(errs...).Error()
	}
	err := e.call(ctx, func(ctx context.Context) error {
		return e.journal.RecordAction(ctx, a)
	})
	if err != nil {
		log.Error("record action", "error", err)
	}
}
