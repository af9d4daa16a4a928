package moderation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aufseher/internal/logging"
	"aufseher/internal/metrics"
	"aufseher/internal/model"
	"aufseher/internal/rules"
)

// DefaultClassifierTimeout bounds a classifier call when none is configured.
const DefaultClassifierTimeout = 15 * time.Second

// Moderator runs the evaluation pipeline for one event at a time. It holds no
// per-event state and is safe for concurrent use.
type Moderator struct {
	rules    *rules.Set
	executor *Executor
	pinger   *Pinger
	log      *slog.Logger

	classifier        Classifier
	classifierTimeout time.Duration
}

// New creates a Moderator. pinger may be nil to disable the self-test.
func New(set *rules.Set, executor *Executor, pinger *Pinger, log *slog.Logger) *Moderator {
	return &Moderator{
		rules:             set,
		executor:          executor,
		pinger:            pinger,
		log:               log,
		classifierTimeout: DefaultClassifierTimeout,
	}
}

// SetClassifier enables the external classifier. Call before Handle is used.
func (m *Moderator) SetClassifier(c Classifier, timeout time.Duration) {
	m.classifier = c
	if timeout > 0 {
		m.classifierTimeout = timeout
	}
}

// Handle evaluates one event and enforces every positive verdict. The
// returned error joins the failures of every enforcement attempted.
func (m *Moderator) Handle(ctx context.Context, ev model.Event) error {
	scope := NewScope()
	switch ev.Kind {
	case model.EventMemberJoined:
		return m.handleJoin(ctx, scope, ev)
	case model.EventNewMessage, model.EventEditedMessage:
		return m.handleMessage(ctx, scope, ev)
	}
	return nil
}

func (m *Moderator) handleJoin(ctx context.Context, scope *Scope, ev model.Event) error {
	log := logging.From(ctx, m.log)
	var errs []error
	for _, member := range ev.NewMembers {
		log.Info("new member joined",
			"user_name", member.FullName(),
			"user_id", member.ID,
			"chat_title", ev.Chat.DisplayTitle(),
			"chat_id", ev.Chat.ID,
		)
		s := model.Surface{Kind: model.SurfaceDisplayName, Text: member.FullName()}
		if v, ok := m.match(log, m.rules.Identity, s); ok {
			errs = append(errs, m.enforce(ctx, scope, ev, member, v))
		}
	}
	return errors.Join(errs...)
}

func (m *Moderator) handleMessage(ctx context.Context, scope *Scope, ev model.Event) error {
	if ev.Sender == nil {
		return nil
	}
	sender := *ev.Sender
	log := logging.From(ctx, m.log).With("user_id", sender.ID, "chat_id", ev.Chat.ID)

	var errs []error

	// The self-test command is never content to moderate.
	ping := ev.Kind == model.EventNewMessage && ev.IsCommand(PingCommand)

	content, hasContent := contentSurface(ev)
	if ping {
		hasContent = false
	} else if !hasContent && ev.Media.HasText() {
		log.Info("unsupported message, no text or caption", "media", ev.Media)
	}

	contentMatched := false
	if hasContent {
		log.Debug("message received", "kind", ev.Kind, "surface", content.Kind, "text", content.Text)
		if v, ok := m.evaluateContent(log, ev, content); ok {
			contentMatched = true
			errs = append(errs, m.enforce(ctx, scope, ev, sender, v))
		}
	}

	for _, s := range identitySurfaces(ev, sender) {
		if v, ok := m.match(log, m.rules.Identity, s); ok {
			errs = append(errs, m.enforce(ctx, scope, ev, sender, v))
			break
		}
	}

	if hasContent && !contentMatched && m.classifier != nil {
		if v, ok := m.classify(ctx, log, content); ok {
			errs = append(errs, m.enforce(ctx, scope, ev, sender, v))
		}
	}

	if ping && m.pinger != nil {
		if err := m.pinger.Ping(ctx, ev.Chat.ID, ev.MessageID); err != nil {
			log.Error("answer ping", "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// evaluateContent checks the body or caption, then the targets of embedded
// links.
func (m *Moderator) evaluateContent(log *slog.Logger, ev model.Event, content model.Surface) (Verdict, bool) {
	if v, ok := m.match(log, m.rules.Content, content); ok {
		return v, true
	}
	for _, ent := range ev.Entities {
		if ent.Type != model.EntityTextLink || ent.URL == "" {
			continue
		}
		s := model.Surface{Kind: model.SurfaceLinkTarget, Text: ent.URL}
		if v, ok := m.match(log, m.rules.Content, s); ok {
			return v, true
		}
	}
	return Verdict{}, false
}

// match tests s directly and falls back to the normalized text only when the
// direct test found nothing.
func (m *Moderator) match(log *slog.Logger, g *rules.Group, s model.Surface) (Verdict, bool) {
	res, ok := g.Match(s.Text)
	normalized := false
	if !ok {
		res, ok = g.MatchObfuscated(s.Text)
		normalized = true
	}
	if !ok {
		return Verdict{}, false
	}
	log.Info("rule matched",
		"surface", s.Kind,
		"list", g.Name,
		"rule", res.Rule.Source,
		"normalized", normalized,
		"text", s.Text,
	)
	metrics.Verdict(string(s.Kind), string(model.SourceRule), normalized)
	return Verdict{Surface: s, Source: model.SourceRule, Rule: res.Rule, Normalized: normalized}, true
}

// classify fails open: an error or timeout is logged and yields no verdict.
func (m *Moderator) classify(ctx context.Context, log *slog.Logger, s model.Surface) (Verdict, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.classifierTimeout)
	defer cancel()

	spam, err := m.classifier.IsSpam(ctx, s.Text)
	if err != nil {
		log.Error("classify message", "error", err)
		return Verdict{}, false
	}
	if !spam {
		log.Info("classifier found no spam")
		return Verdict{}, false
	}
	log.Info("classifier flagged message", "surface", s.Kind)
	metrics.Verdict(string(s.Kind), string(model.SourceClassifier), false)
	return Verdict{Surface: s, Source: model.SourceClassifier}, true
}

func (m *Moderator) enforce(ctx context.Context, scope *Scope, ev model.Event, user model.User, v Verdict) error {
	_, err := m.executor.Enforce(ctx, Target{
		Chat:      ev.Chat,
		User:      user,
		MessageID: ev.MessageID,
		Verdict:   v,
		Scope:     scope,
	})
	return err
}

// contentSurface returns the body, else the caption.
func contentSurface(ev model.Event) (model.Surface, bool) {
	switch {
	case ev.Text != "":
		return model.Surface{Kind: model.SurfaceMessageBody, Text: ev.Text}, true
	case ev.Caption != "":
		return model.Surface{Kind: model.SurfaceCaption, Text: ev.Caption}, true
	}
	return model.Surface{}, false
}

// identitySurfaces lists the sender's name and, for forwarded messages, the
// names the forward carries. Forwarded names are still enforced against the
// local sender.
func identitySurfaces(ev model.Event, sender model.User) []model.Surface {
	out := []model.Surface{{Kind: model.SurfaceDisplayName, Text: sender.FullName()}}
	f := ev.Forward
	if f == nil {
		return out
	}
	if f.FromUser != nil {
		out = append(out, model.Surface{Kind: model.SurfaceForwarderName, Text: f.FromUser.FullName()})
	}
	if f.SenderName != "" {
		out = append(out, model.Surface{Kind: model.SurfaceForwarderName, Text: f.SenderName})
	}
	if f.FromChat != nil && f.FromChat.Title != "" {
		out = append(out, model.Surface{Kind: model.SurfaceForwardedChatTitle, Text: f.FromChat.Title})
	}
	return out
}
