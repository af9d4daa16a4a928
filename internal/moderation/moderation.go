// Package moderation evaluates chat events against the rule set and enforces
// the verdicts.
//
// Evaluation is CPU-only; every network call goes through the Transport and
// Classifier interfaces and is bounded by a timeout.
package moderation

import (
	"context"

	"aufseher/internal/model"
	"aufseher/internal/rules"
)

// Transport is the subset of the chat platform the moderator acts through.
type Transport interface {
	MemberRole(ctx context.Context, chatID, userID int64) (model.Role, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	BanMember(ctx context.Context, chatID, userID int64, revokeMessages bool) error
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
	Reply(ctx context.Context, chatID int64, messageID int, text string) (int, error)
}

// Classifier is an optional external spam signal.
type Classifier interface {
	IsSpam(ctx context.Context, text string) (bool, error)
}

// Journal records enforcement runs.
type Journal interface {
	RecordAction(ctx context.Context, a *model.Action) error
}

// Verdict is a positive outcome of evaluating one surface. Rule is nil when
// the classifier produced the verdict.
type Verdict struct {
	Surface    model.Surface
	Source     model.VerdictSource
	Rule       *rules.Rule
	Normalized bool
}

// RuleSource returns the matched pattern, or "" for classifier verdicts.
func (v Verdict) RuleSource() string {
	if v.Rule == nil {
		return ""
	}
	return v.Rule.Source
}

// Target is what an enforcement run acts on. Scope is shared by every
// enforcement of one event and may be nil.
type Target struct {
	Chat      model.Chat
	User      model.User
	MessageID int
	Verdict   Verdict
	Scope     *Scope
}
