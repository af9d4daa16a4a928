package moderation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"aufseher/internal/model"
	"aufseher/internal/rules"
)

const replyID = 99

type fakeTransport struct {
	mu    sync.Mutex
	calls []string
	sent  []string
	roles map[int64]model.Role

	roleErr   error
	deleteErr map[int]error
	banErr    error
	sendErr   error
	replyErr  error
}

func (f *fakeTransport) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeTransport) MemberRole(_ context.Context, chatID, userID int64) (model.Role, error) {
	f.record("role %d %d", chatID, userID)
	if f.roleErr != nil {
		return "", f.roleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.roles[userID]; ok {
		return r, nil
	}
	return model.RoleMember, nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.record("delete %d %d", chatID, messageID)
	return f.deleteErr[messageID]
}

func (f *fakeTransport) BanMember(_ context.Context, chatID, userID int64, revoke bool) error {
	f.record("ban %d %d revoke=%t", chatID, userID, revoke)
	return f.banErr
}

func (f *fakeTransport) SendMessage(_ context.Context, chatID int64, text, parseMode string) error {
	f.record("send %d %s", chatID, parseMode)
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()
	return f.sendErr
}

func (f *fakeTransport) Reply(_ context.Context, chatID int64, messageID int, text string) (int, error) {
	f.record("reply %d %d %s", chatID, messageID, text)
	if f.replyErr != nil {
		return 0, f.replyErr
	}
	return replyID, nil
}

func (f *fakeTransport) setRole(userID int64, r model.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roles == nil {
		f.roles = make(map[int64]model.Role)
	}
	f.roles[userID] = r
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.sent = nil
}

func (f *fakeTransport) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeJournal struct {
	mu      sync.Mutex
	actions []model.Action
	err     error
}

func (j *fakeJournal) RecordAction(_ context.Context, a *model.Action) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.actions = append(j.actions, *a)
	return nil
}

type fakeClassifier struct {
	mu    sync.Mutex
	spam  bool
	err   error
	texts []string
}

func (c *fakeClassifier) IsSpam(_ context.Context, text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return c.spam, c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func testRules(t *testing.T) *rules.Set {
	t.Helper()
	set, err := rules.NewSet(
		[]string{`(?i)cryptopromo`, `(?i)free\s*money`},
		[]string{`(?i)bit\.ly/`, `(?i)buy\s+followers`},
	)
	if err != nil {
		t.Fatalf("new rule set: %v", err)
	}
	return set
}

type harness struct {
	transport *fakeTransport
	journal   *fakeJournal
	moderator *Moderator
}

func newHarness(t *testing.T, log *slog.Logger) *harness {
	t.Helper()
	tr := &fakeTransport{}
	j := &fakeJournal{}
	pinger := NewPinger(tr, time.Second)
	pinger.delay = time.Millisecond
	m := New(testRules(t), NewExecutor(tr, j, log, time.Second), pinger, log)
	return &harness{transport: tr, journal: j, moderator: m}
}
