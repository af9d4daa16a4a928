package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"aufseher/internal/model"
	"aufseher/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type mockPruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (m *mockPruner) PruneActions(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, before)
	return 0, m.err
}

func (m *mockPruner) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

func TestSchedulerPrunesExpiredActions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := range 2 {
		a := &model.Action{ChatID: 1, UserID: int64(i), Surface: model.SurfaceDisplayName, Source: model.SourceRule}
		if err := store.RecordAction(ctx, a); err != nil {
			t.Fatalf("record action: %v", err)
		}
	}

	s := New(store, 24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.prune(ctx)
	left, err := store.ListActions(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if diff := cmp.Diff(2, len(left)); diff != "" {
		t.Errorf("fresh actions pruned (-want +got):\n%s", diff)
	}

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	s.prune(ctx)
	left, err = store.ListActions(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if diff := cmp.Diff(0, len(left)); diff != "" {
		t.Errorf("expired actions kept (-want +got):\n%s", diff)
	}
}

func TestSchedulerCutoff(t *testing.T) {
	p := &mockPruner{}
	s := New(p, 720*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.prune(context.Background())

	want := []time.Time{time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC)}
	if diff := cmp.Diff(want, p.cutoffs); diff != "" {
		t.Errorf("cutoffs mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedulerLogsPruneError(t *testing.T) {
	var buf bytes.Buffer
	p := &mockPruner{err: errors.New("database is locked")}
	s := New(p, time.Hour, slog.New(slog.NewTextHandler(&buf, nil)))

	s.prune(context.Background())

	if !strings.Contains(buf.String(), "database is locked") {
		t.Errorf("error not logged, output:\n%s", buf.String())
	}
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	p := &mockPruner{}
	s := New(p, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetTickInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for p.calls() < 2 {
		select {
		case <-deadline:
			t.Fatalf("pruned %d times, want at least 2", p.calls())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
