package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"aufseher/internal/model"
)

func TestWriteActions(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeActions(&buf, nil); err != nil {
			t.Fatalf("writeActions: %v", err)
		}
		if !strings.Contains(buf.String(), "No enforcement actions") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("rows", func(t *testing.T) {
		actions := []model.Action{
			{
				ChatID: -100, ChatTitle: "Group", UserID: 42, UserName: "Crypto Promo",
				Surface: model.SurfaceDisplayName, Source: model.SourceRule, Rule: "(?i)crypto",
				Normalized: true, Deleted: true, Banned: true, Notified: true,
				CreatedAt: time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC),
			},
			{
				ChatID: -200, UserID: 7, UserName: "Bob",
				Surface: model.SurfaceMessageBody, Source: model.SourceClassifier,
				Error:     "ban member: Bad Request: not enough rights",
				CreatedAt: time.Date(2025, 1, 2, 3, 5, 0, 0, time.UTC),
			},
		}
		var buf bytes.Buffer
		if err := writeActions(&buf, actions); err != nil {
			t.Fatalf("writeActions: %v", err)
		}
		out := buf.String()
		for _, want := range []string{
			"2025-01-02 03:04",
			"Group (-100)",
			"Crypto Promo (42)",
			"(?i)crypto (normalized)",
			"deleted,banned,notified",
			"None (-200)",
			"classifier",
			"not enough rights",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})
}
