package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestRulePath(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "flag wins", flag: "a.yaml", env: "b.yaml", want: "a.yaml"},
		{name: "env", env: "b.yaml", want: "b.yaml"},
		{name: "default", want: "configs/aufseher.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rulePath(tt.flag, tt.env); got != tt.want {
				t.Errorf("rulePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunCheck(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	write := func(name, body string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "shipped config", path: "../../configs/aufseher.yaml", want: 0},
		{name: "missing file", path: filepath.Join(dir, "nope.yaml"), want: 1},
		{
			name: "malformed pattern",
			path: write("bad.yaml", "name_regexes: ['(unclosed']\nmessage_regexes: []\n"),
			want: 1,
		},
		{
			name: "sample not caught",
			path: write("miss.yaml", "name_regexes: ['spam']\nmessage_regexes: []\ntests:\n  usernames: ['ham']\n"),
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runCheck(tt.path, log); got != tt.want {
				t.Errorf("runCheck() = %d, want %d", got, tt.want)
			}
		})
	}
}
