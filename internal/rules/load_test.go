package rules

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		yaml         string
		wantIdentity int
		wantContent  int
		wantSamples  Samples
		wantErr      string
	}{
		{
			name: "both lists",
			yaml: `
name_regexes: ["(?i)crypto", "spam"]
message_regexes: ["buy now"]
`,
			wantIdentity: 2,
			wantContent:  1,
		},
		{
			name: "with samples",
			yaml: `
name_regexes: ["x"]
message_regexes: []
tests:
  usernames: ["x1"]
  messages: ["m1", "m2"]
`,
			wantIdentity: 1,
			wantSamples:  Samples{Usernames: []string{"x1"}, Messages: []string{"m1", "m2"}},
		},
		{
			name:    "malformed pattern names list",
			yaml:    `message_regexes: ["(oops"]`,
			wantErr: ContentList,
		},
		{
			name:    "unknown key",
			yaml:    `spam_name_regexes: ["x"]`,
			wantErr: "spam_name_regexes",
		},
		{
			name:    "empty file",
			yaml:    "",
			wantErr: "empty file",
		},
		{
			name:    "not yaml",
			yaml:    "name_regexes: [unterminated",
			wantErr: "decode rules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, samples, err := Load(strings.NewReader(tt.yaml))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantIdentity, set.Identity.Len()); diff != "" {
				t.Errorf("identity count (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantContent, set.Content.Len()); diff != "" {
				t.Errorf("content count (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSamples, samples); diff != "" {
				t.Errorf("samples (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, _, err := LoadFile("does/not/exist.yaml"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestVerify(t *testing.T) {
	set, err := NewSet([]string{"(?i)cryptopromo"}, []string{"(?i)buy now"})
	if err != nil {
		t.Fatalf("new set: %v", err)
	}

	misses := set.Verify(Samples{
		Usernames: []string{"Crypto\u200bPromo", "Alice"},
		Messages:  []string{"BUY NOW", "hello"},
	})

	want := []Miss{
		{List: IdentityList, Sample: "Alice"},
		{List: ContentList, Sample: "hello"},
	}
	if diff := cmp.Diff(want, misses); diff != "" {
		t.Errorf("misses (-want +got):\n%s", diff)
	}
}

func TestShippedConfigCatchesItsSamples(t *testing.T) {
	set, samples, err := LoadFile("../../configs/aufseher.yaml")
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if len(samples.Usernames) == 0 || len(samples.Messages) == 0 {
		t.Fatal("shipped config has no samples")
	}
	for _, m := range set.Verify(samples) {
		t.Errorf("%s: sample %q not matched by any rule", m.List, m.Sample)
	}
}
