// Package rules implements the ordered pattern groups the moderator matches
// names and message text against.
package rules

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"aufseher/internal/normalize"
)

// MaxInputLen caps how many bytes of a text are handed to the regexp engine.
// Telegram messages are far shorter; anything longer is clipped.
const MaxInputLen = 16 << 10

// Names of the two rule lists in the configuration file.
const (
	IdentityList = "name_regexes"
	ContentList  = "message_regexes"
)

// Rule is a compiled pattern. It is never mutated after Compile.
type Rule struct {
	Index  int
	Source string
	re     *regexp.Regexp
}

// String returns the pattern as written in the configuration.
func (r *Rule) String() string {
	return r.Source
}

// Group is an ordered list of rules. Order is priority: the first rule that
// matches is the one reported.
type Group struct {
	Name  string
	Rules []*Rule
}

// Match is the first rule of a group that matched a text.
type Match struct {
	Index int
	Rule  *Rule
}

// Compile builds a group from patterns in declaration order. The error names
// the list and the offending pattern.
func Compile(name string, patterns []string) (*Group, error) {
	g := &Group{Name: name, Rules: make([]*Rule, 0, len(patterns))}
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] %q: %w", name, i, p, err)
		}
		g.Rules = append(g.Rules, &Rule{Index: i, Source: p, re: re})
	}
	return g, nil
}

// Len returns the number of rules in the group.
func (g *Group) Len() int {
	return len(g.Rules)
}

// Match returns the first rule, in declaration order, whose pattern matches
// text.
func (g *Group) Match(text string) (Match, bool) {
	text = clip(text)
	for _, r := range g.Rules {
		if r.re.MatchString(text) {
			return Match{Index: r.Index, Rule: r}, true
		}
	}
	return Match{}, false
}

// MatchObfuscated is Match applied to the normalized text. Callers use it
// only after Match found nothing.
func (g *Group) MatchObfuscated(text string) (Match, bool) {
	return g.Match(normalize.Text(clip(text)))
}

func clip(s string) string {
	if len(s) <= MaxInputLen {
		return s
	}
	i := MaxInputLen
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}

// Set holds the identity and content groups. It is built once and shared
// read-only by every evaluation.
type Set struct {
	Identity *Group
	Content  *Group
}

// NewSet compiles both rule lists. Any malformed pattern rejects the whole set.
func NewSet(identity, content []string) (*Set, error) {
	ig, err := Compile(IdentityList, identity)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	cg, err := Compile(ContentList, content)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	return &Set{Identity: ig, Content: cg}, nil
}
