package rules

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk rule configuration.
type File struct {
	NameRegexes    []string `yaml:"name_regexes"`
	MessageRegexes []string `yaml:"message_regexes"`
	Tests          Samples  `yaml:"tests"`
}

// Samples are known-bad names and messages shipped with a rule file. Every
// sample is expected to be caught by some rule.
type Samples struct {
	Usernames []string `yaml:"usernames"`
	Messages  []string `yaml:"messages"`
}

// Miss is a sample that no rule matched.
type Miss struct {
	List   string
	Sample string
}

// Load decodes a YAML rule file and compiles it.
func Load(r io.Reader) (*Set, Samples, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Samples{}, fmt.Errorf("decode rules: empty file")
		}
		return nil, Samples{}, fmt.Errorf("decode rules: %w", err)
	}

	set, err := NewSet(f.NameRegexes, f.MessageRegexes)
	if err != nil {
		return nil, Samples{}, err
	}
	return set, f.Tests, nil
}

// LoadFile reads and compiles the rule file at path.
func LoadFile(path string) (*Set, Samples, error) {
	fh, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, Samples{}, fmt.Errorf("open rules: %w", err)
	}
	defer func() { _ = fh.Close() }()

	set, samples, err := Load(fh)
	if err != nil {
		return nil, Samples{}, fmt.Errorf("%s: %w", path, err)
	}
	return set, samples, nil
}

// Verify returns every sample the set would let through, checking each one
// the way the moderator does: direct match first, then the normalized form.
func (s *Set) Verify(samples Samples) []Miss {
	var misses []Miss
	check := func(g *Group, texts []string) {
		for _, t := range texts {
			if _, ok := g.Match(t); ok {
				continue
			}
			if _, ok := g.MatchObfuscated(t); ok {
				continue
			}
			misses = append(misses, Miss{List: g.Name, Sample: t})
		}
	}
	check(s.Identity, samples.Usernames)
	check(s.Content, samples.Messages)
	return misses
}
