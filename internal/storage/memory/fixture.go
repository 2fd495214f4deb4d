package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk seed format for a Store, in YAML or JSON.
type Fixture struct {
	Profiles    []matching.Profile     `yaml:"profiles" json:"profiles"`
	Preferences []matching.Preferences `yaml:"preferences" json:"preferences"`
	// Responses maps a prompt key to the users who answered it.
	Responses map[string][]string `yaml:"responses" json:"responses"`
	Blocks    []FixtureBlock      `yaml:"blocks" json:"blocks"`
	Matches   []FixtureMatch      `yaml:"matches" json:"matches"`
}

type FixtureBlock struct {
	Blocker string `yaml:"blocker" json:"blocker"`
	Blocked string `yaml:"blocked" json:"blocked"`
}

// FixtureMatch seeds a match record, typically history from an earlier prompt.
type FixtureMatch struct {
	UserID    string   `yaml:"user_id" json:"user_id"`
	PromptKey string   `yaml:"prompt_key" json:"prompt_key"`
	Matches   []string `yaml:"matches" json:"matches"`
	Revealed  []bool   `yaml:"revealed" json:"revealed"`
}

// LoadFixture reads a fixture file. Files ending in .json are parsed as JSON, anything else as YAML.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	var f Fixture
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &f)
	} else {
		err = yaml.Unmarshal(raw, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	for i, p := range f.Profiles {
		if p.UserID == "" {
			return fmt.Errorf("profile %d has no user_id", i)
		}
	}
	for i, p := range f.Preferences {
		if p.UserID == "" {
			return fmt.Errorf("preferences %d have no user_id", i)
		}
	}
	for i, m := range f.Matches {
		if m.UserID == "" || m.PromptKey == "" {
			return fmt.Errorf("match %d needs user_id and prompt_key", i)
		}
		if len(m.Matches) > matching.MaxMatches {
			return fmt.Errorf("match %d has %d partners, at most %d allowed", i, len(m.Matches), matching.MaxMatches)
		}
	}
	return nil
}

// Apply copies the fixture into s.
func (f *Fixture) Apply(s *Store) {
	for _, p := range f.Profiles {
		s.PutProfile(p)
	}
	for _, p := range f.Preferences {
		s.PutPreferences(p)
	}
	for prompt, ids := range f.Responses {
		for _, id := range ids {
			s.AddResponse(prompt, id)
		}
	}
	for _, b := range f.Blocks {
		s.Block(b.Blocker, b.Blocked)
	}
	for _, m := range f.Matches {
		r := matching.NewMatchRecord(m.UserID, m.PromptKey, m.Matches)
		copy(r.Revealed, m.Revealed)
		s.PutMatchRecord(r)
	}
}

// NewStoreFromFixture loads path into a fresh Store.
func NewStoreFromFixture(path string) (*Store, error) {
	f, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	s := NewStore()
	f.Apply(s)
	return s, nil
}
