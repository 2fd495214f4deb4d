// Package memory is an in-process implementation of the matching repository, used by tests, the
// CLI's fixture mode and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
)

type recordKey struct {
	owner     string
	promptKey string
}

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	profiles  map[string]*matching.Profile
	prefs     map[string]*matching.Preferences
	responses map[string]matching.KeySet
	blocks    map[string]matching.KeySet
	records   map[recordKey]*matching.MatchRecord
}

var _ matching.Repository = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		now:       time.Now,
		profiles:  make(map[string]*matching.Profile),
		prefs:     make(map[string]*matching.Preferences),
		responses: make(map[string]matching.KeySet),
		blocks:    make(map[string]matching.KeySet),
		records:   make(map[recordKey]*matching.MatchRecord),
	}
}

// SetClock replaces the timestamp source for records.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) PutProfile(p matching.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = &p
}

func (s *Store) PutPreferences(p matching.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[p.UserID] = &p
}

// AddResponse records that userID answered promptKey.
func (s *Store) AddResponse(promptKey, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.responses[promptKey]
	if !ok {
		set = make(matching.KeySet)
		s.responses[promptKey] = set
	}
	set.Add(userID)
}

// Block stores a one-directional block. Reads expand it both ways.
func (s *Store) Block(blocker, blocked string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.blocks[blocker]
	if !ok {
		set = make(matching.KeySet)
		s.blocks[blocker] = set
	}
	set.Add(blocked)
}

// PutMatchRecord stores r as-is, e.g. to seed history from earlier prompts.
func (s *Store) PutMatchRecord(r *matching.MatchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey{r.UserID, r.PromptKey}] = cloneRecord(r)
}

func (s *Store) ListRespondents(ctx context.Context, promptKey string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.responses[promptKey]))
	for id := range s.responses[promptKey] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) LoadProfilesAndPreferences(ctx context.Context, ids []string) (map[string]matching.UserData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]matching.UserData, len(ids))
	for _, id := range ids {
		var data matching.UserData
		if p, ok := s.profiles[id]; ok {
			cp := *p
			data.Profile = &cp
		}
		if p, ok := s.prefs[id]; ok {
			cp := *p
			data.Preferences = &cp
		}
		out[id] = data
	}
	return out, nil
}

func (s *Store) LoadHistory(ctx context.Context, ids []string, excludePromptKey string) (map[string]matching.KeySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := matching.NewKeySet(ids...)
	out := make(map[string]matching.KeySet, len(ids))
	for key, r := range s.records {
		if key.promptKey == excludePromptKey || !wanted.Has(key.owner) {
			continue
		}
		set, ok := out[key.owner]
		if !ok {
			set = make(matching.KeySet)
			out[key.owner] = set
		}
		for _, partner := range r.Matches {
			set.Add(partner)
		}
	}
	return out, nil
}

func (s *Store) LoadBlocks(ctx context.Context, ids []string) (map[string]matching.KeySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := matching.NewKeySet(ids...)
	out := make(map[string]matching.KeySet)
	add := func(owner, other string) {
		if !wanted.Has(owner) {
			return
		}
		set, ok := out[owner]
		if !ok {
			set = make(matching.KeySet)
			out[owner] = set
		}
		set.Add(other)
	}
	for blocker, blocked := range s.blocks {
		for id := range blocked {
			add(blocker, id)
			add(id, blocker)
		}
	}
	return out, nil
}

func (s *Store) WriteMatchRecord(ctx context.Context, owner, promptKey string, partners []string, mode matching.WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := recordKey{owner, promptKey}
	existing, ok := s.records[key]

	if mode == matching.WriteAppend && ok {
		existing.Append(partners...)
		existing.UpdatedAt = now
		return nil
	}

	r := matching.NewMatchRecord(owner, promptKey, nil)
	r.Append(partners...)
	r.CreatedAt = now
	if ok {
		r.CreatedAt = existing.CreatedAt
	}
	r.UpdatedAt = now
	s.records[key] = r
	return nil
}

func (s *Store) GetMatchRecord(ctx context.Context, owner, promptKey string) (*matching.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[recordKey{owner, promptKey}]
	if !ok {
		return nil, matching.ErrRecordNotFound
	}
	return cloneRecord(r), nil
}

func (s *Store) ListMatchRecords(ctx context.Context, promptKey string) ([]*matching.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*matching.MatchRecord
	for key, r := range s.records {
		if key.promptKey == promptKey {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// UpdateMatchRecord holds the store's write lock for the whole read-modify-write.
func (s *Store) UpdateMatchRecord(ctx context.Context, owner, promptKey string, fn func(*matching.MatchRecord) error) (*matching.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{owner, promptKey}
	current, ok := s.records[key]
	if !ok {
		return nil, matching.ErrRecordNotFound
	}

	working := cloneRecord(current)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = s.now()
	s.records[key] = working
	return cloneRecord(working), nil
}

func (s *Store) DeleteMatchRecord(ctx context.Context, owner, promptKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, recordKey{owner, promptKey})
	return nil
}

func cloneRecord(r *matching.MatchRecord) *matching.MatchRecord {
	cp := *r
	cp.Matches = append([]string(nil), r.Matches...)
	cp.Revealed = append([]bool(nil), r.Revealed...)
	return &cp
}
