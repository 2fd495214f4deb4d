package matching_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"github.com/imadgeboyega/kiekky-weekly/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 12, 12, 0, 0, 0, time.UTC)

var errWriteFailed = errors.New("write failed")

func testClock() time.Time { return testNow }

type person struct {
	id      string
	gender  string
	age     int
	seeking []string
}

func (p person) profile() matching.Profile {
	return matching.Profile{
		UserID:    p.id,
		Gender:    p.gender,
		BirthDate: testNow.AddDate(-p.age, 0, -1),
		Year:      matching.YearSecond,
		School:    matching.SchoolPomona,
		Majors:    []string{"economics"},
	}
}

func (p person) preferences() matching.Preferences {
	return matching.Preferences{UserID: p.id, Genders: p.seeking}
}

// seed stores each person with a profile and preferences and marks them as respondents of promptKey.
func seed(s *memory.Store, promptKey string, people ...person) {
	for _, p := range people {
		s.PutProfile(p.profile())
		s.PutPreferences(p.preferences())
		s.AddResponse(promptKey, p.id)
	}
}

func newTestStore() *memory.Store {
	s := memory.NewStore()
	s.SetClock(testClock)
	return s
}

func newTestGenerator(repo matching.Repository, opts ...matching.GeneratorOption) *matching.Generator {
	return matching.NewGenerator(repo, append([]matching.GeneratorOption{matching.WithClock(testClock)}, opts...)...)
}

// flakyStore fails writes or deletes for chosen owners and, optionally, respondent listing.
type flakyStore struct {
	*memory.Store
	failWrites  matching.KeySet
	failDeletes matching.KeySet
	listErr     error
}

func (f *flakyStore) ListRespondents(ctx context.Context, promptKey string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListRespondents(ctx, promptKey)
}

func (f *flakyStore) WriteMatchRecord(ctx context.Context, owner, promptKey string, partners []string, mode matching.WriteMode) error {
	if f.failWrites.Has(owner) {
		return errWriteFailed
	}
	return f.Store.WriteMatchRecord(ctx, owner, promptKey, partners, mode)
}

func (f *flakyStore) DeleteMatchRecord(ctx context.Context, owner, promptKey string) error {
	if f.failDeletes.Has(owner) {
		return errWriteFailed
	}
	return f.Store.DeleteMatchRecord(ctx, owner, promptKey)
}

// requireConsistent checks the assignment properties every run must hold.
func requireConsistent(t *testing.T, final map[string][]string, history, blocks map[string]matching.KeySet) {
	t.Helper()

	for owner, partners := range final {
		require.LessOrEqual(t, len(partners), matching.MaxMatches, owner)
		seen := matching.NewKeySet()
		for _, partner := range partners {
			require.NotEqual(t, owner, partner, "self match")
			require.False(t, seen.Has(partner), "%s lists %s twice", owner, partner)
			seen.Add(partner)
			require.Contains(t, final[partner], owner, "%s -> %s is not mutual", owner, partner)
			require.False(t, history[owner].Has(partner), "%s was matched with %s before", owner, partner)
			require.False(t, blocks[owner].Has(partner), "%s and %s are blocked", owner, partner)
		}
	}
}
