package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func TestWriteMatchRecordModes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	s.SetClock(func() time.Time { return t0 })

	require.NoError(t, s.WriteMatchRecord(ctx, "ana", "week-1", []string{"ben", "ana", "ben"}, matching.WriteOverwrite))
	r, err := s.GetMatchRecord(ctx, "ana", "week-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ben"}, r.Matches, "self and duplicates are dropped")
	assert.Equal(t, t0, r.CreatedAt)

	_, err = s.UpdateMatchRecord(ctx, "ana", "week-1", func(r *matching.MatchRecord) error {
		r.Revealed[0] = true
		return nil
	})
	require.NoError(t, err)

	s.SetClock(func() time.Time { return t1 })
	require.NoError(t, s.WriteMatchRecord(ctx, "ana", "week-1", []string{"cleo", "dan", "eve", "finn"}, matching.WriteAppend))
	r, err = s.GetMatchRecord(ctx, "ana", "week-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ben", "cleo", "dan"}, r.Matches, "append stops at capacity")
	assert.Equal(t, []bool{true, false, false}, r.Revealed, "append keeps reveals")
	assert.Equal(t, t1, r.UpdatedAt)

	require.NoError(t, s.WriteMatchRecord(ctx, "ana", "week-1", []string{"gus"}, matching.WriteOverwrite))
	r, err = s.GetMatchRecord(ctx, "ana", "week-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"gus"}, r.Matches)
	assert.Equal(t, []bool{false}, r.Revealed)
	assert.Equal(t, t0, r.CreatedAt, "overwrite keeps the creation time")
}

func TestGetMatchRecordReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	s.PutMatchRecord(matching.NewMatchRecord("ana", "week-1", []string{"ben"}))

	r, err := s.GetMatchRecord(ctx, "ana", "week-1")
	require.NoError(t, err)
	r.Matches[0] = "mallory"

	again, err := s.GetMatchRecord(ctx, "ana", "week-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ben"}, again.Matches)

	_, err = s.GetMatchRecord(ctx, "ana", "week-2")
	assert.ErrorIs(t, err, matching.ErrRecordNotFound)
}

func TestUpdateMatchRecordAbortsOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	s.PutMatchRecord(matching.NewMatchRecord("ana", "week-1", []string{"ben"}))

	boom := errors.New("boom")
	_, err := s.UpdateMatchRecord(ctx, "ana", "week-1", func(r *matching.MatchRecord) error {
		r.Revealed[0] = true
		return boom
	})
	assert.ErrorIs(t, err, boom)

	r, err := s.GetMatchRecord(ctx, "ana", "week-1")
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, r.Revealed)

	_, err = s.UpdateMatchRecord(ctx, "nobody", "week-1", func(*matching.MatchRecord) error { return nil })
	assert.ErrorIs(t, err, matching.ErrRecordNotFound)
}

func TestConcurrentRevealsKeepEveryFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	s.PutMatchRecord(matching.NewMatchRecord("ana", "week-1", []string{"ben", "cleo", "dan"}))

	var wg sync.WaitGroup
	for i := 0; i < matching.MaxMatches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateMatchRecord(ctx, "ana", "week-1", func(r *matching.MatchRecord) error {
				r.Revealed[i] = true
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	r, err := s.GetMatchRecord(ctx, "ana", "week-1")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, r.Revealed)
}

func TestLoadHistoryAndBlocks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	s.PutMatchRecord(matching.NewMatchRecord("ana", "week-0", []string{"ben"}))
	s.PutMatchRecord(matching.NewMatchRecord("ana", "week-1", []string{"cleo"}))
	s.PutMatchRecord(matching.NewMatchRecord("zed", "week-0", []string{"ana"}))
	s.Block("cleo", "dan")
	s.Block("zed", "ana")

	history, err := s.LoadHistory(ctx, []string{"ana", "ben"}, "week-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]matching.KeySet{"ana": matching.NewKeySet("ben")}, history)

	blocks, err := s.LoadBlocks(ctx, []string{"ana", "dan"})
	require.NoError(t, err)
	assert.Equal(t, map[string]matching.KeySet{
		"ana": matching.NewKeySet("zed"),
		"dan": matching.NewKeySet("cleo"),
	}, blocks)
}

func TestListRespondentsAndProfiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	s.AddResponse("week-1", "cleo")
	s.AddResponse("week-1", "ana")
	s.AddResponse("week-1", "ana")
	s.AddResponse("week-2", "ben")
	s.PutProfile(matching.Profile{UserID: "ana", Gender: "female"})
	s.PutPreferences(matching.Preferences{UserID: "ana", Genders: []string{"male"}})
	s.PutProfile(matching.Profile{UserID: "cleo", Gender: "female"})

	ids, err := s.ListRespondents(ctx, "week-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "cleo"}, ids)

	data, err := s.LoadProfilesAndPreferences(ctx, ids)
	require.NoError(t, err)
	assert.True(t, data["ana"].Complete())
	assert.NotNil(t, data["cleo"].Profile)
	assert.Nil(t, data["cleo"].Preferences)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.ListRespondents(cancelled, "week-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListMatchRecordsSorted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	s.PutMatchRecord(matching.NewMatchRecord("cleo", "week-1", nil))
	s.PutMatchRecord(matching.NewMatchRecord("ana", "week-1", nil))
	s.PutMatchRecord(matching.NewMatchRecord("ben", "week-2", nil))

	records, err := s.ListMatchRecords(ctx, "week-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ana", records[0].UserID)
	assert.Equal(t, "cleo", records[1].UserID)
}

func TestDeleteMatchRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	s.PutMatchRecord(matching.NewMatchRecord("ana", "week-1", []string{"ben"}))
	s.PutMatchRecord(matching.NewMatchRecord("ana", "week-2", []string{"cleo"}))

	require.NoError(t, s.DeleteMatchRecord(ctx, "ana", "week-1"))
	_, err := s.GetMatchRecord(ctx, "ana", "week-1")
	assert.ErrorIs(t, err, matching.ErrRecordNotFound)

	r, err := s.GetMatchRecord(ctx, "ana", "week-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"cleo"}, r.Matches, "other prompts are untouched")

	assert.NoError(t, s.DeleteMatchRecord(ctx, "ana", "week-1"), "missing record")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.DeleteMatchRecord(canceled, "ana", "week-2"), context.Canceled)
}
