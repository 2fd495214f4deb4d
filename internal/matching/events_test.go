package matching

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogEmitterLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	em := NewLogEmitter(zap.New(core))

	em.Emit(Event{Kind: EventRunStarted, RunID: "r1", PromptKey: "week-1", Count: 4})
	em.Emit(Event{Kind: EventPairCommitted, RunID: "r1", PromptKey: "week-1", UserID: "a", PartnerID: "b"})
	em.Emit(Event{Kind: EventUserSkipped, RunID: "r1", PromptKey: "week-1", UserID: "c", Err: ErrDataIncomplete})
	em.Emit(Event{Kind: EventWriteFailed, RunID: "r1", PromptKey: "week-1", UserID: "d", Err: errors.New("boom")})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, "run_started", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(4), entries[0].ContextMap()["count"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "b", entries[1].ContextMap()["partner_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, ErrDataIncomplete.Error(), entries[2].ContextMap()["error"])

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "week-1", entries[3].ContextMap()["prompt_key"])
}

func TestLogEmitterRunCompletedSummary(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	em := NewLogEmitter(zap.New(core))

	em.Emit(Event{Kind: EventPairCommitted, UserID: "a", PartnerID: "b"})
	em.Emit(Event{Kind: EventRunCompleted, Report: &Report{
		Respondents:  5,
		Matched:      4,
		Written:      4,
		MutualPairs:  2,
		Distribution: [MaxMatches + 1]int{1, 4, 0, 0},
		Duration:     time.Second,
	}})

	entries := logs.FilterMessage("run_completed").AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(5), fields["respondents"])
	assert.Equal(t, int64(2), fields["mutual_pairs"])
	assert.Equal(t, time.Second, fields["duration"])
	assert.Zero(t, logs.FilterMessage("pair_committed").Len(), "debug events are filtered at info")
}

func TestMultiEmitterSkipsNil(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []EventKind
	)
	record := EmitterFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Kind)
	})

	em := MultiEmitter(nil, record, NopEmitter, record)
	em.Emit(Event{Kind: EventRunStarted})

	assert.Equal(t, []EventKind{EventRunStarted, EventRunStarted}, seen)
}

func TestMetricsEmitter(t *testing.T) {
	pairs := testutil.ToFloat64(mutualPairsTotal)
	dropped := testutil.ToFloat64(discardedPairsTotal.WithLabelValues(string(DiscardCapacity)))
	failed := testutil.ToFloat64(recordWritesTotal.WithLabelValues("error"))
	completed := testutil.ToFloat64(generationRunsTotal.WithLabelValues("completed"))

	em := NewMetricsEmitter()
	em.Emit(Event{Kind: EventPairCommitted})
	em.Emit(Event{Kind: EventPairCommitted})
	em.Emit(Event{Kind: EventPairDiscarded, Reason: string(DiscardCapacity)})
	em.Emit(Event{Kind: EventWriteFailed})
	em.Emit(Event{Kind: EventRunCompleted, Report: &Report{Distribution: [MaxMatches + 1]int{3, 2, 1, 0}}})

	assert.Equal(t, pairs+2, testutil.ToFloat64(mutualPairsTotal))
	assert.Equal(t, dropped+1, testutil.ToFloat64(discardedPairsTotal.WithLabelValues(string(DiscardCapacity))))
	assert.Equal(t, failed+1, testutil.ToFloat64(recordWritesTotal.WithLabelValues("error")))
	assert.Equal(t, completed+1, testutil.ToFloat64(generationRunsTotal.WithLabelValues("completed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(matchDistribution.WithLabelValues("0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(matchDistribution.WithLabelValues("2")))
}
