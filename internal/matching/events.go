package matching

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Phase string

const (
	PhaseLoad      Phase = "load"
	PhaseStrict    Phase = "strict"
	PhaseRelaxed   Phase = "relaxed"
	PhaseReconcile Phase = "reconcile"
	PhasePersist   Phase = "persist"
)

type EventKind string

const (
	EventRunStarted     EventKind = "run_started"
	EventPhaseCompleted EventKind = "phase_completed"
	EventUserSkipped    EventKind = "user_skipped"
	EventUserRelaxed    EventKind = "user_relaxed"
	EventUserUnmatched  EventKind = "user_unmatched"
	EventPairCommitted  EventKind = "pair_committed"
	EventPairDiscarded  EventKind = "pair_discarded"
	EventRecordWritten  EventKind = "record_written"
	EventRecordCleared  EventKind = "record_cleared"
	EventWriteFailed    EventKind = "write_failed"
	EventRunCompleted   EventKind = "run_completed"
	EventRunFailed      EventKind = "run_failed"
)

// Event is one observation made while generating matches. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	RunID     string
	PromptKey string
	Phase     Phase
	UserID    string
	PartnerID string
	Reason    string
	Count     int
	Err       error
	Report    *Report
}

// Emitter receives generation events. Implementations must be safe for concurrent use; persistence
// emits from several goroutines.
type Emitter interface {
	Emit(Event)
}

type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// NopEmitter discards every event.
var NopEmitter Emitter = EmitterFunc(func(Event) {})

type multiEmitter []Emitter

func (m multiEmitter) Emit(e Event) {
	for _, em := range m {
		em.Emit(e)
	}
}

// MultiEmitter fans events out to every non-nil emitter.
func MultiEmitter(emitters ...Emitter) Emitter {
	out := make(multiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type logEmitter struct {
	logger *zap.Logger
}

// NewLogEmitter writes events as structured log entries. Per-pair events are logged at debug level.
func NewLogEmitter(logger *zap.Logger) Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logEmitter{logger: logger}
}

func (l *logEmitter) Emit(e Event) {
	fields := []zap.Field{
		zap.String("run_id", e.RunID),
		zap.String("prompt_key", e.PromptKey),
	}
	if e.Phase != "" {
		fields = append(fields, zap.String("phase", string(e.Phase)))
	}
	if e.UserID != "" {
		fields = append(fields, zap.String("user_id", e.UserID))
	}
	if e.PartnerID != "" {
		fields = append(fields, zap.String("partner_id", e.PartnerID))
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}

	level := zapcore.InfoLevel
	switch e.Kind {
	case EventPhaseCompleted, EventRunStarted:
		fields = append(fields, zap.Int("count", e.Count))
	case EventPairCommitted, EventPairDiscarded, EventRecordWritten, EventRecordCleared, EventUserRelaxed:
		level = zapcore.DebugLevel
	case EventUserSkipped, EventUserUnmatched:
		level = zapcore.WarnLevel
	case EventWriteFailed, EventRunFailed:
		level = zapcore.ErrorLevel
	case EventRunCompleted:
		if r := e.Report; r != nil {
			fields = append(fields,
				zap.Int("respondents", r.Respondents),
				zap.Int("matched", r.Matched),
				zap.Int("written", r.Written),
				zap.Int("cleared", r.Cleared),
				zap.Int("mutual_pairs", r.MutualPairs),
				zap.Ints("distribution", r.Distribution[:]),
				zap.Int("skipped", len(r.Skipped)),
				zap.Int("relaxed", len(r.Relaxed)),
				zap.Int("capacity_dropped", len(r.CapacityDropped)),
				zap.Int("write_errors", len(r.WriteErrors)),
				zap.Duration("duration", r.Duration),
			)
		}
	}

	if ce := l.logger.Check(level, string(e.Kind)); ce != nil {
		ce.Write(fields...)
	}
}
