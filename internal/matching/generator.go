// internal/matching/generator.go

package matching

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWriteConcurrency = 8
	defaultLoadTimeout      = 2 * time.Minute
)

// Generator runs the weekly match pipeline for one prompt: load, strict proposals, relaxed retry
// for users left empty, mutual reconciliation and persistence.
type Generator struct {
	repo             Repository
	locker           Locker
	emitter          Emitter
	now              func() time.Time
	writeConcurrency int
	loadTimeout      time.Duration
}

type GeneratorOption func(*Generator)

func WithEmitter(e Emitter) GeneratorOption {
	return func(g *Generator) {
		if e != nil {
			g.emitter = e
		}
	}
}

func WithLocker(l Locker) GeneratorOption {
	return func(g *Generator) { g.locker = l }
}

// WithClock sets the time source. Ages are computed against the run's start time.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func WithWriteConcurrency(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.writeConcurrency = n
		}
	}
}

func WithLoadTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.loadTimeout = d }
}

func NewGenerator(repo Repository, opts ...GeneratorOption) *Generator {
	g := &Generator{
		repo:             repo,
		emitter:          NopEmitter,
		now:              time.Now,
		writeConcurrency: defaultWriteConcurrency,
		loadTimeout:      defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type GenerateOptions struct {
	// DryRun computes the assignment without writing records.
	DryRun bool
}

// Generate runs the full pipeline and persists the result.
func (g *Generator) Generate(ctx context.Context, promptKey string) (*Report, error) {
	return g.Run(ctx, promptKey, GenerateOptions{})
}

// Run executes one generation. Only failing to load the respondents or their data aborts the run;
// per-user problems are recorded on the returned report.
func (g *Generator) Run(ctx context.Context, promptKey string, opts GenerateOptions) (*Report, error) {
	if promptKey == "" {
		return nil, ErrInvalidPrompt
	}

	if g.locker != nil {
		release, err := g.locker.Acquire(ctx, promptKey)
		if err != nil {
			return nil, err
		}
		defer release(context.Background())
	}

	started := g.now()
	report := &Report{
		RunID:     uuid.NewString(),
		PromptKey: promptKey,
		DryRun:    opts.DryRun,
		Started:   started,
	}
	emit := func(e Event) {
		e.RunID = report.RunID
		e.PromptKey = promptKey
		g.emitter.Emit(e)
	}
	fail := func(err error) (*Report, error) {
		emit(Event{Kind: EventRunFailed, Err: err})
		return nil, err
	}

	respondents, err := g.repo.ListRespondents(ctx, promptKey)
	if err != nil {
		return fail(fmt.Errorf("listing respondents: %w", err))
	}

	roster := NewRoster(respondents)
	report.Respondents = roster.Len()
	emit(Event{Kind: EventRunStarted, Count: roster.Len()})

	in, err := g.load(ctx, roster.IDs(), promptKey)
	if err != nil {
		return fail(err)
	}
	emit(Event{Kind: EventPhaseCompleted, Phase: PhaseLoad, Count: len(in.data)})

	pool := newCandidatePool(roster, in.data, in.history, in.blocks, NewScorer(started))
	potential, skipped := g.propose(pool, report, emit)

	res := reconcile(potential, MaxMatches)
	g.summarise(roster, res, skipped, report, emit)

	if !opts.DryRun {
		stale, err := g.staleOwners(ctx, promptKey, report.Final)
		if err != nil {
			return fail(fmt.Errorf("listing existing records: %w", err))
		}
		g.persist(ctx, promptKey, roster, res.final, stale, report, emit)
	}

	report.Duration = g.now().Sub(started)
	emit(Event{Kind: EventRunCompleted, Report: report})
	return report, nil
}

type runInput struct {
	data    map[string]UserData
	history map[string]KeySet
	blocks  map[string]KeySet
}

// load fetches profiles, history and blocks concurrently.
func (g *Generator) load(ctx context.Context, ids []string, promptKey string) (*runInput, error) {
	if g.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.loadTimeout)
		defer cancel()
	}

	in := &runInput{}
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		data, err := g.repo.LoadProfilesAndPreferences(gctx, ids)
		if err != nil {
			return fmt.Errorf("loading profiles: %w", err)
		}
		in.data = data
		return nil
	})
	eg.Go(func() error {
		history, err := g.repo.LoadHistory(gctx, ids, promptKey)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		in.history = history
		return nil
	})
	eg.Go(func() error {
		blocks, err := g.repo.LoadBlocks(gctx, ids)
		if err != nil {
			return fmt.Errorf("loading blocks: %w", err)
		}
		in.blocks = blocks
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if in.data == nil {
		in.data = map[string]UserData{}
	}
	if in.history == nil {
		in.history = map[string]KeySet{}
	}
	if in.blocks == nil {
		in.blocks = map[string]KeySet{}
	}
	return in, nil
}

// propose runs the strict pass for everyone and the relaxed pass for users the strict pass left
// empty. Users missing data are skipped in both passes.
func (g *Generator) propose(pool *candidatePool, report *Report, emit func(Event)) ([][]int, []bool) {
	n := pool.roster.Len()
	potential := make([][]int, n)
	skipped := make([]bool, n)

	proposed := 0
	for i := 0; i < n; i++ {
		list, err := pool.find(i, false)
		if err != nil {
			skipped[i] = true
			id := pool.roster.ID(i)
			report.Skipped = append(report.Skipped, id)
			emit(Event{Kind: EventUserSkipped, Phase: PhaseStrict, UserID: id, Err: err})
			continue
		}
		potential[i] = list
		if len(list) > 0 {
			proposed++
		}
	}
	emit(Event{Kind: EventPhaseCompleted, Phase: PhaseStrict, Count: proposed})

	for i := 0; i < n; i++ {
		if skipped[i] || len(potential[i]) > 0 {
			continue
		}
		list, err := pool.find(i, true)
		if err != nil || len(list) == 0 {
			continue
		}
		potential[i] = list
		id := pool.roster.ID(i)
		report.Relaxed = append(report.Relaxed, id)
		emit(Event{Kind: EventUserRelaxed, Phase: PhaseRelaxed, UserID: id, Count: len(list)})
	}
	emit(Event{Kind: EventPhaseCompleted, Phase: PhaseRelaxed, Count: len(report.Relaxed)})

	return potential, skipped
}

func (g *Generator) summarise(roster *Roster, res reconciliation, skipped []bool, report *Report, emit func(Event)) {
	for _, d := range res.discards {
		a, b := roster.ID(d.a), roster.ID(d.b)
		if d.reason == DiscardCapacity {
			report.CapacityDropped = append(report.CapacityDropped, NewPair(a, b))
		} else {
			report.NonMutual++
		}
		emit(Event{Kind: EventPairDiscarded, Phase: PhaseReconcile, UserID: a, PartnerID: b, Reason: string(d.reason)})
	}

	for i, partners := range res.final {
		report.Distribution[len(partners)]++
		if len(partners) > 0 {
			report.Matched++
		} else if !skipped[i] {
			id := roster.ID(i)
			report.Unmatched = append(report.Unmatched, id)
			emit(Event{Kind: EventUserUnmatched, Phase: PhaseReconcile, UserID: id})
		}
		for _, j := range partners {
			if i < j {
				emit(Event{Kind: EventPairCommitted, Phase: PhaseReconcile, UserID: roster.ID(i), PartnerID: roster.ID(j)})
			}
		}
	}

	report.MutualPairs = res.mutual
	report.Final = roster.Resolve(res.final)
	emit(Event{Kind: EventPhaseCompleted, Phase: PhaseReconcile, Count: res.mutual})
}

// staleOwners returns the owners of existing records for the prompt who have no match in this run.
// Their records would otherwise keep partners from an earlier run.
func (g *Generator) staleOwners(ctx context.Context, promptKey string, final map[string][]string) ([]string, error) {
	records, err := g.repo.ListMatchRecords(ctx, promptKey)
	if err != nil {
		return nil, err
	}
	var stale []string
	for _, r := range records {
		if len(final[r.UserID]) == 0 {
			stale = append(stale, r.UserID)
		}
	}
	return stale, nil
}

// persist writes one record per matched user and deletes the stale records. Writes run
// concurrently; a failed write is recorded and does not stop the others.
func (g *Generator) persist(ctx context.Context, promptKey string, roster *Roster, final [][]int, stale []string, report *Report, emit func(Event)) {
	var (
		mu sync.Mutex
		eg errgroup.Group
	)
	eg.SetLimit(g.writeConcurrency)

	failed := func(owner string, err error) {
		report.WriteErrors = append(report.WriteErrors, &UserError{UserID: owner, Err: err})
		emit(Event{Kind: EventWriteFailed, Phase: PhasePersist, UserID: owner, Err: err})
	}

	for i, partners := range final {
		if len(partners) == 0 {
			continue
		}
		owner := roster.ID(i)
		ids := make([]string, len(partners))
		for k, j := range partners {
			ids[k] = roster.ID(j)
		}

		eg.Go(func() error {
			err := g.repo.WriteMatchRecord(ctx, owner, promptKey, ids, WriteOverwrite)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed(owner, err)
				return nil
			}
			report.Written++
			emit(Event{Kind: EventRecordWritten, Phase: PhasePersist, UserID: owner, Count: len(ids)})
			return nil
		})
	}

	for _, owner := range stale {
		owner := owner
		eg.Go(func() error {
			err := g.repo.DeleteMatchRecord(ctx, owner, promptKey)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed(owner, fmt.Errorf("clearing stale record: %w", err))
				return nil
			}
			report.Cleared++
			emit(Event{Kind: EventRecordCleared, Phase: PhasePersist, UserID: owner})
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(report.WriteErrors, func(a, b int) bool {
		return report.WriteErrors[a].UserID < report.WriteErrors[b].UserID
	})
	emit(Event{Kind: EventPhaseCompleted, Phase: PhasePersist, Count: report.Written})
}
