package pairing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"duo-trivia-service/internal/domain"
)

// ResultSource reads the active results a pairing pass works on.
type ResultSource interface {
	// ActiveByCategory returns every active result in the category,
	// ordered ascending by exits_at (stable: ties break on ID). Ordering
	// is part of the contract; band slicing depends on it.
	ActiveByCategory(ctx context.Context, category string) ([]domain.Result, error)
	// PairedUserPairsSince returns the user ID pairs of PAIRED duo
	// sessions created at or after the given time.
	PairedUserPairsSince(ctx context.Context, since time.Time) ([][2]string, error)
}

// Settler commits one outcome: duo session, ledger credits, deactivation.
type Settler interface {
	Settle(ctx context.Context, outcome Outcome) error
}

// RunLock guards against two processes running the same category at once.
// release is only valid when acquired is true.
type RunLock interface {
	TryAcquire(ctx context.Context, category string) (release func(), acquired bool, err error)
}

// Options carries the temporal knobs of the engine.
type Options struct {
	// ReadinessLookahead is how far before exits_at a result becomes
	// eligible for pairing consideration.
	ReadinessLookahead time.Duration
	// RepairWindow is the anti-collusion recency window: users paired
	// within it are not paired again.
	RepairWindow time.Duration
}

// Engine runs the per-category pairing pass. It holds no per-run state;
// each pass builds a fresh Round and settles its outcomes.
type Engine struct {
	results ResultSource
	settler Settler
	runLock RunLock
	opts    Options
	log     *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewEngine(results ResultSource, settler Settler, runLock RunLock, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		results:  results,
		settler:  settler,
		runLock:  runLock,
		opts:     opts,
		log:      log,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// WithClock overrides the engine clock for deterministic tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RunPairingPass executes one pairing round for the category. At most one
// pass per category may be in flight; overlapping invocations get
// domain.ErrRunInProgress. Settlement failures are isolated per outcome:
// the affected results stay active and are retried next tick.
func (e *Engine) RunPairingPass(ctx context.Context, category string) error {
	if !e.tryLockCategory(category) {
		return domain.ErrRunInProgress
	}
	defer e.unlockCategory(category)

	if e.runLock != nil {
		release, acquired, err := e.runLock.TryAcquire(ctx, category)
		if err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		if !acquired {
			return domain.ErrRunInProgress
		}
		defer release()
	}

	now := e.now()

	queue, err := e.results.ActiveByCategory(ctx, category)
	if err != nil {
		return fmt.Errorf("load category queue: %w", err)
	}
	if len(queue) == 0 {
		return nil
	}

	recentlyPaired, err := e.recentPairLookup(ctx, now)
	if err != nil {
		return fmt.Errorf("load recent pairs: %w", err)
	}

	round := NewRound(category, queue)
	e.log.Debug("round characterised",
		zap.String("category", category),
		zap.Int("population", len(queue)),
		zap.Float64("skewness", round.Skewness),
		zap.Int("bottom_excluded", round.BottomCount),
		zap.Int("top_excluded", round.TopCount),
	)

	outcomes := resolveRound(round, now, e.opts.ReadinessLookahead, recentlyPaired)

	settled := 0
	for _, outcome := range outcomes {
		if err := e.settler.Settle(ctx, outcome); err != nil {
			// The unit stays active and is retried on the next tick.
			e.log.Error("settlement failed",
				zap.String("category", category),
				zap.String("kind", string(outcome.Kind)),
				zap.String("result_id", outcome.Target.ID),
				zap.Error(err),
			)
			continue
		}
		settled++
	}

	e.log.Info("pairing pass complete",
		zap.String("category", category),
		zap.Int("population", len(queue)),
		zap.Int("excluded", round.ExcludedCount()),
		zap.Int("outcomes", len(outcomes)),
		zap.Int("settled", settled),
	)
	return nil
}

// recentPairLookup prefetches the anti-collusion window once per pass and
// answers membership from memory during the walk.
func (e *Engine) recentPairLookup(ctx context.Context, now time.Time) (func(userA, userB string) bool, error) {
	if e.opts.RepairWindow <= 0 {
		return func(string, string) bool { return false }, nil
	}
	pairs, err := e.results.PairedUserPairsSince(ctx, now.Add(-e.opts.RepairWindow))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		seen[pairKey(p[0], p[1])] = struct{}{}
	}
	return func(userA, userB string) bool {
		_, ok := seen[pairKey(userA, userB)]
		return ok
	}, nil
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (e *Engine) tryLockCategory(category string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[category]; busy {
		return false
	}
	e.inFlight[category] = struct{}{}
	return true
}

func (e *Engine) unlockCategory(category string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, category)
}
