package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/Tuee22/mcts/game"
	"github.com/Tuee22/mcts/searcher"
)

const (
	ensureSimsTimeout = 10 * time.Second
	ensureSimsPoll    = time.Millisecond

	// maxConsecutiveFailures trips the worker's circuit breaker: a
	// persistently failing position would otherwise spin forever,
	// because a failed simulation never decrements the target.
	maxConsecutiveFailures = 10
)

// Threaded wraps one searcher.Tree and one random source behind a
// single mutex and runs simulations in a background worker toward an
// atomic target counter. Host goroutines may call any method
// concurrently; every engine call is serialized by the lock, so a
// simulation is atomic with respect to MakeMove and every query sees a
// consistent tree.
type Threaded[S game.State[S]] struct {
	cfg          Config
	id           string
	defaultState func() S

	mu   sync.Mutex
	cond *sync.Cond
	tree *searcher.Tree[S]
	rng  *rand.Rand

	stop       atomic.Bool
	targetSims atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// New builds a driver rooted at the factory's default state and spawns
// its worker. The caller must Close the driver to stop the worker.
func New[S game.State[S]](defaultState func() S, cfg Config) *Threaded[S] {
	t := &Threaded[S]{
		cfg:          cfg,
		id:           uuid.NewString(),
		defaultState: defaultState,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		done:         make(chan struct{}),
	}
	t.cond = sync.NewCond(&t.mu)
	t.tree = t.newTree(defaultState())

	go t.worker()
	return t
}

func (t *Threaded[S]) newTree(root S) *searcher.Tree[S] {
	return searcher.New(root, t.cfg.Seed,
		searcher.WithRand[S](t.rng),
		searcher.WithExploration[S](t.cfg.C),
		searcher.WithRollout[S](t.cfg.UseRollout),
		searcher.WithEvalChildren[S](t.cfg.EvalChildren),
		searcher.WithPUCT[S](t.cfg.UsePUCT),
		searcher.WithProbs[S](t.cfg.UseProbs),
	)
}

// worker is the only goroutine that runs simulations. It sleeps on the
// condition variable while there is no target, and otherwise works the
// target down in increments of SimIncrement, re-checking the stop flag
// and the target between single simulations.
func (t *Threaded[S]) worker() {
	defer close(t.done)

	failures := 0
	t.mu.Lock()
	for !t.stop.Load() {
		if t.targetSims.Load() == 0 {
			t.cond.Wait()
			continue
		}
		t.mu.Unlock()

		if t.cfg.SimIncrement == 0 {
			// An increment of zero cannot make progress; drop the
			// target instead of spinning on it.
			t.targetSims.Store(0)
			t.mu.Lock()
			continue
		}

		burst := int64(t.cfg.SimIncrement)
		if target := t.targetSims.Load(); target < burst {
			burst = target
		}
		for i := int64(0); i < burst && !t.stop.Load() && t.targetSims.Load() > 0; i++ {
			if err := t.runSimulation(); err != nil {
				failures++
				log.Error().Err(err).Str("driver", t.id).Msg("simulation failed")
				if failures >= maxConsecutiveFailures {
					log.Error().Str("driver", t.id).Int("failures", failures).
						Msg("circuit breaker tripped, dropping simulation target")
					t.targetSims.Store(0)
					failures = 0
				}
				// A failed simulation does not count toward the target.
				continue
			}
			failures = 0
			t.targetSims.Add(-1)
		}

		t.mu.Lock()
	}
	t.mu.Unlock()
}

func (t *Threaded[S]) runSimulation() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.Simulate(1)
}

// requestSims publishes a new simulation target and wakes the worker.
// The store happens under the lock so the worker cannot check the
// target and then miss the wake-up.
func (t *Threaded[S]) requestSims(n int64) {
	t.mu.Lock()
	t.targetSims.Store(n)
	t.cond.Broadcast()
	t.mu.Unlock()
}

// awaitTarget sleep-polls until the target drains, the driver stops,
// or the timeout elapses; on timeout the target is dropped so the
// worker does not keep chasing a request nobody is waiting on.
func (t *Threaded[S]) awaitTarget(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for t.targetSims.Load() > 0 && !t.stop.Load() {
		time.Sleep(ensureSimsPoll)
		if time.Now().After(deadline) {
			t.targetSims.Store(0)
			return
		}
	}
}

// EnsureSims drives the root's visit count up to at least n. It is
// best-effort: on return either visits >= n, or the worker made no
// progress within the timeout window. Callers that need the guarantee
// re-check VisitCount.
func (t *Threaded[S]) EnsureSims(n int) {
	if t.cfg.SimIncrement == 0 {
		return
	}

	t.mu.Lock()
	visits := t.tree.VisitCount()
	t.mu.Unlock()
	if visits >= n {
		return
	}

	t.requestSims(int64(n - visits))
	t.awaitTarget(ensureSimsTimeout)

	t.mu.Lock()
	visits = t.tree.VisitCount()
	t.mu.Unlock()
	if visits < n {
		t.requestSims(1)
		t.awaitTarget(ensureSimsTimeout)
	}
}

// Display renders the root position, optionally from the opposite
// perspective.
func (t *Threaded[S]) Display(flip bool) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.State().Clone(flip).Display()
}

// MakeMove advances the root by action text.
func (t *Threaded[S]) MakeMove(actionText string, flip bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.MakeMoveAction(actionText, flip)
}

// SortedActions reports the root's children best-first.
func (t *Threaded[S]) SortedActions(flip bool) ([]searcher.Action, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.SortedActions(flip)
}

// LegalActions lists the root's action texts in move generation order.
func (t *Threaded[S]) LegalActions(flip bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.LegalActions(flip)
}

// ChooseBestAction picks a move from the current statistics with an
// epsilon-greedy policy, advances the root to it, and returns its
// action text.
func (t *Threaded[S]) ChooseBestAction(epsilon float64) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.tree.ChooseBestAction(epsilon, t.cfg.DecideUsingVisits); err != nil {
		return "", err
	}
	return t.tree.State().ActionText(false), nil
}

// GetEvaluation returns the root equity from the side-to-move's
// perspective. ok is false when no evaluation exists yet, or when the
// equity is a false terminal: exactly +/-1.0 while the root still has
// more than FalseTerminalMoves legal moves.
func (t *Threaded[S]) GetEvaluation() (eval float64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	eval, err := t.tree.Equity()
	if err != nil {
		return 0, false
	}
	actionCount := t.tree.ActionCount()
	if actionCount == 0 {
		// No actions at all: genuinely terminal, trust the value.
		return eval, true
	}
	if (eval == 1.0 || eval == -1.0) && actionCount > t.cfg.FalseTerminalMoves {
		return 0, false
	}
	return eval, true
}

func (t *Threaded[S]) IsTerminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.State().IsTerminal()
}

func (t *Threaded[S]) VisitCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.VisitCount()
}

// Reset discards the tree and reroots at the default state. Any
// outstanding simulation target is dropped.
func (t *Threaded[S]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targetSims.Store(0)
	t.tree = t.newTree(t.defaultState())
}

// SetStateAndMakeBestMove reroots the tree at the given state, drives
// MinSimulations simulations, commits to the best action (greedy, by
// the configured decision rule), and returns its action text.
func (t *Threaded[S]) SetStateAndMakeBestMove(state S, flip bool) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tree = t.newTree(state)

	if t.cfg.MinSimulations > 0 && t.cfg.SimIncrement > 0 {
		t.mu.Unlock()
		t.requestSims(int64(t.cfg.MinSimulations))
		for t.targetSims.Load() > 0 && !t.stop.Load() {
			time.Sleep(ensureSimsPoll)
		}
		t.mu.Lock()
	}

	if err := t.tree.ChooseBestAction(0, t.cfg.DecideUsingVisits); err != nil {
		return "", err
	}
	return t.tree.State().ActionText(flip), nil
}

// Close stops the worker and waits for it to exit. Outstanding
// EnsureSims calls unblock via the stop flag and return whatever
// progress was made.
func (t *Threaded[S]) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.stop.Store(true)
		t.cond.Broadcast()
		t.mu.Unlock()
		<-t.done
	})
}
