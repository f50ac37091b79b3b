package searcher

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/Tuee22/mcts/experiments/metrics"
	"github.com/Tuee22/mcts/game"
)

// DefaultExploration is the exploration constant used when no option
// overrides it.
const DefaultExploration = 1.4

// Tree is a single-threaded MCTS engine over a game state type S. It
// owns the root node and performs no locking: callers that share a Tree
// across goroutines must serialize every call (see the engine package).
type Tree[S game.State[S]] struct {
	root *node[S]
	rng  *rand.Rand

	c            float64
	useRollout   bool
	evalChildren bool
	usePUCT      bool
	useProbs     bool

	collector metrics.Collector
}

type Option[S game.State[S]] func(*Tree[S])

// WithExploration sets the exploration constant c.
func WithExploration[S game.State[S]](c float64) Option[S] {
	return func(t *Tree[S]) {
		if c > 0 {
			t.c = c
		}
	}
}

// WithRollout selects random playouts (true) or the state's bespoke
// evaluator (false) for leaf evaluation.
func WithRollout[S game.State[S]](use bool) Option[S] {
	return func(t *Tree[S]) {
		t.useRollout = use
	}
}

// WithEvalChildren also evaluates every child of a freshly evaluated
// leaf (one ply of lookahead priors).
func WithEvalChildren[S game.State[S]](use bool) Option[S] {
	return func(t *Tree[S]) {
		t.evalChildren = use
	}
}

// WithPUCT selects the AlphaZero-style PUCT exploration term instead of
// classical UCT.
func WithPUCT[S game.State[S]](use bool) Option[S] {
	return func(t *Tree[S]) {
		t.usePUCT = use
	}
}

// WithProbs multiplies the exploration term by the parent's prior
// probabilities when the evaluator provides them.
func WithProbs[S game.State[S]](use bool) Option[S] {
	return func(t *Tree[S]) {
		t.useProbs = use
	}
}

// WithRand substitutes the random source. A driver that replaces its
// tree mid-game passes its own generator here so the random stream is
// continuous across trees.
func WithRand[S game.State[S]](rng *rand.Rand) Option[S] {
	return func(t *Tree[S]) {
		if rng != nil {
			t.rng = rng
		}
	}
}

// WithCollector attaches a metrics collector.
func WithCollector[S game.State[S]](c metrics.Collector) Option[S] {
	return func(t *Tree[S]) {
		if c != nil {
			t.collector = c
		}
	}
}

// New builds a tree rooted at the given state. All randomness (rollout
// moves, tie-breaks, epsilon draws) flows through one generator seeded
// here, so identical seeds give identical searches.
func New[S game.State[S]](root S, seed uint64, options ...Option[S]) *Tree[S] {
	t := &Tree[S]{
		root:       newNode(root, nil),
		rng:        rand.New(rand.NewSource(seed)),
		c:          DefaultExploration,
		useRollout: true,
		collector:  metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Simulate runs n playouts from the current root: select a leaf,
// evaluate it, backpropagate. The root must be non-terminal with at
// least one legal child. A root's first evaluation self-backpropagates,
// so a fresh root ends up with visits == n+1.
func (t *Tree[S]) Simulate(n int) error {
	if n == 0 {
		return nil
	}

	children := t.root.getChildren()
	if len(children) == 0 || t.root.state.IsTerminal() {
		return ErrIllegalSimulation
	}

	if !t.root.isEvaluated() {
		if err := t.evalNode(t.root, t.evalChildren); err != nil {
			return err
		}
		if err := backprop(t.root); err != nil {
			return err
		}
	}

	for i := 0; i < n; i++ {
		leaf, err := t.selectLeaf(t.root)
		if err != nil {
			return err
		}

		if !leaf.isEvaluated() {
			if err := t.evalNode(leaf, t.evalChildren); err != nil {
				return err
			}
		} else if !leaf.truncated() {
			return fmt.Errorf("%w: selected an evaluated node that is neither terminal nor exactly evaluated", ErrInvariantBroken)
		}

		if err := backprop(leaf); err != nil {
			return err
		}
		t.collector.AddSimulation()
	}
	return nil
}

// MakeMove promotes the chosen child to root, severing its parent
// back-reference so discarded ancestors can never be mutated again.
func (t *Tree[S]) MakeMove(choice int) error {
	children := t.root.getChildren()
	if choice < 0 || choice >= len(children) {
		return fmt.Errorf("%w: child index %d with %d children", ErrIllegalMove, choice, len(children))
	}
	child := children[choice]
	child.orphan()
	t.root = child
	return nil
}

// MakeMoveAction promotes the child whose action text matches.
func (t *Tree[S]) MakeMoveAction(actionText string, flip bool) error {
	for i, child := range t.root.getChildren() {
		if child.state.ActionText(flip) == actionText {
			return t.MakeMove(i)
		}
	}
	return fmt.Errorf("%w: %q", ErrIllegalMove, actionText)
}

// State returns the root position.
func (t *Tree[S]) State() S {
	return t.root.state
}

func (t *Tree[S]) IsEvaluated() bool {
	return t.root.isEvaluated()
}

func (t *Tree[S]) VisitCount() int {
	return t.root.visits
}

// Equity returns the root's equity from the side-to-move's
// perspective. ErrNotEvaluated before the first evaluation.
func (t *Tree[S]) Equity() (float64, error) {
	return t.root.equity()
}

func (t *Tree[S]) CheckNonTerminalEval() bool {
	return t.root.checkNonTerminalEval()
}

// ActionCount is the number of legal moves at the root.
func (t *Tree[S]) ActionCount() int {
	return len(t.root.getChildren())
}

// LegalActions lists the action texts of the root's children in move
// generation order.
func (t *Tree[S]) LegalActions(flip bool) []string {
	children := t.root.getChildren()
	actions := make([]string, len(children))
	for i, child := range children {
		actions[i] = child.state.ActionText(flip)
	}
	return actions
}
