package searcher

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/Tuee22/mcts/game"
)

// maxRolloutIters caps a single random playout; a playout that runs
// this long without settling is reported as diverged.
const maxRolloutIters = 10000

// evalNode resolves a node's first evaluation, in priority order:
// terminal outcome, exact non-terminal evaluation, random rollout,
// bespoke evaluator. Terminal and exactly evaluated nodes are
// truncated: their children are never evaluated by the lookahead pass.
func (t *Tree[S]) evalNode(n *node[S], evalChildren bool) error {
	if n.isEvaluated() {
		return ErrDoubleEval
	}

	truncate := false
	if n.state.IsTerminal() {
		n.evalQ = n.state.TerminalEval()
		truncate = true
	} else if eval, ok := n.state.CheckNonTerminalEval(); ok {
		n.evalQ = eval
		truncate = true
	} else if t.useRollout {
		q, full, steps, err := rollout(n.state, t.rng)
		if err != nil {
			return err
		}
		n.evalQ = q
		t.collector.AddRolloutSteps(steps)
		if full {
			t.collector.AddFullPlayout()
		}
	} else {
		children := n.getChildren()
		states := make([]S, len(children))
		for i, child := range children {
			states[i] = child.state
		}
		q, probs := n.state.Eval(states)
		n.evalQ = q
		n.evalProbs = probs
		if err := validateProbs(probs, len(children)); err != nil {
			return err
		}
	}

	if evalChildren && !truncate {
		for _, child := range n.getChildren() {
			if err := t.evalNode(child, false); err != nil {
				return err
			}
		}
		n.allChildrenEvaluated = true
	}
	return nil
}

func validateProbs(probs []float64, numChildren int) error {
	if len(probs) == 0 {
		return nil
	}
	if len(probs) != numChildren {
		return fmt.Errorf("%w: %d priors for %d children", ErrInvariantBroken, len(probs), numChildren)
	}
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: prior %d is %v", ErrInvariantBroken, i, p)
		}
	}
	return nil
}

// rollout plays uniformly random moves from a copy of start until the
// game ends or an exact evaluation appears. The returned value is from
// the perspective of the side to move at start: move parity flips the
// sign of the settled value. full reports whether a terminal state was
// actually reached (as opposed to an exact evaluation cutting the
// playout short).
func rollout[S game.State[S]](start S, rng *rand.Rand) (q float64, full bool, steps int, err error) {
	curr := start.Clone(false)
	heroTurn := true

	for i := 0; i < maxRolloutIters; i++ {
		if curr.IsTerminal() {
			return perspective(heroTurn) * curr.TerminalEval(), true, i, nil
		}
		if eval, ok := curr.CheckNonTerminalEval(); ok {
			return perspective(heroTurn) * eval, false, i, nil
		}

		moves := curr.LegalMoves()
		if len(moves) == 0 {
			return 0, false, i, fmt.Errorf("%w: non-terminal state with no legal moves in rollout", ErrInvariantBroken)
		}
		curr = moves[rng.Intn(len(moves))]
		heroTurn = !heroTurn
	}
	return 0, false, maxRolloutIters, ErrRolloutDiverged
}

func perspective(heroTurn bool) float64 {
	if heroTurn {
		return 1
	}
	return -1
}
