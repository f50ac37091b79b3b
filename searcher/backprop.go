package searcher

import (
	"fmt"

	"github.com/Tuee22/mcts/game"
)

// backprop walks from the leaf to the current root via the parent
// back-references, adding the leaf's evaluation to every node's qSum
// with a sign that alternates ply by ply (positive at the leaf itself)
// and incrementing every visit count. The walk stops at the first node
// with no parent: the root, which was orphaned at promotion time.
func backprop[S game.State[S]](leaf *node[S]) error {
	if !leaf.isEvaluated() {
		return fmt.Errorf("%w: cannot backprop without an evaluation", ErrInvariantBroken)
	}
	// Revisiting a leaf is legitimate only when its value is settled;
	// anything else means selection failed to reach a fresh node.
	if leaf.visits > 0 && !leaf.truncated() {
		return fmt.Errorf("%w: cannot backprop again from a visited node that is neither terminal nor exactly evaluated", ErrInvariantBroken)
	}

	sign := 1.0
	for curr := leaf; curr != nil; curr = curr.parent {
		curr.qSum += sign * leaf.evalQ
		curr.visits++
		sign = -sign
	}
	return nil
}
