package searcher

import "errors"

// Error taxonomy of the tree engine. Callers match with errors.Is;
// wrapped messages carry the offending values.
var (
	// ErrIllegalMove is returned when a requested action text or child
	// index does not match any child of the current root.
	ErrIllegalMove = errors.New("illegal move")

	// ErrIllegalSimulation is returned when Simulate is called on a
	// terminal root, or a root with no legal children.
	ErrIllegalSimulation = errors.New("cannot simulate from a terminal state")

	// ErrNotEvaluated is returned when equity is requested from a node
	// that has never been evaluated.
	ErrNotEvaluated = errors.New("cannot get equity without evaluation")

	// ErrDoubleEval indicates eval was called on an already evaluated
	// node. This is an internal bug, not a caller mistake.
	ErrDoubleEval = errors.New("eval called on an already evaluated node")

	// ErrInvariantBroken indicates corrupted search state: an equity
	// outside [-1, 1], a non-terminal node with zero children, or a
	// selection that found no leaf.
	ErrInvariantBroken = errors.New("search invariant broken")

	// ErrRolloutDiverged is returned when a random playout exceeds
	// maxRolloutIters without reaching a terminal state.
	ErrRolloutDiverged = errors.New("rollout reached max iterations without end of episode")

	// ErrNoLegalMoves is returned when an action choice is requested
	// from a position with no children.
	ErrNoLegalMoves = errors.New("no legal moves")
)
