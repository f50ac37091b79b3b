package searcher

import (
	"fmt"
	"math"

	"github.com/Tuee22/mcts/game"
)

// evalSentinel marks a node that has never been evaluated.
const evalSentinel = -math.MaxFloat64

// node caches the statistics of every simulation that has passed
// through a reached game state. A node exclusively owns its children;
// the parent pointer is a non-owning back-reference used only by the
// upward walk of backprop, and is cleared (orphan) when the node is
// promoted to root.
type node[S game.State[S]] struct {
	state  S
	parent *node[S]

	children      []*node[S]
	childrenBuilt bool

	evalProbs []float64 // per-child priors; nil when the evaluator provides none
	evalQ     float64   // stored evaluation, side-to-move perspective
	qSum      float64   // sum of backpropagated equities, side-to-move perspective
	visits    int       // backprop events this node participated in

	// Monotone: once set, selection at this node switches from the
	// unexplored-first regime to UCT/PUCT scoring.
	allChildrenEvaluated bool
}

func newNode[S game.State[S]](state S, parent *node[S]) *node[S] {
	return &node[S]{state: state, parent: parent, evalQ: evalSentinel}
}

// getChildren materializes the successor nodes on first access. The
// tree is a memoized view of a conceptually infinite game tree;
// insertion order follows LegalMoves order and is the identity of a
// child by index.
func (n *node[S]) getChildren() []*node[S] {
	if !n.childrenBuilt {
		moves := n.state.LegalMoves()
		n.children = make([]*node[S], len(moves))
		for i, s := range moves {
			n.children[i] = newNode(s, n)
		}
		n.childrenBuilt = true
	}
	return n.children
}

func (n *node[S]) isEvaluated() bool {
	return n.evalQ > evalSentinel
}

// orphan severs the parent back-reference so a climbing backprop
// terminates here and never mutates discarded ancestors.
func (n *node[S]) orphan() {
	n.parent = nil
}

// equity is qSum/visits once the node has visits, the raw evaluation
// before then. Always in [-1, 1] and from the side-to-move's
// perspective at this node.
func (n *node[S]) equity() (float64, error) {
	if !n.isEvaluated() {
		return 0, ErrNotEvaluated
	}
	eq := n.evalQ
	if n.visits > 0 {
		eq = n.qSum / float64(n.visits)
	}
	if eq < -1 || eq > 1 {
		return 0, fmt.Errorf("%w: equity %v out of [-1, 1] (qSum=%v visits=%d evalQ=%v)",
			ErrInvariantBroken, eq, n.qSum, n.visits, n.evalQ)
	}
	return eq, nil
}

func (n *node[S]) checkNonTerminalEval() bool {
	_, ok := n.state.CheckNonTerminalEval()
	return ok
}

// truncated reports whether selection must stop at this node: its value
// is settled (terminal or exact non-terminal eval) and its subtree is
// never descended into.
func (n *node[S]) truncated() bool {
	return n.state.IsTerminal() || n.checkNonTerminalEval()
}
