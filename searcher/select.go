package searcher

import (
	"fmt"
	"math"
)

// selectLeaf walks from the given node down to a leaf suitable for
// evaluation: a node that is unevaluated, terminal, or exactly
// evaluated. While a node still has unevaluated children one is picked
// uniformly at random; once all are evaluated the walk scores every
// child and descends into the best.
func (t *Tree[S]) selectLeaf(from *node[S]) (*node[S], error) {
	curr := from
	for {
		children := curr.getChildren()
		if len(children) == 0 {
			return nil, fmt.Errorf("%w: selection encountered a node with no children", ErrInvariantBroken)
		}

		best := -1
		if !curr.allChildrenEvaluated {
			unexplored := make([]int, 0, len(children))
			for i, child := range children {
				if !child.isEvaluated() {
					unexplored = append(unexplored, i)
				}
			}
			if len(unexplored) > 1 {
				best = unexplored[t.rng.Intn(len(unexplored))]
			} else if len(unexplored) == 1 {
				best = unexplored[0]
			} else {
				curr.allChildrenEvaluated = true
			}
		}

		if curr.allChildrenEvaluated {
			var err error
			best, err = t.bestScoringChild(curr)
			if err != nil {
				return nil, err
			}
		}

		curr = children[best]
		if !curr.isEvaluated() || curr.truncated() {
			return curr, nil
		}
	}
}

// bestScoringChild applies the UCT or PUCT formula across all children
// of a fully evaluated parent and returns the index of the highest
// scorer, breaking exact ties uniformly at random.
func (t *Tree[S]) bestScoringChild(parent *node[S]) (int, error) {
	children := parent.getChildren()

	// The parent's first visit is its own self-backprop after
	// evaluation, not a sibling visit, so it is excluded from N.
	bigN := float64(parent.visits) - 1

	maxScore := math.Inf(-1)
	var best []int
	for i, child := range children {
		q, err := child.equity()
		if err != nil {
			return 0, err
		}

		// Child equity is from the villain's perspective; flip it.
		score := -q

		var u float64
		if bigN > 0 {
			if t.usePUCT {
				u = math.Sqrt(bigN) / (1 + float64(child.visits))
			} else {
				u = math.Sqrt(math.Log(bigN) / math.Max(float64(child.visits), 1))
			}
		}
		if t.useProbs && len(parent.evalProbs) > 0 {
			u *= parent.evalProbs[i]
		}
		score += t.c * u

		if score >= maxScore {
			if score > maxScore {
				best = best[:0]
				maxScore = score
			}
			best = append(best, i)
		}
	}

	switch len(best) {
	case 0:
		return 0, fmt.Errorf("%w: failed to select a child", ErrInvariantBroken)
	case 1:
		return best[0], nil
	default:
		return best[t.rng.Intn(len(best))], nil
	}
}
