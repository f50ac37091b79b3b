package searcher

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Action is one entry of the sorted-actions report. Equity is from the
// perspective of the player to move at the parent (the caller), not the
// child; unevaluated children carry the lowest representable value.
type Action struct {
	Visits int
	Equity float64
	Action string
}

// ChooseBestAction picks a child by the four-tier policy and promotes
// it to root:
//
//  1. an immediately winning terminal child, uniformly among several;
//  2. when this position has an exact non-terminal evaluation, the
//     child with minimum rank (heuristic-decided territory);
//  3. with probability epsilon, a uniformly random child;
//  4. greedy on visits or equity, uniformly among ties.
func (t *Tree[S]) ChooseBestAction(epsilon float64, decideUsingVisits bool) error {
	if epsilon < 0 || epsilon > 1 {
		return fmt.Errorf("%w: epsilon %v outside [0, 1]", ErrInvariantBroken, epsilon)
	}
	children := t.root.getChildren()
	if len(children) == 0 {
		return ErrNoLegalMoves
	}

	choice := -1

	// A terminal child with negative equity is a win for the side to
	// move here: child equity is from the villain's perspective.
	var winning []int
	for i, child := range children {
		if !child.state.IsTerminal() {
			continue
		}
		q, err := child.equity()
		if err != nil {
			return err
		}
		if q < 0 {
			winning = append(winning, i)
		}
	}

	switch {
	case len(winning) > 1:
		choice = winning[t.rng.Intn(len(winning))]
	case len(winning) == 1:
		choice = winning[0]
	case t.root.checkNonTerminalEval():
		// Heuristic-decided territory: the tree no longer matters,
		// minimize the villain's rank. No random tie-break.
		minRank := math.MaxInt
		for i, child := range children {
			if r := child.state.NonTerminalRank(); r < minRank {
				minRank = r
				choice = i
			}
		}
	case epsilon > 0 && t.rng.Float64() < epsilon:
		choice = t.rng.Intn(len(children))
	default:
		ties, err := t.greedyTies(decideUsingVisits)
		if err != nil {
			return err
		}
		if len(ties) > 1 {
			choice = ties[t.rng.Intn(len(ties))]
		} else {
			choice = ties[0]
		}
	}

	if choice < 0 {
		return fmt.Errorf("%w: unable to find a choice", ErrInvariantBroken)
	}
	if err := t.MakeMove(choice); err != nil {
		return err
	}
	if !t.root.state.IsTerminal() && len(t.root.getChildren()) == 0 {
		return fmt.Errorf("%w: position is not terminal but has no children", ErrInvariantBroken)
	}
	return nil
}

// greedyTies collects the children tied for the maximum visit count or
// the maximum parent-perspective equity. Random choice among ties
// happens at the caller; breaking ties at all avoids move cycles in
// drawn-out positions.
func (t *Tree[S]) greedyTies(decideUsingVisits bool) ([]int, error) {
	children := t.root.getChildren()
	var ties []int

	if decideUsingVisits {
		maxVisits := 0
		for i, child := range children {
			// Visit counts already look from the parent's perspective.
			if child.visits >= maxVisits {
				if child.visits > maxVisits {
					ties = ties[:0]
					maxVisits = child.visits
				}
				ties = append(ties, i)
			}
		}
	} else {
		maxQ := math.Inf(-1)
		for i, child := range children {
			q, err := child.equity()
			if err != nil {
				return nil, err
			}
			q = -q
			if q >= maxQ {
				if q > maxQ {
					ties = ties[:0]
					maxQ = q
				}
				ties = append(ties, i)
			}
		}
	}

	if len(ties) == 0 {
		return nil, fmt.Errorf("%w: no greedy candidate", ErrInvariantBroken)
	}
	return ties, nil
}

// SortedActions reports every child as (visits, equity, action text),
// best first. The sort is descending on the 4-key order (equity,
// non-terminal rank, visit count, action text): the rank key breaks
// the all-tied-at-1.0 degeneracy of provably won positions that would
// otherwise cycle.
func (t *Tree[S]) SortedActions(flip bool) ([]Action, error) {
	children := t.root.getChildren()

	type row struct {
		equity float64
		rank   float64
		visits int
		text   string
	}
	rows := make([]row, 0, len(children))
	for _, child := range children {
		equity := evalSentinel
		if child.isEvaluated() {
			q, err := child.equity()
			if err != nil {
				return nil, err
			}
			equity = -q // reported from the parent's perspective
		}
		rows = append(rows, row{
			equity: equity,
			rank:   float64(child.state.NonTerminalRank()),
			visits: child.visits,
			text:   child.state.ActionText(flip),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.equity != b.equity {
			return a.equity > b.equity
		}
		if a.rank != b.rank {
			return a.rank > b.rank
		}
		if a.visits != b.visits {
			return a.visits > b.visits
		}
		return a.text > b.text
	})

	actions := make([]Action, len(rows))
	for i, r := range rows {
		actions[i] = Action{Visits: r.visits, Equity: r.equity, Action: r.text}
	}
	return actions, nil
}

// Display renders the root's total visits and its sorted actions as
// text. Unevaluated children show "NA" in place of an equity.
func (t *Tree[S]) Display(flip bool) (string, error) {
	actions, err := t.SortedActions(flip)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total Visits: %d\n", t.root.visits)
	for _, a := range actions {
		eq := "NA"
		if a.Equity > evalSentinel {
			eq = strconv.FormatFloat(a.Equity, 'f', -1, 64)
			if len(eq) > 6 {
				eq = eq[:6]
			}
		}
		fmt.Fprintf(&b, "Visit Count: %d Equity: %s %s\n", a.Visits, eq, a.Action)
	}
	b.WriteString("\n")
	return b.String(), nil
}
