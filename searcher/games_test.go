package searcher

import "fmt"

// mockState is a hand-wired position: every answer the tree might ask
// for is a field. Successors are embedded literally, so a test can lay
// out an exact two- or three-ply shape.
type mockState struct {
	id        int
	terminal  bool
	terminalQ float64
	nte       bool
	nteQ      float64
	rank      int
	moves     []mockState
	evalQ     float64
	probs     []float64
	text      string
}

func (m mockState) Clone(flip bool) mockState { return m }
func (m mockState) Equal(o mockState) bool    { return m.id == o.id }
func (m mockState) IsTerminal() bool          { return m.terminal }
func (m mockState) TerminalEval() float64     { return m.terminalQ }

func (m mockState) CheckNonTerminalEval() (float64, bool) { return m.nteQ, m.nte }
func (m mockState) NonTerminalRank() int                  { return m.rank }
func (m mockState) LegalMoves() []mockState               { return m.moves }

func (m mockState) Eval(children []mockState) (float64, []float64) { return m.evalQ, m.probs }

func (m mockState) ActionText(flip bool) string {
	if flip {
		return m.text + "'"
	}
	return m.text
}

func (m mockState) Display() string { return fmt.Sprintf("mock %d", m.id) }

// twoMoveRoot is the smallest interesting game: two legal moves, one an
// immediate win for the mover (the child's side to move loses), one an
// immediate draw.
func twoMoveRoot() mockState {
	return mockState{
		id: 0,
		moves: []mockState{
			{id: 1, terminal: true, terminalQ: -1, text: "win"},
			{id: 2, terminal: true, terminalQ: 0, text: "draw"},
		},
	}
}

// fanRoot has width immediate moves, each leading through branch
// replies to a terminal won by the root mover. Every playout comes
// back +1 for the root, so its equity is exactly 1.0.
func fanRoot(width, branch int) mockState {
	leaf := mockState{id: 2000, terminal: true, terminalQ: 1, text: "end"}

	root := mockState{id: 0, text: "start"}
	for i := 0; i < width; i++ {
		mid := mockState{id: 1000 + i, text: fmt.Sprintf("m%d", i)}
		for j := 0; j < branch; j++ {
			end := leaf
			end.id = 2000 + i*branch + j
			end.text = fmt.Sprintf("e%d.%d", i, j)
			mid.moves = append(mid.moves, end)
		}
		root.moves = append(root.moves, mid)
	}
	return root
}

// countdown is a take-1-2-or-3 Nim: the side to move with no tokens
// left has lost. Deep enough for real searches, branchy enough for
// tie-breaks, and its perfect play is known (multiples of 4 lose).
type countdown struct {
	tokens int
	take   int // the move that produced this state
}

func (c countdown) Clone(flip bool) countdown { return c }
func (c countdown) Equal(o countdown) bool    { return c.tokens == o.tokens && c.take == o.take }
func (c countdown) IsTerminal() bool          { return c.tokens == 0 }
func (c countdown) TerminalEval() float64     { return -1 }

func (c countdown) CheckNonTerminalEval() (float64, bool) { return 0, false }
func (c countdown) NonTerminalRank() int                  { return c.tokens }

func (c countdown) LegalMoves() []countdown {
	var moves []countdown
	for take := 1; take <= 3 && take <= c.tokens; take++ {
		moves = append(moves, countdown{tokens: c.tokens - take, take: take})
	}
	return moves
}

func (c countdown) Eval(children []countdown) (float64, []float64) {
	// Crude heuristic: losing-class positions (multiples of 4) score
	// low for the side to move.
	if c.tokens%4 == 0 {
		return -0.5, nil
	}
	return 0.5, nil
}

func (c countdown) ActionText(flip bool) string {
	if flip {
		return fmt.Sprintf("opp-take%d", c.take)
	}
	return fmt.Sprintf("take%d", c.take)
}

func (c countdown) Display() string { return fmt.Sprintf("%d tokens", c.tokens) }

// cycleState never terminates: its only move is itself. Rollouts from
// it must hit the iteration cap.
type cycleState struct{}

func (cycleState) Clone(flip bool) cycleState             { return cycleState{} }
func (cycleState) Equal(cycleState) bool                  { return true }
func (cycleState) IsTerminal() bool                       { return false }
func (cycleState) TerminalEval() float64                  { return 0 }
func (cycleState) CheckNonTerminalEval() (float64, bool)  { return 0, false }
func (cycleState) NonTerminalRank() int                   { return 0 }
func (cycleState) LegalMoves() []cycleState               { return []cycleState{{}} }
func (cycleState) Eval([]cycleState) (float64, []float64) { return 0, nil }
func (cycleState) ActionText(bool) string                 { return "spin" }
func (cycleState) Display() string                        { return "cycle" }
