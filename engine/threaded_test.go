package engine

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// The worker intentionally logs swallowed simulation failures;
	// keep test output readable.
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// countdown is the take-1-2-or-3 Nim used across the driver tests: the
// side to move with no tokens left has lost.
type countdown struct {
	tokens int
	take   int
}

func (c countdown) Clone(flip bool) countdown             { return c }
func (c countdown) Equal(o countdown) bool                { return c.tokens == o.tokens && c.take == o.take }
func (c countdown) IsTerminal() bool                      { return c.tokens == 0 }
func (c countdown) TerminalEval() float64                 { return -1 }
func (c countdown) CheckNonTerminalEval() (float64, bool) { return 0, false }
func (c countdown) NonTerminalRank() int                  { return c.tokens }

func (c countdown) LegalMoves() []countdown {
	var moves []countdown
	for take := 1; take <= 3 && take <= c.tokens; take++ {
		moves = append(moves, countdown{tokens: c.tokens - take, take: take})
	}
	return moves
}

func (c countdown) Eval(children []countdown) (float64, []float64) { return 0, nil }

func (c countdown) ActionText(flip bool) string {
	if flip {
		return fmt.Sprintf("opp-take%d", c.take)
	}
	return fmt.Sprintf("take%d", c.take)
}

func (c countdown) Display() string { return fmt.Sprintf("%d tokens", c.tokens) }

// fan is a wide two-ply game whose every playout is a root win, so the
// root equity is exactly 1.0: the shape that triggers false-terminal
// masking.
type fan struct {
	level int
	idx   int
	width int
}

func (f fan) Clone(flip bool) fan                   { return f }
func (f fan) Equal(o fan) bool                      { return f == o }
func (f fan) IsTerminal() bool                      { return f.level == 2 }
func (f fan) TerminalEval() float64                 { return 1 }
func (f fan) CheckNonTerminalEval() (float64, bool) { return 0, false }
func (f fan) NonTerminalRank() int                  { return f.idx }

func (f fan) LegalMoves() []fan {
	switch f.level {
	case 0:
		moves := make([]fan, f.width)
		for i := range moves {
			moves[i] = fan{level: 1, idx: i, width: f.width}
		}
		return moves
	case 1:
		moves := make([]fan, 3)
		for i := range moves {
			moves[i] = fan{level: 2, idx: f.idx*3 + i, width: f.width}
		}
		return moves
	default:
		return nil
	}
}

func (f fan) Eval(children []fan) (float64, []float64) { return 0, nil }
func (f fan) ActionText(flip bool) string              { return fmt.Sprintf("l%d.%d", f.level, f.idx) }
func (f fan) Display() string                          { return fmt.Sprintf("fan l%d.%d", f.level, f.idx) }

func newCountdownDriver(t *testing.T, cfg Config) *Threaded[countdown] {
	t.Helper()
	driver := New(func() countdown { return countdown{tokens: 21} }, cfg)
	t.Cleanup(driver.Close)
	return driver
}

func TestEnsureSims(t *testing.T) {
	t.Run("drives the root to the requested visit count", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SimIncrement = 10
		driver := newCountdownDriver(t, cfg)

		driver.EnsureSims(100)
		first := driver.VisitCount()
		require.GreaterOrEqual(t, first, 100)

		// Already satisfied: no further simulations run.
		driver.EnsureSims(50)
		require.Equal(t, first, driver.VisitCount())
	})

	t.Run("zero increment leaves the driver dormant", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SimIncrement = 0
		driver := newCountdownDriver(t, cfg)

		driver.EnsureSims(100)
		require.Equal(t, 0, driver.VisitCount())
	})

	t.Run("a terminal root makes no progress but does not hang", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SimIncrement = 10
		driver := New(func() countdown { return countdown{tokens: 0} }, cfg)
		t.Cleanup(driver.Close)

		done := make(chan struct{})
		go func() {
			driver.EnsureSims(10)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("EnsureSims did not return on a terminal root")
		}
		require.Equal(t, 0, driver.VisitCount())
	})
}

func TestQueries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimIncrement = 10
	driver := newCountdownDriver(t, cfg)
	driver.EnsureSims(200)

	t.Run("display renders the flipped or unflipped position", func(t *testing.T) {
		require.Equal(t, "21 tokens", driver.Display(false))
		require.Equal(t, "21 tokens", driver.Display(true))
	})

	t.Run("sorted actions are consistent with legal actions", func(t *testing.T) {
		actions, err := driver.SortedActions(false)
		require.NoError(t, err)
		require.Len(t, actions, 3)

		legal := driver.LegalActions(false)
		require.ElementsMatch(t, legal, []string{"take1", "take2", "take3"})
	})

	t.Run("is terminal reflects the root", func(t *testing.T) {
		require.False(t, driver.IsTerminal())
	})

	t.Run("make move advances and flip resolves opponent notation", func(t *testing.T) {
		require.NoError(t, driver.MakeMove("take1", false))
		require.Equal(t, "20 tokens", driver.Display(false))

		require.NoError(t, driver.MakeMove("opp-take2", true))
		require.Equal(t, "18 tokens", driver.Display(false))

		require.Error(t, driver.MakeMove("take9", false))
	})
}

func TestGetEvaluation(t *testing.T) {
	t.Run("none before any evaluation exists", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SimIncrement = 0
		driver := newCountdownDriver(t, cfg)

		_, ok := driver.GetEvaluation()
		require.False(t, ok)
	})

	t.Run("a perfect score over a huge fan is a false terminal", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SimIncrement = 25
		cfg.Seed = 7
		driver := New(func() fan { return fan{level: 0, width: 100} }, cfg)
		t.Cleanup(driver.Close)

		driver.EnsureSims(150)
		_, ok := driver.GetEvaluation()
		require.False(t, ok, "equity 1.0 with 100 legal moves must be masked")

		// One move down the fan-out is small and the value passes.
		actions, err := driver.SortedActions(false)
		require.NoError(t, err)
		require.NoError(t, driver.MakeMove(actions[0].Action, false))

		eval, ok := driver.GetEvaluation()
		require.True(t, ok)
		require.Equal(t, -1.0, eval)
	})

	t.Run("ordinary equities pass through", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SimIncrement = 10
		driver := newCountdownDriver(t, cfg)
		driver.EnsureSims(100)

		eval, ok := driver.GetEvaluation()
		require.True(t, ok)
		require.GreaterOrEqual(t, eval, -1.0)
		require.LessOrEqual(t, eval, 1.0)
	})
}

func TestChooseBestAction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimIncrement = 10
	driver := newCountdownDriver(t, cfg)
	driver.EnsureSims(300)

	action, err := driver.ChooseBestAction(0)
	require.NoError(t, err)
	require.Contains(t, []string{"take1", "take2", "take3"}, action)

	// The displayed position reflects the committed move.
	taken := int(action[len(action)-1] - '0')
	require.Equal(t, fmt.Sprintf("%d tokens", 21-taken), driver.Display(false))
}

func TestSetStateAndMakeBestMove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimIncrement = 10
	cfg.MinSimulations = 50
	driver := newCountdownDriver(t, cfg)

	// From 3 tokens take3 empties the pile, leaving the opponent to move
	// with nothing left: the winning-terminal tier picks it.
	action, err := driver.SetStateAndMakeBestMove(countdown{tokens: 3}, false)
	require.NoError(t, err)
	require.Equal(t, "take3", action)
	require.True(t, driver.IsTerminal())

	// A terminal input has no moves to choose from.
	_, err = driver.SetStateAndMakeBestMove(countdown{tokens: 0}, false)
	require.Error(t, err)
}

func TestDeterministicDrivers(t *testing.T) {
	run := func() []string {
		cfg := DefaultConfig()
		cfg.SimIncrement = 10
		cfg.Seed = 99
		driver := New(func() countdown { return countdown{tokens: 17} }, cfg)
		defer driver.Close()

		driver.EnsureSims(200)
		require.NoError(t, driver.MakeMove("take2", false))
		driver.EnsureSims(300)

		actions, err := driver.SortedActions(false)
		require.NoError(t, err)
		out := make([]string, len(actions))
		for i, a := range actions {
			out[i] = fmt.Sprintf("%d %.4f %s", a.Visits, a.Equity, a.Action)
		}
		return out
	}
	require.Equal(t, run(), run())
}

func TestConcurrentAccess(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimIncrement = 20
	driver := newCountdownDriver(t, cfg)

	done := make(chan struct{})
	go func() {
		driver.EnsureSims(2000)
		close(done)
	}()

	// Queries interleave with the running search; the lock serializes
	// them against single simulations.
	for i := 0; i < 50; i++ {
		driver.Display(false)
		if _, err := driver.SortedActions(false); err != nil {
			t.Errorf("sorted actions during search: %v", err)
		}
		driver.VisitCount()
		driver.GetEvaluation()
	}
	<-done
	require.GreaterOrEqual(t, driver.VisitCount(), 2000)
}

func TestCloseUnblocksEnsureSims(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimIncrement = 1
	driver := New(func() countdown { return countdown{tokens: 50} }, cfg)

	done := make(chan struct{})
	go func() {
		driver.EnsureSims(1_000_000)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	driver.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("EnsureSims did not unblock on Close")
	}
}

func TestReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimIncrement = 10
	driver := newCountdownDriver(t, cfg)

	driver.EnsureSims(100)
	require.NoError(t, driver.MakeMove("take1", false))
	require.Equal(t, "20 tokens", driver.Display(false))

	driver.Reset()
	require.Equal(t, "21 tokens", driver.Display(false))
	require.Equal(t, 0, driver.VisitCount())
}
