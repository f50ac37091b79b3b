package engine

// Config enumerates the driver's search options.
type Config struct {
	// C is the exploration constant; must be positive.
	C float64

	// Seed determines rollouts, tie-breaks and epsilon draws. Two
	// drivers with identical config, seed and move sequence produce
	// identical statistics.
	Seed uint64

	// MinSimulations is the number of simulations driven before
	// SetStateAndMakeBestMove commits to a move.
	MinSimulations int

	// MaxSimulations is tracked but never enforced; it exists for
	// hosts that want to budget a search themselves.
	MaxSimulations int

	// SimIncrement is how many simulations the worker runs per lock
	// cycle. Zero leaves the driver inert: targets are dropped rather
	// than spun on.
	SimIncrement int

	UseRollout   bool
	EvalChildren bool
	UsePUCT      bool
	UseProbs     bool

	// DecideUsingVisits makes the greedy action tier pick by visit
	// count rather than equity.
	DecideUsingVisits bool

	// FalseTerminalMoves masks GetEvaluation when the equity is
	// exactly +/-1.0 while the root still has more legal moves than
	// this: such "terminals" this early are artifacts, not results.
	FalseTerminalMoves int
}

// DefaultFalseTerminalMoves suits a Corridors-sized early-game
// fan-out; games with different branching should tune it.
const DefaultFalseTerminalMoves = 80

func DefaultConfig() Config {
	return Config{
		C:                  1.4,
		Seed:               42,
		MinSimulations:     100,
		MaxSimulations:     10000,
		SimIncrement:       50,
		UseRollout:         true,
		EvalChildren:       false,
		UsePUCT:            false,
		UseProbs:           false,
		DecideUsingVisits:  true,
		FalseTerminalMoves: DefaultFalseTerminalMoves,
	}
}
