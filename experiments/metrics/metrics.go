package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarizes one search burst: everything the tree did
// between Start and Complete.
type SearchMetric struct {
	StartTime    time.Time
	Duration     time.Duration
	Simulations  int
	FullPlayouts int // rollouts that reached an actual terminal state
	RolloutSteps int
	TreeReset    bool
}

// MoveRecord ties a search burst to the move it produced.
type MoveRecord struct {
	Game   string // GameRecord.ID
	Step   int
	Action string
	Visits int
	Equity float64
	SearchMetric
}

// GameRecord summarizes one finished self-play game.
type GameRecord struct {
	ID        string
	Seed      uint64
	Moves     int
	Outcome   float64 // terminal eval from the final side-to-move's perspective
	StartTime time.Time
	Duration  time.Duration
}

// Collector accumulates search counters. Implementations must be safe
// for concurrent increments; the searcher calls the Add methods from
// whatever goroutine runs the simulation.
type Collector interface {
	Start()
	AddSimulation()
	AddFullPlayout()
	AddRolloutSteps(n int)
	SetTreeReset(value bool)
	Complete() SearchMetric
}

type collector struct {
	startTime    time.Time
	simulations  atomic.Int64
	fullPlayouts atomic.Int64
	rolloutSteps atomic.Int64
	treeReset    atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start() {
	c.startTime = time.Now()
	c.simulations.Store(0)
	c.fullPlayouts.Store(0)
	c.rolloutSteps.Store(0)
	c.treeReset.Store(false)
}

func (c *collector) AddSimulation() {
	c.simulations.Add(1)
}

func (c *collector) AddFullPlayout() {
	c.fullPlayouts.Add(1)
}

func (c *collector) AddRolloutSteps(n int) {
	c.rolloutSteps.Add(int64(n))
}

func (c *collector) SetTreeReset(value bool) {
	c.treeReset.Store(value)
}

func (c *collector) Complete() SearchMetric {
	return SearchMetric{
		StartTime:    c.startTime,
		Duration:     time.Since(c.startTime),
		Simulations:  int(c.simulations.Load()),
		FullPlayouts: int(c.fullPlayouts.Load()),
		RolloutSteps: int(c.rolloutSteps.Load()),
		TreeReset:    c.treeReset.Load(),
	}
}

type dummyCollector struct{}

// NewDummyCollector returns a collector that records nothing, for
// hosts that don't care about search statistics.
func NewDummyCollector() Collector {
	return dummyCollector{}
}

func (dummyCollector) Start()                 {}
func (dummyCollector) AddSimulation()         {}
func (dummyCollector) AddFullPlayout()        {}
func (dummyCollector) AddRolloutSteps(int)    {}
func (dummyCollector) SetTreeReset(bool)      {}
func (dummyCollector) Complete() SearchMetric { return SearchMetric{} }
