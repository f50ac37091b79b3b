// Package experiments runs self-play batches over any searchable game,
// recording per-move search statistics for offline analysis.
package experiments

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Tuee22/mcts/experiments/metrics"
	"github.com/Tuee22/mcts/game"
	"github.com/Tuee22/mcts/searcher"
)

type SelfPlayConfig struct {
	Games       int
	Parallelism int // concurrent games; <= 0 means one at a time

	// Simulations per move decision.
	Simulations int

	// Seed for the first game; game i uses Seed + i so runs are
	// reproducible yet games differ.
	Seed uint64

	Epsilon           float64
	DecideUsingVisits bool

	// MaxMoves aborts a game that refuses to end.
	MaxMoves int
}

type SelfPlayResult struct {
	Games []metrics.GameRecord
	Moves []metrics.MoveRecord
}

const defaultMaxMoves = 300

// SelfPlay plays cfg.Games games of the given game against itself,
// one goroutine per game, and returns the collected records. start
// builds the initial state of one game.
func SelfPlay[S game.State[S]](ctx context.Context, start func() S, cfg SelfPlayConfig, options ...searcher.Option[S]) (SelfPlayResult, error) {
	if cfg.MaxMoves <= 0 {
		cfg.MaxMoves = defaultMaxMoves
	}

	var (
		mu     sync.Mutex
		result SelfPlayResult
	)

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Parallelism > 0 {
		g.SetLimit(cfg.Parallelism)
	} else {
		g.SetLimit(1)
	}

	for i := 0; i < cfg.Games; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gameRecord, moveRecords, err := playGame(start(), cfg, cfg.Seed+uint64(i), options...)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Games = append(result.Games, gameRecord)
			result.Moves = append(result.Moves, moveRecords...)
			mu.Unlock()

			log.Info().Str("game", gameRecord.ID).Int("moves", gameRecord.Moves).
				Float64("outcome", gameRecord.Outcome).Msg("self-play game finished")
			return nil
		})
	}

	err := g.Wait()
	return result, err
}

func playGame[S game.State[S]](state S, cfg SelfPlayConfig, seed uint64, options ...searcher.Option[S]) (metrics.GameRecord, []metrics.MoveRecord, error) {
	collector := metrics.NewCollector()
	opts := append([]searcher.Option[S]{searcher.WithCollector[S](collector)}, options...)
	tree := searcher.New(state, seed, opts...)

	record := metrics.GameRecord{
		ID:        uuid.NewString(),
		Seed:      seed,
		StartTime: time.Now(),
	}
	var moves []metrics.MoveRecord

	for step := 0; step < cfg.MaxMoves; step++ {
		if tree.State().IsTerminal() {
			break
		}

		collector.Start()
		if err := tree.Simulate(cfg.Simulations); err != nil {
			if errors.Is(err, searcher.ErrIllegalSimulation) {
				break
			}
			return record, moves, err
		}
		searched := tree.VisitCount()
		if err := tree.ChooseBestAction(cfg.Epsilon, cfg.DecideUsingVisits); err != nil {
			return record, moves, err
		}

		// The new root is the move just played; its equity is the
		// villain's, so the mover's view is the negation.
		equity, err := tree.Equity()
		if err != nil {
			return record, moves, err
		}
		moves = append(moves, metrics.MoveRecord{
			Game:         record.ID,
			Step:         step,
			Action:       tree.State().ActionText(false),
			Visits:       searched,
			Equity:       -equity,
			SearchMetric: collector.Complete(),
		})
		record.Moves++
	}

	if tree.State().IsTerminal() {
		record.Outcome = tree.State().TerminalEval()
	}
	record.Duration = time.Since(record.StartTime)
	return record, moves, nil
}
