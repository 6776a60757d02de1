package engine

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"bgeval-api/internal/board"
	"bgeval-api/internal/eval"
)

// RolloutOptions controls a Monte Carlo rollout.
type RolloutOptions struct {
	Trials   int   // games to simulate; default 1296
	Truncate int   // stop after this many half-moves and evaluate statically; 0 plays to the end
	Seed     int64 // 0 draws a random seed; any other value reproduces the run
	Workers  int   // parallel workers; default GOMAXPROCS
}

// RolloutResult is the aggregated outcome distribution of a rollout with
// its sampling error.
type RolloutResult struct {
	Evaluation
	EquityStdDev float64
	EquityCI95   float64
	Trials       int
	Seed         int64
}

// Rollout estimates the equity of state by playing it out opts.Trials
// times with 0-ply checker play. Each worker runs a fixed share of the
// trials with its own RNG seeded from opts.Seed, and partials merge in
// worker order, so a fixed seed and worker count reproduce the result
// exactly regardless of scheduling.
func (e *Engine) Rollout(ctx context.Context, state *GameState, opts RolloutOptions) (*RolloutResult, error) {
	if opts.Trials <= 0 {
		opts.Trials = 1296
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Int63()
	}
	if opts.Workers > opts.Trials {
		opts.Workers = opts.Trials
	}

	partials := make([]rolloutPartial, opts.Workers)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < opts.Workers; w++ {
		w := w
		trials := opts.Trials / opts.Workers
		if w < opts.Trials%opts.Workers {
			trials++
		}
		seed := opts.Seed + int64(w)*1_000_003

		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < trials; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				ev, err := e.playOut(state, rng, opts.Truncate)
				if err != nil {
					return err
				}
				partials[w].add(ev)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total rolloutPartial
	for i := range partials {
		total.merge(&partials[i])
	}

	n := float64(total.trials)
	res := &RolloutResult{
		Evaluation: Evaluation{
			Win:    total.sum[0] / n,
			WinG:   total.sum[1] / n,
			WinBG:  total.sum[2] / n,
			LoseG:  total.sum[3] / n,
			LoseBG: total.sum[4] / n,
		},
		Trials: total.trials,
		Seed:   opts.Seed,
	}
	res.setEquity()
	res.EquityStdDev = stdDev(total.sumEq, total.sumSqEq, n)
	res.EquityCI95 = 1.96 * res.EquityStdDev / math.Sqrt(n)
	return res, nil
}

type rolloutPartial struct {
	sum     [5]float64
	sumEq   float64
	sumSqEq float64
	trials  int
}

func (p *rolloutPartial) add(ev Evaluation) {
	p.sum[0] += ev.Win
	p.sum[1] += ev.WinG
	p.sum[2] += ev.WinBG
	p.sum[3] += ev.LoseG
	p.sum[4] += ev.LoseBG
	p.sumEq += ev.Equity
	p.sumSqEq += ev.Equity * ev.Equity
	p.trials++
}

func (p *rolloutPartial) merge(o *rolloutPartial) {
	for i := range p.sum {
		p.sum[i] += o.sum[i]
	}
	p.sumEq += o.sumEq
	p.sumSqEq += o.sumSqEq
	p.trials += o.trials
}

// playOut simulates one game from state with both sides playing their
// 0-ply best move. The returned evaluation is from the perspective of the
// side on roll in state.
func (e *Engine) playOut(state *GameState, rng *rand.Rand, truncate int) (Evaluation, error) {
	b := state.Board
	flipped := false

	const maxHalfMoves = 1000
	for halfMove := 0; halfMove < maxHalfMoves; halfMove++ {
		if truncate > 0 && halfMove >= truncate {
			break
		}
		if eval.Classify(b) == eval.ClassOver {
			break
		}

		d0 := rng.Intn(6) + 1
		d1 := rng.Intn(6) + 1

		ml := GenerateMoves(b, d0, d1)
		if len(ml.Moves) > 0 {
			best, err := e.pickBest(b, ml.Moves)
			if err != nil {
				return Evaluation{}, err
			}
			b = ApplyMove(b, best)
		}

		b = board.Swap(b)
		flipped = !flipped
	}

	ev, err := e.EvaluateCached(&GameState{Board: b, Turn: 1, CubeValue: 1, CubeOwner: -1}, 0)
	if err != nil {
		return Evaluation{}, err
	}
	if flipped {
		ev = ev.Invert()
	}
	return ev, nil
}

// pickBest returns the move whose resulting position evaluates best for
// the mover at 0 ply.
func (e *Engine) pickBest(b board.Board, moves []Move) (Move, error) {
	best := moves[0]
	bestEq := math.Inf(-1)

	for _, m := range moves {
		reply := &GameState{
			Board:     board.Swap(ApplyMove(b, m)),
			Turn:      0,
			CubeValue: 1,
			CubeOwner: -1,
		}
		ev, err := e.EvaluateCached(reply, 0)
		if err != nil {
			return Move{}, err
		}
		if eq := -ev.Equity; eq > bestEq {
			bestEq = eq
			best = m
		}
	}
	return best, nil
}

func stdDev(sum, sumSq, n float64) float64 {
	if n <= 1 {
		return 0
	}
	mean := sum / n
	variance := (sumSq/n - mean*mean) * n / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
