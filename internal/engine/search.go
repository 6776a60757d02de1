package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"bgeval-api/internal/board"
	"bgeval-api/internal/eval"
)

// MaxPlies is the deepest supported lookahead.
const MaxPlies = 2

// allRolls is the 21 unordered dice rolls with their relative weights out
// of 36. The order is fixed so that multi-ply results sum the same way on
// every run.
var allRolls = func() [21]struct{ d0, d1, weight int } {
	var rolls [21]struct{ d0, d1, weight int }
	n := 0
	for d0 := 1; d0 <= 6; d0++ {
		for d1 := 1; d1 <= d0; d1++ {
			w := 2
			if d0 == d1 {
				w = 1
			}
			rolls[n] = struct{ d0, d1, weight int }{d0, d1, w}
			n++
		}
	}
	return rolls
}()

// EvaluatePlied evaluates state with an n-ply lookahead. Ply 0 is the
// static model. Each additional ply rolls every one of the 21 dice
// combinations for the side on roll, plays its best move and evaluates
// the reply position one ply shallower, averaging the outcomes weighted
// by roll probability.
//
// The roll branches of the outermost ply run concurrently, bounded by the
// engine's parallelism; their results land in a fixed-order array before
// summation so equal inputs always produce bit-equal output. A cancelled
// ctx aborts the search and returns ctx.Err().
func (e *Engine) EvaluatePlied(ctx context.Context, state *GameState, plies int) (Evaluation, error) {
	return e.evaluatePlied(ctx, state, plies, false)
}

// EvaluatePliedCubeful is EvaluatePlied with reply selection and the
// returned equity switched to the Janowski cubeful value for the state's
// cube context. The probability fields stay cubeless.
func (e *Engine) EvaluatePliedCubeful(ctx context.Context, state *GameState, plies int) (Evaluation, error) {
	ev, err := e.evaluatePlied(ctx, state, plies, true)
	if err != nil {
		return Evaluation{}, err
	}
	ev.Equity = e.cubefulEquity(ev, cubeInfoFromState(state))
	return ev, nil
}

func (e *Engine) evaluatePlied(ctx context.Context, state *GameState, plies int, cubeful bool) (Evaluation, error) {
	if plies < 0 || plies > MaxPlies {
		return Evaluation{}, ErrInvalidInput
	}
	if plies == 0 {
		if err := ctx.Err(); err != nil {
			return Evaluation{}, err
		}
		return e.EvaluateCached(state, 0)
	}

	var results [21]Evaluation
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i := range allRolls {
		i := i
		g.Go(func() error {
			ev, err := e.evaluateRoll(gctx, state, allRolls[i].d0, allRolls[i].d1, plies, cubeful)
			if err != nil {
				return err
			}
			results[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Evaluation{}, err
	}

	return averageRolls(&results), nil
}

// evaluateNPly is the sequential inner search used below the fan-out
// level.
func (e *Engine) evaluateNPly(ctx context.Context, state *GameState, plies int, cubeful bool) (Evaluation, error) {
	var results [21]Evaluation
	for i := range allRolls {
		ev, err := e.evaluateRoll(ctx, state, allRolls[i].d0, allRolls[i].d1, plies, cubeful)
		if err != nil {
			return Evaluation{}, err
		}
		results[i] = ev
	}
	return averageRolls(&results), nil
}

// evaluateRoll scores one dice roll for the side on roll: play the best
// move and look at the result from one ply shallower, or stand pat when
// the roll dances.
func (e *Engine) evaluateRoll(ctx context.Context, state *GameState, d0, d1, plies int, cubeful bool) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	if eval.Classify(state.Board) == eval.ClassOver {
		return e.EvaluateCached(state, 0)
	}

	ml := GenerateMoves(state.Board, d0, d1)
	if len(ml.Moves) == 0 {
		return e.evaluateAtPly(ctx, state, plies-1, cubeful)
	}
	return e.bestMoveEval(ctx, state, ml.Moves, plies-1, cubeful)
}

// evaluateAtPly dispatches to the static evaluator at depth zero or
// recurses one roll level deeper.
func (e *Engine) evaluateAtPly(ctx context.Context, state *GameState, plies int, cubeful bool) (Evaluation, error) {
	if plies <= 0 {
		if err := ctx.Err(); err != nil {
			return Evaluation{}, err
		}
		return e.EvaluateCached(state, 0)
	}
	return e.evaluateNPly(ctx, state, plies, cubeful)
}

// bestMoveEval evaluates every candidate move from the opponent's seat at
// the given depth and returns the best one from the mover's perspective.
// With cubeful selection, candidates are ranked by their Janowski cubeful
// value in the mover's cube context; the returned probabilities and
// equity stay cubeless either way.
func (e *Engine) bestMoveEval(ctx context.Context, state *GameState, moves []Move, plies int, cubeful bool) (Evaluation, error) {
	ci := cubeInfoFromState(state)

	var best Evaluation
	var bestScore float64
	found := false

	for _, m := range moves {
		if err := ctx.Err(); err != nil {
			return Evaluation{}, err
		}

		reply := &GameState{
			Board:       board.Swap(ApplyMove(state.Board, m)),
			Turn:        1 - state.Turn,
			CubeValue:   state.CubeValue,
			CubeOwner:   state.CubeOwner,
			MatchLength: state.MatchLength,
			Score:       state.Score,
			Crawford:    state.Crawford,
		}

		ev, err := e.evaluateAtPly(ctx, reply, plies, cubeful)
		if err != nil {
			return Evaluation{}, err
		}
		inv := ev.Invert()

		score := inv.Equity
		if cubeful {
			score = e.cubefulEquity(inv, ci)
		}
		if !found || score > bestScore {
			best = inv
			bestScore = score
			found = true
		}
	}

	if !found {
		return e.Evaluate(state)
	}
	return best, nil
}

// averageRolls folds the 21 per-roll evaluations into one, in index
// order, weighted by roll probability.
func averageRolls(results *[21]Evaluation) Evaluation {
	var sum Evaluation
	for i := range allRolls {
		w := float64(allRolls[i].weight)
		sum.Win += w * results[i].Win
		sum.WinG += w * results[i].WinG
		sum.WinBG += w * results[i].WinBG
		sum.LoseG += w * results[i].LoseG
		sum.LoseBG += w * results[i].LoseBG
	}
	sum.Win /= 36
	sum.WinG /= 36
	sum.WinBG /= 36
	sum.LoseG /= 36
	sum.LoseBG /= 36
	sum.setEquity()
	return sum
}
