package engine

import (
	"context"
	"fmt"
	"sort"

	"bgeval-api/internal/board"
)

// RankedMove is a candidate play with its evaluation from the mover's
// perspective.
type RankedMove struct {
	Move Move
	Eval Evaluation
}

// AnalyzePosition generates the legal plays for dice, evaluates each
// resulting position at the given ply depth and returns them ranked best
// first. An empty slice means the roll dances; that is a pass of the
// turn, not an error.
func (e *Engine) AnalyzePosition(ctx context.Context, state *GameState, dice [2]int, plies int) ([]RankedMove, error) {
	if dice[0] < 1 || dice[0] > 6 || dice[1] < 1 || dice[1] > 6 {
		return nil, fmt.Errorf("%w: dice %v", ErrInvalidInput, dice)
	}
	if plies < 0 || plies > MaxPlies {
		return nil, fmt.Errorf("%w: ply %d", ErrInvalidInput, plies)
	}

	ml := GenerateMoves(state.Board, dice[0], dice[1])
	if len(ml.Moves) == 0 {
		return nil, nil
	}

	ranked := make([]RankedMove, len(ml.Moves))
	for i, m := range ml.Moves {
		if err := ctx.Err(); err != nil {
			return nil, err
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

		ev, err := e.EvaluatePlied(ctx, reply, plies)
		if err != nil {
			return nil, err
		}
		ranked[i] = RankedMove{Move: m, Eval: ev.Invert()}
	}

	// Stable, so plays with equal equity keep generation order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Eval.Equity > ranked[j].Eval.Equity
	})
	return ranked, nil
}

// BestMove returns the highest-equity play for dice, or ok=false when the
// roll cannot be played.
func (e *Engine) BestMove(ctx context.Context, state *GameState, dice [2]int, plies int) (RankedMove, bool, error) {
	ranked, err := e.AnalyzePosition(ctx, state, dice, plies)
	if err != nil || len(ranked) == 0 {
		return RankedMove{}, false, err
	}
	return ranked[0], true, nil
}
