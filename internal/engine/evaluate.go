package engine

import (
	"fmt"

	"bgeval-api/internal/board"
	"bgeval-api/internal/eval"
)

// Evaluate statically evaluates the position in state for the side on
// roll. Finished games get their exact value; everything else goes to the
// model.
func (e *Engine) Evaluate(state *GameState) (Evaluation, error) {
	if e.model == nil {
		return Evaluation{}, ErrModelUnavailable
	}
	if !board.Valid(state.Board) {
		return Evaluation{}, fmt.Errorf("%w: illegal board", ErrInvalidInput)
	}

	if eval.Classify(state.Board) == eval.ClassOver {
		return evaluateGameOver(state.Board), nil
	}

	out := e.model.Evaluate(state.Board)
	ev := Evaluation{
		Win:    float64(out[eval.OutWin]),
		WinG:   float64(out[eval.OutWinG]),
		WinBG:  float64(out[eval.OutWinBG]),
		LoseG:  float64(out[eval.OutLoseG]),
		LoseBG: float64(out[eval.OutLoseBG]),
	}
	ev.setEquity()

	if !ev.ordered() {
		e.log.Error("model produced inconsistent probabilities")
		return Evaluation{}, fmt.Errorf("%w: inconsistent model output", ErrInternal)
	}
	return ev, nil
}

// EvaluateCached is Evaluate behind the position cache. plies is part of
// the cache key so different search depths do not collide.
func (e *Engine) EvaluateCached(state *GameState, plies int) (Evaluation, error) {
	if e.cache == nil {
		return e.Evaluate(state)
	}

	key := board.MakeKey(state.Board)
	ctx := evalContext(plies, state.CubeOwner, state.CubeValue)

	if ev, ok := e.cache.Lookup(key, ctx); ok {
		return ev, nil
	}

	ev, err := e.Evaluate(state)
	if err != nil {
		return Evaluation{}, err
	}
	e.cache.Add(key, ctx, ev)
	return ev, nil
}

// evaluateGameOver scores a finished game exactly: 1 point, 2 for a
// gammon, 3 for a backgammon.
func evaluateGameOver(b board.Board) Evaluation {
	var ev Evaluation
	switch {
	case board.OnBoard(b, 1) == 0:
		ev.Win = 1
		ev.Equity = 1
		if board.Off(b, 0) == 0 {
			ev.WinG = 1
			ev.Equity = 2
			if backgammonLoss(b, 0) {
				ev.WinBG = 1
				ev.Equity = 3
			}
		}
	case board.OnBoard(b, 0) == 0:
		ev.Equity = -1
		if board.Off(b, 1) == 0 {
			ev.LoseG = 1
			ev.Equity = -2
			if backgammonLoss(b, 1) {
				ev.LoseBG = 1
				ev.Equity = -3
			}
		}
	}
	return ev
}

// backgammonLoss reports whether side, having lost without bearing off,
// still has a checker in the winner's home board or on the bar.
func backgammonLoss(b board.Board, side int) bool {
	if b[side][24] > 0 {
		return true
	}
	for i := 18; i < 24; i++ {
		if b[side][i] > 0 {
			return true
		}
	}
	return false
}
