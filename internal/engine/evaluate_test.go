package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgeval-api/internal/board"
	"bgeval-api/internal/eval"
)

// fixedModel returns the same distribution for every position.
type fixedModel [eval.NumOutputs]float32

func (m fixedModel) Evaluate(board.Board) [eval.NumOutputs]float32 {
	return m
}

func TestEvaluateStartIsEven(t *testing.T) {
	e := New()
	ev, err := e.Evaluate(NewGameState(board.Starting()))
	require.NoError(t, err)
	assert.InDelta(t, 0, ev.Equity, 1e-9)
	assert.InDelta(t, 0.5, ev.Win, 1e-9)
}

func TestEvaluateInvalidBoard(t *testing.T) {
	var b board.Board
	b[0][3] = 16 // more than a full set of checkers

	e := New()
	_, err := e.Evaluate(NewGameState(b))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEvaluateNoModel(t *testing.T) {
	e := New(WithModel(nil))
	assert.False(t, e.Ready())
	_, err := e.Evaluate(NewGameState(board.Starting()))
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestEvaluateGameOverPlain(t *testing.T) {
	var b board.Board
	b[0][10] = 10 // loser has borne off five

	e := New()
	ev, err := e.Evaluate(NewGameState(b))
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.Win)
	assert.Equal(t, 1.0, ev.Equity)
	assert.Zero(t, ev.WinG)
}

func TestEvaluateGameOverGammon(t *testing.T) {
	var b board.Board
	b[0][10] = 15 // loser has borne off nothing

	e := New()
	ev, err := e.Evaluate(NewGameState(b))
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.WinG)
	assert.Equal(t, 2.0, ev.Equity)
	assert.Zero(t, ev.WinBG)
}

func TestEvaluateGameOverBackgammon(t *testing.T) {
	var b board.Board
	b[0][10] = 14
	b[0][20] = 1 // trapped in the winner's home board

	e := New()
	ev, err := e.Evaluate(NewGameState(b))
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.WinBG)
	assert.Equal(t, 3.0, ev.Equity)
}

func TestEvaluateGameOverLoss(t *testing.T) {
	var b board.Board
	b[1][10] = 15 // opponent bore off everything first

	e := New()
	ev, err := e.Evaluate(NewGameState(b))
	require.NoError(t, err)
	assert.Equal(t, 0.0, ev.Win)
	assert.Equal(t, 1.0, ev.LoseG)
	assert.Equal(t, -2.0, ev.Equity)
}

func TestEvaluateRejectsInconsistentModel(t *testing.T) {
	// WinG exceeding Win violates the outcome nesting.
	e := New(WithModel(fixedModel{0.3, 0.6, 0, 0, 0}))
	_, err := e.Evaluate(NewGameState(board.Starting()))
	assert.ErrorIs(t, err, ErrInternal)
}

func TestEvaluateCachedHitsCache(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	first, err := e.EvaluateCached(state, 0)
	require.NoError(t, err)
	second, err := e.EvaluateCached(state, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	lookups, hits := e.Cache().Stats()
	assert.Equal(t, uint64(2), lookups)
	assert.Equal(t, uint64(1), hits)
}
