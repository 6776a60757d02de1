package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgeval-api/internal/board"
)

func TestAnalyzePositionRanked(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	ranked, err := e.AnalyzePosition(context.Background(), state, [2]int{3, 1}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Eval.Equity, ranked[i].Eval.Equity,
			"moves must be sorted best first")
	}
	for _, rm := range ranked {
		assert.True(t, rm.Eval.ordered())
	}
}

func TestAnalyzePositionCheckerConservation(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	ranked, err := e.AnalyzePosition(context.Background(), state, [2]int{6, 5}, 0)
	require.NoError(t, err)
	for _, rm := range ranked {
		after := ApplyMove(state.Board, rm.Move)
		assert.Equal(t, 15, board.OnBoard(after, 1)+board.Off(after, 1))
		assert.Equal(t, 15, board.OnBoard(after, 0)+board.Off(after, 0))
	}
}

func TestAnalyzePositionDanceIsNotAnError(t *testing.T) {
	var b board.Board
	b[1][24] = 1
	b[1][12] = 14
	for i := 0; i < 6; i++ {
		b[0][i] = 2
	}
	b[0][12] = 3

	e := New()
	ranked, err := e.AnalyzePosition(context.Background(), NewGameState(b), [2]int{3, 1}, 0)
	assert.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestAnalyzePositionRejectsBadInput(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	_, err := e.AnalyzePosition(context.Background(), state, [2]int{0, 3}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.AnalyzePosition(context.Background(), state, [2]int{3, 7}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.AnalyzePosition(context.Background(), state, [2]int{3, 1}, MaxPlies+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBestMove(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	best, ok, err := e.BestMove(context.Background(), state, [2]int{3, 1}, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, best.Move.String())

	ranked, err := e.AnalyzePosition(context.Background(), state, [2]int{3, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, ranked[0], best)
}
