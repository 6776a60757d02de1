package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgeval-api/internal/board"
)

func TestEvaluatePliedZeroMatchesStatic(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	static, err := e.Evaluate(state)
	require.NoError(t, err)
	plied, err := e.EvaluatePlied(context.Background(), state, 0)
	require.NoError(t, err)
	assert.Equal(t, static, plied)
}

func TestEvaluatePliedDeterministic(t *testing.T) {
	state := NewGameState(board.Starting())

	// Different parallelism must not change the summation order.
	e1 := New(WithParallelism(1))
	e8 := New(WithParallelism(8))

	a, err := e1.EvaluatePlied(context.Background(), state, 1)
	require.NoError(t, err)
	b, err := e8.EvaluatePlied(context.Background(), state, 1)
	require.NoError(t, err)
	c, err := e8.EvaluatePlied(context.Background(), state, 1)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestEvaluatePliedStaysConsistent(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	for plies := 0; plies <= MaxPlies; plies++ {
		ev, err := e.EvaluatePlied(context.Background(), state, plies)
		require.NoError(t, err)
		assert.True(t, ev.ordered(), "ply %d produced inconsistent probabilities", plies)
	}
}

func TestEvaluatePliedQuietRaceStaysNearStatic(t *testing.T) {
	// A symmetric no-contact race. One full ply favors the side on roll,
	// but two plies give both sides a roll and should land close to the
	// static value again.
	var b board.Board
	for side := 0; side < 2; side++ {
		for i := 0; i < 6; i++ {
			b[side][i] = 2
		}
		b[side][7] = 3
	}

	e := New()
	state := NewGameState(b)

	p0, err := e.EvaluatePlied(context.Background(), state, 0)
	require.NoError(t, err)
	p2, err := e.EvaluatePlied(context.Background(), state, 2)
	require.NoError(t, err)

	assert.InDelta(t, p0.Equity, p2.Equity, 0.3)
}

func TestEvaluatePliedRejectsBadDepth(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	_, err := e.EvaluatePlied(context.Background(), state, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.EvaluatePlied(context.Background(), state, MaxPlies+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEvaluatePliedCancellation(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EvaluatePlied(ctx, state, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluatePliedFinishedGame(t *testing.T) {
	var b board.Board
	b[0][10] = 15

	e := New()
	ev, err := e.EvaluatePlied(context.Background(), NewGameState(b), 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.Win)
	assert.Equal(t, 2.0, ev.Equity)
}

func TestEvaluateCubefulZeroPlyEquity(t *testing.T) {
	// At depth zero the cubeful equity is the Janowski transform of the
	// static evaluation, which is also what cube analysis reports for
	// playing on.
	e := New(WithModel(fixedModel{0.75, 0, 0, 0, 0}))
	state := NewGameState(board.Starting())

	ev, err := e.EvaluatePliedCubeful(context.Background(), state, 0)
	require.NoError(t, err)
	d, err := e.AnalyzeCube(context.Background(), state, 0)
	require.NoError(t, err)
	assert.InDelta(t, d.NoDoubleEquity, ev.Equity, 1e-12)

	// Probabilities stay cubeless.
	cubeless, err := e.EvaluatePlied(context.Background(), state, 0)
	require.NoError(t, err)
	assert.Equal(t, cubeless.Win, ev.Win)
	assert.Equal(t, cubeless.WinG, ev.WinG)
}

func TestEvaluateCubefulOwnershipMatters(t *testing.T) {
	// The same probabilities are worth more with cube access than
	// against an opponent-owned cube.
	e := New(WithModel(fixedModel{0.75, 0, 0, 0, 0}))

	centered := NewGameState(board.Starting())
	dead := NewGameState(board.Starting())
	dead.CubeOwner = 0 // opponent of the side on roll

	a, err := e.EvaluatePliedCubeful(context.Background(), centered, 0)
	require.NoError(t, err)
	b, err := e.EvaluatePliedCubeful(context.Background(), dead, 0)
	require.NoError(t, err)

	assert.Equal(t, a.Win, b.Win)
	assert.Greater(t, a.Equity, b.Equity)
}

func TestEvaluateCubefulPliedConsistent(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	for plies := 0; plies <= MaxPlies; plies++ {
		ev, err := e.EvaluatePliedCubeful(context.Background(), state, plies)
		require.NoError(t, err)
		assert.True(t, ev.ordered(), "ply %d produced inconsistent probabilities", plies)
	}
}
