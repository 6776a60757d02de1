package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgeval-api/internal/board"
)

func TestRolloutDecidedPosition(t *testing.T) {
	// The side on roll bears off its last checker with any roll; every
	// trial is a plain one-point win.
	var b board.Board
	b[1][0] = 1
	b[0][10] = 10 // opponent has borne off five, no gammon

	e := New()
	res, err := e.Rollout(context.Background(), NewGameState(b), RolloutOptions{
		Trials: 64,
		Seed:   7,
	})
	require.NoError(t, err)

	assert.Equal(t, 64, res.Trials)
	assert.Equal(t, 1.0, res.Win)
	assert.Equal(t, 1.0, res.Equity)
	assert.Zero(t, res.EquityStdDev)
}

func TestRolloutReproducible(t *testing.T) {
	e := New(WithCacheSize(0)) // rule the cache out of the comparison
	state := NewGameState(board.Starting())

	opts := RolloutOptions{Trials: 16, Seed: 42, Workers: 2, Truncate: 4}
	a, err := e.Rollout(context.Background(), state, opts)
	require.NoError(t, err)
	b, err := e.Rollout(context.Background(), state, opts)
	require.NoError(t, err)

	assert.Equal(t, a.Evaluation, b.Evaluation)
	assert.Equal(t, a.EquityStdDev, b.EquityStdDev)
}

func TestRolloutProbabilitiesConsistent(t *testing.T) {
	e := New()
	state := NewGameState(board.Starting())

	res, err := e.Rollout(context.Background(), state, RolloutOptions{
		Trials:   32,
		Seed:     1,
		Truncate: 6,
	})
	require.NoError(t, err)

	assert.True(t, res.Evaluation.ordered())
	assert.GreaterOrEqual(t, res.EquityCI95, 0.0)
}

func TestRolloutCancellation(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Rollout(ctx, NewGameState(board.Starting()), RolloutOptions{Trials: 100, Seed: 3})
	assert.ErrorIs(t, err, context.Canceled)
}
