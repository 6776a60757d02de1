package engine

import (
	"context"
	"math"
)

// CubeX is the Janowski cube efficiency used to blend dead and live cube
// equities. 0.68 is the customary value for middle-game positions.
const CubeX = 0.68

// cubeInfo is the cube context a single equity transform needs.
type cubeInfo struct {
	value    int
	owner    int // -1 centered
	mover    int
	matchTo  int
	score    [2]int
	crawford bool
}

func cubeInfoFromState(state *GameState) cubeInfo {
	return cubeInfo{
		value:    state.CubeValue,
		owner:    state.CubeOwner,
		mover:    state.Turn,
		matchTo:  state.MatchLength,
		score:    state.Score,
		crawford: state.Crawford,
	}
}

// cubeAvailable reports whether the side on roll may double, and the
// equity it collects when the opponent passes.
func (e *Engine) cubeAvailable(ci cubeInfo) (bool, float64) {
	if ci.matchTo == 0 {
		ok := ci.owner == -1 || ci.owner == ci.mover
		return ok, 1.0
	}

	ok := !ci.crawford &&
		ci.score[ci.mover]+ci.value < ci.matchTo &&
		(ci.owner == -1 || ci.owner == ci.mover)

	dp := float64(e.met.WinProbAfter(ci.score[0], ci.score[1], ci.matchTo,
		ci.mover, ci.value, ci.mover, ci.crawford))
	return ok, dp
}

// moneyLive is the live-cube equity for money play: a piecewise-linear
// function of the win probability through the take point and cash point,
// with slopes set by the average win and loss sizes rW and rL.
func moneyLive(rW, rL, p float64, ci cubeInfo) float64 {
	switch {
	case ci.owner == -1:
		tp := (rL - 0.5) / (rW + rL + 0.5)
		cp := (rL + 1.0) / (rW + rL + 0.5)
		switch {
		case p < tp:
			return -rL + (-1.0+rL)*p/tp
		case p < cp:
			return -1.0 + 2.0*(p-tp)/(cp-tp)
		default:
			return 1.0 + (rW-1.0)*(p-cp)/(1.0-cp)
		}
	case ci.owner == ci.mover:
		cp := (rL + 1.0) / (rW + rL + 0.5)
		if p < cp {
			return -rL + (1.0+rL)*p/cp
		}
		return 1.0 + (rW-1.0)*(p-cp)/(1.0-cp)
	default:
		tp := (rL - 0.5) / (rW + rL + 0.5)
		if p < tp {
			return -rL + (-1.0+rL)*p/tp
		}
		return -1.0 + (rW+1.0)*(p-tp)/(1.0-tp)
	}
}

// cubeless is the dead-cube equity of an evaluation.
func cubeless(ev Evaluation) float64 {
	return 2*ev.Win - 1 + ev.WinG - ev.LoseG + ev.WinBG - ev.LoseBG
}

// cubefulMoney converts a cubeless evaluation into a cubeful money-game
// equity by mixing the dead and live cube values with efficiency x.
func cubefulMoney(ev Evaluation, ci cubeInfo, x float64) float64 {
	const eps = 1e-7

	dead := cubeless(ev)
	if ev.Win < eps || ev.Win > 1-eps {
		return dead
	}

	rW := 1.0 + (ev.WinG+ev.WinBG)/ev.Win
	rL := 1.0 + (ev.LoseG+ev.LoseBG)/(1.0-ev.Win)
	live := moneyLive(rW, rL, ev.Win, ci)

	return dead*(1.0-x) + live*x
}

// cubefulEquity is the Janowski cubeful equity of a cubeless evaluation
// in the given cube context: money play mixes the dead and live cube
// values, match play converts through the match equity table.
func (e *Engine) cubefulEquity(ev Evaluation, ci cubeInfo) float64 {
	if ci.matchTo == 0 {
		return cubefulMoney(ev, ci, CubeX)
	}
	win := float64(e.met.WinProbAfter(ci.score[0], ci.score[1], ci.matchTo,
		ci.mover, ci.value, ci.mover, ci.crawford))
	lose := float64(e.met.WinProbAfter(ci.score[0], ci.score[1], ci.matchTo,
		ci.mover, ci.value, 1-ci.mover, ci.crawford))
	return e.mwcToEquity(ev.Win*win+(1-ev.Win)*lose, ci)
}

// mwcToEquity rescales a match winning chance into a normalized equity
// around the current score.
func (e *Engine) mwcToEquity(mwc float64, ci cubeInfo) float64 {
	cur := float64(e.met.WinProb(ci.score[0], ci.score[1], ci.matchTo, ci.mover, ci.crawford))
	if cur > 1e-4 && cur < 1-1e-4 {
		return (mwc - cur) / math.Min(cur, 1-cur)
	}
	return 2*mwc - 1
}

// AnalyzeCube recommends a cube action for the side on roll. The
// evaluation is taken at the requested ply depth; the scenario equities
// and the action follow from it deterministically.
func (e *Engine) AnalyzeCube(ctx context.Context, state *GameState, plies int) (*CubeDecision, error) {
	ev, err := e.EvaluatePlied(ctx, state, plies)
	if err != nil {
		return nil, err
	}

	ci := cubeInfoFromState(state)
	available, dp := e.cubeAvailable(ci)

	var nd, dt float64
	nd = e.cubefulEquity(ev, ci)
	if ci.matchTo == 0 {
		// After a taken double the opponent owns a cube twice the size;
		// the equity doubles with it.
		ciDT := ci
		ciDT.value *= 2
		ciDT.owner = 1 - ci.mover
		dt = 2 * cubefulMoney(ev, ciDT, CubeX)
	} else {
		winDT := float64(e.met.WinProbAfter(ci.score[0], ci.score[1], ci.matchTo,
			ci.mover, ci.value*2, ci.mover, ci.crawford))
		loseDT := float64(e.met.WinProbAfter(ci.score[0], ci.score[1], ci.matchTo,
			ci.mover, ci.value*2, 1-ci.mover, ci.crawford))
		dt = e.mwcToEquity(ev.Win*winDT+(1-ev.Win)*loseDT, ci)

		dp = e.mwcToEquity(dp, ci)
	}

	d := &CubeDecision{
		NoDoubleEquity: nd,
		DoubleEquity:   dt,
		TakeEquity:     dt,
		DoubleDiff:     dt - nd,
	}

	switch {
	case !available:
		d.Action = NoDouble
	case dt >= nd && dp >= nd:
		// Doubling gains either way; the opponent picks the cheaper reply.
		if dp > dt {
			d.Action = DoubleTake
		} else {
			d.Action = DoublePass
			d.DoubleEquity = dp
			d.DoubleDiff = dp - nd
		}
	default:
		d.Action = NoDouble
	}

	return d, nil
}
