package eval

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"bgeval-api/internal/board"
)

// Output indices into the probability vector.
const (
	OutWin = iota
	OutWinG
	OutWinBG
	OutLoseG
	OutLoseBG
	NumOutputs
)

// Model scores a position. Evaluate must be pure: the same board always
// yields bit-identical output, with no side effects. Boards passed in are
// never ClassOver; terminal positions are settled by the caller.
type Model interface {
	Evaluate(b board.Board) [NumOutputs]float32
}

// hidden is the number of units in the squashing layer.
const hidden = 5

// layer is one weight set: a dense feature-to-hidden map, a hidden-to-score
// vector and an output gain on the final sigmoid.
type layer struct {
	w1   *mat.Dense
	w2   *mat.VecDense
	gain float64
}

func (l *layer) score(f [NumFeatures]float64) float64 {
	in := mat.NewVecDense(NumFeatures, f[:])
	var h mat.VecDense
	h.MulVec(l.w1, in)
	for i := 0; i < hidden; i++ {
		h.SetVec(i, math.Tanh(h.AtVec(i)))
	}
	return l.gain * mat.Dot(l.w2, &h)
}

// HeuristicModel is a small fixed-weight network over hand-picked board
// features, with separate weight sets per position class. It stands in
// for a trained evaluator behind the Model interface; anything that can
// produce the five ordered probabilities can replace it.
//
// The layers have no bias terms and only odd activations, so the score is
// an odd function of the (antisymmetric) features: mirrored positions get
// mirrored probabilities and the opening position scores exactly 0.5.
type HeuristicModel struct {
	race    layer
	contact layer
	crashed layer
}

// NewHeuristicModel builds the model with its hand-tuned weights. The
// numbers were fitted by eye against well-known reference positions: the
// race set leans almost entirely on the pip and bear-off leads, the
// contact set spreads weight over structure (primes, anchors, home board)
// and tactics (bar, blots).
func NewHeuristicModel() *HeuristicModel {
	w1 := func(v []float64) *mat.Dense { return mat.NewDense(hidden, NumFeatures, v) }
	w2 := func(v []float64) *mat.VecDense { return mat.NewVecDense(hidden, v) }

	m := &HeuristicModel{}

	// Shared hidden layer: unit 0 = racing, 1 = tactics, 2 = structure,
	// 3 = broad blend, 4 = containment.
	base := []float64{
		//  pips  off   bar  blots home  anch prime
		3.0, 2.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 1.5, 1.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 1.2, 0.8, 1.0,
		1.0, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5,
		0.0, 0.0, 2.0, 0.0, 0.5, 0.0, 1.5,
	}

	m.race = layer{w1: w1(base), w2: w2([]float64{1.6, 0.1, 0.1, 0.3, 0.1}), gain: 2.2}
	m.contact = layer{w1: w1(base), w2: w2([]float64{0.9, 0.7, 0.7, 0.6, 0.6}), gain: 2.0}
	m.crashed = layer{w1: w1(base), w2: w2([]float64{1.1, 0.8, 0.5, 0.6, 0.7}), gain: 2.0}

	return m
}

// Evaluate implements Model.
func (m *HeuristicModel) Evaluate(b board.Board) [NumOutputs]float32 {
	var l *layer
	switch Classify(b) {
	case ClassRace:
		l = &m.race
	case ClassCrashed:
		l = &m.crashed
	default:
		l = &m.contact
	}

	win := sigmoid(l.score(Features(b)))
	lose := 1 - win

	gw, bw := gammonRates(b, 1)
	gl, bl := gammonRates(b, 0)

	return [NumOutputs]float32{
		float32(win),
		float32(win * gw),
		float32(win * gw * bw),
		float32(lose * gl),
		float32(lose * gl * bl),
	}
}

// gammonRates estimates, conditional on side winning, the fraction of
// wins that are gammons and, of those, the fraction that are backgammons.
// Both are zero once the loser has borne off a checker, which keeps the
// win >= winG >= winBG ordering structural rather than numeric.
func gammonRates(b board.Board, side int) (g, bg float64) {
	opp := 1 - side
	if board.Off(b, opp) > 0 {
		return 0, 0
	}

	// The further the opponent is from saving the gammon, the likelier it
	// is. 90 pips is roughly a borne-in position.
	p := [2]int{}
	p[0], p[1] = board.Pips(b)
	g = 0.12 + 0.5*float64(p[opp]-90)/167.0
	if g < 0 {
		g = 0
	} else if g > 0.6 {
		g = 0.6
	}

	// Backgammons need the loser trapped in the winner's home board.
	deep := int(b[opp][24])
	for i := 18; i < 24; i++ {
		deep += int(b[opp][i])
	}
	if deep > 0 {
		bg = 0.1 + 0.05*float64(deep)
		if bg > 0.3 {
			bg = 0.3
		}
	}
	return g, bg
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
