package eval

import "bgeval-api/internal/board"

// NumFeatures is the size of the model input vector.
const NumFeatures = 7

// Feature indices. Every feature is a normalized difference "side on roll
// minus opponent", so the vector negates exactly when the board is
// swapped. That antisymmetry is what makes the model score mirrored
// positions as mirror images and the symmetric opening as dead even.
const (
	featPips    = iota // pip lead, normalized by the opening count
	featOff           // borne-off lead
	featBar           // opponent checkers on the bar minus own
	featBlots         // opponent blots minus own
	featHome          // home-board points made
	featAnchors       // anchors held in the opponent's home board
	featPrime         // longest prime
)

// Features extracts the model inputs from b (side 1 on roll).
func Features(b board.Board) [NumFeatures]float64 {
	var f [NumFeatures]float64

	p0, p1 := board.Pips(b)
	f[featPips] = float64(p0-p1) / 167.0
	f[featOff] = float64(board.Off(b, 1)-board.Off(b, 0)) / 15.0
	f[featBar] = float64(int(b[0][24])-int(b[1][24])) / 2.0
	f[featBlots] = float64(blots(b, 0)-blots(b, 1)) / 4.0
	f[featHome] = float64(madePoints(b, 1, 0, 6)-madePoints(b, 0, 0, 6)) / 6.0
	f[featAnchors] = float64(madePoints(b, 1, 18, 24)-madePoints(b, 0, 18, 24)) / 2.0
	f[featPrime] = float64(longestPrime(b, 1)-longestPrime(b, 0)) / 6.0

	return f
}

func blots(b board.Board, side int) int {
	n := 0
	for i := 0; i < 24; i++ {
		if b[side][i] == 1 {
			n++
		}
	}
	return n
}

func madePoints(b board.Board, side, lo, hi int) int {
	n := 0
	for i := lo; i < hi; i++ {
		if b[side][i] >= 2 {
			n++
		}
	}
	return n
}

func longestPrime(b board.Board, side int) int {
	best, run := 0, 0
	for i := 0; i < 24; i++ {
		if b[side][i] >= 2 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}
