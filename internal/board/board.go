// Package board holds the backgammon board representation and the gnubg
// position ID codec. A Board is stored from each side's own perspective:
// indices 0-23 are that side's points 1-24 (0 = the side's ace point),
// index 24 is the bar. Checkers borne off are implicit: 15 minus what is
// still on board.
package board

// Board is the checker layout for both sides, [side][point].
type Board [2][25]uint8

// CheckersPerSide is the number of checkers each side starts with.
const CheckersPerSide = 15

// Starting returns the standard opening layout: 2 on the 24-point, 5 on the
// 13-point, 3 on the 8-point and 5 on the 6-point, for both sides.
func Starting() Board {
	var b Board
	for side := 0; side < 2; side++ {
		b[side][5] = 5
		b[side][7] = 3
		b[side][12] = 5
		b[side][23] = 2
	}
	return b
}

// Swap returns the board with the two sides exchanged, i.e. the same
// position seen from the other player's seat.
func Swap(b Board) Board {
	var r Board
	for i := 0; i < 25; i++ {
		r[0][i] = b[1][i]
		r[1][i] = b[0][i]
	}
	return r
}

// OnBoard returns the number of checkers side still has on the board,
// including the bar.
func OnBoard(b Board, side int) int {
	n := 0
	for i := 0; i < 25; i++ {
		n += int(b[side][i])
	}
	return n
}

// Off returns the number of checkers side has borne off.
func Off(b Board, side int) int {
	return CheckersPerSide - OnBoard(b, side)
}

// Pips returns both sides' pip counts. A checker on point index i costs
// i+1 pips; the bar (index 24) costs 25.
func Pips(b Board) (p0, p1 int) {
	for i := 0; i < 25; i++ {
		p0 += int(b[0][i]) * (i + 1)
		p1 += int(b[1][i]) * (i + 1)
	}
	return p0, p1
}

// BackCheckerpoint returns the highest occupied point index for side, or -1
// if the side has borne everything off.
func BackCheckerpoint(b Board, side int) int {
	for i := 24; i >= 0; i-- {
		if b[side][i] > 0 {
			return i
		}
	}
	return -1
}

// Valid reports whether b is a legal backgammon position: at most 15
// checkers per side, no point held by both sides, and not both players
// barred behind closed boards.
func Valid(b Board) bool {
	var n [2]int
	for i := 0; i < 25; i++ {
		n[0] += int(b[0][i])
		n[1] += int(b[1][i])
		if n[0] > CheckersPerSide || n[1] > CheckersPerSide {
			return false
		}
	}

	for i := 0; i < 24; i++ {
		if b[0][i] > 0 && b[1][23-i] > 0 {
			return false
		}
	}

	// Both on the bar against two closed boards cannot occur.
	for i := 0; i < 6; i++ {
		if b[0][i] < 2 || b[1][i] < 2 {
			return true
		}
	}
	return b[0][24] == 0 || b[1][24] == 0
}

// Equal reports whether two boards are identical.
func Equal(a, b Board) bool {
	return a == b
}
