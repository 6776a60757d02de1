package engine

import (
	"bgeval-api/internal/board"
)

// MoveList collects the legal plays for one roll. Duplicate plays that
// reach the same position through a different checker order are kept once.
type MoveList struct {
	Moves    []Move
	MaxMoves int // submoves a legal play must use
	MaxPips  int // pips a legal play must use

	orig board.Board
	keys []board.Key // resulting positions, for dedup
}

// GenerateMoves returns every distinct legal play for the side on roll
// with dice n0 and n1 (1-6 each). An empty list means the player dances.
//
// The forced-play rules apply: a play must use as many dice as possible,
// and among plays using the same number of dice, as many pips as possible.
func GenerateMoves(b board.Board, n0, n1 int) *MoveList {
	ml := &MoveList{
		Moves: make([]Move, 0, 32),
		keys:  make([]board.Key, 0, 32),
		orig:  b,
	}

	roll := [4]int{n0, n1, 0, 0}
	if n0 == n1 {
		roll[2], roll[3] = n0, n0
	}

	var submoves [8]int8
	for i := range submoves {
		submoves[i] = -1
	}

	generateSub(ml, roll, 0, 23, 0, b, &submoves)

	if n0 != n1 {
		roll[0], roll[1] = roll[1], roll[0]
		for i := range submoves {
			submoves[i] = -1
		}
		generateSub(ml, roll, 0, 23, 0, b, &submoves)
	}

	return ml
}

// generateSub recursively extends the current partial play by one die.
// It returns true when the partial play could not be extended, meaning
// the caller's prefix is itself maximal and should be recorded.
func generateSub(ml *MoveList, roll [4]int, depth, from, pips int, b board.Board, submoves *[8]int8) bool {
	if depth > 3 || roll[depth] == 0 {
		return true
	}

	// A checker on the bar must enter before anything else moves.
	if b[1][24] > 0 {
		entry := 24 - roll[depth]
		if b[0][23-entry] >= 2 {
			return true
		}

		submoves[depth*2] = 24
		submoves[depth*2+1] = int8(entry)

		next := b
		applySubMove(&next, 24, roll[depth])

		if generateSub(ml, roll, depth+1, 23, pips+roll[depth], next, submoves) {
			ml.record(depth+1, pips+roll[depth], submoves, next)
		}
		return false
	}

	used := false
	for i := from; i >= 0; i-- {
		if b[1][i] == 0 || !legalSubMove(b, i, roll[depth]) {
			continue
		}

		submoves[depth*2] = int8(i)
		submoves[depth*2+1] = int8(i - roll[depth])

		next := b
		applySubMove(&next, i, roll[depth])

		// Doubles can only move from i or below; mixed rolls restart
		// the scan since the dice differ.
		nextFrom := 23
		if roll[0] == roll[1] {
			nextFrom = i
		}

		if generateSub(ml, roll, depth+1, nextFrom, pips+roll[depth], next, submoves) {
			ml.record(depth+1, pips+roll[depth], submoves, next)
		}
		used = true
	}

	return !used
}

// legalSubMove reports whether moving one checker from point index src by
// pips is legal for the side on roll.
func legalSubMove(b board.Board, src, pips int) bool {
	dst := src - pips
	if dst >= 0 {
		return b[0][23-dst] < 2
	}

	// Bearing off requires every checker home, and over-rolls only come
	// off the rearmost point.
	back := 24
	for back > 0 && b[1][back] == 0 {
		back--
	}
	return back <= 5 && (src == back || dst == -1)
}

// applySubMove moves one checker for the side on roll, hitting a lone
// opposing checker on the destination.
func applySubMove(b *board.Board, src, pips int) {
	dst := src - pips
	b[1][src]--
	if dst < 0 {
		return
	}
	if b[0][23-dst] == 1 {
		b[0][23-dst] = 0
		b[0][24]++
	}
	b[1][dst]++
}

// record adds a completed play if it satisfies the forced-play maxima and
// does not duplicate an already recorded resulting position.
func (ml *MoveList) record(nMoves, pips int, submoves *[8]int8, result board.Board) {
	switch {
	case nMoves < ml.MaxMoves:
		return
	case nMoves > ml.MaxMoves:
		ml.Moves = ml.Moves[:0]
		ml.keys = ml.keys[:0]
		ml.MaxMoves = nMoves
		ml.MaxPips = pips
	case pips < ml.MaxPips:
		return
	case pips > ml.MaxPips:
		ml.Moves = ml.Moves[:0]
		ml.keys = ml.keys[:0]
		ml.MaxPips = pips
	}

	key := board.MakeKey(result)
	for _, k := range ml.keys {
		if k == key {
			return
		}
	}

	m := Move{
		From: [4]int8{-1, -1, -1, -1},
		To:   [4]int8{-1, -1, -1, -1},
	}
	for i := 0; i < nMoves; i++ {
		m.From[i] = submoves[i*2]
		m.To[i] = submoves[i*2+1]
	}
	m.Hits = CountHits(ml.orig, m)

	ml.Moves = append(ml.Moves, m)
	ml.keys = append(ml.keys, key)
}

// ApplyMove plays m on b and returns the resulting board, still from the
// mover's perspective.
func ApplyMove(b board.Board, m Move) board.Board {
	r := b
	for i := 0; i < 4; i++ {
		if m.From[i] < 0 {
			break
		}
		applySubMove(&r, int(m.From[i]), int(m.From[i]-m.To[i]))
	}
	return r
}

// CountHits returns how many opposing blots m hits when played on b.
func CountHits(b board.Board, m Move) int8 {
	var hits int8
	tmp := b
	for i := 0; i < 4; i++ {
		if m.From[i] < 0 {
			break
		}
		dst := int(m.To[i])
		if dst >= 0 && tmp[0][23-dst] == 1 {
			hits++
		}
		applySubMove(&tmp, int(m.From[i]), int(m.From[i]-m.To[i]))
	}
	return hits
}
