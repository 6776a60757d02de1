// Package eval provides static position evaluation: a position classifier
// and a swappable scoring model mapping a board to the five outcome
// probabilities (win, win gammon, win backgammon, lose gammon, lose
// backgammon), always from the perspective of the side on roll (side 1).
package eval

import "bgeval-api/internal/board"

// Class is the coarse position type used to pick a weight set.
type Class int

const (
	// ClassOver means one side has borne off all checkers.
	ClassOver Class = iota
	// ClassRace means the sides are past each other; no hits are possible.
	ClassRace
	// ClassCrashed is a contact position where one side's structure has
	// collapsed onto few active checkers.
	ClassCrashed
	// ClassContact is any other position where hits remain possible.
	ClassContact
)

func (c Class) String() string {
	switch c {
	case ClassOver:
		return "over"
	case ClassRace:
		return "race"
	case ClassCrashed:
		return "crashed"
	case ClassContact:
		return "contact"
	}
	return "unknown"
}

// Classify determines the position class of b.
func Classify(b board.Board) Class {
	back1 := board.BackCheckerpoint(b, 1)
	back0 := board.BackCheckerpoint(b, 0)

	if back1 < 0 || back0 < 0 {
		return ClassOver
	}

	if back1+back0 <= 22 {
		return ClassRace
	}

	// Contact. A side is crashed when it is down to six or fewer checkers
	// that can still do useful work (extras buried on the ace point or
	// stuck on the bar do not count).
	const active = 6
	for side := 0; side < 2; side++ {
		tot := board.OnBoard(b, side)
		bar := int(b[side][24])
		ace := int(b[side][0])

		if tot <= active {
			return ClassCrashed
		}
		if bar > 1 {
			if tot <= active+bar {
				return ClassCrashed
			}
			if ace > 1 && 1+tot-(bar+ace) <= active {
				return ClassCrashed
			}
		} else if tot <= active+(ace-1) {
			return ClassCrashed
		}
	}

	return ClassContact
}
