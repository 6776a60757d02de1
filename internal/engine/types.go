// Package engine implements the backgammon evaluator: legal move
// generation, static and multi-ply position evaluation, and cube analysis.
// All positions are seen from the side on roll.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bgeval-api/internal/board"
)

// Sentinel errors. Handlers map these onto wire error kinds.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrModelUnavailable = errors.New("evaluation model unavailable")
	ErrInternal         = errors.New("internal evaluation error")
)

// GameState is everything the evaluator needs about a game in progress.
// Board is stored with side 1 on roll.
type GameState struct {
	Board       board.Board
	Turn        int    // who is on roll, 0 or 1
	Dice        [2]int // current roll, zero if not rolled
	CubeValue   int    // 1, 2, 4, ...
	CubeOwner   int    // -1 centered, else 0 or 1
	MatchLength int    // 0 = money game
	Score       [2]int
	Crawford    bool
}

// NewGameState returns a money-game state for b with a centered cube.
func NewGameState(b board.Board) *GameState {
	return &GameState{
		Board:     b,
		Turn:      1,
		CubeValue: 1,
		CubeOwner: -1,
	}
}

// Evaluation is the outcome distribution for the side on roll, plus its
// cubeless equity.
type Evaluation struct {
	Win    float64
	WinG   float64
	WinBG  float64
	LoseG  float64
	LoseBG float64
	Equity float64
}

// setEquity recomputes the cubeless equity from the probabilities.
func (ev *Evaluation) setEquity() {
	ev.Equity = 2*ev.Win - 1 + ev.WinG - ev.LoseG + ev.WinBG - ev.LoseBG
}

// Invert flips an evaluation to the other player's perspective.
func (ev Evaluation) Invert() Evaluation {
	return Evaluation{
		Win:    1 - ev.Win,
		WinG:   ev.LoseG,
		WinBG:  ev.LoseBG,
		LoseG:  ev.WinG,
		LoseBG: ev.WinBG,
		Equity: -ev.Equity,
	}
}

// ordered reports whether the probabilities are consistent: everything in
// [0,1], wins nested, losses nested.
func (ev Evaluation) ordered() bool {
	probs := []float64{ev.Win, ev.WinG, ev.WinBG, ev.LoseG, ev.LoseBG}
	for _, p := range probs {
		if p < 0 || p > 1 {
			return false
		}
	}
	const slack = 1e-6
	return ev.Win+slack >= ev.WinG &&
		ev.WinG+slack >= ev.WinBG &&
		1-ev.Win+slack >= ev.LoseG &&
		ev.LoseG+slack >= ev.LoseBG
}

// Move is a full checker play: up to four submoves, each from one point
// index to another. Unused slots hold -1. From 24 means the bar; a negative
// To means the checker was borne off.
type Move struct {
	From [4]int8
	To   [4]int8
	Hits int8
}

// String renders the move in match notation, e.g. "24/23 13/11",
// "bar/20 24/18" or "6/off 5/off". Points are numbered from the mover's
// perspective, 24 down to 1.
func (m Move) String() string {
	var sb strings.Builder
	for i := 0; i < 4; i++ {
		if m.From[i] < 0 {
			break
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		if m.From[i] == 24 {
			sb.WriteString("bar")
		} else {
			fmt.Fprintf(&sb, "%d", m.From[i]+1)
		}
		sb.WriteByte('/')
		if m.To[i] < 0 {
			sb.WriteString("off")
		} else {
			fmt.Fprintf(&sb, "%d", m.To[i]+1)
		}
	}
	return sb.String()
}

// ParseMove parses the notation String produces, e.g. "24/23 13/11",
// "bar/20" or "6/off". A trailing "*" on a submove marks a hit and is
// accepted but ignored.
func ParseMove(s string) (Move, error) {
	m := Move{From: [4]int8{-1, -1, -1, -1}, To: [4]int8{-1, -1, -1, -1}}

	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 4 {
		return m, fmt.Errorf("move %q: %w", s, ErrInvalidInput)
	}

	for i, f := range fields {
		f = strings.TrimSuffix(f, "*")
		from, to, ok := strings.Cut(f, "/")
		if !ok {
			return m, fmt.Errorf("submove %q: %w", f, ErrInvalidInput)
		}

		if from == "bar" {
			m.From[i] = 24
		} else {
			n, err := strconv.Atoi(from)
			if err != nil || n < 1 || n > 24 {
				return m, fmt.Errorf("submove %q: %w", f, ErrInvalidInput)
			}
			m.From[i] = int8(n - 1)
		}

		if to == "off" {
			m.To[i] = -1
		} else {
			n, err := strconv.Atoi(to)
			if err != nil || n < 1 || n > 24 {
				return m, fmt.Errorf("submove %q: %w", f, ErrInvalidInput)
			}
			m.To[i] = int8(n - 1)
		}
	}
	return m, nil
}

// CubeAction is the recommended cube play for the side on roll.
type CubeAction int

const (
	NoDouble CubeAction = iota
	DoubleTake
	DoublePass
)

func (a CubeAction) String() string {
	switch a {
	case DoubleTake:
		return "double_take"
	case DoublePass:
		return "double_pass"
	default:
		return "no_double"
	}
}

// CubeDecision is the result of cube analysis.
type CubeDecision struct {
	Action         CubeAction
	NoDoubleEquity float64 // cubeful equity playing on with the current cube
	DoubleEquity   float64 // cubeful equity after double/take
	TakeEquity     float64 // the same equity, as offered to the taker
	DoubleDiff     float64 // DoubleEquity - NoDoubleEquity
}
