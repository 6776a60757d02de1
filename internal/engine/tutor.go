package engine

import (
	"context"
	"fmt"
	"math"

	"bgeval-api/internal/board"
)

// Skill grades the equity a play gave away, using gnubg's default
// thresholds: 0.03 doubtful, 0.06 bad, 0.12 very bad.
type Skill int

const (
	SkillNone Skill = iota
	SkillDoubtful
	SkillBad
	SkillVeryBad
)

func (s Skill) String() string {
	switch s {
	case SkillDoubtful:
		return "doubtful"
	case SkillBad:
		return "bad"
	case SkillVeryBad:
		return "very_bad"
	default:
		return "none"
	}
}

// Abbr is the annotation mark used in match transcripts.
func (s Skill) Abbr() string {
	switch s {
	case SkillDoubtful:
		return "?!"
	case SkillBad:
		return "?"
	case SkillVeryBad:
		return "??"
	default:
		return ""
	}
}

func classifySkill(loss float64) Skill {
	switch {
	case loss >= 0.12:
		return SkillVeryBad
	case loss >= 0.06:
		return SkillBad
	case loss >= 0.03:
		return SkillDoubtful
	default:
		return SkillNone
	}
}

// CubePlay is what a player actually did with the cube, as opposed to
// CubeAction, which is what the analyzer recommends.
type CubePlay int

const (
	PlayNoDouble CubePlay = iota
	PlayDouble
	PlayTake
	PlayPass
)

func (p CubePlay) String() string {
	switch p {
	case PlayDouble:
		return "double"
	case PlayTake:
		return "take"
	case PlayPass:
		return "pass"
	default:
		return "no_double"
	}
}

// MoveCritique rates a played checker move against the best one.
type MoveCritique struct {
	Played       Move
	Best         Move
	PlayedEquity float64
	BestEquity   float64
	EquityLoss   float64 // BestEquity - PlayedEquity, never negative
	Skill        Skill
	Forced       bool // at most one legal play, nothing to get wrong
	Ranked       []RankedMove
}

// CubeCritique rates a played cube decision against the analyzer's.
type CubeCritique struct {
	Decision   *CubeDecision
	Optimal    CubeAction
	Played     CubePlay
	EquityLoss float64
	Skill      Skill
	Close      bool // the alternatives are within 0.16 equity
}

// CritiqueMove ranks all legal plays for the roll and grades the played
// one by its equity distance from the best. A move that is not legal for
// the position and dice returns ErrInvalidInput.
func (e *Engine) CritiqueMove(ctx context.Context, state *GameState, dice [2]int, played Move, plies int) (*MoveCritique, error) {
	ranked, err := e.AnalyzePosition(ctx, state, dice, plies)
	if err != nil {
		return nil, err
	}

	c := &MoveCritique{Played: played, Ranked: ranked, Forced: len(ranked) <= 1}
	if len(ranked) == 0 {
		// Dancing is nobody's fault.
		return c, nil
	}

	c.Best = ranked[0].Move
	c.BestEquity = ranked[0].Eval.Equity
	if len(ranked) == 1 {
		c.PlayedEquity = c.BestEquity
		return c, nil
	}

	playedKey := board.MakeKey(ApplyMove(state.Board, played))
	found := false
	for _, rm := range ranked {
		if board.MakeKey(ApplyMove(state.Board, rm.Move)) == playedKey {
			c.PlayedEquity = rm.Eval.Equity
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("move %q is not a legal play: %w", played, ErrInvalidInput)
	}

	c.EquityLoss = c.BestEquity - c.PlayedEquity
	if c.EquityLoss < 0 {
		c.EquityLoss = 0
	}
	c.Skill = classifySkill(c.EquityLoss)
	return c, nil
}

// CritiqueCube grades a cube play. The double's value to the doubler is
// min(take, pass) equity, since the opponent picks the cheaper reply;
// take and pass errors are graded from the responder's seat.
func (e *Engine) CritiqueCube(ctx context.Context, state *GameState, played CubePlay, plies int) (*CubeCritique, error) {
	d, err := e.AnalyzeCube(ctx, state, plies)
	if err != nil {
		return nil, err
	}

	ci := cubeInfoFromState(state)
	_, dp := e.cubeAvailable(ci)
	if ci.matchTo > 0 {
		dp = e.mwcToEquity(dp, ci)
	}
	nd := d.NoDoubleEquity
	dt := d.TakeEquity
	doubled := dt
	if dp < doubled {
		doubled = dp
	}

	c := &CubeCritique{
		Decision: d,
		Optimal:  d.Action,
		Played:   played,
		Close:    math.Abs(doubled-nd) < 0.16,
	}

	switch played {
	case PlayNoDouble:
		if d.Action != NoDouble {
			c.EquityLoss = doubled - nd
		}
	case PlayDouble:
		if d.Action == NoDouble {
			c.EquityLoss = nd - doubled
		}
	case PlayTake:
		if d.Action == DoublePass {
			c.EquityLoss = dt - dp
		}
	case PlayPass:
		if d.Action == DoubleTake {
			c.EquityLoss = dp - dt
		}
	}
	if c.EquityLoss < 0 {
		c.EquityLoss = 0
	}
	c.Skill = classifySkill(c.EquityLoss)
	return c, nil
}
