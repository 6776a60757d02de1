// Package api exposes the evaluator over HTTP/JSON.
package api

import "bgeval-api/internal/engine"

// Probabilities travel as percentages on the wire, matching the clients
// that consume them.
const probScale = 100

// EvaluateRequest asks for a static or plied evaluation of a position.
type EvaluateRequest struct {
	Position string `json:"position"`
	Ply      *int   `json:"ply"` // nil = server default
	Cubeful  bool   `json:"cubeful"`
	MatchContext
}

// MatchContext optionally places the request inside a match. Zero values
// mean money play with a centered unit cube.
type MatchContext struct {
	CubeValue   int    `json:"cube_value,omitempty"`
	CubeOwner   *int   `json:"cube_owner,omitempty"` // nil or -1 = centered
	MatchLength int    `json:"match_length,omitempty"`
	Score       [2]int `json:"score,omitempty"`
	Crawford    bool   `json:"crawford,omitempty"`
}

// EvaluateResponse is the outcome distribution for the side on roll.
type EvaluateResponse struct {
	Equity  float64 `json:"equity"`
	Win     float64 `json:"win"`
	WinG    float64 `json:"win_g"`
	WinBG   float64 `json:"win_bg"`
	LoseG   float64 `json:"lose_g"`
	LoseBG  float64 `json:"lose_bg"`
	Ply     int     `json:"ply"`
	Cubeful bool    `json:"cubeful"`
}

// MoveRequest asks for ranked plays for a roll.
type MoveRequest struct {
	Position string `json:"position"`
	Dice     [2]int `json:"dice"`
	NumMoves int    `json:"num_moves"`
	Ply      *int   `json:"ply"`
	MatchContext
}

// MoveEntry is one ranked play.
type MoveEntry struct {
	Move   string  `json:"move"`
	Equity float64 `json:"equity"`
	Win    float64 `json:"win"`
	WinG   float64 `json:"win_g"`
}

// MoveResponse lists the best plays, best first. An empty list means the
// roll cannot be played.
type MoveResponse struct {
	Moves    []MoveEntry `json:"moves"`
	NumLegal int         `json:"num_legal"`
	Dice     [2]int      `json:"dice"`
	Position string      `json:"position"`
}

// CubeRequest asks for a cube recommendation.
type CubeRequest struct {
	Position string `json:"position"`
	Ply      *int   `json:"ply"`
	MatchContext
}

// CubeResponse is the recommended cube action with its scenario equities.
type CubeResponse struct {
	Action         string  `json:"action"`
	DoubleEquity   float64 `json:"double_equity"`
	NoDoubleEquity float64 `json:"no_double_equity"`
	TakeEquity     float64 `json:"take_equity"`
	DoubleDiff     float64 `json:"double_diff"`
}

// RolloutRequest asks for a Monte Carlo estimate.
type RolloutRequest struct {
	Position string `json:"position"`
	Trials   int    `json:"trials"`
	Truncate int    `json:"truncate"`
	Seed     int64  `json:"seed"`
	MatchContext
}

// RolloutResponse is the rollout estimate with its sampling error.
type RolloutResponse struct {
	Equity      float64 `json:"equity"`
	StdDev      float64 `json:"std_dev"`
	CI95        float64 `json:"ci_95"`
	Win         float64 `json:"win"`
	WinG        float64 `json:"win_g"`
	WinBG       float64 `json:"win_bg"`
	LoseG       float64 `json:"lose_g"`
	LoseBG      float64 `json:"lose_bg"`
	Trials      int     `json:"trials"`
	Seed        int64   `json:"seed"`
	Truncated   bool    `json:"truncated"`
	TruncatePly int     `json:"truncate_ply,omitempty"`
}

// TutorMoveRequest asks how good a played checker move was.
type TutorMoveRequest struct {
	Position string `json:"position"`
	Dice     [2]int `json:"dice"`
	Move     string `json:"move"`
	Ply      *int   `json:"ply"`
	MatchContext
}

// TutorMoveResponse grades the played move against the best one.
type TutorMoveResponse struct {
	Skill        string      `json:"skill"`
	SkillMark    string      `json:"skill_mark,omitempty"`
	EquityLoss   float64     `json:"equity_loss"`
	BestMove     string      `json:"best_move,omitempty"`
	BestEquity   float64     `json:"best_equity"`
	PlayedEquity float64     `json:"played_equity"`
	Forced       bool        `json:"forced"`
	Moves        []MoveEntry `json:"moves"`
}

// TutorCubeRequest asks how good a cube decision was. Action is what the
// player did: no_double, double, take or pass.
type TutorCubeRequest struct {
	Position string `json:"position"`
	Action   string `json:"action"`
	Ply      *int   `json:"ply"`
	MatchContext
}

// TutorCubeResponse grades the played cube action.
type TutorCubeResponse struct {
	Skill      string  `json:"skill"`
	SkillMark  string  `json:"skill_mark,omitempty"`
	EquityLoss float64 `json:"equity_loss"`
	Optimal    string  `json:"optimal"`
	Played     string  `json:"played"`
	Close      bool    `json:"close"`
}

// HealthResponse reports service readiness and pool occupancy.
type HealthResponse struct {
	Ready   bool      `json:"ready"`
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Pool    PoolStats `json:"pool"`
}

// ErrorResponse is the structured error body for all failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes on the wire.
const (
	CodeInvalidJSON     = "INVALID_JSON"
	CodeInvalidPosition = "INVALID_POSITION"
	CodeInvalidDice     = "INVALID_DICE"
	CodeInvalidPly      = "INVALID_PLY"
	CodeInvalidMove     = "INVALID_MOVE"
	CodeInvalidAction   = "INVALID_ACTION"
	CodeEvalError       = "EVAL_ERROR"
	CodeInternal        = "INTERNAL"
	CodeServerBusy      = "SERVER_BUSY"
	CodeCancelled       = "CANCELLED"
)

func evaluationToResponse(ev engine.Evaluation, ply int, cubeful bool) EvaluateResponse {
	return EvaluateResponse{
		Equity:  ev.Equity,
		Win:     ev.Win * probScale,
		WinG:    ev.WinG * probScale,
		WinBG:   ev.WinBG * probScale,
		LoseG:   ev.LoseG * probScale,
		LoseBG:  ev.LoseBG * probScale,
		Ply:     ply,
		Cubeful: cubeful,
	}
}
