package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bgeval-api/internal/board"
	"bgeval-api/internal/engine"
)

// Version is reported by /api/health.
const Version = "1.2.0"

// defaultNumMoves limits /api/move responses when the client does not ask
// for a specific count.
const defaultNumMoves = 5

// Handler serves the evaluation endpoints.
type Handler struct {
	engine     *engine.Engine
	pool       *Pool
	log        *zap.Logger
	defaultPly int
}

// NewHandler wires the engine behind the request pool.
func NewHandler(e *engine.Engine, pool *Pool, log *zap.Logger, defaultPly int) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: e, pool: pool, log: log, defaultPly: defaultPly}
}

// Health reports readiness and pool occupancy.
func (h *Handler) Health(c echo.Context) error {
	ready := h.engine.Ready()
	status := "ok"
	if !ready {
		status = "degraded"
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Ready:   ready,
		Status:  status,
		Version: Version,
		Pool:    h.pool.Stats(),
	})
}

// Evaluate handles POST /api/evaluate.
func (h *Handler) Evaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, CodeInvalidJSON, "malformed request body")
	}

	state, errResp := stateFromRequest(req.Position, req.MatchContext)
	if errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	ply := h.resolvePly(req.Ply)
	if ply < 0 || ply > engine.MaxPlies {
		return jsonError(c, http.StatusBadRequest, CodeInvalidPly, "ply must be 0, 1 or 2")
	}

	release, ok := h.pool.AcquireFast()
	if !ok {
		return jsonError(c, http.StatusServiceUnavailable, CodeServerBusy, "evaluation pool exhausted")
	}
	defer release()

	var (
		ev  engine.Evaluation
		err error
	)
	if req.Cubeful {
		ev, err = h.engine.EvaluatePliedCubeful(c.Request().Context(), state, ply)
	} else {
		ev, err = h.engine.EvaluatePlied(c.Request().Context(), state, ply)
	}
	if err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(http.StatusOK, evaluationToResponse(ev, ply, req.Cubeful))
}

// Move handles POST /api/move.
func (h *Handler) Move(c echo.Context) error {
	var req MoveRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, CodeInvalidJSON, "malformed request body")
	}

	state, errResp := stateFromRequest(req.Position, req.MatchContext)
	if errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	if req.Dice[0] < 1 || req.Dice[0] > 6 || req.Dice[1] < 1 || req.Dice[1] > 6 {
		return jsonError(c, http.StatusBadRequest, CodeInvalidDice, "dice must be 1-6")
	}
	ply := h.resolvePly(req.Ply)
	if ply < 0 || ply > engine.MaxPlies {
		return jsonError(c, http.StatusBadRequest, CodeInvalidPly, "ply must be 0, 1 or 2")
	}
	if req.NumMoves < 0 {
		return jsonError(c, http.StatusBadRequest, CodeInvalidJSON, "num_moves must not be negative")
	}
	numMoves := req.NumMoves
	if numMoves == 0 {
		numMoves = defaultNumMoves
	}

	release, ok := h.pool.AcquireFast()
	if !ok {
		return jsonError(c, http.StatusServiceUnavailable, CodeServerBusy, "evaluation pool exhausted")
	}
	defer release()

	ranked, err := h.engine.AnalyzePosition(c.Request().Context(), state, req.Dice, ply)
	if err != nil {
		return h.engineError(c, err)
	}

	resp := MoveResponse{
		Moves:    make([]MoveEntry, 0, numMoves),
		NumLegal: len(ranked),
		Dice:     req.Dice,
		Position: req.Position,
	}
	for i, rm := range ranked {
		if i >= numMoves {
			break
		}
		resp.Moves = append(resp.Moves, MoveEntry{
			Move:   rm.Move.String(),
			Equity: rm.Eval.Equity,
			Win:    rm.Eval.Win * probScale,
			WinG:   rm.Eval.WinG * probScale,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Cube handles POST /api/cube.
func (h *Handler) Cube(c echo.Context) error {
	var req CubeRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, CodeInvalidJSON, "malformed request body")
	}

	state, errResp := stateFromRequest(req.Position, req.MatchContext)
	if errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	ply := h.resolvePly(req.Ply)
	if ply < 0 || ply > engine.MaxPlies {
		return jsonError(c, http.StatusBadRequest, CodeInvalidPly, "ply must be 0, 1 or 2")
	}

	release, ok := h.pool.AcquireFast()
	if !ok {
		return jsonError(c, http.StatusServiceUnavailable, CodeServerBusy, "evaluation pool exhausted")
	}
	defer release()

	d, err := h.engine.AnalyzeCube(c.Request().Context(), state, ply)
	if err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(http.StatusOK, CubeResponse{
		Action:         d.Action.String(),
		DoubleEquity:   d.DoubleEquity,
		NoDoubleEquity: d.NoDoubleEquity,
		TakeEquity:     d.TakeEquity,
		DoubleDiff:     d.DoubleDiff,
	})
}

// Rollout handles POST /api/rollout.
func (h *Handler) Rollout(c echo.Context) error {
	var req RolloutRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, CodeInvalidJSON, "malformed request body")
	}

	state, errResp := stateFromRequest(req.Position, req.MatchContext)
	if errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	if req.Trials < 0 || req.Trials > 100_000 {
		return jsonError(c, http.StatusBadRequest, CodeInvalidJSON, "trials out of range")
	}

	release, err := h.pool.AcquireSlow(c.Request().Context())
	if err != nil {
		return jsonError(c, http.StatusServiceUnavailable, CodeServerBusy, "rollout pool exhausted")
	}
	defer release()

	res, err := h.engine.Rollout(c.Request().Context(), state, engine.RolloutOptions{
		Trials:   req.Trials,
		Truncate: req.Truncate,
		Seed:     req.Seed,
	})
	if err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(http.StatusOK, RolloutResponse{
		Equity:      res.Equity,
		StdDev:      res.EquityStdDev,
		CI95:        res.EquityCI95,
		Win:         res.Win * probScale,
		WinG:        res.WinG * probScale,
		WinBG:       res.WinBG * probScale,
		LoseG:       res.LoseG * probScale,
		LoseBG:      res.LoseBG * probScale,
		Trials:      res.Trials,
		Seed:        res.Seed,
		Truncated:   req.Truncate > 0,
		TruncatePly: req.Truncate,
	})
}

// TutorMove handles POST /api/tutor/move: grade a played checker move.
func (h *Handler) TutorMove(c echo.Context) error {
	var req TutorMoveRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, CodeInvalidJSON, "malformed request body")
	}

	state, errResp := stateFromRequest(req.Position, req.MatchContext)
	if errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	if req.Dice[0] < 1 || req.Dice[0] > 6 || req.Dice[1] < 1 || req.Dice[1] > 6 {
		return jsonError(c, http.StatusBadRequest, CodeInvalidDice, "dice must be 1-6")
	}
	ply := h.resolvePly(req.Ply)
	if ply < 0 || ply > engine.MaxPlies {
		return jsonError(c, http.StatusBadRequest, CodeInvalidPly, "ply must be 0, 1 or 2")
	}
	played, err := engine.ParseMove(req.Move)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, CodeInvalidMove, "unparseable move notation")
	}

	release, ok := h.pool.AcquireFast()
	if !ok {
		return jsonError(c, http.StatusServiceUnavailable, CodeServerBusy, "evaluation pool exhausted")
	}
	defer release()

	crit, err := h.engine.CritiqueMove(c.Request().Context(), state, req.Dice, played, ply)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			return jsonError(c, http.StatusBadRequest, CodeInvalidMove, "move is not legal for this position and roll")
		}
		return h.engineError(c, err)
	}

	resp := TutorMoveResponse{
		Skill:        crit.Skill.String(),
		SkillMark:    crit.Skill.Abbr(),
		EquityLoss:   crit.EquityLoss,
		BestEquity:   crit.BestEquity,
		PlayedEquity: crit.PlayedEquity,
		Forced:       crit.Forced,
		Moves:        make([]MoveEntry, 0, defaultNumMoves),
	}
	if len(crit.Ranked) > 0 {
		resp.BestMove = crit.Best.String()
	}
	for i, rm := range crit.Ranked {
		if i >= defaultNumMoves {
			break
		}
		resp.Moves = append(resp.Moves, MoveEntry{
			Move:   rm.Move.String(),
			Equity: rm.Eval.Equity,
			Win:    rm.Eval.Win * probScale,
			WinG:   rm.Eval.WinG * probScale,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// TutorCube handles POST /api/tutor/cube: grade a played cube decision.
func (h *Handler) TutorCube(c echo.Context) error {
	var req TutorCubeRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, CodeInvalidJSON, "malformed request body")
	}

	state, errResp := stateFromRequest(req.Position, req.MatchContext)
	if errResp != nil {
		return c.JSON(http.StatusBadRequest, errResp)
	}
	ply := h.resolvePly(req.Ply)
	if ply < 0 || ply > engine.MaxPlies {
		return jsonError(c, http.StatusBadRequest, CodeInvalidPly, "ply must be 0, 1 or 2")
	}
	played, ok := parseCubePlay(req.Action)
	if !ok {
		return jsonError(c, http.StatusBadRequest, CodeInvalidAction, "action must be no_double, double, take or pass")
	}

	release, ok := h.pool.AcquireFast()
	if !ok {
		return jsonError(c, http.StatusServiceUnavailable, CodeServerBusy, "evaluation pool exhausted")
	}
	defer release()

	crit, err := h.engine.CritiqueCube(c.Request().Context(), state, played, ply)
	if err != nil {
		return h.engineError(c, err)
	}

	return c.JSON(http.StatusOK, TutorCubeResponse{
		Skill:      crit.Skill.String(),
		SkillMark:  crit.Skill.Abbr(),
		EquityLoss: crit.EquityLoss,
		Optimal:    crit.Optimal.String(),
		Played:     crit.Played.String(),
		Close:      crit.Close,
	})
}

func parseCubePlay(s string) (engine.CubePlay, bool) {
	switch s {
	case "no_double":
		return engine.PlayNoDouble, true
	case "double":
		return engine.PlayDouble, true
	case "take":
		return engine.PlayTake, true
	case "pass":
		return engine.PlayPass, true
	default:
		return 0, false
	}
}

// resolvePly substitutes the configured default when the request leaves
// ply unset.
func (h *Handler) resolvePly(p *int) int {
	if p == nil {
		return h.defaultPly
	}
	return *p
}

// stateFromRequest decodes the position and applies the match context.
func stateFromRequest(position string, mc MatchContext) (*engine.GameState, *ErrorResponse) {
	b, err := board.DecodePositionID(position)
	if err != nil {
		return nil, &ErrorResponse{Error: "malformed position id", Code: CodeInvalidPosition}
	}

	state := engine.NewGameState(b)
	if mc.CubeValue > 0 {
		state.CubeValue = mc.CubeValue
	}
	if mc.CubeOwner != nil {
		state.CubeOwner = *mc.CubeOwner
	}
	state.MatchLength = mc.MatchLength
	state.Score = mc.Score
	state.Crawford = mc.Crawford
	return state, nil
}

// engineError maps engine failures onto wire errors. Invalid input is the
// caller's fault; cancellation means the client went away or the deadline
// passed; everything else is a server fault.
func (h *Handler) engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return jsonError(c, http.StatusBadRequest, CodeInvalidDice, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return jsonError(c, http.StatusServiceUnavailable, CodeCancelled, "evaluation cancelled")
	case errors.Is(err, engine.ErrModelUnavailable):
		h.log.Error("model unavailable", zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, CodeEvalError, "evaluation model unavailable")
	case errors.Is(err, engine.ErrInternal):
		h.log.Error("evaluation invariant violated", zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, CodeEvalError, "evaluation failed")
	default:
		h.log.Error("unexpected evaluation error", zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func jsonError(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, ErrorResponse{Error: msg, Code: code})
}
