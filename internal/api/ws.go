package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bgeval-api/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The service carries no credentials or cookies, so cross-origin
	// evaluation clients are fine.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsError is the error frame sent over the socket; the connection stays
// open after caller-input errors.
type wsError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Socket handles GET /api/ws: each JSON message is an evaluate request,
// each reply an evaluate response. Malformed frames get an error frame
// back instead of closing the stream.
func (h *Handler) Socket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log := h.log.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Debug("websocket session opened")

	for {
		var req EvaluateRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket session ended", zap.Error(err))
			}
			return nil
		}

		resp, wsErr := h.evaluateForSocket(c, req)
		if wsErr != nil {
			if err := conn.WriteJSON(wsErr); err != nil {
				return nil
			}
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			return nil
		}
	}
}

func (h *Handler) evaluateForSocket(c echo.Context, req EvaluateRequest) (*EvaluateResponse, *wsError) {
	state, errResp := stateFromRequest(req.Position, req.MatchContext)
	if errResp != nil {
		return nil, &wsError{Error: errResp.Error, Code: errResp.Code}
	}
	ply := h.resolvePly(req.Ply)
	if ply < 0 || ply > engine.MaxPlies {
		return nil, &wsError{Error: "ply must be 0, 1 or 2", Code: CodeInvalidPly}
	}

	release, ok := h.pool.AcquireFast()
	if !ok {
		return nil, &wsError{Error: "evaluation pool exhausted", Code: CodeServerBusy}
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
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &wsError{Error: "evaluation cancelled", Code: CodeCancelled}
		}
		return nil, &wsError{Error: "evaluation failed", Code: CodeEvalError}
	}

	resp := evaluationToResponse(ev, ply, req.Cubeful)
	return &resp, nil
}
