package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/config"
	"github.com/horizon-rp/department-backend/internal/exam"
	"github.com/horizon-rp/department-backend/internal/middleware"
	"github.com/horizon-rp/department-backend/internal/model"
	"github.com/horizon-rp/department-backend/internal/response"
	"github.com/horizon-rp/department-backend/internal/service"
	ws "github.com/horizon-rp/department-backend/internal/websocket"
)

// WSHandler serves the live exam session stream. Countdown ticks, advances,
// the verdict, and integrity terminations are pushed to the client; answer
// and navigation actions are accepted on the same connection.
type WSHandler struct {
	portalService *service.PortalService
	upgrader      gorilla.Upgrader
	log           zerolog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(cfg *config.Config, portalService *service.PortalService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		portalService: portalService,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(cfg.AllowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.AllowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
		log: log.With().Str("component", "ws_handler").Logger(),
	}
}

// wsConn serializes writes from the stream forwarder and the action loop.
type wsConn struct {
	conn *gorilla.Conn
	mu   sync.Mutex
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = ws.WriteError(w.conn, msg)
}

// Stream upgrades the connection and runs the session event stream.
// GET /ws/v1/portal/stream?token=...
func (h *WSHandler) Stream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	events, cancel, err := h.portalService.Subscribe(claims.CandidateID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := &wsConn{conn: raw}
	defer func() {
		cancel()
		raw.Close()
	}()

	candidate := candidateFromClaims(claims)
	if view, err := h.portalService.CurrentSession(c.Request.Context(), candidate); err == nil {
		_ = conn.write(ws.StateResponse{Event: ws.EventState, State: view})
	}

	// Forward engine events until the session closes its stream or the
	// client goes away. Closing the connection on the way out unblocks the
	// pending read in the action loop, so completed sessions do not pin
	// sockets until the client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer raw.Close()
		for ev := range events {
			if err := conn.write(ws.StreamResponse{Event: ws.EventStream, Update: ev}); err != nil {
				return
			}
		}
	}()

	h.actionLoop(c.Request.Context(), conn, claims, done)
}

// actionLoop reads client actions until the connection drops or the event
// forwarder finishes.
func (h *WSHandler) actionLoop(ctx context.Context, conn *wsConn, claims *service.Claims, done <-chan struct{}) {
	candidate := candidateFromClaims(claims)
	for {
		select {
		case <-done:
			return
		default:
		}

		var req ws.RequestPayload
		if err := ws.ReadJSON(conn.conn, &req); err != nil {
			return
		}

		switch req.Action {
		case ws.ActionPing:
			_ = conn.write(ws.PongResponse{Event: ws.EventPong})

		case ws.ActionAnswer:
			if err := h.portalService.Answer(ctx, claims.CandidateID, req.QuestionID, req.OptionIndex); err != nil {
				conn.writeError(err.Error())
				continue
			}
			h.pushState(ctx, conn, candidate)

		case ws.ActionNext:
			if _, err := h.portalService.Next(ctx, claims.CandidateID); err != nil {
				conn.writeError(err.Error())
				continue
			}
			h.pushState(ctx, conn, candidate)

		case ws.ActionViolation:
			kind := exam.ViolationKind(req.Kind)
			if kind != exam.ViolationFocusLost && kind != exam.ViolationVisibilityLost {
				conn.writeError("unknown violation kind")
				continue
			}
			if _, err := h.portalService.ReportViolation(ctx, claims.CandidateID, kind); err != nil {
				conn.writeError(err.Error())
				continue
			}
			h.pushState(ctx, conn, candidate)

		default:
			conn.writeError("unknown action")
		}
	}
}

func (h *WSHandler) pushState(ctx context.Context, conn *wsConn, candidate model.Candidate) {
	view, err := h.portalService.CurrentSession(ctx, candidate)
	if err != nil {
		return
	}
	_ = conn.write(ws.StateResponse{Event: ws.EventState, State: view})
}
