package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spardha-tech/spardha-backend/internal/config"
	"github.com/spardha-tech/spardha-backend/internal/middleware"
	"github.com/spardha-tech/spardha-backend/internal/model"
	"github.com/spardha-tech/spardha-backend/internal/schedule"
	"github.com/spardha-tech/spardha-backend/internal/service"
	"github.com/spardha-tech/spardha-backend/internal/session"
	ws "github.com/spardha-tech/spardha-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs the proctor stream: one WebSocket connection per live
// attempt, carrying compliance signals up and warnings, autosave acks, and
// the terminal submitted event down.
type WSHandler struct {
	rdb           *redis.Client
	sessionSvc    *service.SessionService
	submissionSvc *service.SubmissionService
	clock         schedule.Clock
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, sessionSvc *service.SessionService, submissionSvc *service.SubmissionService, clock schedule.Clock, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:           rdb,
		sessionSvc:    sessionSvc,
		submissionSvc: submissionSvc,
		clock:         clock,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// proctorStream is the per-connection state: the attempt runtime plus the
// synchronization the runtime's asynchronous triggers need to share one
// WebSocket writer.
type proctorStream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	runtime *session.Runtime

	// manual holds the payload of an explicit submit action so the runtime's
	// single submit funnel can pick it up; deadline and violation triggers
	// leave it nil and the funnel falls back to the autosaved answers.
	payloadMu sync.Mutex
	manual    *model.SubmitQuizRequest
}

func (p *proctorStream) write(v interface{}) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = ws.WriteTyped(p.conn, v)
}

// ProctorStream godoc
// WS /ws/v1/portal/quizzes/:quiz_id/proctor
// Upgrades to WebSocket for compliance monitoring, autosave, and submission.
func (h *WSHandler) ProctorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz ID"})
		return
	}
	participantID := claims.UserID

	// Resolve the attempt before upgrading: a connection with no live
	// attempt behind it has nothing to proctor.
	window, err := h.sessionSvc.Window(c.Request.Context(), participantID, quizID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no active attempt for this quiz"})
		return
	}
	snap, err := h.sessionSvc.State(c.Request.Context(), participantID, quizID)
	if err != nil || snap.AttemptCount == 0 || snap.RemainingSeconds <= 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "no active attempt for this quiz"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("participant_id", participantID).
		Str("quiz_id", quizID.String()).
		Logger()

	stream := &proctorStream{conn: conn}
	stream.runtime = session.NewRuntime(window, snap.WarningBudget, h.clock.Now,
		func(budget float64) {
			h.sessionSvc.PersistBudget(context.Background(), participantID, quizID, budget)
		},
		func(reason session.Reason) {
			h.finalize(stream, wsLog, participantID, quizID, reason)
		},
	)
	defer stream.runtime.Close()
	stream.runtime.Start()

	wsLog.Info().Int64("remaining_seconds", int64(stream.runtime.Remaining().Seconds())).Msg("Participant connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		if stream.runtime.Submitted() && msg.Action != ws.ActionPing {
			stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "attempt already submitted"})
			continue
		}

		switch msg.Action {
		case ws.ActionHidden:
			h.handleCompliance(stream, wsLog, participantID, quizID, msg.Action, stream.runtime.TabHidden())
		case ws.ActionVisible:
			h.handleCompliance(stream, wsLog, participantID, quizID, msg.Action, stream.runtime.TabVisible())
		case ws.ActionFullscreenExit:
			h.handleCompliance(stream, wsLog, participantID, quizID, msg.Action, stream.runtime.FullscreenExited())
		case ws.ActionFullscreenBack:
			// Recovery is recorded for the audit trail but costs nothing;
			// the exit already spent its half warning.
			h.queueProctorEvent(participantID, quizID, msg.Action, stream.runtime.Budget())
		case ws.ActionAutosave:
			h.handleAutosave(stream, participantID, quizID, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(stream, &msg)
		case ws.ActionPing:
			stream.write(ws.PongResponse{
				Event:            ws.EventPong,
				RemainingSeconds: int64(stream.runtime.Remaining().Seconds()),
			})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}

// handleCompliance queues the event for the audit trail and answers with the
// new budget. Violations are answered by finalize, not here.
func (h *WSHandler) handleCompliance(stream *proctorStream, wsLog zerolog.Logger, participantID int, quizID uuid.UUID, action ws.Action, status session.Status) {
	budget := stream.runtime.Budget()
	h.queueProctorEvent(participantID, quizID, action, budget)

	if status == session.StatusViolated {
		wsLog.Info().Str("action", string(action)).Msg("Attempt violated")
		return
	}
	stream.write(ws.WarningResponse{Event: ws.EventWarning, RemainingBudget: budget})
}

// handleAutosave stores one answer (or the mirage draft) in Redis so a
// deadline or violation submit has something to grade.
func (h *WSHandler) handleAutosave(stream *proctorStream, participantID int, quizID uuid.UUID, msg *ws.RequestPayload) {
	ctx := context.Background()

	if msg.QID == "mirage" {
		key := config.CacheKey.MirageDraftKey(quizID.String(), participantID)
		if err := h.rdb.Set(ctx, key, msg.Answer, 0).Err(); err != nil {
			stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "save failed"})
			return
		}
		stream.write(ws.SavedResponse{Event: ws.EventSaved, QID: msg.QID})
		return
	}

	if msg.QID == "" {
		stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "q_id is required"})
		return
	}
	if _, err := uuid.Parse(msg.QID); err != nil {
		stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "invalid q_id format"})
		return
	}

	key := config.CacheKey.ParticipantAnswersKey(quizID.String(), participantID)
	if err := h.rdb.HSet(ctx, key, msg.QID, msg.Answer).Err(); err != nil {
		h.log.Error().Err(err).Int("participant_id", participantID).Msg("Autosave Redis error")
		stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "save failed"})
		return
	}
	stream.write(ws.SavedResponse{Event: ws.EventSaved, QID: msg.QID})
}

// handleSubmit parses the explicit payload and pushes it through the
// single-shot funnel.
func (h *WSHandler) handleSubmit(stream *proctorStream, msg *ws.RequestPayload) {
	var req model.SubmitQuizRequest
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "invalid submit payload"})
			return
		}
	}

	stream.payloadMu.Lock()
	stream.manual = &req
	stream.payloadMu.Unlock()

	if !stream.runtime.TrySubmit(session.ReasonManual) {
		stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "attempt already submitted"})
	}
}

// finalize is the runtime's single submit funnel. It runs exactly once per
// connection, from whichever trigger won.
func (h *WSHandler) finalize(stream *proctorStream, wsLog zerolog.Logger, participantID int, quizID uuid.UUID, reason session.Reason) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stream.payloadMu.Lock()
	req := stream.manual
	stream.payloadMu.Unlock()
	if req == nil {
		req = h.recoverPayload(ctx, participantID, quizID)
	}

	sub, err := h.submissionSvc.Submit(ctx, participantID, quizID, model.SubmitReason(reason), req)
	if err != nil {
		wsLog.Error().Err(err).Str("reason", string(reason)).Msg("Submission failed")
		stream.write(ws.ErrorResponse{Event: ws.EventError, Error: "submission failed"})
		return
	}

	wsLog.Info().
		Str("reason", string(reason)).
		Float64("score", sub.Score).
		Bool("is_scored", sub.IsScored).
		Msg("Attempt submitted")

	if reason == session.ReasonViolation {
		stream.write(ws.ViolatedResponse{Event: ws.EventViolated, Reason: string(reason)})
	}
	stream.write(ws.SubmittedResponse{
		Event:    ws.EventSubmitted,
		Reason:   string(reason),
		Score:    sub.Score,
		IsScored: sub.IsScored,
	})
}

// recoverPayload rebuilds a submission payload from the autosaved answers
// when the deadline or a violation fires with no explicit submit.
func (h *WSHandler) recoverPayload(ctx context.Context, participantID int, quizID uuid.UUID) *model.SubmitQuizRequest {
	req := &model.SubmitQuizRequest{}

	saved, err := h.rdb.HGetAll(ctx, config.CacheKey.ParticipantAnswersKey(quizID.String(), participantID)).Result()
	if err == nil && len(saved) > 0 {
		answers := make(map[string]int, len(saved))
		solutions := make(map[string]string, len(saved))
		for qid, ans := range saved {
			if n, perr := strconv.Atoi(ans); perr == nil {
				answers[qid] = n
			} else {
				solutions[qid] = ans
			}
		}
		if len(answers) > 0 {
			req.Answers = answers
		}
		if len(solutions) > 0 {
			req.Solutions = solutions
		}
	}

	if draft, err := h.rdb.Get(ctx, config.CacheKey.MirageDraftKey(quizID.String(), participantID)).Result(); err == nil {
		req.PageHTML = draft
	}
	return req
}

// queueProctorEvent pushes one compliance event onto the persistence queue.
// The audit trail is written by the proctor worker in batches.
func (h *WSHandler) queueProctorEvent(participantID int, quizID uuid.UUID, action ws.Action, budget float64) {
	payload, err := json.Marshal(map[string]interface{}{
		"participant_id": participantID,
		"quiz_id":        quizID.String(),
		"event_type":     string(action),
		"budget":         budget,
		"timestamp":      h.clock.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	if err := h.rdb.RPush(context.Background(), config.WorkerKey.PersistProctorEventsQueue, payload).Err(); err != nil {
		h.log.Warn().Err(err).Msg("failed to queue proctor event")
	}
}
