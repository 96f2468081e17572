package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	// Compliance signals reported by the proctored page.
	ActionHidden         Action = "hidden"
	ActionVisible        Action = "visible"
	ActionFullscreenExit Action = "fullscreen_exit"
	ActionFullscreenBack Action = "fullscreen_back"

	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is the single client message shape. Which fields are
// populated depends on the action: autosave carries QID/Answer, submit
// carries the raw submission payload, the compliance signals carry nothing.
type RequestPayload struct {
	Action  Action          `json:"action"`
	QID     string          `json:"q_id,omitempty"`
	Answer  string          `json:"ans,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventWarning   Event = "warning"
	EventViolated  Event = "violated"
	EventSaved     Event = "saved"
	EventSubmitted Event = "submitted"
	EventPong      Event = "pong"
	EventError     Event = "error"
)

// WarningResponse tells the client its remaining compliance allowance.
type WarningResponse struct {
	Event           Event   `json:"event"`
	RemainingBudget float64 `json:"remaining_budget"`
}

// ViolatedResponse tells the client its attempt was force-submitted.
type ViolatedResponse struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}

// SavedResponse acknowledges an autosave.
type SavedResponse struct {
	Event Event  `json:"event"`
	QID   string `json:"q_id"`
}

// SubmittedResponse reports a completed submission.
type SubmittedResponse struct {
	Event    Event   `json:"event"`
	Reason   string  `json:"reason"`
	Score    float64 `json:"score"`
	IsScored bool    `json:"is_scored"`
}

// PongResponse answers a ping with the authoritative remaining time, so the
// client clock can never drift ahead of the server's.
type PongResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// ErrorResponse reports a rejected action.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
