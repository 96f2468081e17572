package session

import (
	"context"
	"time"
)

// Defaults for the compliance-warning budget.
const (
	// InitialWarningBudget is the allowance of infractions per attempt.
	InitialWarningBudget = 5.0
	// TabHiddenPenalty is deducted on every loss of tab focus.
	TabHiddenPenalty = 1.0
	// FullscreenExitPenalty is deducted per detected fullscreen exit-and-
	// recover cycle. Fullscreen exits are more easily accidental than tab
	// switches, so they erode the budget more slowly.
	FullscreenExitPenalty = 0.5
	// HideViolationThreshold is the hidden duration beyond which a single
	// tab-hide becomes a violation regardless of remaining budget.
	HideViolationThreshold = 40 * time.Second
)

// State is one participant's persisted attempt state for one quiz. It
// survives page reloads and is cleared only on a terminal transition
// (submission) so a stale anchor cannot corrupt the next legitimate attempt.
type State struct {
	// Anchor marks when the participant's duration-mode window began.
	// Zero means not yet seeded.
	Anchor time.Time
	// WarningBudget is the remaining compliance allowance. At or below
	// zero the session is violated and must submit.
	WarningBudget float64
	// ReloadCount tracks page reloads within the attempt.
	ReloadCount int
}

// Store persists per-participant per-quiz session state.
//
// GetOrCreateAnchor is the sole mechanism that makes a duration-mode window
// non-extendable: it writes now only when no anchor is stored, and otherwise
// returns the existing value unchanged.
type Store interface {
	GetOrCreateAnchor(ctx context.Context, quizID string, participantID int, now time.Time) (time.Time, error)
	State(ctx context.Context, quizID string, participantID int) (State, error)
	SetWarningBudget(ctx context.Context, quizID string, participantID int, budget float64) error
	IncrementReload(ctx context.Context, quizID string, participantID int) (int, error)
	// Reset restores the warning budget, clears the anchor and reload
	// counter, and drops any autosaved payload. Called on every terminal
	// transition.
	Reset(ctx context.Context, quizID string, participantID int) error
}
