package model

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment gates a participant's access to one quiz. Attempts is the
// attempt ledger: it is only ever raised by an atomic conditional increment,
// and a non-duration-based quiz refuses question retrieval once attempts > 0.
type Enrollment struct {
	ID            int         `json:"id"`
	ParticipantID int         `json:"participant_id"`
	QuizID        uuid.UUID   `json:"quiz_id"`
	Competition   Competition `json:"competition"`
	IsEnrolled    bool        `json:"is_enrolled"`
	Attempts      int         `json:"attempts"`
	EntryToken    string      `json:"entry_token,omitempty"`
	// AnchorStartedAt mirrors the Redis attempt anchor. It is the fallback
	// read when the cache was flushed mid-attempt.
	AnchorStartedAt *time.Time `json:"anchor_started_at,omitempty"`
	EnrolledAt      time.Time  `json:"enrolled_at"`
}
