package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmitReason records which trigger fired the submission.
type SubmitReason string

const (
	SubmitReasonManual    SubmitReason = "manual"
	SubmitReasonDeadline  SubmitReason = "deadline"
	SubmitReasonViolation SubmitReason = "violation"
)

// Submission is a participant's scored attempt, immutable once written.
// Code-mirage submissions are stored ungraded (Score 0, IsScored false)
// and finalized later by an organizer grading pass.
type Submission struct {
	ID            uuid.UUID         `json:"id"`
	ParticipantID int               `json:"participant_id"`
	QuizID        uuid.UUID         `json:"quiz_id"`
	Competition   Competition       `json:"competition"`
	Language      string            `json:"language,omitempty"`
	Answers       map[string]int    `json:"answers,omitempty"`
	Solutions     map[string]string `json:"solutions,omitempty"`
	PageHTML      string            `json:"page_html,omitempty"`
	Reviews       []JudgeReview     `json:"reviews,omitempty"`
	Score         float64           `json:"score"`
	TimeSpent     float64           `json:"time_spent"`
	AttemptCount  int               `json:"attempt_count"`
	Reason        SubmitReason      `json:"reason"`
	IsScored      bool              `json:"is_scored"`
	PageID        *uuid.UUID        `json:"page_id,omitempty"`
	SubmittedAt   time.Time         `json:"submitted_at"`
}

// SubmitQuizRequest is the participant payload for submitting an attempt.
// Answers is the code-clash selected-option map, Solutions the bug-bash
// per-question code map, PageHTML the composed code-mirage document.
type SubmitQuizRequest struct {
	Language  string            `json:"language" binding:"omitempty,min=1,max=40"`
	Answers   map[string]int    `json:"answers" binding:"omitempty"`
	Solutions map[string]string `json:"solutions" binding:"omitempty"`
	PageHTML  string            `json:"page_html" binding:"omitempty,max=500000"`
}

// JudgeReview records a per-question correctness verdict from the
// bug-bash judging collaborator.
type JudgeReview struct {
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
}

// MiragePage is a stored code-mirage document, addressable by its ID for
// preview and compile pages.
type MiragePage struct {
	ID        uuid.UUID `json:"id"`
	QuizID    uuid.UUID `json:"quiz_id"`
	CreatedBy int       `json:"created_by"`
	FullHTML  string    `json:"full_html"`
	CreatedAt time.Time `json:"created_at"`
}

// GradeMirageRequest is the organizer payload for grading a stored
// code-mirage submission.
type GradeMirageRequest struct {
	Score float64 `json:"score" binding:"min=0"`
}
