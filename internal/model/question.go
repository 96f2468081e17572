package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is a quiz question. The populated fields depend on the competition:
// code-clash uses Options/CorrectAnswer, bug-bash uses Problem/BuggySolution,
// code-mirage uses Snippet (shown briefly, then recreated from memory).
type Question struct {
	ID            uuid.UUID   `json:"id"`
	QuizID        uuid.UUID   `json:"quiz_id"`
	Competition   Competition `json:"competition"`
	Language      string      `json:"language,omitempty"`
	QuestionText  string      `json:"question,omitempty"`
	Options       []string    `json:"options,omitempty"`
	CorrectAnswer int         `json:"correct_answer,omitempty"`
	Problem       string      `json:"problem,omitempty"`
	BuggySolution string      `json:"buggy_solution,omitempty"`
	Snippet       string      `json:"snippet,omitempty"`
	Marks         float64     `json:"marks"`
	NegativeMarks float64     `json:"negative_marks"`
	CreatedBy     int         `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
}

// SanitizedQuestion is a question stripped of scoring-relevant fields,
// safe to hand to a participant during a session.
type SanitizedQuestion struct {
	ID            uuid.UUID `json:"id"`
	QuestionText  string    `json:"question,omitempty"`
	Options       []string  `json:"options,omitempty"`
	Problem       string    `json:"problem,omitempty"`
	BuggySolution string    `json:"buggy_solution,omitempty"`
	Snippet       string    `json:"snippet,omitempty"`
	Marks         float64   `json:"marks"`
	NegativeMarks float64   `json:"negative_marks"`
	Language      string    `json:"language,omitempty"`
}

// Sanitize strips the correct answer from a question.
func (q *Question) Sanitize() SanitizedQuestion {
	return SanitizedQuestion{
		ID:            q.ID,
		QuestionText:  q.QuestionText,
		Options:       q.Options,
		Problem:       q.Problem,
		BuggySolution: q.BuggySolution,
		Snippet:       q.Snippet,
		Marks:         q.Marks,
		NegativeMarks: q.NegativeMarks,
		Language:      q.Language,
	}
}

// AddQuestionRequest is the organizer payload for adding a question.
// Fields are validated per competition type in the service layer.
type AddQuestionRequest struct {
	Language      string   `json:"language" binding:"omitempty,min=1,max=40"`
	QuestionText  string   `json:"question" binding:"omitempty,max=5000"`
	Options       []string `json:"options" binding:"omitempty,max=8,dive,min=1"`
	CorrectAnswer *int     `json:"correct_answer" binding:"omitempty,min=0"`
	Problem       string   `json:"problem" binding:"omitempty,max=10000"`
	BuggySolution string   `json:"buggy_solution" binding:"omitempty,max=20000"`
	Snippet       string   `json:"snippet" binding:"omitempty,max=20000"`
	Marks         float64  `json:"marks" binding:"required,gt=0"`
	NegativeMarks float64  `json:"negative_marks" binding:"omitempty,min=0"`
}
