package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/spardha-tech/spardha-backend/internal/schedule"
)

// Competition enumerates the supported competition types.
type Competition string

const (
	CompetitionCodeClash  Competition = "code-clash"
	CompetitionBugBash    Competition = "bug-bash"
	CompetitionCodeMirage Competition = "code-mirage"
)

// ValidCompetition reports whether s names a known competition type.
func ValidCompetition(s string) bool {
	switch Competition(s) {
	case CompetitionCodeClash, CompetitionBugBash, CompetitionCodeMirage:
		return true
	}
	return false
}

// Quiz represents a competition quiz with its schedule and rules.
// Exactly one schedule mode is authoritative: duration-based quizzes carry a
// DD:HH:MM:SS span relative to each participant's anchor; fixed quizzes carry
// a calendar window shared by every participant.
type Quiz struct {
	ID              uuid.UUID   `json:"id"`
	Competition     Competition `json:"competition"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Difficulty      string      `json:"difficulty"`
	EntryFee        int         `json:"entry_fee"`
	PrizeMoney      []int       `json:"prize_money"`
	Languages       []string    `json:"languages"`
	Rules           []string    `json:"rules"`
	IsDurationBased bool        `json:"is_duration_based"`
	Duration        string      `json:"duration,omitempty"`
	StartDate       string      `json:"start_date,omitempty"`
	StartTime       string      `json:"start_time,omitempty"`
	EndDate         string      `json:"end_date,omitempty"`
	EndTime         string      `json:"end_time,omitempty"`
	CreatedBy       int         `json:"created_by"`
	AuthorName      string      `json:"author_name"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Schedule adapts the quiz's schedule fields for the window resolver.
func (q *Quiz) Schedule() schedule.Schedule {
	return schedule.Schedule{
		IsDurationBased: q.IsDurationBased,
		Duration:        q.Duration,
		StartDate:       q.StartDate,
		StartTime:       q.StartTime,
		EndDate:         q.EndDate,
		EndTime:         q.EndTime,
	}
}

// CreateQuizRequest is the organizer payload for creating a new quiz.
type CreateQuizRequest struct {
	Competition     string   `json:"competition" binding:"required"`
	Title           string   `json:"title" binding:"required,min=3,max=255"`
	Description     string   `json:"description" binding:"omitempty,max=2000"`
	Difficulty      string   `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	EntryFee        int      `json:"entry_fee" binding:"omitempty,min=0"`
	PrizeMoney      []int    `json:"prize_money" binding:"omitempty"`
	Languages       []string `json:"languages" binding:"omitempty,dive,min=1"`
	Rules           []string `json:"rules" binding:"omitempty"`
	IsDurationBased bool     `json:"is_duration_based"`
	Duration        string   `json:"duration" binding:"omitempty"`
	StartDate       string   `json:"start_date" binding:"omitempty"`
	StartTime       string   `json:"start_time" binding:"omitempty"`
	EndDate         string   `json:"end_date" binding:"omitempty"`
	EndTime         string   `json:"end_time" binding:"omitempty"`
}

// UpdateScheduleRequest changes a quiz's time window. Duration-mode quizzes
// take a DD:HH:MM:SS span; fixed quizzes take DD-MM-YYYY dates and HH:MM times.
type UpdateScheduleRequest struct {
	IsDurationBased *bool  `json:"is_duration_based" binding:"omitempty"`
	Duration        string `json:"duration" binding:"omitempty"`
	StartDate       string `json:"start_date" binding:"omitempty"`
	StartTime       string `json:"start_time" binding:"omitempty"`
	EndDate         string `json:"end_date" binding:"omitempty"`
	EndTime         string `json:"end_time" binding:"omitempty"`
}
