package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ParticipantSessionKey returns the cache key for a participant's login session.
func (r *CacheKeyStruct) ParticipantSessionKey(participantID int) string {
	return fmt.Sprintf("login:%d", participantID)
}

// AttemptAnchorKey returns the cache key for a participant's attempt anchor
// (the instant their duration-mode window began).
func (r *CacheKeyStruct) AttemptAnchorKey(quizID string, participantID int) string {
	return fmt.Sprintf("participant:%d:quiz:%s:anchor", participantID, quizID)
}

// WarningBudgetKey returns the cache key for a participant's remaining
// compliance-warning budget.
func (r *CacheKeyStruct) WarningBudgetKey(quizID string, participantID int) string {
	return fmt.Sprintf("participant:%d:quiz:%s:warnings", participantID, quizID)
}

// ReloadCountKey returns the cache key for a participant's reload counter.
func (r *CacheKeyStruct) ReloadCountKey(quizID string, participantID int) string {
	return fmt.Sprintf("participant:%d:quiz:%s:reloads", participantID, quizID)
}

// ParticipantAnswersKey returns the cache key for a participant's autosaved answers.
func (r *CacheKeyStruct) ParticipantAnswersKey(quizID string, participantID int) string {
	return fmt.Sprintf("participant:%d:quiz:%s:answers", participantID, quizID)
}

// MirageDraftKey returns the cache key for a participant's last composed
// code-mirage document.
func (r *CacheKeyStruct) MirageDraftKey(quizID string, participantID int) string {
	return fmt.Sprintf("participant:%d:quiz:%s:mirage_draft", participantID, quizID)
}

// SubmitGuardKey returns the key used as the in-flight submission guard.
func (r *CacheKeyStruct) SubmitGuardKey(quizID string, participantID int) string {
	return fmt.Sprintf("participant:%d:quiz:%s:submitting", participantID, quizID)
}

// QuizPayloadKey returns the cache key for a quiz's sanitized question payload.
func (r *CacheKeyStruct) QuizPayloadKey(quizID, language string) string {
	return fmt.Sprintf("quiz:%s:lang:%s:payload", quizID, language)
}

// QuizScheduleKey returns the cache key for a quiz's schedule document.
func (r *CacheKeyStruct) QuizScheduleKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:schedule", quizID)
}

var CacheKey = NewCacheKeyStruct()
