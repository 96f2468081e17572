package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spardha-tech/spardha-backend/internal/config"
	"github.com/spardha-tech/spardha-backend/internal/model"
	"github.com/spardha-tech/spardha-backend/internal/repository"
	"github.com/spardha-tech/spardha-backend/internal/schedule"
)

// Quiz service errors.
var (
	ErrUnknownCompetition = errors.New("unknown competition type")
	ErrBadSchedule        = errors.New("schedule fields are inconsistent")
	ErrBadQuestion        = errors.New("question fields do not match the competition type")
	ErrNotAuthor          = errors.New("not the quiz author")
)

// QuizService handles quiz lifecycle and the sanitized question payload cache.
type QuizService struct {
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
}

// NewQuizService creates a new QuizService.
func NewQuizService(quizRepo *repository.QuizRepository, questionRepo *repository.QuestionRepository, rdb *redis.Client) *QuizService {
	return &QuizService{quizRepo: quizRepo, questionRepo: questionRepo, rdb: rdb}
}

// Create validates a new quiz and stores it. Schedule fields must be
// parseable for the declared mode, but an unconfigured schedule (all fields
// empty) is allowed: organizers often announce a quiz before fixing a slot.
func (s *QuizService) Create(ctx context.Context, organizerID int, req *model.CreateQuizRequest) (*model.Quiz, error) {
	if !model.ValidCompetition(req.Competition) {
		return nil, ErrUnknownCompetition
	}
	if err := validateScheduleFields(req.IsDurationBased, req.Duration, req.StartDate, req.StartTime, req.EndDate, req.EndTime); err != nil {
		return nil, err
	}

	q := &model.Quiz{
		Competition:     model.Competition(req.Competition),
		Title:           req.Title,
		Description:     req.Description,
		Difficulty:      req.Difficulty,
		EntryFee:        req.EntryFee,
		PrizeMoney:      req.PrizeMoney,
		Languages:       req.Languages,
		Rules:           req.Rules,
		IsDurationBased: req.IsDurationBased,
		Duration:        req.Duration,
		StartDate:       req.StartDate,
		StartTime:       req.StartTime,
		EndDate:         req.EndDate,
		EndTime:         req.EndTime,
		CreatedBy:       organizerID,
	}
	if err := s.quizRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return q, nil
}

// GetByID retrieves one quiz.
func (s *QuizService) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return s.quizRepo.GetByID(ctx, id)
}

// ListByCompetition retrieves all quizzes for a competition.
func (s *QuizService) ListByCompetition(ctx context.Context, competition string) ([]model.Quiz, error) {
	if !model.ValidCompetition(competition) {
		return nil, ErrUnknownCompetition
	}
	return s.quizRepo.ListByCompetition(ctx, model.Competition(competition))
}

// UpdateSchedule replaces a quiz's time window and invalidates the cached
// schedule document. Only the quiz author may change the window.
func (s *QuizService) UpdateSchedule(ctx context.Context, organizerID int, quizID uuid.UUID, req *model.UpdateScheduleRequest) (*model.Quiz, error) {
	q, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if q.CreatedBy != organizerID {
		return nil, ErrNotAuthor
	}

	isDuration := q.IsDurationBased
	if req.IsDurationBased != nil {
		isDuration = *req.IsDurationBased
	}
	merged := merge(req.Duration, q.Duration)
	startDate := merge(req.StartDate, q.StartDate)
	startTime := merge(req.StartTime, q.StartTime)
	endDate := merge(req.EndDate, q.EndDate)
	endTime := merge(req.EndTime, q.EndTime)

	if err := validateScheduleFields(isDuration, merged, startDate, startTime, endDate, endTime); err != nil {
		return nil, err
	}
	if err := s.quizRepo.UpdateSchedule(ctx, quizID, isDuration, merged, startDate, startTime, endDate, endTime); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	// A stale cached window would let old deadlines leak into new sessions.
	if err := s.rdb.Del(ctx, config.CacheKey.QuizScheduleKey(quizID.String())).Err(); err != nil {
		log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("failed to invalidate schedule cache")
	}
	return s.quizRepo.GetByID(ctx, quizID)
}

// AddQuestion validates a question against its quiz's competition type,
// stores it, and invalidates the affected payload cache.
func (s *QuizService) AddQuestion(ctx context.Context, organizerID int, quizID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.CreatedBy != organizerID {
		return nil, ErrNotAuthor
	}

	q := &model.Question{
		QuizID:        quizID,
		Competition:   quiz.Competition,
		Language:      req.Language,
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		Problem:       req.Problem,
		BuggySolution: req.BuggySolution,
		Snippet:       req.Snippet,
		Marks:         req.Marks,
		NegativeMarks: req.NegativeMarks,
		CreatedBy:     organizerID,
	}
	if req.CorrectAnswer != nil {
		q.CorrectAnswer = *req.CorrectAnswer
	}

	switch quiz.Competition {
	case model.CompetitionCodeClash:
		if q.QuestionText == "" || len(q.Options) < 2 || req.CorrectAnswer == nil || q.CorrectAnswer >= len(q.Options) {
			return nil, ErrBadQuestion
		}
	case model.CompetitionBugBash:
		if q.Problem == "" || q.BuggySolution == "" || q.Language == "" {
			return nil, ErrBadQuestion
		}
	case model.CompetitionCodeMirage:
		if q.Snippet == "" {
			return nil, ErrBadQuestion
		}
	}

	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	if err := s.rdb.Del(ctx, config.CacheKey.QuizPayloadKey(quizID.String(), q.Language)).Err(); err != nil {
		log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("failed to invalidate payload cache")
	}
	return q, nil
}

// SanitizedQuestions returns the participant-facing question payload for one
// quiz (and language, where the competition is language-split). The payload
// is served from Redis when warm; a cold read falls through to Postgres and
// prewarms the cache for the stampede that follows a quiz opening.
func (s *QuizService) SanitizedQuestions(ctx context.Context, quizID uuid.UUID, language string) ([]model.SanitizedQuestion, error) {
	cacheKey := config.CacheKey.QuizPayloadKey(quizID.String(), language)

	if raw, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var cached []model.SanitizedQuestion
		if jerr := json.Unmarshal([]byte(raw), &cached); jerr == nil {
			return cached, nil
		}
		// Corrupt cache entry: fall through to the database and rewrite it.
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Msg("payload cache read failed, serving from database")
	}

	questions, err := s.questionRepo.ListByQuiz(ctx, quizID, language)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil
	}

	sanitized := make([]model.SanitizedQuestion, 0, len(questions))
	for i := range questions {
		sanitized = append(sanitized, questions[i].Sanitize())
	}

	if raw, err := json.Marshal(sanitized); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, raw, time.Hour).Err(); err != nil {
			log.Warn().Err(err).Msg("payload cache write failed")
		}
	}
	return sanitized, nil
}

// Bank returns the full unsanitized question bank, for scoring and for the
// organizer console.
func (s *QuizService) Bank(ctx context.Context, quizID uuid.UUID, language string) ([]model.Question, error) {
	return s.questionRepo.ListByQuiz(ctx, quizID, language)
}

// validateScheduleFields checks that the populated schedule fields parse for
// the declared mode. Fully empty fields are fine (not configured yet).
func validateScheduleFields(isDuration bool, duration, startDate, startTime, endDate, endTime string) error {
	if isDuration {
		if duration == "" {
			return nil
		}
		if _, err := schedule.ParseSpan(duration); err != nil {
			return fmt.Errorf("%w: %v", ErrBadSchedule, err)
		}
		return nil
	}

	if startDate == "" && startTime == "" && endDate == "" && endTime == "" {
		return nil
	}
	if _, err := schedule.ParseDateTime(startDate, startTime); err != nil {
		return fmt.Errorf("%w: start: %v", ErrBadSchedule, err)
	}
	if _, err := schedule.ParseDateTime(endDate, endTime); err != nil {
		return fmt.Errorf("%w: end: %v", ErrBadSchedule, err)
	}
	return nil
}

func merge(next, current string) string {
	if next != "" {
		return next
	}
	return current
}
