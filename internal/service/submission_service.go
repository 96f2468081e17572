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
	"github.com/spardha-tech/spardha-backend/internal/scoring"
	"github.com/spardha-tech/spardha-backend/internal/session"
)

// ErrSubmissionInFlight is returned when another trigger already holds the
// submission guard for this attempt.
var (
	ErrSubmissionInFlight = errors.New("a submission for this attempt is already in flight")
	// ErrNoActiveAttempt means no pinned anchor exists, so there is nothing
	// to finalize: the attempt was never entered or has already submitted.
	ErrNoActiveAttempt = errors.New("no active attempt to submit")
)

// submitGuardTTL bounds how long a crashed submission can block its retry.
const submitGuardTTL = 30 * time.Second

// SubmissionService is the terminal-transition orchestrator. All three
// submission triggers (manual, deadline, violation) land here; the Redis
// guard plus the insert-once constraint downstream guarantee one stored
// submission per attempt.
type SubmissionService struct {
	quizSvc        *QuizService
	enrollmentRepo *repository.EnrollmentRepository
	submissionRepo *repository.SubmissionRepository
	miragePageRepo *repository.MiragePageRepository
	store          session.Store
	clock          schedule.Clock
	judge          scoring.CorrectnessJudge
	rdb            *redis.Client
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	quizSvc *QuizService,
	enrollmentRepo *repository.EnrollmentRepository,
	submissionRepo *repository.SubmissionRepository,
	miragePageRepo *repository.MiragePageRepository,
	store session.Store,
	clock schedule.Clock,
	judge scoring.CorrectnessJudge,
	rdb *redis.Client,
) *SubmissionService {
	return &SubmissionService{
		quizSvc:        quizSvc,
		enrollmentRepo: enrollmentRepo,
		submissionRepo: submissionRepo,
		miragePageRepo: miragePageRepo,
		store:          store,
		clock:          clock,
		judge:          judge,
		rdb:            rdb,
	}
}

// Submit finalizes one attempt: assemble the payload, score it, queue it for
// persistence, and clear the session state. The session reset runs even when
// scoring or queueing failed; a participant stuck in a broken attempt is
// worse than a lost score, and the stored anchor would otherwise poison
// their next attempt.
func (s *SubmissionService) Submit(ctx context.Context, participantID int, quizID uuid.UUID, reason model.SubmitReason, req *model.SubmitQuizRequest) (sub *model.Submission, err error) {
	guardKey := config.CacheKey.SubmitGuardKey(quizID.String(), participantID)
	acquired, gerr := s.rdb.SetNX(ctx, guardKey, string(reason), submitGuardTTL).Result()
	if gerr != nil {
		// Redis down: fall through on the database constraint alone.
		log.Warn().Err(gerr).Msg("submit guard unavailable, relying on insert-once constraint")
	} else if !acquired {
		return nil, ErrSubmissionInFlight
	}

	defer func() {
		// Terminal path: the attempt is over no matter what happened above.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if rerr := s.store.Reset(cleanupCtx, quizID.String(), participantID); rerr != nil {
			log.Error().Err(rerr).Int("participant_id", participantID).Msg("failed to reset session state")
		}
		if aerr := s.enrollmentRepo.ClearAnchor(cleanupCtx, participantID, quizID); aerr != nil {
			log.Error().Err(aerr).Int("participant_id", participantID).Msg("failed to clear mirrored anchor")
		}
	}()

	quiz, err := s.quizSvc.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	enrollment, err := s.enrollmentRepo.GetByParticipantAndQuiz(ctx, participantID, quizID)
	if err != nil || !enrollment.IsEnrolled {
		return nil, ErrNotEnrolled
	}

	now := s.clock.Now()
	state, err := s.store.State(ctx, quizID.String(), participantID)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	anchor := state.Anchor
	if anchor.IsZero() && enrollment.AnchorStartedAt != nil {
		anchor = *enrollment.AnchorStartedAt
	}
	if anchor.IsZero() {
		return nil, ErrNoActiveAttempt
	}
	timeSpent := now.Sub(anchor).Seconds()

	sub = &model.Submission{
		ParticipantID: participantID,
		QuizID:        quizID,
		Competition:   quiz.Competition,
		Language:      req.Language,
		TimeSpent:     timeSpent,
		AttemptCount:  enrollment.Attempts,
		Reason:        reason,
		SubmittedAt:   now,
	}

	if err := s.score(ctx, quiz, participantID, req, sub); err != nil {
		return nil, err
	}

	s.enqueue(ctx, sub)
	return sub, nil
}

// score fills the competition-specific payload and score fields.
func (s *SubmissionService) score(ctx context.Context, quiz *model.Quiz, participantID int, req *model.SubmitQuizRequest, sub *model.Submission) error {
	switch quiz.Competition {
	case model.CompetitionCodeClash:
		bank, err := s.quizSvc.Bank(ctx, quiz.ID, req.Language)
		if err != nil {
			return fmt.Errorf("load question bank: %w", err)
		}
		sub.Answers = req.Answers
		sub.Score = scoring.MultipleChoice(bank, req.Answers)
		sub.IsScored = true

	case model.CompetitionBugBash:
		bank, err := s.quizSvc.Bank(ctx, quiz.ID, req.Language)
		if err != nil {
			return fmt.Errorf("load question bank: %w", err)
		}
		sub.Solutions = req.Solutions
		sub.Score, sub.Reviews = scoring.BugFixes(ctx, s.judge, req.Language, bank, req.Solutions)
		sub.IsScored = true

	case model.CompetitionCodeMirage:
		// Stored ungraded; an organizer finalizes the score later from the
		// preview page.
		sub.PageHTML = req.PageHTML
		sub.Score = 0
		sub.IsScored = false
		if req.PageHTML != "" {
			page := &model.MiragePage{QuizID: quiz.ID, CreatedBy: participantID, FullHTML: req.PageHTML}
			if err := s.miragePageRepo.Create(ctx, page); err != nil {
				log.Error().Err(err).Msg("failed to store mirage page")
			} else {
				sub.PageID = &page.ID
			}
		}
	}
	return nil
}

// Result retrieves a participant's own latest submission for a quiz.
func (s *SubmissionService) Result(ctx context.Context, participantID int, quizID uuid.UUID) (*model.Submission, error) {
	return s.submissionRepo.GetByParticipantAndQuiz(ctx, participantID, quizID)
}

// ListByQuiz retrieves every submission for a quiz, for the organizer
// console. Only the quiz author may list them.
func (s *SubmissionService) ListByQuiz(ctx context.Context, organizerID int, quizID uuid.UUID) ([]model.Submission, error) {
	quiz, err := s.quizSvc.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.CreatedBy != organizerID {
		return nil, ErrNotAuthor
	}
	return s.submissionRepo.ListByQuiz(ctx, quizID)
}

// GradeMirage finalizes an ungraded code-mirage submission.
func (s *SubmissionService) GradeMirage(ctx context.Context, organizerID int, submissionID uuid.UUID, score float64) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	quiz, err := s.quizSvc.GetByID(ctx, sub.QuizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.CreatedBy != organizerID {
		return nil, ErrNotAuthor
	}
	if err := s.submissionRepo.GradeMirage(ctx, submissionID, score); err != nil {
		return nil, err
	}
	return s.submissionRepo.GetByID(ctx, submissionID)
}

// MiragePage retrieves a stored mirage document for the preview and compile
// pages.
func (s *SubmissionService) MiragePage(ctx context.Context, id uuid.UUID) (*model.MiragePage, error) {
	return s.miragePageRepo.GetByID(ctx, id)
}

// enqueue hands the submission to the persistence worker. If Redis is down
// the row is written synchronously instead of being dropped.
func (s *SubmissionService) enqueue(ctx context.Context, sub *model.Submission) {
	raw, err := json.Marshal(sub)
	if err == nil {
		qerr := s.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw).Err()
		if qerr == nil {
			return
		}
		log.Warn().Err(qerr).Msg("submission queue unavailable, persisting synchronously")
	}

	if err := s.submissionRepo.Create(ctx, sub); err != nil && !errors.Is(err, repository.ErrAlreadySubmitted) {
		log.Error().Err(err).Int("participant_id", sub.ParticipantID).Msg("failed to persist submission")
	}
}
