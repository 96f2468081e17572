package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spardha-tech/spardha-backend/internal/model"
	"github.com/spardha-tech/spardha-backend/internal/repository"
	"github.com/spardha-tech/spardha-backend/internal/schedule"
	"github.com/spardha-tech/spardha-backend/internal/session"
)

// Session service errors.
var (
	ErrQuizNotStarted = errors.New("quiz has not started")
	ErrQuizEnded      = errors.New("quiz has ended")
)

// Snapshot is the participant-facing view of one live attempt, rebuilt
// server-side on every request so a reload cannot stretch the window.
type Snapshot struct {
	QuizID           uuid.UUID         `json:"quiz_id"`
	Competition      model.Competition `json:"competition"`
	AttemptCount     int               `json:"attempt_count"`
	RemainingSeconds int64             `json:"remaining_seconds"`
	WarningBudget    float64           `json:"warning_budget"`
	ReloadCount      int               `json:"reload_count"`
	Status           session.Status    `json:"status"`
}

// SessionService owns attempt-window resolution and the persisted session
// state around a live attempt.
type SessionService struct {
	quizRepo       *repository.QuizRepository
	enrollmentRepo *repository.EnrollmentRepository
	store          session.Store
	clock          schedule.Clock
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	quizRepo *repository.QuizRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	store session.Store,
	clock schedule.Clock,
) *SessionService {
	return &SessionService{
		quizRepo:       quizRepo,
		enrollmentRepo: enrollmentRepo,
		store:          store,
		clock:          clock,
	}
}

// Enter opens (or resumes) a participant's attempt. For duration-mode
// quizzes this is where the anchor is seeded: the first entry consumes an
// attempt from the ledger and pins the window; any later entry of the same
// attempt reuses the pinned anchor unchanged. Fixed-window quizzes consume
// their single attempt here too.
func (s *SessionService) Enter(ctx context.Context, participantID int, quizID uuid.UUID) (*Snapshot, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
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

	resuming := !state.Anchor.IsZero()
	if !resuming && enrollment.AnchorStartedAt != nil {
		// Cache was flushed mid-attempt: reseed Redis from the mirrored
		// anchor instead of letting the participant mint a fresh window.
		anchor, serr := s.store.GetOrCreateAnchor(ctx, quizID.String(), participantID, *enrollment.AnchorStartedAt)
		if serr != nil {
			return nil, fmt.Errorf("reseed anchor: %w", serr)
		}
		state.Anchor = anchor
		resuming = true
	}

	// Gate on the window before touching the ledger: entering a fixed
	// quiz before it opens (or after it closed) must not burn the attempt.
	// For a fresh duration attempt the zero anchor resolves to a window
	// opening now, which passes both checks by construction.
	window, err := schedule.Resolve(quiz.Schedule(), now, state.Anchor)
	if err != nil {
		return nil, err
	}
	if !window.Started(now) {
		return nil, ErrQuizNotStarted
	}
	if window.Ended(now) {
		return nil, ErrQuizEnded
	}

	if !resuming {
		// The ledger gate comes before the anchor seed, so a participant
		// whose single attempt is spent never pins a new window.
		attempts, aerr := s.enrollmentRepo.IncrementAttempt(ctx, participantID, quizID)
		if aerr != nil {
			return nil, aerr
		}
		enrollment.Attempts = attempts

		anchor, serr := s.store.GetOrCreateAnchor(ctx, quizID.String(), participantID, now)
		if serr != nil {
			return nil, fmt.Errorf("seed anchor: %w", serr)
		}
		state.Anchor = anchor

		if merr := s.enrollmentRepo.SetAnchor(ctx, participantID, quizID, anchor); merr != nil {
			log.Warn().Err(merr).Int("participant_id", participantID).Msg("failed to mirror anchor")
		}

		window, err = schedule.Resolve(quiz.Schedule(), now, state.Anchor)
		if err != nil {
			return nil, err
		}
	} else {
		reloads, rerr := s.store.IncrementReload(ctx, quizID.String(), participantID)
		if rerr != nil {
			log.Warn().Err(rerr).Int("participant_id", participantID).Msg("failed to count reload")
		} else {
			state.ReloadCount = reloads
		}
	}

	return s.snapshot(quiz, enrollment, state, window), nil
}

// State rebuilds the snapshot for an attempt already in progress, without
// touching the ledger or the reload counter. Used by the state-poll endpoint.
func (s *SessionService) State(ctx context.Context, participantID int, quizID uuid.UUID) (*Snapshot, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	enrollment, err := s.enrollmentRepo.GetByParticipantAndQuiz(ctx, participantID, quizID)
	if err != nil || !enrollment.IsEnrolled {
		return nil, ErrNotEnrolled
	}

	state, err := s.store.State(ctx, quizID.String(), participantID)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	if state.Anchor.IsZero() && enrollment.AnchorStartedAt != nil {
		state.Anchor = *enrollment.AnchorStartedAt
	}

	now := s.clock.Now()
	window, err := schedule.Resolve(quiz.Schedule(), now, state.Anchor)
	if err != nil {
		return nil, err
	}
	return s.snapshot(quiz, enrollment, state, window), nil
}

// Window resolves the attempt window for an in-progress attempt.
func (s *SessionService) Window(ctx context.Context, participantID int, quizID uuid.UUID) (schedule.Window, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("get quiz: %w", err)
	}
	state, err := s.store.State(ctx, quizID.String(), participantID)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("load session state: %w", err)
	}
	return schedule.Resolve(quiz.Schedule(), s.clock.Now(), state.Anchor)
}

// PersistBudget stores the remaining warning budget for a live attempt.
func (s *SessionService) PersistBudget(ctx context.Context, participantID int, quizID uuid.UUID, budget float64) {
	if err := s.store.SetWarningBudget(ctx, quizID.String(), participantID, budget); err != nil {
		log.Warn().Err(err).Int("participant_id", participantID).Msg("failed to persist warning budget")
	}
}

func (s *SessionService) snapshot(quiz *model.Quiz, e *model.Enrollment, st session.State, w schedule.Window) *Snapshot {
	now := s.clock.Now()
	status := session.StatusCompliant
	switch {
	case st.WarningBudget <= 0:
		status = session.StatusViolated
	case st.WarningBudget < session.InitialWarningBudget:
		status = session.StatusWarned
	}
	return &Snapshot{
		QuizID:           quiz.ID,
		Competition:      quiz.Competition,
		AttemptCount:     e.Attempts,
		RemainingSeconds: int64(w.Remaining(now).Seconds()),
		WarningBudget:    st.WarningBudget,
		ReloadCount:      st.ReloadCount,
		Status:           status,
	}
}
