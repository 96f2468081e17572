package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spardha-tech/spardha-backend/internal/model"
)

// ErrAttemptExhausted is returned by IncrementAttempt when the participant is
// not enrolled or the quiz's single attempt is already consumed.
var ErrAttemptExhausted = errors.New("no attempt available for this enrollment")

// EnrollmentRepository handles enrollment and attempt-ledger data access.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// Create enrolls a participant in a quiz. Re-enrolling is a no-op that
// loads the existing row instead, so a double-clicked enroll button cannot
// mint a second ledger entry. The returned bool reports whether a new row
// was inserted.
func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO enrollments (participant_id, quiz_id, competition, is_enrolled, entry_token)
		 VALUES ($1, $2, $3, TRUE, $4)
		 ON CONFLICT (participant_id, quiz_id) DO NOTHING
		 RETURNING id, attempts, enrolled_at`,
		e.ParticipantID, e.QuizID, e.Competition, e.EntryToken,
	).Scan(&e.ID, &e.Attempts, &e.EnrolledAt)

	if errors.Is(err, pgx.ErrNoRows) {
		existing, gerr := r.GetByParticipantAndQuiz(ctx, e.ParticipantID, e.QuizID)
		if gerr != nil {
			return false, gerr
		}
		*e = *existing
		return false, nil
	}
	if err != nil {
		return false, err
	}
	e.IsEnrolled = true
	return true, nil
}

// GetByParticipantAndQuiz retrieves one enrollment row.
func (r *EnrollmentRepository) GetByParticipantAndQuiz(ctx context.Context, participantID int, quizID uuid.UUID) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, participant_id, quiz_id, competition, is_enrolled, attempts, entry_token, anchor_started_at, enrolled_at
		 FROM enrollments WHERE participant_id = $1 AND quiz_id = $2`,
		participantID, quizID,
	).Scan(&e.ID, &e.ParticipantID, &e.QuizID, &e.Competition, &e.IsEnrolled, &e.Attempts, &e.EntryToken, &e.AnchorStartedAt, &e.EnrolledAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByParticipant retrieves a participant's enrollments for one competition.
func (r *EnrollmentRepository) ListByParticipant(ctx context.Context, participantID int, competition model.Competition) ([]model.Enrollment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, participant_id, quiz_id, competition, is_enrolled, attempts, entry_token, anchor_started_at, enrolled_at
		 FROM enrollments WHERE participant_id = $1 AND competition = $2
		 ORDER BY enrolled_at DESC`,
		participantID, competition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.ParticipantID, &e.QuizID, &e.Competition, &e.IsEnrolled,
			&e.Attempts, &e.EntryToken, &e.AnchorStartedAt, &e.EnrolledAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// IncrementAttempt atomically consumes one attempt and returns the new count.
// The condition and the increment live in a single UPDATE, so two concurrent
// session entries can never both pass the ledger gate on a fixed-window quiz.
// Duration-based quizzes allow re-entry; fixed quizzes allow exactly one
// attempt.
func (r *EnrollmentRepository) IncrementAttempt(ctx context.Context, participantID int, quizID uuid.UUID) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx,
		`UPDATE enrollments e
		 SET attempts = e.attempts + 1
		 FROM quizzes q
		 WHERE e.quiz_id = q.id
		   AND e.participant_id = $1 AND e.quiz_id = $2
		   AND e.is_enrolled
		   AND (q.is_duration_based OR e.attempts = 0)
		 RETURNING e.attempts`,
		participantID, quizID,
	).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAttemptExhausted
	}
	return attempts, err
}

// SetAnchor mirrors the attempt anchor into Postgres. The first write wins;
// later writes with a different instant are ignored, matching the Redis
// SETNX semantics.
func (r *EnrollmentRepository) SetAnchor(ctx context.Context, participantID int, quizID uuid.UUID, anchor time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE enrollments SET anchor_started_at = $3
		 WHERE participant_id = $1 AND quiz_id = $2 AND anchor_started_at IS NULL`,
		participantID, quizID, anchor)
	return err
}

// ClearAnchor drops the mirrored anchor when an attempt reaches a terminal
// state.
func (r *EnrollmentRepository) ClearAnchor(ctx context.Context, participantID int, quizID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE enrollments SET anchor_started_at = NULL
		 WHERE participant_id = $1 AND quiz_id = $2`,
		participantID, quizID)
	return err
}
