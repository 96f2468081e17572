package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spardha-tech/spardha-backend/internal/model"
)

// ErrAlreadySubmitted is returned when an attempt already has a stored
// submission. Submissions are immutable once written.
var ErrAlreadySubmitted = errors.New("attempt already has a submission")

// SubmissionRepository handles scored-attempt data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create stores a submission exactly once per (participant, quiz, attempt).
// A duplicate write, from whichever trigger lost the race, is reported as
// ErrAlreadySubmitted and never overwrites the stored score.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO submissions (participant_id, quiz_id, competition, language, answers,
			solutions, page_html, reviews, score, time_spent, attempt_count, reason, is_scored, page_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (participant_id, quiz_id, attempt_count) DO NOTHING
		 RETURNING id, submitted_at`,
		s.ParticipantID, s.QuizID, s.Competition, s.Language, s.Answers,
		s.Solutions, s.PageHTML, s.Reviews, s.Score, s.TimeSpent, s.AttemptCount, s.Reason, s.IsScored, s.PageID,
	).Scan(&s.ID, &s.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadySubmitted
	}
	return err
}

// GetByID retrieves one submission.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
}

// GetByParticipantAndQuiz retrieves a participant's latest submission for a quiz.
func (r *SubmissionRepository) GetByParticipantAndQuiz(ctx context.Context, participantID int, quizID uuid.UUID) (*model.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions WHERE participant_id = $1 AND quiz_id = $2
		 ORDER BY attempt_count DESC LIMIT 1`,
		participantID, quizID))
}

// ListByQuiz retrieves all submissions for a quiz, best score first.
func (r *SubmissionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions WHERE quiz_id = $1
		 ORDER BY score DESC, time_spent ASC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// GradeMirage finalizes an ungraded code-mirage submission with an
// organizer-assigned score. Already-graded submissions are left untouched.
func (r *SubmissionRepository) GradeMirage(ctx context.Context, id uuid.UUID, score float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET score = $1, is_scored = TRUE
		 WHERE id = $2 AND competition = $3 AND NOT is_scored`,
		score, id, model.CompetitionCodeMirage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const submissionColumns = `id, participant_id, quiz_id, competition, language, answers,
	solutions, page_html, reviews, score, time_spent, attempt_count, reason, is_scored, page_id, submitted_at`

func scanSubmission(row interface{ Scan(...any) error }) (*model.Submission, error) {
	s := &model.Submission{}
	err := row.Scan(&s.ID, &s.ParticipantID, &s.QuizID, &s.Competition, &s.Language, &s.Answers,
		&s.Solutions, &s.PageHTML, &s.Reviews, &s.Score, &s.TimeSpent, &s.AttemptCount, &s.Reason,
		&s.IsScored, &s.PageID, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
