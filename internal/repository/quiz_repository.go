package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spardha-tech/spardha-backend/internal/model"
)

// QuizRepository handles quiz data access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `q.id, q.competition, q.title, q.description, q.difficulty, q.entry_fee,
	q.prize_money, q.languages, q.rules, q.is_duration_based, q.duration,
	q.start_date, q.start_time, q.end_date, q.end_time, q.created_by, p.name, q.created_at, q.updated_at`

func scanQuiz(row interface{ Scan(...any) error }) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.Competition, &q.Title, &q.Description, &q.Difficulty, &q.EntryFee,
		&q.PrizeMoney, &q.Languages, &q.Rules, &q.IsDurationBased, &q.Duration,
		&q.StartDate, &q.StartTime, &q.EndDate, &q.EndTime, &q.CreatedBy, &q.AuthorName, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a quiz by ID, joined with its author's name.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+`
		 FROM quizzes q JOIN participants p ON p.id = q.created_by
		 WHERE q.id = $1`, id))
}

// ListByCompetition retrieves all quizzes for one competition, newest first.
func (r *QuizRepository) ListByCompetition(ctx context.Context, competition model.Competition) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+`
		 FROM quizzes q JOIN participants p ON p.id = q.created_by
		 WHERE q.competition = $1
		 ORDER BY q.created_at DESC`, competition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (competition, title, description, difficulty, entry_fee, prize_money,
			languages, rules, is_duration_based, duration, start_date, start_time, end_date, end_time, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at, updated_at`,
		q.Competition, q.Title, q.Description, q.Difficulty, q.EntryFee, q.PrizeMoney,
		q.Languages, q.Rules, q.IsDurationBased, q.Duration, q.StartDate, q.StartTime,
		q.EndDate, q.EndTime, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// UpdateSchedule replaces a quiz's time window fields.
func (r *QuizRepository) UpdateSchedule(ctx context.Context, id uuid.UUID, isDurationBased bool, duration, startDate, startTime, endDate, endTime string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes
		 SET is_duration_based = $1, duration = $2, start_date = $3, start_time = $4,
		     end_date = $5, end_time = $6, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		isDurationBased, duration, startDate, startTime, endDate, endTime, id)
	return err
}

// Delete removes a quiz and, via cascade, its questions and enrollments.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	return err
}
