package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spardha-tech/spardha-backend/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a new question into a quiz's bank.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, competition, language, question_text, options,
			correct_answer, problem, buggy_solution, snippet, marks, negative_marks, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at`,
		q.QuizID, q.Competition, q.Language, q.QuestionText, q.Options,
		q.CorrectAnswer, q.Problem, q.BuggySolution, q.Snippet, q.Marks, q.NegativeMarks, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt)
}

// ListByQuiz retrieves a quiz's full bank, optionally filtered by language,
// in insertion order. The correct answers come along: callers facing a
// participant must sanitize.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID, language string) ([]model.Question, error) {
	query := `SELECT id, quiz_id, competition, language, question_text, options,
			correct_answer, problem, buggy_solution, snippet, marks, negative_marks, created_by, created_at
		 FROM questions WHERE quiz_id = $1`
	args := []any{quizID}
	if language != "" {
		query += ` AND language = $2`
		args = append(args, language)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Competition, &q.Language, &q.QuestionText, &q.Options,
			&q.CorrectAnswer, &q.Problem, &q.BuggySolution, &q.Snippet, &q.Marks, &q.NegativeMarks,
			&q.CreatedBy, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Delete removes a question from its quiz's bank.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
