package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spardha-tech/spardha-backend/internal/model"
)

// MiragePageRepository handles stored code-mirage document access.
type MiragePageRepository struct {
	pool *pgxpool.Pool
}

// NewMiragePageRepository creates a new MiragePageRepository.
func NewMiragePageRepository(pool *pgxpool.Pool) *MiragePageRepository {
	return &MiragePageRepository{pool: pool}
}

// Create stores a composed mirage document and returns its addressable ID.
func (r *MiragePageRepository) Create(ctx context.Context, p *model.MiragePage) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO mirage_pages (quiz_id, created_by, full_html)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		p.QuizID, p.CreatedBy, p.FullHTML,
	).Scan(&p.ID, &p.CreatedAt)
}

// GetByID retrieves a stored mirage document for preview or compile pages.
func (r *MiragePageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MiragePage, error) {
	p := &model.MiragePage{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, created_by, full_html, created_at
		 FROM mirage_pages WHERE id = $1`, id,
	).Scan(&p.ID, &p.QuizID, &p.CreatedBy, &p.FullHTML, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
