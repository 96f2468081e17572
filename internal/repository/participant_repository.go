package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spardha-tech/spardha-backend/internal/model"
)

var ErrDuplicateEmail = errors.New("participant with this email already exists")

// ParticipantRepository handles participant account data access.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// GetByID retrieves a participant by ID.
func (r *ParticipantRepository) GetByID(ctx context.Context, id int) (*model.Participant, error) {
	p := &model.Participant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, enrollment_number, role, password_hash, created_at
		 FROM participants WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.EnrollmentNumber, &p.Role, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByIdentifier retrieves a participant by email or enrollment number.
func (r *ParticipantRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Participant, error) {
	p := &model.Participant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, enrollment_number, role, password_hash, created_at
		 FROM participants WHERE email = $1 OR enrollment_number = $1`, identifier,
	).Scan(&p.ID, &p.Name, &p.Email, &p.EnrollmentNumber, &p.Role, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new participant account.
func (r *ParticipantRepository) Create(ctx context.Context, p *model.Participant) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO participants (name, email, enrollment_number, role, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		p.Name, p.Email, p.EnrollmentNumber, p.Role, p.PasswordHash,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdatePassword replaces a participant's password hash.
func (r *ParticipantRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	return err
}
