package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/registration-service/internal/domain"
)

// ErrNotPending is returned when a decision update finds the registration
// already finalized by another path.
var ErrNotPending = pgx.ErrNoRows

// RegistrationRepository manages pending registration persistence.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	GetByID(ctx context.Context, id string) (*domain.Registration, error)
	// ApplyDecision finalizes a pending registration. The WHERE clause
	// only matches PENDING rows, so a registration finalized out of band
	// surfaces as ErrNotPending instead of being overwritten.
	ApplyDecision(ctx context.Context, id string, status domain.RegistrationStatus, reason string) error
	ListByStatus(ctx context.Context, status domain.RegistrationStatus) ([]domain.Registration, error)
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository constructs repository.
func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	const query = `
        INSERT INTO registrations (id, name, email, organization, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		reg.ID,
		reg.Name,
		reg.Email,
		reg.Organization,
		reg.Status,
	).Scan(&reg.CreatedAt, &reg.UpdatedAt)
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	const query = `
        SELECT id, name, email, organization, status, decision_reason, decided_at, created_at, updated_at
        FROM registrations WHERE id=$1`
	var reg domain.Registration
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reg.ID,
		&reg.Name,
		&reg.Email,
		&reg.Organization,
		&reg.Status,
		&reg.DecisionReason,
		&reg.DecidedAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) ApplyDecision(ctx context.Context, id string, status domain.RegistrationStatus, reason string) error {
	const query = `
        UPDATE registrations
        SET status=$2, decision_reason=$3, decided_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='PENDING'`
	tag, err := r.pool.Exec(ctx, query, id, status, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *registrationRepository) ListByStatus(ctx context.Context, status domain.RegistrationStatus) ([]domain.Registration, error) {
	const query = `
        SELECT id, name, email, organization, status, decision_reason, decided_at, created_at, updated_at
        FROM registrations WHERE status=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		var reg domain.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.Name,
			&reg.Email,
			&reg.Organization,
			&reg.Status,
			&reg.DecisionReason,
			&reg.DecidedAt,
			&reg.CreatedAt,
			&reg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
