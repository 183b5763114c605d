package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/registration-service/internal/domain"
)

// AffiliateRepository manages affiliate persistence. The general affiliate
// update path deliberately has no credential column; credential changes go
// only through UpdateCredential, keyed by internal id rather than email.
type AffiliateRepository interface {
	GetByContactEmail(ctx context.Context, email string) (*domain.Affiliate, error)
	UpdateCredential(ctx context.Context, id, passwordHash string) error
}

type affiliateRepository struct {
	pool *pgxpool.Pool
}

// NewAffiliateRepository constructs repository.
func NewAffiliateRepository(pool *pgxpool.Pool) AffiliateRepository {
	return &affiliateRepository{pool: pool}
}

func (r *affiliateRepository) GetByContactEmail(ctx context.Context, email string) (*domain.Affiliate, error) {
	const query = `
        SELECT id, org_name, contact_email, password_hash, active, created_at, updated_at
        FROM affiliates WHERE contact_email=$1`
	var affiliate domain.Affiliate
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&affiliate.ID,
		&affiliate.OrgName,
		&affiliate.ContactEmail,
		&affiliate.PasswordHash,
		&affiliate.Active,
		&affiliate.CreatedAt,
		&affiliate.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &affiliate, nil
}

func (r *affiliateRepository) UpdateCredential(ctx context.Context, id, passwordHash string) error {
	const query = `
        UPDATE affiliates SET password_hash=$2, updated_at=NOW()
        WHERE id=$1`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
