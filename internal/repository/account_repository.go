package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/registration-service/internal/domain"
)

// patchableAccountColumns is the allowlist for the general field-patch path.
var patchableAccountColumns = map[string]struct{}{
	"name":          {},
	"status":        {},
	"password_hash": {},
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// PatchByEmail updates the given columns on the account keyed by email.
	// Columns outside the allowlist are rejected.
	PatchByEmail(ctx context.Context, email string, fields map[string]any) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository constructs repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (id, name, email, password_hash, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Status,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
        SELECT id, name, email, password_hash, status, created_at, updated_at
        FROM accounts WHERE email=$1`
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) PatchByEmail(ctx context.Context, email string, fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to patch")
	}

	setClauses := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	args = append(args, email)

	for column, value := range fields {
		if _, ok := patchableAccountColumns[column]; !ok {
			return fmt.Errorf("column %q is not patchable", column)
		}
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	setClauses = append(setClauses, "updated_at=NOW()")

	query := fmt.Sprintf(
		"UPDATE accounts SET %s WHERE email=$1",
		strings.Join(setClauses, ", "),
	)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
