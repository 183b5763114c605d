package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/registration-service/internal/domain"
	"github.com/spec-kit/registration-service/internal/repository"
)

// Resolution identifies which subject kind owns an email address.
type Resolution struct {
	Kind      domain.SubjectKind
	SubjectID string
}

// UserTypeResolver maps an email to the subject kind owning it. Lookups
// run in a fixed order (accounts first, then affiliates) and the first
// match wins. No match is SubjectUnknown, a normal outcome rather than an
// error; callers must respond to Unknown exactly as they respond to a hit.
type UserTypeResolver struct {
	accounts   repository.AccountRepository
	affiliates repository.AffiliateRepository
}

// NewUserTypeResolver constructs the resolver.
func NewUserTypeResolver(accounts repository.AccountRepository, affiliates repository.AffiliateRepository) *UserTypeResolver {
	return &UserTypeResolver{accounts: accounts, affiliates: affiliates}
}

// Resolve is read-only; infrastructure failures are returned as errors,
// a plain miss is not.
func (r *UserTypeResolver) Resolve(ctx context.Context, email string) (Resolution, error) {
	account, err := r.accounts.GetByEmail(ctx, email)
	if err == nil {
		return Resolution{Kind: domain.SubjectAccount, SubjectID: account.ID}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Resolution{Kind: domain.SubjectUnknown}, err
	}

	affiliate, err := r.affiliates.GetByContactEmail(ctx, email)
	if err == nil {
		return Resolution{Kind: domain.SubjectAffiliate, SubjectID: affiliate.ID}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Resolution{Kind: domain.SubjectUnknown}, err
	}

	return Resolution{Kind: domain.SubjectUnknown}, nil
}
