package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/registration-service/internal/domain"
	"github.com/spec-kit/registration-service/internal/repository"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

// SubjectUpdateRouter applies an already-hashed credential through the
// kind-specific update path. Accounts take the general field-patch keyed
// by email; affiliates take the dedicated credential update keyed by
// internal id, because the affiliate general update path intentionally
// excludes the credential column. The router never retries across paths:
// an unroutable kind is a resolver bug, not a recoverable condition.
type SubjectUpdateRouter struct {
	accounts   repository.AccountRepository
	affiliates repository.AffiliateRepository
}

// NewSubjectUpdateRouter constructs the router.
func NewSubjectUpdateRouter(accounts repository.AccountRepository, affiliates repository.AffiliateRepository) *SubjectUpdateRouter {
	return &SubjectUpdateRouter{accounts: accounts, affiliates: affiliates}
}

// ApplyCredential routes the update. Hashing is the caller's
// responsibility; this component never sees plaintext.
func (r *SubjectUpdateRouter) ApplyCredential(ctx context.Context, kind domain.SubjectKind, subjectID, email, passwordHash string) error {
	switch kind {
	case domain.SubjectAccount:
		if err := r.accounts.PatchByEmail(ctx, email, map[string]any{"password_hash": passwordHash}); err != nil {
			return apperrors.NewUpdateFailed(err)
		}
		return nil
	case domain.SubjectAffiliate:
		if err := r.affiliates.UpdateCredential(ctx, subjectID, passwordHash); err != nil {
			return apperrors.NewUpdateFailed(err)
		}
		return nil
	default:
		return apperrors.NewInternalError(fmt.Errorf("subject kind %q has no credential update path", kind))
	}
}
