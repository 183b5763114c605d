package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/registration-service/internal/domain"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

func TestRouterAccountPath(t *testing.T) {
	accounts := newFakeAccountRepo()
	affiliates := newFakeAffiliateRepo()
	accounts.byEmail["alice@example.com"] = &domain.Account{ID: "acc-1", Email: "alice@example.com"}

	router := NewSubjectUpdateRouter(accounts, affiliates)

	err := router.ApplyCredential(context.Background(), domain.SubjectAccount, "acc-1", "alice@example.com", "hash-1")
	if err != nil {
		t.Fatalf("ApplyCredential failed: %v", err)
	}

	if len(accounts.patchCalls) != 1 {
		t.Fatalf("expected one patch call, got %d", len(accounts.patchCalls))
	}
	if accounts.byEmail["alice@example.com"].PasswordHash != "hash-1" {
		t.Fatal("expected account hash to be patched")
	}
	if len(affiliates.credUpdates) != 0 {
		t.Fatal("affiliate path must not be touched for account subjects")
	}
}

func TestRouterAffiliatePath(t *testing.T) {
	accounts := newFakeAccountRepo()
	affiliates := newFakeAffiliateRepo()
	affiliates.byEmail["partner@example.com"] = &domain.Affiliate{ID: "aff-1", ContactEmail: "partner@example.com"}

	router := NewSubjectUpdateRouter(accounts, affiliates)

	err := router.ApplyCredential(context.Background(), domain.SubjectAffiliate, "aff-1", "partner@example.com", "hash-2")
	if err != nil {
		t.Fatalf("ApplyCredential failed: %v", err)
	}

	if len(affiliates.credUpdates) != 1 || affiliates.credUpdates[0] != "aff-1" {
		t.Fatalf("expected credential update keyed by id, got %v", affiliates.credUpdates)
	}
	if len(accounts.patchCalls) != 0 {
		t.Fatal("account path must not be touched for affiliate subjects")
	}
}

func TestRouterUpdateFailureSurfaced(t *testing.T) {
	router := NewSubjectUpdateRouter(newFakeAccountRepo(), newFakeAffiliateRepo())

	err := router.ApplyCredential(context.Background(), domain.SubjectAccount, "acc-1", "ghost@example.com", "hash")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "UPDATE_FAILED" {
		t.Fatalf("expected UPDATE_FAILED, got %v", err)
	}
}

func TestRouterUnroutableKind(t *testing.T) {
	router := NewSubjectUpdateRouter(newFakeAccountRepo(), newFakeAffiliateRepo())

	err := router.ApplyCredential(context.Background(), domain.SubjectRegistration, "reg-1", "", "hash")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "INTERNAL_ERROR" {
		t.Fatalf("expected internal error for unroutable kind, got %v", err)
	}
}
