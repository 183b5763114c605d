package service

import (
	"context"
	"testing"

	"github.com/spec-kit/registration-service/internal/domain"
)

func TestResolverAccountMatch(t *testing.T) {
	accounts := newFakeAccountRepo()
	affiliates := newFakeAffiliateRepo()
	accounts.byEmail["alice@example.com"] = &domain.Account{ID: "acc-1", Email: "alice@example.com"}

	resolver := NewUserTypeResolver(accounts, affiliates)

	res, err := resolver.Resolve(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Kind != domain.SubjectAccount || res.SubjectID != "acc-1" {
		t.Fatalf("expected account acc-1, got %+v", res)
	}
}

func TestResolverAffiliateMatch(t *testing.T) {
	accounts := newFakeAccountRepo()
	affiliates := newFakeAffiliateRepo()
	affiliates.byEmail["partner@example.com"] = &domain.Affiliate{ID: "aff-1", ContactEmail: "partner@example.com"}

	resolver := NewUserTypeResolver(accounts, affiliates)

	res, err := resolver.Resolve(context.Background(), "partner@example.com")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Kind != domain.SubjectAffiliate || res.SubjectID != "aff-1" {
		t.Fatalf("expected affiliate aff-1, got %+v", res)
	}
}

func TestResolverFixedOrder(t *testing.T) {
	accounts := newFakeAccountRepo()
	affiliates := newFakeAffiliateRepo()
	accounts.byEmail["both@example.com"] = &domain.Account{ID: "acc-1", Email: "both@example.com"}
	affiliates.byEmail["both@example.com"] = &domain.Affiliate{ID: "aff-1", ContactEmail: "both@example.com"}

	resolver := NewUserTypeResolver(accounts, affiliates)

	res, err := resolver.Resolve(context.Background(), "both@example.com")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Kind != domain.SubjectAccount {
		t.Fatalf("accounts must be checked first, got %+v", res)
	}
}

func TestResolverUnknownIsNotAnError(t *testing.T) {
	resolver := NewUserTypeResolver(newFakeAccountRepo(), newFakeAffiliateRepo())

	res, err := resolver.Resolve(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("expected no error for unknown email, got %v", err)
	}
	if res.Kind != domain.SubjectUnknown {
		t.Fatalf("expected SubjectUnknown, got %+v", res)
	}
}
