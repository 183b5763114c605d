package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/registration-service/internal/domain"
	"github.com/spec-kit/registration-service/internal/events"
	"github.com/spec-kit/registration-service/internal/observability"
	"github.com/spec-kit/registration-service/internal/token"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

type approvalHarness struct {
	svc           *ApprovalService
	registrations *fakeRegistrationRepo
	accounts      *fakeAccountRepo
	dispatcher    *recordingDispatcher
	clock         *fakeClock
}

func newApprovalHarness(t *testing.T) *approvalHarness {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := newFakeClock(time.Now())
	registrations := newFakeRegistrationRepo()
	accounts := newFakeAccountRepo()
	dispatcher := &recordingDispatcher{}

	svc := NewApprovalService(168*time.Hour, ApprovalDependencies{
		RegistrationRepo: registrations,
		AccountRepo:      accounts,
		Store:            token.NewStore(rdb, token.WithStoreClock(clock.Now)),
		Codec:            token.NewCodec(token.WithCodecClock(clock.Now)),
		Dispatcher:       dispatcher,
		Metrics:          observability.NewMetrics(),
		Logger:           zap.NewNop(),
	})
	svc.now = clock.Now

	return &approvalHarness{
		svc:           svc,
		registrations: registrations,
		accounts:      accounts,
		dispatcher:    dispatcher,
		clock:         clock,
	}
}

func (h *approvalHarness) submit(t *testing.T) (*domain.Registration, string) {
	t.Helper()

	reg, err := h.svc.SubmitRegistration(context.Background(), "Alice", "alice@example.com", "Acme")
	if err != nil {
		t.Fatalf("SubmitRegistration failed: %v", err)
	}

	submitted := h.dispatcher.byType(events.EventRegistrationSubmitted)
	if len(submitted) == 0 {
		t.Fatal("expected a RegistrationSubmitted event")
	}
	payload, ok := submitted[len(submitted)-1].Payload.(events.RegistrationSubmittedPayload)
	if !ok || payload.TokenValue == "" {
		t.Fatal("expected the approval token in the event payload")
	}
	return reg, payload.TokenValue
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Code
}

func TestApprovalApproveFlow(t *testing.T) {
	h := newApprovalHarness(t)
	ctx := context.Background()

	reg, value := h.submit(t)
	if reg.Status != domain.RegistrationPending {
		t.Fatalf("expected pending registration, got %q", reg.Status)
	}

	result, err := h.svc.ConsumeDecision(ctx, value, "approve", "")
	if err != nil {
		t.Fatalf("ConsumeDecision failed: %v", err)
	}
	if result.Status != domain.RegistrationApproved {
		t.Fatalf("expected APPROVED, got %q", result.Status)
	}
	if result.RegistrationID != reg.ID {
		t.Fatalf("result references wrong registration: %q", result.RegistrationID)
	}
	if h.registrations.status(reg.ID) != domain.RegistrationApproved {
		t.Fatal("registration was not finalized")
	}
	if len(h.accounts.created) != 1 || h.accounts.created[0].Email != "alice@example.com" {
		t.Fatal("expected an account provisioned for the approved registration")
	}

	// Replaying the same link must report the idempotent outcome and
	// re-apply nothing.
	_, err = h.svc.ConsumeDecision(ctx, value, "approve", "")
	if code := domainCode(t, err); code != "ALREADY_PROCESSED" {
		t.Fatalf("expected ALREADY_PROCESSED, got %s", code)
	}
	if h.registrations.status(reg.ID) != domain.RegistrationApproved {
		t.Fatal("replay must not change registration status")
	}
	if len(h.accounts.created) != 1 {
		t.Fatal("replay must not provision a second account")
	}
}

func TestApprovalRejectFlow(t *testing.T) {
	h := newApprovalHarness(t)

	reg, value := h.submit(t)

	result, err := h.svc.ConsumeDecision(context.Background(), value, "reject", "incomplete application")
	if err != nil {
		t.Fatalf("ConsumeDecision failed: %v", err)
	}
	if result.Status != domain.RegistrationRejected {
		t.Fatalf("expected REJECTED, got %q", result.Status)
	}
	if result.Reason != "incomplete application" {
		t.Fatalf("expected reason to round-trip, got %q", result.Reason)
	}
	if h.registrations.status(reg.ID) != domain.RegistrationRejected {
		t.Fatal("registration was not rejected")
	}
	if len(h.accounts.created) != 0 {
		t.Fatal("rejection must not provision an account")
	}
}

func TestApprovalInvalidActionLeavesTokenUsable(t *testing.T) {
	h := newApprovalHarness(t)
	ctx := context.Background()

	_, value := h.submit(t)

	_, err := h.svc.ConsumeDecision(ctx, value, "maybe", "")
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", code)
	}

	// Validation failures happen before consumption; the link still works.
	if _, err := h.svc.ConsumeDecision(ctx, value, "approve", ""); err != nil {
		t.Fatalf("expected token to remain usable, got %v", err)
	}
}

func TestApprovalUnknownAndMalformedTokens(t *testing.T) {
	h := newApprovalHarness(t)
	ctx := context.Background()

	// Well-formed but never issued.
	unknown, err := token.NewCodec().Generate(domain.SubjectRegistration, domain.ActionApprove)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	_, err = h.svc.ConsumeDecision(ctx, unknown, "approve", "")
	if code := domainCode(t, err); code != "INVALID_TOKEN" {
		t.Fatalf("expected INVALID_TOKEN for unknown value, got %s", code)
	}

	_, err = h.svc.ConsumeDecision(ctx, "not-a-token", "approve", "")
	if code := domainCode(t, err); code != "INVALID_TOKEN" {
		t.Fatalf("expected INVALID_TOKEN for malformed value, got %s", code)
	}
}

func TestApprovalExpiredToken(t *testing.T) {
	h := newApprovalHarness(t)
	ctx := context.Background()

	reg, value := h.submit(t)

	h.clock.Advance(169 * time.Hour)

	_, err := h.svc.ConsumeDecision(ctx, value, "approve", "")
	if code := domainCode(t, err); code != "TOKEN_EXPIRED" {
		t.Fatalf("expected TOKEN_EXPIRED, got %s", code)
	}
	if h.registrations.status(reg.ID) != domain.RegistrationPending {
		t.Fatal("expired link must not change the registration")
	}
}

func TestApprovalAlreadyFinalizedRegistration(t *testing.T) {
	h := newApprovalHarness(t)
	ctx := context.Background()

	reg, value := h.submit(t)

	// Finalized out of band between issue and consume.
	if err := h.registrations.ApplyDecision(ctx, reg.ID, domain.RegistrationRejected, "manual"); err != nil {
		t.Fatalf("seed decision failed: %v", err)
	}

	_, err := h.svc.ConsumeDecision(ctx, value, "approve", "")
	if code := domainCode(t, err); code != "INVALID_STATE" {
		t.Fatalf("expected INVALID_STATE, got %s", code)
	}

	// The token was consumed on the way in; a retry is a replay, not a
	// second attempt, so no retry storm can build up.
	_, err = h.svc.ConsumeDecision(ctx, value, "approve", "")
	if code := domainCode(t, err); code != "ALREADY_PROCESSED" {
		t.Fatalf("expected ALREADY_PROCESSED after invalid state, got %s", code)
	}
}

func TestApprovalStatusPeekDoesNotConsume(t *testing.T) {
	h := newApprovalHarness(t)
	ctx := context.Background()

	_, value := h.submit(t)

	status, err := h.svc.Status(ctx, value)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Consumed {
		t.Fatal("fresh token must not be consumed by a status check")
	}

	if _, err := h.svc.ConsumeDecision(ctx, value, "approve", ""); err != nil {
		t.Fatalf("token must remain consumable after peeks: %v", err)
	}

	status, err = h.svc.Status(ctx, value)
	if err != nil {
		t.Fatalf("Status after consume failed: %v", err)
	}
	if !status.Consumed || status.ConsumedResult != string(domain.RegistrationApproved) {
		t.Fatalf("expected consumed status with recorded result, got %+v", status)
	}
}
