package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/registration-service/internal/domain"
	"github.com/spec-kit/registration-service/internal/events"
	"github.com/spec-kit/registration-service/internal/observability"
	"github.com/spec-kit/registration-service/internal/repository"
	"github.com/spec-kit/registration-service/internal/token"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

// Decision is the closed set of valid approval decisions.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision validates the decision carried in the consumption payload.
// Anything outside the two decision forms is a validation failure, not a
// workflow failure.
func ParseDecision(s string) (Decision, bool) {
	switch Decision(s) {
	case DecisionApprove, DecisionReject:
		return Decision(s), true
	}
	return "", false
}

// DecisionResult reports the outcome of a consumed approval token.
type DecisionResult struct {
	RegistrationID string
	Status         domain.RegistrationStatus
	Decision       Decision
	Reason         string
	ProcessedAt    time.Time
}

// ApprovalService orchestrates issuance and one-time consumption of
// approve/reject tokens against pending registrations.
type ApprovalService struct {
	registrations repository.RegistrationRepository
	accounts      repository.AccountRepository
	store         token.Store
	codec         *token.Codec
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	approvalTTL   time.Duration
	now           func() time.Time
}

// ApprovalDependencies encapsulates collaborator requirements.
type ApprovalDependencies struct {
	RegistrationRepo repository.RegistrationRepository
	AccountRepo      repository.AccountRepository
	Store            token.Store
	Codec            *token.Codec
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
}

// NewApprovalService builds the service.
func NewApprovalService(approvalTTL time.Duration, deps ApprovalDependencies) *ApprovalService {
	return &ApprovalService{
		registrations: deps.RegistrationRepo,
		accounts:      deps.AccountRepo,
		store:         deps.Store,
		codec:         deps.Codec,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		approvalTTL:   approvalTTL,
		now:           time.Now,
	}
}

// SubmitRegistration creates a pending registration and issues its
// approval token. The token value travels to reviewers through the
// notification path; it is never returned to the submitting caller.
func (s *ApprovalService) SubmitRegistration(ctx context.Context, name, email, organization string) (*domain.Registration, error) {
	reg := &domain.Registration{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Organization: organization,
		Status:       domain.RegistrationPending,
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		return nil, apperrors.MapError(err)
	}

	tok, err := s.IssueApproval(ctx, reg)
	if err != nil {
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventRegistrationSubmitted,
		SubjectKind: domain.SubjectRegistration,
		SubjectID:   reg.ID,
		Timestamp:   s.now(),
		Payload: events.RegistrationSubmittedPayload{
			Name:       reg.Name,
			Email:      reg.Email,
			TokenValue: tok.Value,
			ExpiresAt:  tok.ExpiresAt,
		},
	})

	return reg, nil
}

// IssueApproval mints and stores the single approval token for a pending
// registration. The emailed link carries this one token; the reviewer's
// decision (approve or reject) arrives in the consumption payload.
func (s *ApprovalService) IssueApproval(ctx context.Context, reg *domain.Registration) (*domain.Token, error) {
	value, err := s.codec.Generate(domain.SubjectRegistration, domain.ActionApprove)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	issuedAt := s.now()
	tok := &domain.Token{
		Value:        value,
		SubjectKind:  domain.SubjectRegistration,
		SubjectID:    reg.ID,
		SubjectEmail: reg.Email,
		Action:       domain.ActionApprove,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(s.approvalTTL),
	}
	if err := s.store.Put(ctx, tok, s.approvalTTL); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.metrics.RecordToken(string(domain.ActionApprove), "issued")
	return tok, nil
}

// ConsumeDecision consumes an approval token and applies the decision.
// The consume step is the sole mutation point on the token: of N racing
// calls for the same value exactly one proceeds past it. A token found
// consumed reports ALREADY_PROCESSED without re-applying anything.
func (s *ApprovalService) ConsumeDecision(ctx context.Context, value, action, reason string) (*DecisionResult, error) {
	parsed, err := s.codec.Parse(value)
	if err != nil {
		s.metrics.RecordToken("unknown", "malformed")
		return nil, apperrors.NewInvalidToken()
	}
	if parsed.Action != domain.ActionApprove {
		return nil, apperrors.NewInvalidToken()
	}

	decision, ok := ParseDecision(action)
	if !ok {
		return nil, apperrors.NewValidationError("action must be \"approve\" or \"reject\"", map[string]any{"action": action})
	}

	tok, err := s.store.TryConsume(ctx, value)
	if err != nil {
		return nil, mapConsumeError(s.metrics, tok, err, domain.ActionApprove)
	}

	// The token is consumed from here on, whatever happens downstream.
	// That is deliberate: a registration in the wrong state must not leave
	// a replayable link behind and invite retry storms.
	reg, err := s.registrations.GetByID(ctx, tok.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidState("registration no longer exists", map[string]any{"registration_id": tok.SubjectID})
		}
		return nil, apperrors.MapError(err)
	}
	if reg.Status != domain.RegistrationPending {
		return nil, apperrors.NewInvalidState("registration was already finalized", map[string]any{
			"registration_id": reg.ID,
			"status":          string(reg.Status),
		})
	}

	status := domain.RegistrationApproved
	if decision == DecisionReject {
		status = domain.RegistrationRejected
	}

	if err := s.registrations.ApplyDecision(ctx, reg.ID, status, reason); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, apperrors.NewInvalidState("registration was already finalized", map[string]any{"registration_id": reg.ID})
		}
		return nil, apperrors.NewUpdateFailed(err)
	}

	if decision == DecisionApprove {
		if err := s.provisionAccount(ctx, reg); err != nil {
			// The registration is approved and the token consumed; the
			// duplicate surfaces to the operator instead of being retried
			// against a partially applied subject.
			return nil, err
		}
	}

	if err := s.store.RecordResult(ctx, value, string(status)); err != nil {
		s.logger.Warn("failed to record token result", zap.String("registration_id", reg.ID), zap.Error(err))
	}

	processedAt := s.now()
	s.metrics.RecordToken(string(domain.ActionApprove), "consumed")

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventApprovalDecided,
		SubjectKind: domain.SubjectRegistration,
		SubjectID:   reg.ID,
		Timestamp:   processedAt,
		Payload: events.ApprovalDecidedPayload{
			Status: status,
			Reason: reason,
		},
	})

	return &DecisionResult{
		RegistrationID: reg.ID,
		Status:         status,
		Decision:       decision,
		Reason:         reason,
		ProcessedAt:    processedAt,
	}, nil
}

// TokenStatus is a read-only view of an approval token, for the
// confirmation page shown before the reviewer submits a decision.
type TokenStatus struct {
	RegistrationID string
	Consumed       bool
	ConsumedResult string
	ExpiresAt      time.Time
	Expired        bool
}

// Status peeks at the token without consuming it. Peek results are never
// an authorization decision; the decision endpoint re-runs the atomic
// consume regardless of what was shown here.
func (s *ApprovalService) Status(ctx context.Context, value string) (*TokenStatus, error) {
	parsed, err := s.codec.Parse(value)
	if err != nil || parsed.Action != domain.ActionApprove {
		return nil, apperrors.NewInvalidToken()
	}

	tok, err := s.store.Peek(ctx, value)
	if err != nil {
		if errors.Is(err, token.ErrNotFound) {
			return nil, apperrors.NewInvalidToken()
		}
		return nil, apperrors.NewInternalError(err)
	}

	return &TokenStatus{
		RegistrationID: tok.SubjectID,
		Consumed:       tok.Consumed(),
		ConsumedResult: tok.ConsumedResult,
		ExpiresAt:      tok.ExpiresAt,
		Expired:        tok.Expired(s.now()),
	}, nil
}

// provisionAccount creates the account for an approved registration. The
// credential stays empty until the new user runs the recovery flow.
func (s *ApprovalService) provisionAccount(ctx context.Context, reg *domain.Registration) error {
	account := &domain.Account{
		ID:     uuid.NewString(),
		Name:   reg.Name,
		Email:  reg.Email,
		Status: domain.AccountStatusActive,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return apperrors.NewUpdateFailed(err)
	}
	return nil
}
