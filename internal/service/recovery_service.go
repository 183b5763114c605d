package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/registration-service/internal/auth"
	"github.com/spec-kit/registration-service/internal/domain"
	"github.com/spec-kit/registration-service/internal/events"
	"github.com/spec-kit/registration-service/internal/observability"
	"github.com/spec-kit/registration-service/internal/token"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

const minPasswordLength = 8

// ResetResult reports the outcome of a consumed recovery token.
type ResetResult struct {
	SubjectKind domain.SubjectKind
	ProcessedAt time.Time
}

// RecoveryService orchestrates issuance and one-time consumption of
// password-reset tokens. Request never discloses whether the email
// matched a subject; Reset routes the final mutation through the
// SubjectUpdateRouter using the kind recorded at issue time.
type RecoveryService struct {
	resolver    *UserTypeResolver
	router      *SubjectUpdateRouter
	store       token.Store
	codec       *token.Codec
	hasher      auth.Hasher
	guard       *AntiEnumerationGuard
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	recoveryTTL time.Duration
	now         func() time.Time
}

// RecoveryDependencies encapsulates collaborator requirements.
type RecoveryDependencies struct {
	Resolver   *UserTypeResolver
	Router     *SubjectUpdateRouter
	Store      token.Store
	Codec      *token.Codec
	Hasher     auth.Hasher
	Guard      *AntiEnumerationGuard
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewRecoveryService builds the service.
func NewRecoveryService(recoveryTTL time.Duration, deps RecoveryDependencies) *RecoveryService {
	return &RecoveryService{
		resolver:    deps.Resolver,
		router:      deps.Router,
		store:       deps.Store,
		codec:       deps.Codec,
		hasher:      deps.Hasher,
		guard:       deps.Guard,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		recoveryTTL: recoveryTTL,
		now:         time.Now,
	}
}

// Request issues a recovery token for the subject owning the email, if
// any. Whatever branch runs inside the guard, the caller sees the same
// success outcome with comparable latency.
func (s *RecoveryService) Request(ctx context.Context, email string) error {
	return s.guard.Shield(ctx, func(ctx context.Context) (bool, error) {
		res, err := s.resolver.Resolve(ctx, email)
		if err != nil {
			return false, apperrors.MapError(err)
		}
		if res.Kind == domain.SubjectUnknown {
			return false, nil
		}

		value, err := s.codec.Generate(res.Kind, domain.ActionPasswordReset)
		if err != nil {
			return false, apperrors.NewInternalError(err)
		}

		issuedAt := s.now()
		tok := &domain.Token{
			Value:        value,
			SubjectKind:  res.Kind,
			SubjectID:    res.SubjectID,
			SubjectEmail: email,
			Action:       domain.ActionPasswordReset,
			IssuedAt:     issuedAt,
			ExpiresAt:    issuedAt.Add(s.recoveryTTL),
		}
		if err := s.store.Put(ctx, tok, s.recoveryTTL); err != nil {
			return false, apperrors.NewInternalError(err)
		}

		s.metrics.RecordToken(string(domain.ActionPasswordReset), "issued")

		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventRecoveryRequested,
			SubjectKind: res.Kind,
			SubjectID:   res.SubjectID,
			Timestamp:   issuedAt,
			Payload: events.RecoveryRequestedPayload{
				Email:      email,
				TokenValue: value,
				Context:    recoveryContext(res.Kind),
				ExpiresAt:  tok.ExpiresAt,
			},
		})

		return true, nil
	})
}

// Reset consumes a recovery token and applies the new credential. The
// subject kind comes from the stored record, never from re-resolving the
// email, so a kind or email change between request and reset cannot
// reroute the mutation. Hashing runs only after the consume step is won,
// which is what makes replays side-effect free.
func (s *RecoveryService) Reset(ctx context.Context, value, newPassword string) (*ResetResult, error) {
	if len(newPassword) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	parsed, err := s.codec.Parse(value)
	if err != nil {
		s.metrics.RecordToken("unknown", "malformed")
		return nil, apperrors.NewInvalidToken()
	}
	if parsed.Action != domain.ActionPasswordReset {
		return nil, apperrors.NewInvalidToken()
	}

	tok, err := s.store.TryConsume(ctx, value)
	if err != nil {
		return nil, mapConsumeError(s.metrics, tok, err, domain.ActionPasswordReset)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		// Fatal to this call; the token stays consumed so the stale link
		// cannot be replayed against a half-finished reset.
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.router.ApplyCredential(ctx, tok.SubjectKind, tok.SubjectID, tok.SubjectEmail, hash); err != nil {
		return nil, err
	}

	if err := s.store.RecordResult(ctx, value, "password_reset"); err != nil {
		s.logger.Warn("failed to record token result", zap.String("subject_id", tok.SubjectID), zap.Error(err))
	}

	processedAt := s.now()
	s.metrics.RecordToken(string(domain.ActionPasswordReset), "consumed")

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventCredentialReset,
		SubjectKind: tok.SubjectKind,
		SubjectID:   tok.SubjectID,
		Timestamp:   processedAt,
		Payload: events.CredentialResetPayload{
			Email: tok.SubjectEmail,
		},
	})

	return &ResetResult{SubjectKind: tok.SubjectKind, ProcessedAt: processedAt}, nil
}

// recoveryContext selects the organizational framing of the recovery
// email. Only the wording differs per kind; token semantics never do.
func recoveryContext(kind domain.SubjectKind) string {
	switch kind {
	case domain.SubjectAffiliate:
		return "partner organization credential recovery"
	default:
		return "account credential recovery"
	}
}
