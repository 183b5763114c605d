package service

import (
	"errors"

	"github.com/spec-kit/registration-service/internal/domain"
	"github.com/spec-kit/registration-service/internal/observability"
	"github.com/spec-kit/registration-service/internal/token"
	apperrors "github.com/spec-kit/registration-service/pkg/util"
)

// mapConsumeError translates token store failures into the workflow error
// taxonomy. Store-level failures are resolved here; they never reach the
// subject update layer. Expired and already-processed links deliberately
// carry distinct messages so operators do not re-send the same link.
func mapConsumeError(metrics *observability.Metrics, tok *domain.Token, err error, action domain.TokenAction) error {
	switch {
	case errors.Is(err, token.ErrNotFound):
		return apperrors.NewInvalidToken()
	case errors.Is(err, token.ErrExpired):
		metrics.RecordToken(string(action), "expired")
		return apperrors.NewTokenExpired()
	case errors.Is(err, token.ErrAlreadyConsumed):
		metrics.RecordToken(string(action), "replayed")
		details := map[string]any{}
		if tok != nil && tok.ConsumedAt != nil {
			details["processed_at"] = tok.ConsumedAt.UTC()
			if tok.ConsumedResult != "" {
				details["result"] = tok.ConsumedResult
			}
		}
		return apperrors.NewAlreadyProcessed(details)
	default:
		return apperrors.NewInternalError(err)
	}
}
