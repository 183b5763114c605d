package events

import (
	"time"

	"github.com/spec-kit/registration-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRegistrationSubmitted EventType = "registration_submitted"
	EventApprovalDecided       EventType = "approval_decided"
	EventRecoveryRequested     EventType = "recovery_requested"
	EventCredentialReset       EventType = "credential_reset"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string             `json:"id"`
	Type        EventType          `json:"type"`
	SubjectKind domain.SubjectKind `json:"subject_kind"`
	SubjectID   string             `json:"subject_id"`
	Timestamp   time.Time          `json:"timestamp"`
	Payload     interface{}        `json:"payload"`
}

// RegistrationSubmittedPayload payload. TokenValue is the approval link
// token the notification handler embeds in the reviewer email.
type RegistrationSubmittedPayload struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	TokenValue string    `json:"token_value"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ApprovalDecidedPayload payload.
type ApprovalDecidedPayload struct {
	Status domain.RegistrationStatus `json:"status"`
	Reason string                    `json:"reason,omitempty"`
}

// RecoveryRequestedPayload payload. Context carries the kind-specific
// textual framing of the recovery email; token semantics never differ.
type RecoveryRequestedPayload struct {
	Email      string    `json:"email"`
	TokenValue string    `json:"token_value"`
	Context    string    `json:"context"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// CredentialResetPayload payload.
type CredentialResetPayload struct {
	Email string `json:"email"`
}
