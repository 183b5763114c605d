package domain

import "time"

// RegistrationStatus represents lifecycle states of a pending registration.
// PENDING is entered on submission; APPROVED and REJECTED are terminal and
// reached only by consuming an approval token. EXPIRED registrations are
// those whose approval link lapsed without a decision.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
	RegistrationExpired  RegistrationStatus = "EXPIRED"
)

// Registration is a request to create an account, awaiting an
// administrator's emailed approve/reject decision.
type Registration struct {
	ID             string
	Name           string
	Email          string
	Organization   string
	Status         RegistrationStatus
	DecisionReason string
	DecidedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
