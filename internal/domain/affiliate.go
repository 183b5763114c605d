package domain

import "time"

// Affiliate is the domain model for partner organizations. The general
// affiliate update path intentionally excludes the credential field;
// credential changes go through UpdateCredential keyed by internal id.
type Affiliate struct {
	ID           string
	OrgName      string
	ContactEmail string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
