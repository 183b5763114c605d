package domain

import "time"

// SubjectKind is the closed set of entities a link token may act on.
// Routing is an exhaustive switch over this type, so adding a kind is a
// compile-time extension rather than a runtime string compare.
type SubjectKind string

const (
	SubjectRegistration SubjectKind = "REGISTRATION"
	SubjectAccount      SubjectKind = "ACCOUNT"
	SubjectAffiliate    SubjectKind = "AFFILIATE"
	SubjectUnknown      SubjectKind = "UNKNOWN"
)

// Abbrev returns the short form embedded in token values.
func (k SubjectKind) Abbrev() string {
	switch k {
	case SubjectRegistration:
		return "reg"
	case SubjectAccount:
		return "acc"
	case SubjectAffiliate:
		return "aff"
	default:
		return "unk"
	}
}

// KindFromAbbrev maps a token segment back to a SubjectKind.
func KindFromAbbrev(abbrev string) (SubjectKind, bool) {
	switch abbrev {
	case "reg":
		return SubjectRegistration, true
	case "acc":
		return SubjectAccount, true
	case "aff":
		return SubjectAffiliate, true
	}
	return SubjectUnknown, false
}

// TokenAction enumerates what consuming a token does.
type TokenAction string

const (
	ActionApprove       TokenAction = "approve"
	ActionReject        TokenAction = "reject"
	ActionPasswordReset TokenAction = "reset"
)

// ParseTokenAction validates a token action segment.
func ParseTokenAction(s string) (TokenAction, bool) {
	switch TokenAction(s) {
	case ActionApprove, ActionReject, ActionPasswordReset:
		return TokenAction(s), true
	}
	return "", false
}

// Token is a single-use, time-bounded credential embedded in an emailed
// link. It is created when an out-of-band confirmation is first needed,
// consumed exactly once, and garbage-collected after ExpiresAt.
type Token struct {
	Value       string      `json:"value"`
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   string      `json:"subject_id"`
	// SubjectEmail is carried for update paths keyed by email. It lives
	// only in the stored record, never in the token value.
	SubjectEmail   string      `json:"subject_email,omitempty"`
	Action         TokenAction `json:"action"`
	IssuedAt       time.Time   `json:"issued_at"`
	ExpiresAt      time.Time   `json:"expires_at"`
	ConsumedAt     *time.Time  `json:"consumed_at,omitempty"`
	ConsumedResult string      `json:"consumed_result,omitempty"`
}

// Consumed reports whether the token has been used.
func (t *Token) Consumed() bool {
	return t.ConsumedAt != nil
}

// Expired reports whether the token is past its expiry at the given time.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Usable reports whether the token can still be consumed at the given time.
func (t *Token) Usable(now time.Time) bool {
	return !t.Consumed() && !t.Expired(now)
}
