package domain

import "time"

// Admin is an operator of the administration surface. Admins authenticate
// with email/password and receive short-lived JWT session tokens.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
