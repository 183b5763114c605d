package dto

import "time"

// SubmitRegistrationRequest payload for new registrations.
type SubmitRegistrationRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
}

// DecisionRequest is the approval consumption payload.
type DecisionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// DecisionResponse is the approval success envelope.
type DecisionResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	SubjectID   string    `json:"subjectId"`
	Status      string    `json:"status"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason,omitempty"`
	ProcessedAt time.Time `json:"processedAt"`
}

// RegistrationSummary is the admin listing shape.
type RegistrationSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Organization string    `json:"organization,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
