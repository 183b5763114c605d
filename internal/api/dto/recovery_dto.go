package dto

// RecoveryRequest payload for requesting a reset link.
type RecoveryRequest struct {
	Email string `json:"email"`
}

// RecoveryResetRequest payload for consuming a reset link. The token
// itself arrives as a URL path segment, never in the body.
type RecoveryResetRequest struct {
	Password string `json:"password"`
}

// RecoverySuccessResponse is the uniform response for recovery requests.
// It carries no field that distinguishes known from unknown emails.
type RecoverySuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
