package api

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse acknowledges an action without a payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports the state of a dependency.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// StatusRequest is the body of PATCH /tasks/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}
