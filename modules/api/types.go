package api

import (
	"encoding/json"
	"time"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Timezone string `json:"timezone,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// UserResponse represents a user response.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileResponse is the caller's profile.
type ProfileResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Timezone    string    `json:"timezone"`
	ReportOptIn bool      `json:"report_opt_in"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateProfileRequest changes profile settings. Omitted fields keep their value.
type UpdateProfileRequest struct {
	Timezone    *string `json:"timezone"`
	ReportOptIn *bool   `json:"report_opt_in"`
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	URL        string `json:"url"`
	BucketName string `json:"bucketName"`
	Key        string `json:"key"`
}

// RPCResult wraps a procedure's output.
type RPCResult struct {
	Result RPCData `json:"result"`
}

type RPCData struct {
	Data json.RawMessage `json:"data"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
