package auth

import (
	"time"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Timezone string `json:"timezone,omitempty"`
}

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an access and refresh token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Timezone    string    `json:"timezone"`
	ReportOptIn bool      `json:"report_opt_in"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdatePreferencesRequest changes profile settings.
type UpdatePreferencesRequest struct {
	UserID      string `json:"user_id"`
	Timezone    string `json:"timezone"`
	ReportOptIn bool   `json:"report_opt_in"`
}

type ListRecipientsRequest struct{}

type ListRecipientsResponse struct {
	Users []UserResponse `json:"users"`
}

// SignUploadRequest asks for an upload token.
type SignUploadRequest struct {
	UserID    string        `json:"user_id"`
	ObjectKey string        `json:"object_key"`
	TTL       time.Duration `json:"ttl"`
}

type SignUploadResponse struct {
	Token string `json:"token"`
}

// VerifyUploadRequest checks an upload token.
type VerifyUploadRequest struct {
	Token     string `json:"token"`
	ObjectKey string `json:"object_key"`
}

type VerifyUploadResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Error  string `json:"error,omitempty"`
}
