package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	domain "github.com/fillip1984/inveniam/domain/user"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// ProfilePort exposes user preferences and digest recipients.
type ProfilePort interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdatePreferences(ctx context.Context, userID, timezone string, reportOptIn bool) (*domain.User, error)
	ReportRecipients(ctx context.Context) ([]domain.User, error)
}

// UploadSignerPort signs and verifies upload tokens.
type UploadSignerPort interface {
	SignUpload(ctx context.Context, userID, objectKey string, ttl time.Duration) (string, error)
	VerifyUpload(ctx context.Context, token, objectKey string) (string, error)
}

// AuthAdapter implements the auth ports using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var (
	_ AuthPort         = (*AuthAdapter)(nil)
	_ ProfilePort      = (*AuthAdapter)(nil)
	_ UploadSignerPort = (*AuthAdapter)(nil)
)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

func (a *AuthAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := a.call(ctx, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %s", resp.Error)
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := a.call(ctx, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	return fromUserResponse(resp), nil
}

// UpdatePreferences stores profile settings.
func (a *AuthAdapter) UpdatePreferences(ctx context.Context, userID, timezone string, reportOptIn bool) (*domain.User, error) {
	req := UpdatePreferencesRequest{UserID: userID, Timezone: timezone, ReportOptIn: reportOptIn}
	var resp UserResponse
	if err := a.call(ctx, "update-preferences", &req, &resp); err != nil {
		return nil, err
	}
	return fromUserResponse(resp), nil
}

// ReportRecipients lists users who receive the digest.
func (a *AuthAdapter) ReportRecipients(ctx context.Context) ([]domain.User, error) {
	req := ListRecipientsRequest{}
	var resp ListRecipientsResponse
	if err := a.call(ctx, "list-recipients", &req, &resp); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, *fromUserResponse(u))
	}
	return users, nil
}

// SignUpload issues an upload token.
func (a *AuthAdapter) SignUpload(ctx context.Context, userID, objectKey string, ttl time.Duration) (string, error) {
	req := SignUploadRequest{UserID: userID, ObjectKey: objectKey, TTL: ttl}
	var resp SignUploadResponse
	if err := a.call(ctx, "sign-upload", &req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// VerifyUpload returns the owner of a valid upload token.
func (a *AuthAdapter) VerifyUpload(ctx context.Context, token, objectKey string) (string, error) {
	req := VerifyUploadRequest{Token: token, ObjectKey: objectKey}
	var resp VerifyUploadResponse
	if err := a.call(ctx, "verify-upload", &req, &resp); err != nil {
		return "", err
	}
	if !resp.Valid {
		return "", fmt.Errorf("upload token validation failed: %s", resp.Error)
	}
	return resp.UserID, nil
}

func fromUserResponse(resp UserResponse) *domain.User {
	return &domain.User{
		ID:          resp.ID,
		Email:       resp.Email,
		Timezone:    resp.Timezone,
		ReportOptIn: resp.ReportOptIn,
		CreatedAt:   resp.CreatedAt,
	}
}

// ResolveLocation returns the caller's timezone, or def when the profile
// cannot be loaded.
func ResolveLocation(ctx context.Context, port ProfilePort, userID string, def *time.Location, logger types.Logger) *time.Location {
	if port == nil {
		return def
	}
	u, err := port.GetUser(ctx, userID)
	if err != nil {
		logger.Warn("Falling back to default timezone", "user_id", userID, "error", err)
		return def
	}
	return u.Location(def)
}
