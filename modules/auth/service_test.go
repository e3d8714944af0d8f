package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fillip1984/inveniam/store"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	st := store.OpenTest(t)
	return NewAuthService(
		NewUserRepository(st.DB()),
		NewPasswordHasherWithCost(bcrypt.MinCost),
		NewJWTManager(testJWTConfig()),
	)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		timezone string
		wantErr  error
	}{
		{"invalid email", "userexample.com", "password123", "", ErrInvalidEmail},
		{"short password", "user@example.com", "1234567", "", ErrWeakPassword},
		{"long password", "user@example.com", strings.Repeat("a", 73), "", ErrPasswordTooLong},
		{"unknown timezone", "user@example.com", "password123", "Mars/Base", ErrInvalidTimezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)
			_, err := s.Register(context.Background(), tt.email, tt.password, tt.timezone)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_RegisterLoginRefresh(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "user@example.com", "password123", "Asia/Tokyo")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !user.ReportOptIn {
		t.Error("new users should receive the digest")
	}

	if _, err := s.Register(ctx, "user@example.com", "password123", ""); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate Register() error = %v, want %v", err, ErrUserExists)
	}

	if _, err := s.Login(ctx, "user@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want %v", err, ErrInvalidCredentials)
	}

	tokens, err := s.Login(ctx, "user@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokens.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", tokens.TokenType)
	}

	claims, err := s.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, user.ID)
	}

	refreshed, err := s.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("RefreshTokens() returned an empty access token")
	}
	if _, err := s.RefreshTokens(ctx, tokens.AccessToken); err == nil {
		t.Error("RefreshTokens() accepted an access token")
	}
}

func TestAuthService_Preferences(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a, _ := s.Register(ctx, "a@example.com", "password123", "")
	b, _ := s.Register(ctx, "b@example.com", "password123", "")

	updated, err := s.UpdatePreferences(ctx, a.ID, "Europe/Paris", false)
	if err != nil {
		t.Fatalf("UpdatePreferences() error = %v", err)
	}
	if updated.Timezone != "Europe/Paris" || updated.ReportOptIn {
		t.Errorf("UpdatePreferences() = %+v", updated)
	}

	if _, err := s.UpdatePreferences(ctx, a.ID, "Nowhere/Land", true); !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("UpdatePreferences() error = %v, want %v", err, ErrInvalidTimezone)
	}
	if _, err := s.UpdatePreferences(ctx, "missing", "", true); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdatePreferences() error = %v, want %v", err, ErrUserNotFound)
	}

	recipients, err := s.ReportRecipients(ctx)
	if err != nil {
		t.Fatalf("ReportRecipients() error = %v", err)
	}
	if len(recipients) != 1 || recipients[0].ID != b.ID {
		t.Errorf("ReportRecipients() = %+v, want only %s", recipients, b.Email)
	}
}

func TestAuthService_Uploads(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	token, err := s.SignUpload(ctx, "user-1", "obj", time.Minute)
	if err != nil {
		t.Fatalf("SignUpload() error = %v", err)
	}

	owner, err := s.VerifyUpload(ctx, token, "obj")
	if err != nil {
		t.Fatalf("VerifyUpload() error = %v", err)
	}
	if owner != "user-1" {
		t.Errorf("VerifyUpload() owner = %q, want user-1", owner)
	}

	if _, err := s.VerifyUpload(ctx, token, "other"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyUpload() error = %v, want %v", err, ErrInvalidToken)
	}
	if _, err := s.SignUpload(ctx, "user-1", "", time.Minute); err == nil {
		t.Error("SignUpload() expected error for empty key")
	}
}
