package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/fillip1984/inveniam/domain/user"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrInvalidTimezone is returned for an unknown IANA zone name.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// AuthService handles authentication business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new user account. An empty timezone uses the
// application default.
func (s *AuthService) Register(_ context.Context, email, password, timezone string) (*domain.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	// bcrypt has a 72-byte limit
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if len(password) > 72 {
		return nil, ErrPasswordTooLong
	}
	if err := validateTimezone(timezone); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Timezone:     timezone,
		ReportOptIn:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns tokens.
func (s *AuthService) Login(_ context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(user.ID, user.Email)
}

// RefreshTokens generates new access and refresh tokens.
func (s *AuthService) RefreshTokens(_ context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// Verify user still exists
	user, err := s.repo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.generateTokenPair(user.ID, user.Email)
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(userID)
}

// UpdatePreferences changes the timezone and digest opt-in of a user.
func (s *AuthService) UpdatePreferences(_ context.Context, userID, timezone string, reportOptIn bool) (*domain.User, error) {
	if err := validateTimezone(timezone); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePreferences(userID, timezone, reportOptIn); err != nil {
		return nil, err
	}
	return s.repo.FindByID(userID)
}

// ReportRecipients lists users who receive the status digest.
func (s *AuthService) ReportRecipients(_ context.Context) ([]domain.User, error) {
	return s.repo.FindReportRecipients()
}

// SignUpload issues a short-lived token allowing userID to upload objectKey.
func (s *AuthService) SignUpload(_ context.Context, userID, objectKey string, ttl time.Duration) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("object key is required")
	}
	token, err := s.jwt.GenerateUploadToken(userID, objectKey, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to sign upload: %w", err)
	}
	return token, nil
}

// VerifyUpload checks an upload token for objectKey and returns its owner.
func (s *AuthService) VerifyUpload(_ context.Context, token, objectKey string) (string, error) {
	claims, err := s.jwt.ValidateUploadToken(token, objectKey)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *AuthService) generateTokenPair(userID, email string) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

func validateTimezone(tz string) error {
	if strings.TrimSpace(tz) == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	return nil
}
