package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/fillip1984/inveniam/config"
	domain "github.com/fillip1984/inveniam/domain/user"
	"github.com/fillip1984/inveniam/store"
)

// AuthModule provides authentication and user profile services.
type AuthModule struct {
	store   *store.Store
	service *AuthService
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(st *store.Store, cfg config.JWT, logger types.Logger) *AuthModule {
	return newModule(st, NewPasswordHasher(), cfg, logger)
}

func newModule(st *store.Store, hasher *PasswordHasher, cfg config.JWT, logger types.Logger) *AuthModule {
	repo := NewUserRepository(st.DB())
	jwtManager := NewJWTManager(JWTConfigFrom(cfg))
	return &AuthModule{
		store:   st,
		service: NewAuthService(repo, hasher, jwtManager),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start initializes the auth module.
func (m *AuthModule) Start(_ context.Context) error {
	m.logger.Info("Auth module started", "database", m.store.Path())
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	m.logger.Info("Auth module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.store.Path(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "update-preferences", json.Unmarshal, json.Marshal, m.handleUpdatePreferences,
	); err != nil {
		return fmt.Errorf("failed to register update-preferences service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-recipients", json.Unmarshal, json.Marshal, m.handleListRecipients,
	); err != nil {
		return fmt.Errorf("failed to register list-recipients service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "sign-upload", json.Unmarshal, json.Marshal, m.handleSignUpload,
	); err != nil {
		return fmt.Errorf("failed to register sign-upload service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "verify-upload", json.Unmarshal, json.Marshal, m.handleVerifyUpload,
	); err != nil {
		return fmt.Errorf("failed to register verify-upload service: %w", err)
	}

	m.logger.Info("Registered auth services",
		"services", "register, login, refresh-token, validate-token, get-user, update-preferences, list-recipients, sign-upload, verify-upload")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.service.Register(ctx, req.Email, req.Password, req.Timezone)
	if err != nil {
		return RegisterResponse{}, err
	}
	m.logger.Info("User registered", "user_id", user.ID)

	return RegisterResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(tokens), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(tokens), nil
}

// handleValidateToken reports validation failures in the response, not as an error.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		return ValidateTokenResponse{Valid: false, Error: tokenErrorMessage(err)}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleUpdatePreferences(ctx context.Context, req UpdatePreferencesRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.UpdatePreferences(ctx, req.UserID, req.Timezone, req.ReportOptIn)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleListRecipients(ctx context.Context, _ ListRecipientsRequest, _ *mono.Msg) (ListRecipientsResponse, error) {
	users, err := m.service.ReportRecipients(ctx)
	if err != nil {
		return ListRecipientsResponse{}, err
	}
	resp := ListRecipientsResponse{Users: make([]UserResponse, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, toUserResponse(&users[i]))
	}
	return resp, nil
}

func (m *AuthModule) handleSignUpload(ctx context.Context, req SignUploadRequest, _ *mono.Msg) (SignUploadResponse, error) {
	token, err := m.service.SignUpload(ctx, req.UserID, req.ObjectKey, req.TTL)
	if err != nil {
		return SignUploadResponse{}, err
	}
	return SignUploadResponse{Token: token}, nil
}

func (m *AuthModule) handleVerifyUpload(ctx context.Context, req VerifyUploadRequest, _ *mono.Msg) (VerifyUploadResponse, error) {
	userID, err := m.service.VerifyUpload(ctx, req.Token, req.ObjectKey)
	if err != nil {
		return VerifyUploadResponse{Valid: false, Error: tokenErrorMessage(err)}, nil
	}
	return VerifyUploadResponse{Valid: true, UserID: userID}, nil
}

func tokenErrorMessage(err error) string {
	if errors.Is(err, ErrExpiredToken) {
		return "token expired"
	}
	return "invalid token"
}

func toTokenResponse(tokens *domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	}
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Timezone:    user.Timezone,
		ReportOptIn: user.ReportOptIn,
		CreatedAt:   user.CreatedAt,
	}
}
