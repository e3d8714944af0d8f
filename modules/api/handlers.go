package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	domain "github.com/fillip1984/inveniam/domain/user"
	"github.com/fillip1984/inveniam/modules/attachments"
	"github.com/fillip1984/inveniam/modules/auth"
)

// ObjectStore stores and serves attachment bytes.
type ObjectStore interface {
	Upload(ctx context.Context, bucketName, key, token string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, bucketName, key string) (*attachments.Object, error)
}

// BoardFeed holds a websocket open for board change notifications.
type BoardFeed interface {
	Serve(c *websocket.Conn, userID, boardID string)
}

// Handlers contains the non-RPC HTTP handlers.
type Handlers struct {
	caller      ServiceCaller
	authAdapter auth.AuthPort
	profile     auth.ProfilePort
	objects     func() ObjectStore
	feed        BoardFeed
	logger      types.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(caller ServiceCaller, authAdapter auth.AuthPort, profile auth.ProfilePort, objects func() ObjectStore, feed BoardFeed, logger types.Logger) *Handlers {
	return &Handlers{
		caller:      caller,
		authAdapter: authAdapter,
		profile:     profile,
		objects:     objects,
		feed:        feed,
		logger:      logger,
	}
}

func (h *Handlers) call(ctx context.Context, module, service string, req, resp any) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	out, err := h.caller.Call(ctx, module, service, raw)
	if err != nil {
		return err
	}
	if resp == nil || len(out) == 0 {
		return nil
	}
	return json.Unmarshal(out, resp)
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Email and password are required",
		})
	}

	authReq := auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Timezone: req.Timezone,
	}
	var resp auth.RegisterResponse
	if err := h.call(c.UserContext(), "auth", "register", &authReq, &resp); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{
		ID:        resp.ID,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	})
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Email and password are required",
		})
	}

	authReq := auth.LoginRequest{Email: req.Email, Password: req.Password}
	var resp auth.TokenResponse
	if err := h.call(c.UserContext(), "auth", "login", &authReq, &resp); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse(resp))
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Refresh token is required",
		})
	}

	authReq := auth.RefreshRequest{RefreshToken: req.RefreshToken}
	var resp auth.TokenResponse
	if err := h.call(c.UserContext(), "auth", "refresh-token", &authReq, &resp); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse(resp))
}

// Profile returns the caller's profile.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	user, err := h.profile.GetUser(c.UserContext(), callerID(c))
	if err != nil {
		h.logger.Error("Failed to retrieve user profile", "user_id", callerID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve user profile",
		})
	}
	return c.JSON(toProfile(user))
}

// UpdateProfile changes the caller's timezone and digest opt-in.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	userID := callerID(c)
	current, err := h.profile.GetUser(c.UserContext(), userID)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	timezone, optIn := current.Timezone, current.ReportOptIn
	if req.Timezone != nil {
		timezone = *req.Timezone
	}
	if req.ReportOptIn != nil {
		optIn = *req.ReportOptIn
	}

	user, err := h.profile.UpdatePreferences(c.UserContext(), userID, timezone, optIn)
	if err != nil {
		return h.handleAuthError(c, err)
	}
	return c.JSON(toProfile(user))
}

func toProfile(u *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Timezone:    u.Timezone,
		ReportOptIn: u.ReportOptIn,
		CreatedAt:   u.CreatedAt,
	}
}

// Upload stores the request body under /uploads/:bucket/:key?token=.
func (h *Handlers) Upload(c *fiber.Ctx) error {
	store := h.objects()
	if store == nil {
		return fiber.ErrServiceUnavailable
	}
	bucket, key := c.Params("bucket"), c.Params("key")
	if _, err := store.Upload(c.UserContext(), bucket, key, c.Query("token"), c.Body(), c.Get(fiber.HeaderContentType)); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(UploadResponse{
		URL:        c.BaseURL() + "/uploads/" + bucket + "/" + key,
		BucketName: bucket,
		Key:        key,
	})
}

// Download serves a stored object publicly.
func (h *Handlers) Download(c *fiber.Ctx) error {
	store := h.objects()
	if store == nil {
		return fiber.ErrServiceUnavailable
	}
	obj, err := store.Download(c.UserContext(), c.Params("bucket"), c.Params("key"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, obj.ContentType)
	return c.Send(obj.Data)
}

// BoardFeedGuard rejects non-upgrade requests and boards the caller does not own.
func (h *Handlers) BoardFeedGuard(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	boardID := c.Params("id")
	req := map[string]string{"id": boardID, callerField: callerID(c)}
	if err := h.call(c.UserContext(), "boards", "read-one", req, nil); err != nil {
		return err
	}
	c.Locals("board_id", boardID)
	return c.Next()
}

// BoardFeed streams change notifications for one board.
func (h *Handlers) BoardFeed(conn *websocket.Conn) {
	userID, _ := conn.Locals(UserIDKey).(string)
	boardID, _ := conn.Locals("board_id").(string)
	h.feed.Serve(conn, userID, boardID)
}

// handleAuthError maps auth service errors without exposing internals.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, auth.ErrInvalidCredentials.Error()):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid email or password",
		})
	case strings.Contains(errStr, auth.ErrUserExists.Error()):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User with this email already exists",
		})
	case strings.Contains(errStr, auth.ErrUserNotFound.Error()):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
	case strings.Contains(errStr, auth.ErrInvalidEmail.Error()),
		strings.Contains(errStr, auth.ErrWeakPassword.Error()),
		strings.Contains(errStr, auth.ErrPasswordTooLong.Error()),
		strings.Contains(errStr, auth.ErrInvalidTimezone.Error()):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: authMessage(errStr),
		})
	default:
		h.logger.Error("Internal error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// authMessage returns the known auth error text contained in errStr.
func authMessage(errStr string) string {
	for _, known := range []error{auth.ErrInvalidEmail, auth.ErrWeakPassword, auth.ErrPasswordTooLong, auth.ErrInvalidTimezone} {
		if strings.Contains(errStr, known.Error()) {
			return known.Error()
		}
	}
	return errStr
}
