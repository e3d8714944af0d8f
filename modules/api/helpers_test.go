package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/fillip1984/inveniam/config"
	domain "github.com/fillip1984/inveniam/domain/user"
	"github.com/fillip1984/inveniam/modules/attachments"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

// mockAuthPort implements auth.AuthPort and auth.ProfilePort for testing.
type mockAuthPort struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockAuth() *mockAuthPort {
	return &mockAuthPort{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "one@example.com", ReportOptIn: true},
	}}
}

func (m *mockAuthPort) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	userID, ok := strings.CutPrefix(token, "valid-")
	if !ok {
		return nil, errors.New("token validation failed: invalid token")
	}
	return &domain.Claims{UserID: userID, Email: userID + "@example.com"}, nil
}

func (m *mockAuthPort) GetUser(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, errors.New("get-user request failed: user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *mockAuthPort) UpdatePreferences(_ context.Context, userID, timezone string, reportOptIn bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, errors.New("update-preferences request failed: invalid timezone")
		}
	}
	u.Timezone = timezone
	u.ReportOptIn = reportOptIn
	cp := *u
	return &cp, nil
}

func (m *mockAuthPort) ReportRecipients(context.Context) ([]domain.User, error) {
	return nil, nil
}

// call records one dispatched request.
type call struct {
	Module  string
	Service string
	Input   map[string]any
	Raw     json.RawMessage
}

// fakeCaller answers service calls from a table keyed by "module/service".
type fakeCaller struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]any
	errs      map[string]error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: map[string]any{}, errs: map[string]error{}}
}

func (f *fakeCaller) Call(_ context.Context, module, service string, req json.RawMessage) (json.RawMessage, error) {
	var input map[string]any
	if err := json.Unmarshal(req, &input); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, call{Module: module, Service: service, Input: input, Raw: req})
	key := module + "/" + service
	resp, err := f.responses[key], f.errs[key]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

func (f *fakeCaller) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

type fakeStore struct {
	objects map[string]*attachments.Object
}

func (s *fakeStore) Upload(_ context.Context, bucketName, key, token string, data []byte, contentType string) (string, error) {
	if bucketName != "attachments" {
		return "", attachments.ErrUnknownBucket
	}
	if token != "upload-token" {
		return "", attachments.ErrUploadDenied
	}
	if len(data) > 8 {
		return "", attachments.ErrTooLarge
	}
	s.objects[key] = &attachments.Object{Key: key, ContentType: contentType, Data: data}
	return "user-1", nil
}

func (s *fakeStore) Download(_ context.Context, bucketName, key string) (*attachments.Object, error) {
	if bucketName != "attachments" {
		return nil, attachments.ErrUnknownBucket
	}
	obj, ok := s.objects[key]
	if !ok {
		return nil, attachments.ErrObjectNotFound
	}
	return obj, nil
}

type noopFeed struct{}

func (noopFeed) Serve(*websocket.Conn, string, string) {}

// limitAfter rejects every request after the first n.
type limitAfter struct {
	mu sync.Mutex
	n  int
}

func (l *limitAfter) handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		l.mu.Lock()
		l.n--
		over := l.n < 0
		l.mu.Unlock()
		if over {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Error: "rate_limited", Message: "rate limit exceeded"})
		}
		return c.Next()
	}
}

func (l *limitAfter) IPRateLimit() fiber.Handler   { return l.handler() }
func (l *limitAfter) UserRateLimit() fiber.Handler { return l.handler() }

type testEnv struct {
	app    *fiber.App
	caller *fakeCaller
	auth   *mockAuthPort
	store  *fakeStore
}

func newTestEnv(t *testing.T, limiter RateLimiter) *testEnv {
	t.Helper()
	env := &testEnv{
		caller: newFakeCaller(),
		auth:   newMockAuth(),
		store:  &fakeStore{objects: map[string]*attachments.Object{}},
	}
	objects := func() ObjectStore { return env.store }
	h := NewHandlers(env.caller, env.auth, env.auth, objects, noopFeed{}, &mockLogger{})
	rpc := NewRPCHandlers(env.caller, env.auth)
	env.app = newApp(config.HTTP{AllowOrigins: "*"}, h, rpc, env.auth, limiter)
	return env
}

func (e *testEnv) do(t *testing.T, method, target, token string, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}
