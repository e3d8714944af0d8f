package attachments

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fillip1984/inveniam/config"
	"github.com/fillip1984/inveniam/domain/kanban"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

// fakeSigner issues "token:<user>:<key>" tokens.
type fakeSigner struct{}

func (fakeSigner) SignUpload(_ context.Context, userID, objectKey string, _ time.Duration) (string, error) {
	return "token:" + userID + ":" + objectKey, nil
}

func (fakeSigner) VerifyUpload(_ context.Context, token, objectKey string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "token" || parts[2] != objectKey {
		return "", errors.New("invalid token")
	}
	return parts[1], nil
}

const bucketName = "attachments"

// createTestModule starts an embedded JetStream with an in-memory bucket.
func createTestModule(t *testing.T, maxBytes int64) *Module {
	t.Helper()
	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
	)
	require.NoError(t, err)

	plugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{
				Name:        bucketName,
				Description: "Test bucket",
				MaxBytes:    10 * 1024 * 1024,
				Storage:     fsjetstream.MemoryStorage,
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, app.RegisterPlugin(plugin, "storage"))
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})

	cfg := config.Storage{Bucket: bucketName, MaxBytes: maxBytes, UploadExpiry: config.Duration{Duration: time.Minute}}
	m := NewModule(cfg, "http://localhost:3000/", &mockLogger{})
	m.SetPlugin("storage", plugin)
	m.signer = fakeSigner{}
	require.NoError(t, m.Start(context.Background()))
	return m
}

func TestModule_StartRequiresPluginAndSigner(t *testing.T) {
	m := NewModule(config.Storage{Bucket: bucketName}, "", &mockLogger{})
	assert.Error(t, m.Start(context.Background()))
}

func TestService_PresignUploadDownload(t *testing.T) {
	m := createTestModule(t, 1024)
	ctx := context.Background()

	p, err := m.handlePresign(ctx, PresignRequest{Caller: kanban.Caller{UserID: "alice"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, bucketName, p.BucketName)
	assert.Len(t, p.Key, keyLength)
	assert.Equal(t, "http://localhost:3000/uploads/attachments/"+url.PathEscape(p.Key), p.PublicURL)

	u, err := url.Parse(p.URL)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)

	svc := m.Service()
	owner, err := svc.Upload(ctx, bucketName, p.Key, token, []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	obj, err := svc.Download(ctx, bucketName, p.Key)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(obj.Data))
	assert.Equal(t, "text/plain", obj.ContentType)
}

func TestService_UploadRejections(t *testing.T) {
	m := createTestModule(t, 8)
	svc := m.Service()
	ctx := context.Background()
	p, err := svc.Presign(ctx, "alice")
	require.NoError(t, err)
	token := "token:alice:" + p.Key

	tests := []struct {
		name    string
		bucket  string
		key     string
		token   string
		data    string
		wantErr error
	}{
		{"wrong bucket", "other", p.Key, token, "x", ErrUnknownBucket},
		{"path key", bucketName, "../etc", token, "x", ErrInvalidKey},
		{"missing token", bucketName, p.Key, "", "x", ErrUploadDenied},
		{"token for another key", bucketName, "otherkey", token, "x", ErrUploadDenied},
		{"too large", bucketName, p.Key, token, "0123456789", ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.bucket, tt.key, tt.token, []byte(tt.data), "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_DownloadMissing(t *testing.T) {
	svc := createTestModule(t, 0).Service()

	_, err := svc.Download(context.Background(), bucketName, "nothing-here")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, err, kanban.ErrNotFound)
}
