package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/require"

	"github.com/fillip1984/inveniam/domain/kanban"
	domain "github.com/fillip1984/inveniam/domain/user"
	"github.com/fillip1984/inveniam/mail"
	"github.com/fillip1984/inveniam/store"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

type fakeProfile struct {
	timezone   string
	recipients []domain.User
}

func (f *fakeProfile) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return &domain.User{ID: userID, Timezone: f.timezone}, nil
}

func (f *fakeProfile) UpdatePreferences(context.Context, string, string, bool) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProfile) ReportRecipients(context.Context) ([]domain.User, error) {
	return f.recipients, nil
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []mail.Message
	failTo string
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if msg.To == f.failTo {
		return errors.New("mailbox unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

const owner = "user-1"

// Wednesday 2024-01-10 15:00 UTC, 10:00 in New York.
var fixedNow = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	st    *store.Store
	board kanban.Board
	todo  kanban.Bucket
	doing kanban.Bucket
	done  kanban.Bucket
}

func setup(t *testing.T) *fixture {
	t.Helper()
	st := store.OpenTest(t)
	svc := NewService(NewRepository(st.DB()), &fakeProfile{timezone: "America/New_York"}, time.UTC, &mockLogger{})
	svc.now = func() time.Time { return fixedNow }

	f := &fixture{
		svc:   svc,
		st:    st,
		board: kanban.Board{ID: "b1", Name: "Work", UserID: owner},
		todo:  kanban.Bucket{ID: "todo", Name: "Todo", Position: 0, BoardID: "b1", UserID: owner},
		doing: kanban.Bucket{ID: "doing", Name: "Doing", Position: 1, BoardID: "b1", UserID: owner},
		done:  kanban.Bucket{ID: "done", Name: "complete", Position: 2, BoardID: "b1", UserID: owner},
	}
	require.NoError(t, st.DB().Create(&f.board).Error)
	require.NoError(t, st.DB().Create([]*kanban.Bucket{&f.todo, &f.doing, &f.done}).Error)
	return f
}

func (f *fixture) addTask(t *testing.T, bucket kanban.Bucket, text string) *kanban.Task {
	t.Helper()
	task, err := f.svc.Create(owner, CreateTaskRequest{Text: text, BucketID: bucket.ID})
	require.NoError(t, err)
	return task
}

// order returns the task ids of a bucket by position and checks density.
func (f *fixture) order(t *testing.T, bucketID string) []string {
	t.Helper()
	var tasks []kanban.Task
	require.NoError(t, f.st.DB().Where("bucket_id = ?", bucketID).Order("position").Find(&tasks).Error)
	ids := make([]string, 0, len(tasks))
	for i, task := range tasks {
		require.Equal(t, i, task.Position, "bucket %s not dense", bucketID)
		ids = append(ids, task.ID)
	}
	return ids
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
