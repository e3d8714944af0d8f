package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fillip1984/inveniam/domain/kanban"
	domain "github.com/fillip1984/inveniam/domain/user"
)

func TestDigest_SendOncePerRecipient(t *testing.T) {
	f := setup(t)
	due := time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC)
	tasks := []kanban.Task{
		{ID: "a1", Text: "overdue", DueDate: &due, BucketID: f.todo.ID, UserID: "alice", Position: 0},
		{ID: "c1", Text: "overdue", DueDate: &due, BucketID: f.todo.ID, UserID: "carol", Position: 1},
	}
	require.NoError(t, f.st.DB().Create(&tasks).Error)

	f.svc.profile = &fakeProfile{recipients: []domain.User{
		{ID: "alice", Email: "alice@example.com", Timezone: "America/New_York"},
		{ID: "bob", Email: "bob@example.com"},
		{ID: "carol", Email: "carol@example.com"},
	}}
	mailer := &fakeMailer{failTo: "carol@example.com"}
	d := NewDigest(f.svc, mailer, "http://localhost:3000", "", 2)

	resp, err := d.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SendReportResponse{Sent: 1, Failed: 1, Skipped: 1}, resp)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].To)
	assert.Equal(t, "Status for Wednesday (1/10)", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTML, "overdue")
}

func TestDigest_Authorize(t *testing.T) {
	f := setup(t)

	open := NewDigest(f.svc, &fakeMailer{}, "", "", 0)
	assert.NoError(t, open.Authorize(""))
	assert.Equal(t, 1, open.concurrency)

	locked := NewDigest(f.svc, &fakeMailer{}, "", "s3cret", 4)
	assert.NoError(t, locked.Authorize("s3cret"))
	assert.ErrorIs(t, locked.Authorize(""), ErrInvalidTriggerToken)
	assert.ErrorIs(t, locked.Authorize("guess"), ErrInvalidTriggerToken)
}
