package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fillip1984/inveniam/domain/kanban"
)

func TestService_CreatePositions(t *testing.T) {
	f := setup(t)
	a := f.addTask(t, f.todo, "a")
	b := f.addTask(t, f.todo, "b")

	first, err := f.svc.Create(owner, CreateTaskRequest{Text: "first", BucketID: f.todo.ID, Position: intPtr(0)})
	require.NoError(t, err)
	last, err := f.svc.Create(owner, CreateTaskRequest{Text: "last", BucketID: f.todo.ID, Position: intPtr(42)})
	require.NoError(t, err)
	assert.Equal(t, 3, last.Position)

	assert.Equal(t, []string{first.ID, a.ID, b.ID, last.ID}, f.order(t, f.todo.ID))

	_, err = f.svc.Create(owner, CreateTaskRequest{Text: " ", BucketID: f.todo.ID})
	assert.ErrorIs(t, err, kanban.ErrValidation)
	_, err = f.svc.Create(owner, CreateTaskRequest{Text: "x", BucketID: "missing"})
	assert.ErrorIs(t, err, kanban.ErrNotFound)
	_, err = f.svc.Create("intruder", CreateTaskRequest{Text: "x", BucketID: f.todo.ID})
	assert.ErrorIs(t, err, kanban.ErrNotFound)
}

func TestService_ReadOneIncludesBucket(t *testing.T) {
	f := setup(t)
	task := f.addTask(t, f.doing, "write")

	got, err := f.svc.ReadOne(owner, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Bucket)
	assert.Equal(t, kanban.BucketRef{ID: "doing", Name: "Doing"}, *got.Bucket)

	_, err = f.svc.ReadOne("intruder", task.ID)
	assert.ErrorIs(t, err, kanban.ErrNotFound)
}

func TestService_UpdateDiffsChildren(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := f.addTask(t, f.todo, "paint")
	tagA := kanban.Tag{ID: "tag-a", Name: "home", UserID: owner}
	tagB := kanban.Tag{ID: "tag-b", Name: "diy", UserID: owner}
	require.NoError(t, f.st.DB().Create([]*kanban.Tag{&tagA, &tagB}).Error)

	form := UpdateTaskRequest{
		ID:       task.ID,
		Text:     "paint fence",
		BucketID: f.todo.ID,
		CheckListItems: []CheckListInput{
			{Text: "buy paint"},
			{Text: "sand"},
		},
		Comments: []CommentInput{{Text: "use white", Posted: fixedNow}},
		TaskTags: []TaskTagInput{{Tag: TagRef{ID: tagA.ID}}, {Tag: TagRef{ID: tagB.ID}}},
		Attachments: []AttachmentInput{{
			Text: "photo",
			Link: LinkInput{URL: "http://localhost/uploads/att/k1", BucketName: "att", Key: "k1"},
		}},
	}
	got, _, err := f.svc.Update(ctx, owner, form)
	require.NoError(t, err)
	require.Len(t, got.CheckListItems, 2)
	require.Len(t, got.Comments, 1)
	require.Len(t, got.Tags, 2)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "k1", got.Attachments[0].Link.Key)

	// Keep the first checklist item (renamed and completed), drop the second,
	// drop the comment, keep one tag and drop the attachment.
	first := got.CheckListItems[0]
	form.CheckListItems = []CheckListInput{{ID: &first.ID, Text: "buy white paint", Complete: true}}
	form.Comments = nil
	form.TaskTags = []TaskTagInput{{Tag: TagRef{ID: tagB.ID}}}
	form.Attachments = nil

	got, _, err = f.svc.Update(ctx, owner, form)
	require.NoError(t, err)
	require.Len(t, got.CheckListItems, 1)
	assert.Equal(t, first.ID, got.CheckListItems[0].ID)
	assert.Equal(t, "buy white paint", got.CheckListItems[0].Text)
	assert.True(t, got.CheckListItems[0].Complete)
	assert.Empty(t, got.Comments)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "diy", got.Tags[0].Tag.Name)
	assert.Empty(t, got.Attachments)

	var objects int64
	require.NoError(t, f.st.DB().Model(&kanban.StoredObject{}).Count(&objects).Error)
	assert.Zero(t, objects)
}

func TestService_UpdateForeignTagIsNotFound(t *testing.T) {
	f := setup(t)
	task := f.addTask(t, f.todo, "x")
	require.NoError(t, f.st.DB().Create(&kanban.Tag{ID: "theirs", Name: "t", UserID: "other"}).Error)

	_, _, err := f.svc.Update(context.Background(), owner, UpdateTaskRequest{
		ID: task.ID, Text: "x", BucketID: f.todo.ID,
		TaskTags: []TaskTagInput{{Tag: TagRef{ID: "theirs"}}},
	})
	assert.ErrorIs(t, err, kanban.ErrNotFound)
}

func TestService_UpdateDatesAndPriority(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := f.addTask(t, f.todo, "taxes")

	got, _, err := f.svc.Update(ctx, owner, UpdateTaskRequest{
		ID: task.ID, Text: "taxes", BucketID: f.todo.ID,
		Priority:  strPtr("high"),
		StartDate: strPtr("2024-01-08"),
		DueDate:   strPtr("2024-01-12"),
	})
	require.NoError(t, err)
	require.NotNil(t, got.Priority)
	assert.Equal(t, kanban.PriorityHigh, *got.Priority)
	require.NotNil(t, got.DueDate)
	// Midnight in New York is 05:00 UTC in January.
	assert.True(t, got.DueDate.Equal(time.Date(2024, 1, 12, 5, 0, 0, 0, time.UTC)), got.DueDate)

	tests := []struct {
		name string
		form UpdateTaskRequest
	}{
		{"missing id", UpdateTaskRequest{Text: "x", BucketID: f.todo.ID}},
		{"blank text", UpdateTaskRequest{ID: task.ID, BucketID: f.todo.ID}},
		{"bad priority", UpdateTaskRequest{ID: task.ID, Text: "x", BucketID: f.todo.ID, Priority: strPtr("urgent")}},
		{"bad date", UpdateTaskRequest{ID: task.ID, Text: "x", BucketID: f.todo.ID, DueDate: strPtr("12/01/2024")}},
		{"due before start", UpdateTaskRequest{ID: task.ID, Text: "x", BucketID: f.todo.ID, StartDate: strPtr("2024-01-12"), DueDate: strPtr("2024-01-11")}},
		{"empty checklist text", UpdateTaskRequest{ID: task.ID, Text: "x", BucketID: f.todo.ID, CheckListItems: []CheckListInput{{Text: ""}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Update(ctx, owner, tt.form)
			assert.ErrorIs(t, err, kanban.ErrValidation)
		})
	}

	got, _, err = f.svc.Update(ctx, owner, UpdateTaskRequest{ID: task.ID, Text: "taxes", BucketID: f.todo.ID})
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
	assert.Nil(t, got.Priority)
}

func TestService_CompleteMovesToCompleteBucket(t *testing.T) {
	f := setup(t)
	a := f.addTask(t, f.todo, "a")
	b := f.addTask(t, f.todo, "b")
	c := f.addTask(t, f.todo, "c")
	old := f.addTask(t, f.done, "old")

	got, res, err := f.svc.Update(context.Background(), owner, UpdateTaskRequest{
		ID: b.ID, Text: "b", BucketID: f.todo.ID, Complete: true,
	})
	require.NoError(t, err)
	assert.True(t, got.Complete)
	assert.Equal(t, f.done.ID, got.BucketID)
	assert.Equal(t, "todo", res.FromBucketID)
	assert.Equal(t, "done", res.ToBucketID)
	assert.Equal(t, "b1", res.BoardID)

	assert.Equal(t, []string{a.ID, c.ID}, f.order(t, f.todo.ID))
	assert.Equal(t, []string{old.ID, b.ID}, f.order(t, f.done.ID))
}

func TestService_CompleteWithoutCompleteBucketStays(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.st.DB().Model(&kanban.Bucket{}).Where("id = ?", f.done.ID).Update("name", "Archive").Error)
	task := f.addTask(t, f.doing, "x")

	got, _, err := f.svc.Update(context.Background(), owner, UpdateTaskRequest{
		ID: task.ID, Text: "x", BucketID: f.doing.ID, Complete: true,
	})
	require.NoError(t, err)
	assert.Equal(t, f.doing.ID, got.BucketID)
}

func TestService_UpdatePositionsEndToEnd(t *testing.T) {
	f := setup(t)
	t1 := f.addTask(t, f.todo, "T1")
	t2 := f.addTask(t, f.todo, "T2")
	t3 := f.addTask(t, f.todo, "T3")

	// Drag T2 to Doing@0.
	boards, err := f.svc.UpdatePositions(owner, []kanban.TaskPositionUpdate{
		{ID: t1.ID, Position: 0, BucketID: f.todo.ID},
		{ID: t3.ID, Position: 1, BucketID: f.todo.ID},
		{ID: t2.ID, Position: 0, BucketID: f.doing.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, boards)
	assert.Equal(t, []string{t1.ID, t3.ID}, f.order(t, f.todo.ID))
	assert.Equal(t, []string{t2.ID}, f.order(t, f.doing.ID))

	// Drag T3 within Todo from 1 to 0.
	_, err = f.svc.UpdatePositions(owner, []kanban.TaskPositionUpdate{
		{ID: t3.ID, Position: 0, BucketID: f.todo.ID},
		{ID: t1.ID, Position: 1, BucketID: f.todo.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{t3.ID, t1.ID}, f.order(t, f.todo.ID))
}

func TestService_UpdatePositionsIsAtomic(t *testing.T) {
	f := setup(t)
	t1 := f.addTask(t, f.todo, "T1")
	t2 := f.addTask(t, f.todo, "T2")

	_, err := f.svc.UpdatePositions(owner, []kanban.TaskPositionUpdate{
		{ID: t2.ID, Position: 0, BucketID: f.todo.ID},
		{ID: t1.ID, Position: 0, BucketID: "missing"},
	})
	assert.ErrorIs(t, err, kanban.ErrNotFound)
	assert.Equal(t, []string{t1.ID, t2.ID}, f.order(t, f.todo.ID))

	_, err = f.svc.UpdatePositions(owner, []kanban.TaskPositionUpdate{{ID: t1.ID, Position: -1, BucketID: f.todo.ID}})
	assert.ErrorIs(t, err, kanban.ErrValidation)
}

func TestService_DeleteRenumbers(t *testing.T) {
	f := setup(t)
	a := f.addTask(t, f.todo, "a")
	b := f.addTask(t, f.todo, "b")
	c := f.addTask(t, f.todo, "c")
	require.NoError(t, f.st.DB().Create(&kanban.Comment{ID: "c1", Text: "hi", Posted: fixedNow, TaskID: b.ID, UserID: owner}).Error)

	deleted, err := f.svc.Delete(owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, deleted.ID)
	assert.Equal(t, []string{a.ID, c.ID}, f.order(t, f.todo.ID))

	var comments int64
	require.NoError(t, f.st.DB().Model(&kanban.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)

	_, err = f.svc.Delete(owner, b.ID)
	assert.ErrorIs(t, err, kanban.ErrNotFound)
}

func TestService_StatusUsesCallerTimezone(t *testing.T) {
	f := setup(t)
	task := f.addTask(t, f.todo, "call")
	// 23:30 New York on the 10th is the 11th in UTC.
	due := time.Date(2024, 1, 11, 4, 30, 0, 0, time.UTC)
	require.NoError(t, f.st.DB().Model(&kanban.Task{}).Where("id = ?", task.ID).Update("due_date", due).Error)

	report, err := f.svc.Status(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, report.DueToday, 1)
	assert.Equal(t, task.ID, report.DueToday[0].ID)
	assert.Equal(t, "America/New_York", report.Timezone)
}
