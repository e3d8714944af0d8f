package tags

import (
	"context"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fillip1984/inveniam/domain/kanban"
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

const owner = "user-1"

func names(tags []kanban.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func TestService_CreateUniquePerOwner(t *testing.T) {
	svc := NewService(NewRepository(store.OpenTest(t).DB()))

	_, err := svc.Create(owner, "home", nil)
	require.NoError(t, err)

	_, err = svc.Create(owner, "home", nil)
	assert.ErrorIs(t, err, kanban.ErrValidation)

	_, err = svc.Create("user-2", "home", nil)
	assert.NoError(t, err)

	_, err = svc.Create(owner, "  ", nil)
	assert.ErrorIs(t, err, kanban.ErrValidation)
}

func TestService_ReadAll(t *testing.T) {
	svc := NewService(NewRepository(store.OpenTest(t).DB()))
	for _, n := range []string{"work", "home", "homework", "errands"} {
		_, err := svc.Create(owner, n, nil)
		require.NoError(t, err)
	}
	_, err := svc.Create("user-2", "hobby", nil)
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"errands", "home", "homework", "work"}},
		{"hm", []string{"home", "homework"}},
		{"wrk", []string{"homework", "work"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := svc.ReadAll(owner, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestService_UpdateAndDelete(t *testing.T) {
	st := store.OpenTest(t)
	svc := NewService(NewRepository(st.DB()))
	tag, err := svc.Create(owner, "home", nil)
	require.NoError(t, err)
	other, err := svc.Create(owner, "work", nil)
	require.NoError(t, err)

	desc := "around the house"
	updated, err := svc.Update(owner, tag.ID, "house", &desc)
	require.NoError(t, err)
	assert.Equal(t, "house", updated.Name)
	assert.Equal(t, desc, *updated.Description)

	_, err = svc.Update(owner, tag.ID, "work", nil)
	assert.ErrorIs(t, err, kanban.ErrValidation)
	_, err = svc.Update("intruder", tag.ID, "mine", nil)
	assert.ErrorIs(t, err, kanban.ErrNotFound)
	_, err = svc.Update(owner, "", "x", nil)
	assert.ErrorIs(t, err, kanban.ErrValidation)

	require.NoError(t, st.DB().Create(&kanban.TaskTag{TaskID: "t1", TagID: tag.ID}).Error)
	require.NoError(t, st.DB().Create(&kanban.TaskTag{TaskID: "t1", TagID: other.ID}).Error)

	deleted, err := svc.Delete(owner, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, tag.ID, deleted.ID)

	var links []kanban.TaskTag
	require.NoError(t, st.DB().Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, other.ID, links[0].TagID)

	_, err = svc.ReadOne(owner, tag.ID)
	assert.ErrorIs(t, err, kanban.ErrNotFound)
}

func TestTagsModule_Handlers(t *testing.T) {
	ctx := context.Background()
	m := NewModule(store.OpenTest(t), &mockLogger{})
	caller := kanban.Caller{UserID: owner}

	assert.Equal(t, "tags", m.Name())
	require.NoError(t, m.Start(ctx))

	tag, err := m.handleCreate(ctx, TagForm{Caller: caller, Name: "urgent"}, nil)
	require.NoError(t, err)

	got, err := m.handleReadOne(ctx, TagIDRequest{Caller: caller, ID: tag.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, "urgent", got.Name)

	list, err := m.handleReadAll(ctx, ReadAllRequest{Caller: caller, Query: "urg"}, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = m.handleUpdate(ctx, TagForm{Caller: caller, ID: tag.ID, Name: "later"}, nil)
	require.NoError(t, err)
	_, err = m.handleDelete(ctx, TagIDRequest{Caller: caller, ID: tag.ID}, nil)
	require.NoError(t, err)

	require.NoError(t, m.Stop(ctx))
}
