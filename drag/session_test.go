package drag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fillip1984/inveniam/domain/kanban"
)

func board(cols map[string][]string, order ...string) Snapshot {
	s := Snapshot{BoardID: "b1"}
	for bi, id := range order {
		b := kanban.Bucket{ID: id, Name: id, Position: bi, BoardID: "b1"}
		for ti, tid := range cols[id] {
			b.Tasks = append(b.Tasks, kanban.Task{ID: tid, Text: tid, Position: ti, BucketID: id})
		}
		s.Buckets = append(s.Buckets, b)
	}
	return s
}

// layout renders a snapshot as bucket -> "id@pos" lists.
func layout(s Snapshot) map[string][]string {
	out := map[string][]string{}
	for _, b := range s.Buckets {
		out[b.ID] = []string{}
		for _, t := range b.Tasks {
			out[b.ID] = append(out[b.ID], t.ID+"@"+itoa(t.Position)+"/"+t.BucketID)
		}
	}
	return out
}

func itoa(i int) string {
	return string(rune('0' + i))
}

type fakePersister struct {
	taskCalls   [][]kanban.TaskPositionUpdate
	bucketCalls [][]kanban.BucketPositionUpdate
	err         error
}

func (f *fakePersister) UpdateTaskPositions(_ context.Context, tasks []kanban.TaskPositionUpdate) error {
	f.taskCalls = append(f.taskCalls, tasks)
	return f.err
}

func (f *fakePersister) UpdateBucketPositions(_ context.Context, buckets []kanban.BucketPositionUpdate) error {
	f.bucketCalls = append(f.bucketCalls, buckets)
	return f.err
}

func TestReduce_ClickBelowActivationDistance(t *testing.T) {
	s := NewSession(board(map[string][]string{"todo": {"t1"}}, "todo"), 10)

	s, cmds := Reduce(s, PointerDown{Item: TaskItem("t1"), At: Point{X: 100, Y: 100}})
	assert.Equal(t, Pressed, s.State)
	assert.Empty(t, cmds)

	s, _ = Reduce(s, PointerMove{At: Point{X: 106, Y: 107}})
	assert.Equal(t, Pressed, s.State, "9.2 units is below the threshold")

	s, cmds = Reduce(s, Release{Over: &Item{Kind: KindBucket, ID: "todo"}})
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, []Command{Click{Item: TaskItem("t1")}}, cmds)
}

func TestReduce_ActivationBeyondThreshold(t *testing.T) {
	s := NewSession(board(map[string][]string{"todo": {"t1"}}, "todo"), 10)
	s, _ = Reduce(s, PointerDown{Item: TaskItem("t1")})

	s, _ = Reduce(s, PointerMove{At: Point{X: 6, Y: 8}})
	assert.Equal(t, Pressed, s.State, "exactly 10 units does not activate")

	s, _ = Reduce(s, PointerMove{At: Point{X: 6, Y: 8.1}})
	assert.Equal(t, Dragging, s.State)
	assert.Equal(t, []string{"todo"}, s.Touched)
}

func TestReduce_IgnoresUnknownItemsAndStrayEvents(t *testing.T) {
	s := NewSession(board(map[string][]string{"todo": {"t1"}}, "todo"), 10)

	next, cmds := Reduce(s, PointerDown{Item: TaskItem("missing")})
	assert.Equal(t, Idle, next.State)
	assert.Empty(t, cmds)

	for _, e := range []Event{PointerMove{}, Hover{Over: BucketItem("todo")}, Release{}, CommitSucceeded{}, CommitFailed{}} {
		next, cmds = Reduce(s, e)
		assert.Equal(t, Idle, next.State)
		assert.Empty(t, cmds)
	}
}

func TestReduce_HoverReordersWorkingOnly(t *testing.T) {
	base := board(map[string][]string{"todo": {"t1", "t2"}, "doing": {"d1"}}, "todo", "doing")
	s := NewSession(base, 10)
	s, _ = Reduce(s, PointerDown{Item: TaskItem("t1")})
	s, _ = Reduce(s, PointerMove{At: Point{X: 20}})

	s, _ = Reduce(s, Hover{Over: TaskItem("d1")})

	assert.Equal(t, map[string][]string{
		"todo":  {"t2@0/todo"},
		"doing": {"t1@0/doing", "d1@1/doing"},
	}, layout(s.View()))
	assert.Equal(t, layout(base), layout(s.Base))
	assert.Equal(t, []string{"todo", "doing"}, s.Touched)
}

func TestReduce_ReleaseOutsideDiscards(t *testing.T) {
	base := board(map[string][]string{"todo": {"t1", "t2"}, "doing": {}}, "todo", "doing")
	s := NewSession(base, 10)
	s, _ = Reduce(s, PointerDown{Item: TaskItem("t1")})
	s, _ = Reduce(s, PointerMove{At: Point{X: 20}})
	s, _ = Reduce(s, Hover{Over: BucketItem("doing")})

	s, cmds := Reduce(s, Release{})

	assert.Equal(t, Idle, s.State)
	assert.Empty(t, cmds)
	assert.Equal(t, layout(base), layout(s.View()))
}

func TestReduce_CancelDiscards(t *testing.T) {
	base := board(map[string][]string{"todo": {"t1", "t2"}}, "todo")
	s := NewSession(base, 10)
	s, _ = Reduce(s, PointerDown{Item: TaskItem("t2")})
	s, _ = Reduce(s, PointerMove{At: Point{Y: 50}})
	s, _ = Reduce(s, Hover{Over: TaskItem("t1")})

	s, cmds := Reduce(s, Cancel{})

	assert.Equal(t, Idle, s.State)
	assert.Empty(t, cmds)
	assert.Equal(t, layout(base), layout(s.View()))
}

func TestReduce_DropOnOwnBucketAppends(t *testing.T) {
	base := board(map[string][]string{"todo": {"t1", "t2"}}, "todo")
	s := NewSession(base, 10)
	s, _ = Reduce(s, PointerDown{Item: TaskItem("t1")})
	s, _ = Reduce(s, PointerMove{At: Point{Y: 50}})

	s, cmds := Reduce(s, Release{Over: &Item{Kind: KindBucket, ID: "todo"}})

	assert.Equal(t, Committing, s.State)
	assert.Equal(t, map[string][]string{"todo": {"t2@0/todo", "t1@1/todo"}}, layout(s.View()))
	require.Len(t, cmds, 1)
	assert.Equal(t, PersistTaskPositions{Tasks: []kanban.TaskPositionUpdate{
		{ID: "t2", Position: 0, BucketID: "todo"},
		{ID: "t1", Position: 1, BucketID: "todo"},
	}}, cmds[0])
}

func TestReduce_UnchangedDropSkipsCommit(t *testing.T) {
	base := board(map[string][]string{"todo": {"t1", "t2"}}, "todo")
	s := NewSession(base, 10)
	s, _ = Reduce(s, PointerDown{Item: TaskItem("t2")})
	s, _ = Reduce(s, PointerMove{At: Point{Y: 50}})

	s, cmds := Reduce(s, Release{Over: &Item{Kind: KindBucket, ID: "todo"}})

	assert.Equal(t, Idle, s.State, "t2 is already last")
	assert.Empty(t, cmds)
}

func TestReduce_BucketDragCommitsAllBuckets(t *testing.T) {
	base := board(map[string][]string{"a": {"t1"}, "b": {}, "c": {"t2"}}, "a", "b", "c")
	s := NewSession(base, 10)
	s, _ = Reduce(s, PointerDown{Item: BucketItem("c")})
	s, _ = Reduce(s, PointerMove{At: Point{X: 30}})
	s, _ = Reduce(s, Hover{Over: BucketItem("a")})
	assert.Equal(t, layout(base), layout(s.View()), "buckets reorder on release only")

	over := TaskItem("t1")
	s, cmds := Reduce(s, Release{Over: &over})

	assert.Equal(t, Committing, s.State)
	require.Len(t, cmds, 1)
	assert.Equal(t, PersistBucketPositions{Buckets: []kanban.BucketPositionUpdate{
		{ID: "c", Position: 0}, {ID: "a", Position: 1}, {ID: "b", Position: 2},
	}}, cmds[0])
}

func TestReduce_CommitFailedRestoresBase(t *testing.T) {
	base := board(map[string][]string{"todo": {"t1"}, "doing": {}}, "todo", "doing")
	s := NewSession(base, 10)
	s, _ = Reduce(s, PointerDown{Item: TaskItem("t1")})
	s, _ = Reduce(s, PointerMove{At: Point{X: 30}})
	over := BucketItem("doing")
	s, cmds := Reduce(s, Release{Over: &over})
	require.Len(t, cmds, 1)
	require.Equal(t, Committing, s.State)

	boom := errors.New("boom")
	s, _ = Reduce(s, CommitFailed{Err: boom})

	assert.Equal(t, Idle, s.State)
	assert.Equal(t, boom, s.LastError)
	assert.Equal(t, layout(base), layout(s.View()))
}

func TestController_EndToEnd(t *testing.T) {
	p := &fakePersister{}
	c := NewController(board(map[string][]string{"todo": {"T1", "T2", "T3"}, "doing": {}}, "todo", "doing"), p)
	ctx := context.Background()

	require.NoError(t, c.MoveTask(ctx, "T2", BucketItem("doing")))

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, map[string][]string{
		"todo":  {"T1@0/todo", "T3@1/todo"},
		"doing": {"T2@0/doing"},
	}, layout(c.Snapshot()))
	require.Len(t, p.taskCalls, 1)
	assert.ElementsMatch(t, []kanban.TaskPositionUpdate{
		{ID: "T1", Position: 0, BucketID: "todo"},
		{ID: "T3", Position: 1, BucketID: "todo"},
		{ID: "T2", Position: 0, BucketID: "doing"},
	}, p.taskCalls[0])

	require.NoError(t, c.MoveTask(ctx, "T3", TaskItem("T1")))

	assert.Equal(t, map[string][]string{
		"todo":  {"T3@0/todo", "T1@1/todo"},
		"doing": {"T2@0/doing"},
	}, layout(c.Snapshot()))
	require.Len(t, p.taskCalls, 2)
	assert.Equal(t, []kanban.TaskPositionUpdate{
		{ID: "T3", Position: 0, BucketID: "todo"},
		{ID: "T1", Position: 1, BucketID: "todo"},
	}, p.taskCalls[1])
	assert.Empty(t, p.bucketCalls)
}

func TestController_MoveTaskToEndOfOwnBucket(t *testing.T) {
	p := &fakePersister{}
	c := NewController(board(map[string][]string{"todo": {"t1", "t2", "t3"}}, "todo"), p)

	require.NoError(t, c.MoveTask(context.Background(), "t1", BucketItem("todo")))

	assert.Equal(t, map[string][]string{
		"todo": {"t2@0/todo", "t3@1/todo", "t1@2/todo"},
	}, layout(c.Snapshot()))
	require.Len(t, p.taskCalls, 1)
	assert.Equal(t, []kanban.TaskPositionUpdate{
		{ID: "t2", Position: 0, BucketID: "todo"},
		{ID: "t3", Position: 1, BucketID: "todo"},
		{ID: "t1", Position: 2, BucketID: "todo"},
	}, p.taskCalls[0])
}

func TestController_RevertsOnPersistFailure(t *testing.T) {
	base := board(map[string][]string{"todo": {"T1", "T2"}, "doing": {}}, "todo", "doing")
	p := &fakePersister{err: errors.New("network down")}
	c := NewController(base, p)

	err := c.MoveTask(context.Background(), "T1", BucketItem("doing"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, layout(base), layout(c.Snapshot()))
}

func TestController_ClickHandler(t *testing.T) {
	var clicked []Item
	c := NewController(board(map[string][]string{"todo": {"T1"}}, "todo"), &fakePersister{},
		WithActivationDistance(5), WithClickHandler(func(it Item) { clicked = append(clicked, it) }))
	ctx := context.Background()

	require.NoError(t, c.Dispatch(ctx, PointerDown{Item: TaskItem("T1")}))
	require.NoError(t, c.Dispatch(ctx, PointerMove{At: Point{X: 4}}))
	require.NoError(t, c.Dispatch(ctx, Release{}))

	assert.Equal(t, []Item{TaskItem("T1")}, clicked)
}

func TestController_MoveUnknownBucket(t *testing.T) {
	c := NewController(board(nil, "todo"), &fakePersister{})

	err := c.MoveBucket(context.Background(), "nope", BucketItem("todo"))

	assert.ErrorIs(t, err, ErrBucketNotFound)
}
