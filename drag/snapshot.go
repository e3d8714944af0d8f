// Package drag reconciles a drag gesture over a board with the server.
//
// The gesture is a reducer over an immutable Snapshot: hovering produces a
// new working snapshot, a drop emits one persistence command per entity kind,
// and the result of that command either promotes the working snapshot or
// restores the confirmed one.
package drag

import (
	"errors"
	"fmt"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/reorder"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrTaskNotFound   = errors.New("task not found")
)

// Snapshot is an ordered view of one board. Buckets and their Tasks are kept
// in position order. Methods never modify the receiver.
type Snapshot struct {
	BoardID string          `json:"boardId"`
	Buckets []kanban.Bucket `json:"buckets"`
}

// FindBucket returns the index of the bucket with id.
func (s Snapshot) FindBucket(id string) (int, bool) {
	i := reorder.IndexOf(s.Buckets, func(b kanban.Bucket) bool { return b.ID == id })
	return i, i >= 0
}

// FindTask returns the bucket and task indexes of the task with id.
func (s Snapshot) FindTask(id string) (bucket, task int, ok bool) {
	for bi, b := range s.Buckets {
		if ti := reorder.IndexOf(b.Tasks, func(t kanban.Task) bool { return t.ID == id }); ti >= 0 {
			return bi, ti, true
		}
	}
	return -1, -1, false
}

// BucketOf resolves an item to the bucket that holds it: a bucket resolves to
// itself, a task to its parent.
func (s Snapshot) BucketOf(it Item) (string, bool) {
	switch it.Kind {
	case KindBucket:
		if _, ok := s.FindBucket(it.ID); ok {
			return it.ID, true
		}
	case KindTask:
		if bi, _, ok := s.FindTask(it.ID); ok {
			return s.Buckets[bi].ID, true
		}
	}
	return "", false
}

// Task returns a copy of the task with id.
func (s Snapshot) Task(id string) (kanban.Task, bool) {
	bi, ti, ok := s.FindTask(id)
	if !ok {
		return kanban.Task{}, false
	}
	return s.Buckets[bi].Tasks[ti], true
}

// MoveTask moves a task to index of bucketID. The index is clamped; both
// affected buckets are renumbered.
func (s Snapshot) MoveTask(taskID, bucketID string, index int) (Snapshot, error) {
	fromB, fromT, ok := s.FindTask(taskID)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	toB, ok := s.FindBucket(bucketID)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrBucketNotFound, bucketID)
	}

	buckets := make([]kanban.Bucket, len(s.Buckets))
	copy(buckets, s.Buckets)

	if fromB == toB {
		tasks, err := reorder.Move(s.Buckets[fromB].Tasks, fromT, index, kanban.SetTaskPosition)
		if err != nil {
			return s, err
		}
		buckets[fromB].Tasks = tasks
		return Snapshot{BoardID: s.BoardID, Buckets: buckets}, nil
	}

	rest, task, err := reorder.Remove(s.Buckets[fromB].Tasks, fromT, kanban.SetTaskPosition)
	if err != nil {
		return s, err
	}
	task.BucketID = bucketID
	buckets[fromB].Tasks = rest
	buckets[toB].Tasks = reorder.Insert(s.Buckets[toB].Tasks, task, index, kanban.SetTaskPosition)
	return Snapshot{BoardID: s.BoardID, Buckets: buckets}, nil
}

// MoveBucket moves a bucket to index within the board and renumbers all buckets.
func (s Snapshot) MoveBucket(bucketID string, index int) (Snapshot, error) {
	from, ok := s.FindBucket(bucketID)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrBucketNotFound, bucketID)
	}
	buckets, err := reorder.Move(s.Buckets, from, index, kanban.SetBucketPosition)
	if err != nil {
		return s, err
	}
	return Snapshot{BoardID: s.BoardID, Buckets: buckets}, nil
}

// TaskPositions serialises every task of the given buckets, in bucket order.
func (s Snapshot) TaskPositions(bucketIDs []string) []kanban.TaskPositionUpdate {
	var out []kanban.TaskPositionUpdate
	for _, id := range bucketIDs {
		bi, ok := s.FindBucket(id)
		if !ok {
			continue
		}
		for _, t := range s.Buckets[bi].Tasks {
			out = append(out, kanban.TaskPositionUpdate{ID: t.ID, Position: t.Position, BucketID: id})
		}
	}
	return out
}

// BucketPositions serialises every bucket of the board.
func (s Snapshot) BucketPositions() []kanban.BucketPositionUpdate {
	out := make([]kanban.BucketPositionUpdate, 0, len(s.Buckets))
	for _, b := range s.Buckets {
		out = append(out, kanban.BucketPositionUpdate{ID: b.ID, Position: b.Position})
	}
	return out
}

// Normalize reassigns every position from slice order.
func (s Snapshot) Normalize() Snapshot {
	buckets := reorder.Renumber(s.Buckets, kanban.SetBucketPosition)
	for i := range buckets {
		buckets[i].Tasks = reorder.Renumber(buckets[i].Tasks, kanban.SetTaskPosition)
	}
	return Snapshot{BoardID: s.BoardID, Buckets: buckets}
}

func sameTaskPlacement(a, b Snapshot, bucketIDs []string) bool {
	for _, id := range bucketIDs {
		ai, aok := a.FindBucket(id)
		bi, bok := b.FindBucket(id)
		if aok != bok {
			return false
		}
		if !aok {
			continue
		}
		at, bt := a.Buckets[ai].Tasks, b.Buckets[bi].Tasks
		if len(at) != len(bt) {
			return false
		}
		for i := range at {
			if at[i].ID != bt[i].ID || at[i].Position != bt[i].Position {
				return false
			}
		}
	}
	return true
}

func sameBucketOrder(a, b Snapshot) bool {
	if len(a.Buckets) != len(b.Buckets) {
		return false
	}
	for i := range a.Buckets {
		if a.Buckets[i].ID != b.Buckets[i].ID || a.Buckets[i].Position != b.Buckets[i].Position {
			return false
		}
	}
	return true
}
