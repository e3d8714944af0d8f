package drag

import (
	"context"
	"fmt"
	"sync"

	"github.com/fillip1984/inveniam/domain/kanban"
)

// Persister stores position batches. Each call is one server transaction.
type Persister interface {
	UpdateTaskPositions(ctx context.Context, tasks []kanban.TaskPositionUpdate) error
	UpdateBucketPositions(ctx context.Context, buckets []kanban.BucketPositionUpdate) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithActivationDistance overrides DefaultActivationDistance.
func WithActivationDistance(d float64) Option {
	return func(c *Controller) { c.session.ActivationDistance = d }
}

// WithClickHandler sets the callback for presses released before activation.
func WithClickHandler(fn func(Item)) Option {
	return func(c *Controller) { c.onClick = fn }
}

// Controller runs the reducer and executes its commands. It is safe for
// concurrent use; events are applied one at a time.
type Controller struct {
	mu        sync.Mutex
	session   Session
	persister Persister
	onClick   func(Item)
}

// NewController creates a controller over the confirmed snapshot snap.
func NewController(snap Snapshot, p Persister, opts ...Option) *Controller {
	c := &Controller{
		session:   NewSession(snap, DefaultActivationDistance),
		persister: p,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session.ActivationDistance <= 0 {
		c.session.ActivationDistance = DefaultActivationDistance
	}
	return c
}

// Dispatch applies e and executes the resulting commands. A failed
// persistence call restores the confirmed snapshot and is returned.
func (c *Controller) Dispatch(ctx context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, cmds := Reduce(c.session, e)
	c.session = next

	for _, cmd := range cmds {
		if err := c.execute(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) execute(ctx context.Context, cmd Command) error {
	var err error
	switch cmd := cmd.(type) {
	case Click:
		if c.onClick != nil {
			c.onClick(cmd.Item)
		}
		return nil
	case PersistTaskPositions:
		err = c.persister.UpdateTaskPositions(ctx, cmd.Tasks)
	case PersistBucketPositions:
		err = c.persister.UpdateBucketPositions(ctx, cmd.Buckets)
	default:
		return fmt.Errorf("unknown drag command %T", cmd)
	}

	if err != nil {
		c.session, _ = Reduce(c.session, CommitFailed{Err: err})
		return fmt.Errorf("failed to persist positions: %w", err)
	}
	c.session, _ = Reduce(c.session, CommitSucceeded{})
	return nil
}

// Snapshot returns the snapshot to display.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.View()
}

// State returns the current gesture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State
}

// Reset replaces the confirmed snapshot, abandoning any gesture in progress.
func (c *Controller) Reset(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = NewSession(snap, c.session.ActivationDistance)
}

// MoveTask runs a complete drag of taskID onto over.
func (c *Controller) MoveTask(ctx context.Context, taskID string, over Item) error {
	return c.gesture(ctx, TaskItem(taskID), over)
}

// MoveBucket runs a complete drag of bucketID onto over.
func (c *Controller) MoveBucket(ctx context.Context, bucketID string, over Item) error {
	return c.gesture(ctx, BucketItem(bucketID), over)
}

func (c *Controller) gesture(ctx context.Context, item Item, over Item) error {
	c.mu.Lock()
	d := c.session.ActivationDistance
	c.mu.Unlock()

	steps := []Event{
		PointerDown{Item: item},
		PointerMove{At: Point{X: d + 1}},
		Hover{Over: over},
	}
	for _, e := range steps {
		if err := c.Dispatch(ctx, e); err != nil {
			return err
		}
	}
	if c.State() != Dragging {
		if item.Kind == KindBucket {
			return fmt.Errorf("%w: %s", ErrBucketNotFound, item.ID)
		}
		return fmt.Errorf("%w: %s", ErrTaskNotFound, item.ID)
	}
	return c.Dispatch(ctx, Release{Over: &over})
}
