package drag

import (
	"math"
	"slices"

	"github.com/fillip1984/inveniam/domain/kanban"
)

// DefaultActivationDistance is the distance the pointer must exceed before a
// press becomes a drag.
const DefaultActivationDistance = 10

type State int

const (
	Idle State = iota
	Pressed
	Dragging
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

type ItemKind int

const (
	KindTask ItemKind = iota
	KindBucket
)

// Item is a draggable element or a drop target.
type Item struct {
	Kind ItemKind
	ID   string
}

func TaskItem(id string) Item   { return Item{Kind: KindTask, ID: id} }
func BucketItem(id string) Item { return Item{Kind: KindBucket, ID: id} }

// Point is a pointer coordinate.
type Point struct {
	X, Y float64
}

func (p Point) distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Event drives the reducer.
type Event interface {
	event()
}

type (
	PointerDown struct {
		Item Item
		At   Point
	}
	PointerMove struct {
		At Point
	}
	// Hover reports the element currently under the dragged item.
	Hover struct {
		Over Item
	}
	// Release ends the gesture. Over is nil when dropped outside any target.
	Release struct {
		Over *Item
	}
	Cancel          struct{}
	CommitSucceeded struct{}
	CommitFailed    struct {
		Err error
	}
)

func (PointerDown) event()     {}
func (PointerMove) event()     {}
func (Hover) event()           {}
func (Release) event()         {}
func (Cancel) event()          {}
func (CommitSucceeded) event() {}
func (CommitFailed) event()    {}

// Command is a side effect requested by the reducer.
type Command interface {
	command()
}

type (
	// Click is emitted when a press is released before activation.
	Click struct {
		Item Item
	}
	PersistTaskPositions struct {
		Tasks []kanban.TaskPositionUpdate
	}
	PersistBucketPositions struct {
		Buckets []kanban.BucketPositionUpdate
	}
)

func (Click) command()                  {}
func (PersistTaskPositions) command()   {}
func (PersistBucketPositions) command() {}

// Session is the reducer state. Base is the last snapshot confirmed by the
// server; Working is the optimistic view during a gesture.
type Session struct {
	State              State
	Base               Snapshot
	Working            Snapshot
	Active             Item
	Over               Item
	Origin             Point
	Touched            []string
	ActivationDistance float64
	LastError          error
}

// NewSession starts an idle session over snap.
func NewSession(snap Snapshot, activationDistance float64) Session {
	if activationDistance <= 0 {
		activationDistance = DefaultActivationDistance
	}
	return Session{State: Idle, Base: snap, Working: snap, ActivationDistance: activationDistance}
}

// View is the snapshot to display.
func (s Session) View() Snapshot {
	if s.State == Dragging || s.State == Committing {
		return s.Working
	}
	return s.Base
}

// Reduce applies e to s. Events that do not apply to the current state are
// ignored and return s unchanged.
func Reduce(s Session, e Event) (Session, []Command) {
	switch s.State {
	case Idle:
		if ev, ok := e.(PointerDown); ok {
			if !s.exists(ev.Item) {
				return s, nil
			}
			s.State = Pressed
			s.Active = ev.Item
			s.Origin = ev.At
			s.Working = s.Base
			s.Touched = nil
			s.LastError = nil
		}
		return s, nil

	case Pressed:
		switch ev := e.(type) {
		case PointerMove:
			if ev.At.distance(s.Origin) <= s.ActivationDistance {
				return s, nil
			}
			s.State = Dragging
			if s.Active.Kind == KindTask {
				if b, ok := s.Base.BucketOf(s.Active); ok {
					s.Touched = []string{b}
				}
			}
			return s, nil
		case Release:
			item := s.Active
			return s.reset(), []Command{Click{Item: item}}
		case Cancel:
			return s.reset(), nil
		}
		return s, nil

	case Dragging:
		switch ev := e.(type) {
		case Hover:
			return s.hover(ev.Over), nil
		case Release:
			if ev.Over == nil {
				return s.reset(), nil
			}
			return s.release(*ev.Over)
		case Cancel:
			return s.reset(), nil
		}
		return s, nil

	case Committing:
		switch ev := e.(type) {
		case CommitSucceeded:
			s.Base = s.Working
			return s.reset(), nil
		case CommitFailed:
			s = s.reset()
			s.LastError = ev.Err
			return s, nil
		}
		return s, nil
	}
	return s, nil
}

func (s Session) reset() Session {
	s.State = Idle
	s.Working = s.Base
	s.Active = Item{}
	s.Over = Item{}
	s.Origin = Point{}
	s.Touched = nil
	return s
}

func (s Session) exists(it Item) bool {
	_, ok := s.Base.BucketOf(it)
	return ok
}

// hover applies live task reordering when the element under the pointer
// changes. Bucket drags reorder only on release.
func (s Session) hover(over Item) Session {
	if s.Active.Kind != KindTask || over == s.Active || over == s.Over {
		return s
	}
	s.Over = over
	if _, ok := s.Working.BucketOf(s.Active); !ok {
		return s
	}

	var (
		next Snapshot
		err  error
	)
	switch over.Kind {
	case KindBucket:
		// Dropping on a bucket, including the task's own, appends.
		bi, found := s.Working.FindBucket(over.ID)
		if !found {
			return s
		}
		next, err = s.Working.MoveTask(s.Active.ID, over.ID, len(s.Working.Buckets[bi].Tasks))
	case KindTask:
		bi, ti, found := s.Working.FindTask(over.ID)
		if !found {
			return s
		}
		next, err = s.Working.MoveTask(s.Active.ID, s.Working.Buckets[bi].ID, ti)
	}
	if err != nil {
		return s
	}

	s.Working = next
	if dst, ok := next.BucketOf(s.Active); ok && !slices.Contains(s.Touched, dst) {
		s.Touched = append(slices.Clone(s.Touched), dst)
	}
	return s
}

func (s Session) release(over Item) (Session, []Command) {
	if _, ok := s.Working.BucketOf(over); !ok {
		return s.reset(), nil
	}
	if s.Active.Kind == KindTask {
		s = s.hover(over)
		if sameTaskPlacement(s.Working, s.Base, s.Touched) {
			return s.reset(), nil
		}
		s.State = Committing
		return s, []Command{PersistTaskPositions{Tasks: s.Working.TaskPositions(s.Touched)}}
	}

	target, _ := s.Working.BucketOf(over)
	index, _ := s.Working.FindBucket(target)
	next, err := s.Working.MoveBucket(s.Active.ID, index)
	if err != nil || sameBucketOrder(next, s.Base) {
		return s.reset(), nil
	}
	s.Working = next
	s.State = Committing
	return s, []Command{PersistBucketPositions{Buckets: next.BucketPositions()}}
}
