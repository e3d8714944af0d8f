// Package status builds the per-user task status report and its email rendering.
package status

import (
	"slices"
	"time"

	"github.com/fillip1984/inveniam/calendar"
	"github.com/fillip1984/inveniam/domain/kanban"
)

// TaskSummary is the report view of a task.
type TaskSummary struct {
	ID          string           `json:"id"`
	Text        string           `json:"text"`
	Description *string          `json:"description"`
	DueDate     *time.Time       `json:"dueDate"`
	Priority    *kanban.Priority `json:"priority"`
}

// Report partitions a user's tasks by due date relative to "now".
type Report struct {
	Overdue           []TaskSummary `json:"overdue"`
	DueToday          []TaskSummary `json:"dueToday"`
	Upcoming          []TaskSummary `json:"upcoming"`
	CompletedThisWeek []TaskSummary `json:"completedThisWeek"`
	GeneratedAt       time.Time     `json:"generatedAt"`
	Timezone          string        `json:"timezone"`
}

// Empty reports whether every partition is empty.
func (r Report) Empty() bool {
	return len(r.Overdue) == 0 && len(r.DueToday) == 0 &&
		len(r.Upcoming) == 0 && len(r.CompletedThisWeek) == 0
}

// Generate partitions tasks. Incomplete tasks land in at most one of
// overdue, dueToday and upcoming; completed tasks due this week land in
// completedThisWeek. Tasks without a due date are not reported.
func Generate(tasks []kanban.Task, now time.Time, loc *time.Location) Report {
	if loc == nil {
		loc = time.UTC
	}
	today := calendar.Today(now, loc)
	week := calendar.ThisWeek(now, loc)
	upcoming := calendar.Range{Start: today.End.Add(time.Nanosecond), End: week.End}

	r := Report{
		Overdue:           []TaskSummary{},
		DueToday:          []TaskSummary{},
		Upcoming:          []TaskSummary{},
		CompletedThisWeek: []TaskSummary{},
		GeneratedAt:       now.In(loc),
		Timezone:          loc.String(),
	}

	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		due := *t.DueDate
		s := summarize(t)
		if t.Complete {
			if week.Contains(due) {
				r.CompletedThisWeek = append(r.CompletedThisWeek, s)
			}
			continue
		}
		switch {
		case due.Before(today.Start):
			r.Overdue = append(r.Overdue, s)
		case today.Contains(due):
			r.DueToday = append(r.DueToday, s)
		case upcoming.Contains(due):
			r.Upcoming = append(r.Upcoming, s)
		}
	}

	for _, part := range [][]TaskSummary{r.Overdue, r.DueToday, r.Upcoming, r.CompletedThisWeek} {
		SortByPriority(part)
	}
	return r
}

// SortByPriority orders summaries highest priority first, unprioritised
// last, then by due date.
func SortByPriority(items []TaskSummary) {
	slices.SortStableFunc(items, func(a, b TaskSummary) int {
		if c := kanban.ComparePriority(a.Priority, b.Priority); c != 0 {
			return c
		}
		switch {
		case a.DueDate == nil || b.DueDate == nil:
			return 0
		case a.DueDate.Before(*b.DueDate):
			return -1
		case a.DueDate.After(*b.DueDate):
			return 1
		}
		return 0
	})
}

func summarize(t kanban.Task) TaskSummary {
	return TaskSummary{
		ID:          t.ID,
		Text:        t.Text,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
	}
}
