package search

import (
	"strings"

	"github.com/fillip1984/inveniam/domain/kanban"
)

// Matches reports whether a task satisfies the query: the residual text must
// occur in the task text or description (case-insensitive) and the predicate
// must hold.
func (q Query) Matches(t kanban.Task) bool {
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		inText := strings.Contains(strings.ToLower(t.Text), needle)
		inDesc := t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
		if !inText && !inDesc {
			return false
		}
	}

	switch q.Predicate.Kind {
	case KindNoDueDate:
		return t.DueDate == nil
	case KindDueToday, KindDueThisWeek, KindOverdue:
		return t.DueDate != nil && q.Predicate.Due.Contains(*t.DueDate)
	case KindTag:
		for _, tt := range t.Tags {
			if tt.Tag.Name == q.Predicate.Tag {
				return true
			}
		}
		return false
	}
	return true
}

// Filter returns the tasks matching q, preserving order.
func (q Query) Filter(tasks []kanban.Task) []kanban.Task {
	out := make([]kanban.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
