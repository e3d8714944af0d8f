package kanban

import (
	"fmt"
	"strings"
)

// Priority is an optional ordinal task priority.
type Priority string

const (
	PriorityLowest  Priority = "LOWEST"
	PriorityLow     Priority = "LOW"
	PriorityMedium  Priority = "MEDIUM"
	PriorityHigh    Priority = "HIGH"
	PriorityHighest Priority = "HIGHEST"
)

// Rank orders priorities from 1 (lowest) to 5 (highest); unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHighest:
		return 5
	case PriorityHigh:
		return 4
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 2
	case PriorityLowest:
		return 1
	default:
		return 0
	}
}

// ParsePriority normalises a priority name. An empty string yields nil.
func ParsePriority(s string) (*Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	p := Priority(strings.ToUpper(s))
	if p.Rank() == 0 {
		return nil, fmt.Errorf("unknown priority %q", s)
	}
	return &p, nil
}

// ComparePriority sorts prioritised tasks before unprioritised ones and higher
// priorities first. It returns a negative number when a sorts before b.
func ComparePriority(a, b *Priority) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a != nil && b == nil:
		return -1
	case a == nil && b != nil:
		return 1
	}
	return b.Rank() - a.Rank()
}
