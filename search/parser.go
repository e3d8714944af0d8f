// Package search parses the board search mini-language.
//
// A query is free text with at most one embedded directive:
//
//	due:"none"  due:"today"  due:"this week"  due:"past"  tag:"<name>"
//
// Directives are checked in that order and only the first match is applied;
// any other directive text stays in the residual free text.
package search

import (
	"strings"
	"time"

	"github.com/fillip1984/inveniam/calendar"
)

// Kind identifies the structured predicate extracted from a query.
type Kind string

const (
	KindNone        Kind = ""
	KindNoDueDate   Kind = "no-due-date"
	KindDueToday    Kind = "due-today"
	KindDueThisWeek Kind = "due-this-week"
	KindOverdue     Kind = "overdue"
	KindTag         Kind = "tag-equals"
)

// Predicate is the structured part of a query.
type Predicate struct {
	Kind Kind `json:"kind"`
	// Due is set for the date kinds other than KindNoDueDate.
	Due *calendar.Range `json:"due,omitempty"`
	// Tag is set for KindTag.
	Tag string `json:"tag,omitempty"`
}

// Empty reports whether no directive was recognised.
func (p Predicate) Empty() bool {
	return p.Kind == KindNone
}

// Query is a parsed search string.
type Query struct {
	Text      string    `json:"text"`
	Predicate Predicate `json:"predicate"`
}

type dueDirective struct {
	token string
	kind  Kind
	rng   func(now time.Time, loc *time.Location) calendar.Range
}

var dueDirectives = []dueDirective{
	{`due:"none"`, KindNoDueDate, nil},
	{`due:"today"`, KindDueToday, calendar.Today},
	{`due:"this week"`, KindDueThisWeek, calendar.ThisWeek},
	{`due:"past"`, KindOverdue, calendar.Past},
}

const tagPrefix = `tag:"`

// Parse splits input into residual text and at most one predicate. Date
// directives resolve against now in loc.
func Parse(input string, now time.Time, loc *time.Location) Query {
	if loc == nil {
		loc = time.UTC
	}

	for _, d := range dueDirectives {
		idx := strings.Index(input, d.token)
		if idx < 0 {
			continue
		}
		pred := Predicate{Kind: d.kind}
		if d.rng != nil {
			r := d.rng(now, loc)
			pred.Due = &r
		}
		return Query{
			Text:      cut(input, idx, idx+len(d.token)),
			Predicate: pred,
		}
	}

	if idx := strings.Index(input, tagPrefix); idx >= 0 {
		nameStart := idx + len(tagPrefix)
		if closing := strings.IndexByte(input[nameStart:], '"'); closing >= 0 {
			name := input[nameStart : nameStart+closing]
			if name != "" {
				return Query{
					Text:      cut(input, idx, nameStart+closing+1),
					Predicate: Predicate{Kind: KindTag, Tag: name},
				}
			}
		}
	}

	return Query{Text: strings.TrimSpace(input)}
}

// cut removes input[from:to] and joins the remaining halves with one space.
func cut(input string, from, to int) string {
	left := strings.TrimSpace(input[:from])
	right := strings.TrimSpace(input[to:])
	switch {
	case left == "":
		return right
	case right == "":
		return left
	default:
		return left + " " + right
	}
}
