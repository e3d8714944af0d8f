// Package events defines the integration events exchanged between modules.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// Change kinds carried by BoardChangedEvent.
const (
	KindBoard   = "board"
	KindBuckets = "buckets"
	KindTasks   = "tasks"
)

// BoardChangedEvent is emitted whenever a board, its buckets or its tasks change.
type BoardChangedEvent struct {
	BoardID   string    `json:"board_id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportSentEvent is emitted after a digest run.
type ReportSentEvent struct {
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	// BucketsChangedV1 is published by the boards module.
	BucketsChangedV1 = helper.EventDefinition[BoardChangedEvent](
		"boards",
		"BucketsChanged",
		"v1",
	)

	// TasksChangedV1 is published by the tasks module.
	TasksChangedV1 = helper.EventDefinition[BoardChangedEvent](
		"tasks",
		"TasksChanged",
		"v1",
	)

	ReportSentV1 = helper.EventDefinition[ReportSentEvent](
		"tasks",
		"ReportSent",
		"v1",
	)
)
