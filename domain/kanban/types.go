// Package kanban holds the board, bucket and task model shared by every module.
package kanban

import "errors"

var (
	// ErrNotFound is returned when an entity does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
)

// CompleteBucketName is the bucket a task moves to when it is completed.
const CompleteBucketName = "Complete"

// Caller identifies the authenticated user on every request-reply call.
// The HTTP layer sets it; clients cannot.
type Caller struct {
	UserID string `json:"caller_user_id"`
}

// TaskPositionUpdate is one entry of a task position batch.
type TaskPositionUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	BucketID string `json:"bucketId"`
}

// BucketPositionUpdate is one entry of a bucket position batch.
type BucketPositionUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// BoardSummary is the list view of a board.
type BoardSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Buckets     []BucketSummary `json:"buckets"`
}

type BucketSummary struct {
	Name  string        `json:"name"`
	Tasks []TaskSummary `json:"tasks"`
}

type TaskSummary struct {
	Text        string  `json:"text"`
	Description *string `json:"description"`
	Complete    bool    `json:"complete"`
}
