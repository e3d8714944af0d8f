package tasks

import (
	"time"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/status"
)

// CreateTaskRequest is the input of tasks.create. A nil Position appends.
type CreateTaskRequest struct {
	kanban.Caller
	Text        string  `json:"text"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
	BucketID    string  `json:"bucketId"`
}

// TaskIDRequest is the input of tasks.readOne and tasks.delete.
type TaskIDRequest struct {
	kanban.Caller
	TaskID string `json:"taskId"`
}

// UpdateTaskRequest is the full task form accepted by tasks.update. Child
// entries without an id are created; stored children missing from the form
// are deleted. Dates are yyyy-mm-dd in the caller's timezone or RFC 3339.
type UpdateTaskRequest struct {
	kanban.Caller
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	Description    *string           `json:"description"`
	Complete       bool              `json:"complete"`
	Priority       *string           `json:"priority"`
	StartDate      *string           `json:"startDate"`
	DueDate        *string           `json:"dueDate"`
	BucketID       string            `json:"bucketId"`
	CheckListItems []CheckListInput  `json:"checklistItems"`
	Comments       []CommentInput    `json:"comments"`
	TaskTags       []TaskTagInput    `json:"taskTag"`
	Attachments    []AttachmentInput `json:"attachments"`
}

type CheckListInput struct {
	ID       *string `json:"id"`
	Text     string  `json:"text"`
	Complete bool    `json:"complete"`
}

type CommentInput struct {
	ID     *string   `json:"id"`
	Text   string    `json:"text"`
	Posted time.Time `json:"posted"`
}

type TaskTagInput struct {
	Tag TagRef `json:"tag"`
}

type TagRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AttachmentInput struct {
	ID    *string   `json:"id"`
	Text  string    `json:"text"`
	Added time.Time `json:"added"`
	Link  LinkInput `json:"link"`
}

// LinkInput is the object triple returned by tasks.generateS3PresignedUrl.
type LinkInput struct {
	URL        string `json:"url"`
	BucketName string `json:"bucketName"`
	Key        string `json:"key"`
}

// UpdatePositionsRequest is the input of tasks.updatePositions.
type UpdatePositionsRequest struct {
	kanban.Caller
	Tasks []kanban.TaskPositionUpdate `json:"tasks"`
}

// StatusRequest is the input of tasks.status.
type StatusRequest struct {
	kanban.Caller
}

type StatusResponse = status.Report

// SendReportRequest is the input of tasks.sendReportEmail. Token must match
// the configured trigger token when one is set.
type SendReportRequest struct {
	Token string `json:"token"`
}

// SendReportResponse summarises a digest run.
type SendReportResponse struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Empty is returned by procedures without output.
type Empty struct{}
