package admin

import (
	"time"

	"github.com/fillip1984/inveniam/domain/kanban"
)

// ExportRequest is the input of admin.export.
type ExportRequest struct {
	kanban.Caller
}

// ImportRequest is the input of admin.import. Data holds an export document
// as a JSON string.
type ImportRequest struct {
	kanban.Caller
	Data string `json:"data"`
}

// ImportResponse counts the rows created by an import.
type ImportResponse struct {
	Boards  int `json:"boards"`
	Buckets int `json:"buckets"`
	Tasks   int `json:"tasks"`
}

// ExportBoard is one board of an export document.
type ExportBoard struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Buckets     []ExportBucket `json:"buckets"`
}

type ExportBucket struct {
	Name     string       `json:"name"`
	Position int          `json:"position"`
	Tasks    []ExportTask `json:"tasks"`
}

type ExportTask struct {
	Text        string     `json:"text"`
	Description *string    `json:"description"`
	Position    int        `json:"position"`
	StartDate   *time.Time `json:"startDate"`
	DueDate     *time.Time `json:"dueDate"`
}

type ExportResponse []ExportBoard
