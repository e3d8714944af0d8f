package boards

import "github.com/fillip1984/inveniam/domain/kanban"

// CreateBoardRequest is the input of boards.create.
type CreateBoardRequest struct {
	kanban.Caller
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ReadAllRequest is the input of boards.readAll.
type ReadAllRequest struct {
	kanban.Caller
}

type ReadAllResponse []kanban.BoardSummary

// ReadOneRequest is the input of boards.readOne.
type ReadOneRequest struct {
	kanban.Caller
	ID     string  `json:"id"`
	Search *string `json:"search"`
}

// UpdateBoardRequest is the input of boards.update.
type UpdateBoardRequest struct {
	kanban.Caller
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DeleteBoardRequest is the input of boards.delete.
type DeleteBoardRequest struct {
	kanban.Caller
	ID string `json:"id"`
}

// Empty is returned by procedures without output.
type Empty struct{}

// AddBucketRequest is the input of boards.addBucket. A nil Position appends.
type AddBucketRequest struct {
	kanban.Caller
	BucketName string `json:"bucketName"`
	Position   *int   `json:"position"`
	BoardID    string `json:"boardId"`
}

// RemoveBucketRequest is the input of boards.removeBucket.
type RemoveBucketRequest struct {
	kanban.Caller
	BucketID string `json:"bucketId"`
}

// UpdateBucketPositionsRequest is the input of boards.updateBucketPositions.
type UpdateBucketPositionsRequest struct {
	kanban.Caller
	Buckets []kanban.BucketPositionUpdate `json:"buckets"`
}

// ReadAllBucketsRequest is the input of boards.readAllBuckets.
type ReadAllBucketsRequest struct {
	kanban.Caller
	BoardID string `json:"boardId"`
}

// BucketOption is one entry of boards.readAllBuckets.
type BucketOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ReadAllBucketsResponse []BucketOption
