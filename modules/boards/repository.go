package boards

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/reorder"
	"github.com/fillip1984/inveniam/store"
)

var (
	errBoardNotFound  = fmt.Errorf("board %w", kanban.ErrNotFound)
	errBucketNotFound = fmt.Errorf("bucket %w", kanban.ErrNotFound)
)

// Repository provides access to boards and buckets.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new board repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func byCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// Create saves a new board.
func (r *Repository) Create(board *kanban.Board) error {
	if err := r.db.Create(board).Error; err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}
	return nil
}

// FindAll returns a user's boards ordered by name descending, with buckets
// and tasks in position order.
func (r *Repository) FindAll(userID string) ([]kanban.Board, error) {
	var boards []kanban.Board
	if err := r.db.
		Preload("Buckets", byPosition).
		Preload("Buckets.Tasks", byPosition).
		Where("user_id = ?", userID).
		Order("name DESC").
		Find(&boards).Error; err != nil {
		return nil, fmt.Errorf("failed to find boards: %w", err)
	}
	return boards, nil
}

// FindTree loads a board with its complete bucket and task tree.
func (r *Repository) FindTree(userID, id string) (*kanban.Board, error) {
	var board kanban.Board
	if err := r.db.
		Preload("Buckets", byPosition).
		Preload("Buckets.Tasks", byPosition).
		Preload("Buckets.Tasks.CheckListItems", byCreation).
		Preload("Buckets.Tasks.Comments", byCreation).
		Preload("Buckets.Tasks.Attachments", byCreation).
		Preload("Buckets.Tasks.Attachments.Link").
		Preload("Buckets.Tasks.Tags.Tag").
		First(&board, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}
	return &board, nil
}

// FindByID retrieves a board without children.
func (r *Repository) FindByID(userID, id string) (*kanban.Board, error) {
	var board kanban.Board
	if err := r.db.First(&board, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}
	return &board, nil
}

// Update changes the name and description of a board.
func (r *Repository) Update(board *kanban.Board) error {
	result := r.db.Model(&kanban.Board{}).
		Where("id = ? AND user_id = ?", board.ID, board.UserID).
		Updates(map[string]any{"name": board.Name, "description": board.Description})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	if result.RowsAffected == 0 {
		return errBoardNotFound
	}
	return nil
}

// Delete removes a board with all of its buckets, tasks and task children.
func (r *Repository) Delete(userID, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var board kanban.Board
		if err := tx.Select("id").First(&board, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errBoardNotFound
			}
			return fmt.Errorf("failed to find board: %w", err)
		}

		var bucketIDs []string
		if err := tx.Model(&kanban.Bucket{}).Where("board_id = ?", id).Pluck("id", &bucketIDs).Error; err != nil {
			return fmt.Errorf("failed to load buckets: %w", err)
		}
		if err := deleteBucketTasks(tx, bucketIDs); err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&kanban.Bucket{}).Error; err != nil {
			return fmt.Errorf("failed to delete buckets: %w", err)
		}
		if err := tx.Delete(&kanban.Board{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete board: %w", err)
		}
		return nil
	})
}

// AddBucket inserts a bucket at the clamped position, or appends when
// position is nil.
func (r *Repository) AddBucket(userID, boardID, name string, position *int) (*kanban.Bucket, error) {
	bucket := &kanban.Bucket{
		ID:      uuid.New().String(),
		Name:    name,
		BoardID: boardID,
		UserID:  userID,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&kanban.Board{}).Where("id = ? AND user_id = ?", boardID, userID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to find board: %w", err)
		}
		if n == 0 {
			return errBoardNotFound
		}

		count, err := store.CountBuckets(tx, boardID)
		if err != nil {
			return err
		}
		bucket.Position = count
		if position != nil {
			bucket.Position = reorder.Clamp(*position, count)
		}
		if err := store.ShiftBuckets(tx, boardID, bucket.Position); err != nil {
			return err
		}
		if err := tx.Create(bucket).Error; err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

// RemoveBucket deletes a bucket and its tasks, then renumbers the remaining
// buckets of the board.
func (r *Repository) RemoveBucket(userID, bucketID string) (*kanban.Bucket, error) {
	var bucket kanban.Bucket
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bucket, "id = ? AND user_id = ?", bucketID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errBucketNotFound
			}
			return fmt.Errorf("failed to find bucket: %w", err)
		}
		if err := deleteBucketTasks(tx, []string{bucketID}); err != nil {
			return err
		}
		if err := tx.Delete(&kanban.Bucket{}, "id = ?", bucketID).Error; err != nil {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		return store.NormalizeBuckets(tx, bucket.BoardID)
	})
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

// UpdateBucketPositions applies a position batch in one transaction and
// re-normalises every affected board. It returns the affected board ids.
func (r *Repository) UpdateBucketPositions(userID string, updates []kanban.BucketPositionUpdate) ([]string, error) {
	var boardIDs []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		seen := map[string]bool{}
		for _, u := range updates {
			var bucket kanban.Bucket
			if err := tx.Select("id", "board_id").First(&bucket, "id = ? AND user_id = ?", u.ID, userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", errBucketNotFound, u.ID)
				}
				return fmt.Errorf("failed to find bucket: %w", err)
			}
			if err := tx.Model(&kanban.Bucket{}).Where("id = ?", u.ID).Update("position", u.Position).Error; err != nil {
				return fmt.Errorf("failed to update bucket position: %w", err)
			}
			if !seen[bucket.BoardID] {
				seen[bucket.BoardID] = true
				boardIDs = append(boardIDs, bucket.BoardID)
			}
		}
		for _, id := range boardIDs {
			if err := store.NormalizeBuckets(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return boardIDs, nil
}

// FindBuckets lists the buckets of a board in position order.
func (r *Repository) FindBuckets(userID, boardID string) ([]kanban.Bucket, error) {
	var buckets []kanban.Bucket
	if err := byPosition(r.db.Select("id", "name", "position").
		Where("board_id = ? AND user_id = ?", boardID, userID)).
		Find(&buckets).Error; err != nil {
		return nil, fmt.Errorf("failed to find buckets: %w", err)
	}
	return buckets, nil
}

func deleteBucketTasks(tx *gorm.DB, bucketIDs []string) error {
	if len(bucketIDs) == 0 {
		return nil
	}
	var taskIDs []string
	if err := tx.Model(&kanban.Task{}).Where("bucket_id IN ?", bucketIDs).Pluck("id", &taskIDs).Error; err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	if err := store.DeleteTaskChildren(tx, taskIDs); err != nil {
		return err
	}
	if err := tx.Where("bucket_id IN ?", bucketIDs).Delete(&kanban.Task{}).Error; err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	return nil
}
