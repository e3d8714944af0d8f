package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fillip1984/inveniam/domain/kanban"
)

// NormalizeBuckets renumbers the buckets of a board 0..n-1 ordered by
// (position, id). Only rows whose position changes are written.
func NormalizeBuckets(tx *gorm.DB, boardID string) error {
	var buckets []kanban.Bucket
	if err := tx.Select("id", "position").
		Where("board_id = ?", boardID).
		Order("position ASC, id ASC").
		Find(&buckets).Error; err != nil {
		return fmt.Errorf("failed to load buckets: %w", err)
	}
	for i, b := range buckets {
		if b.Position == i {
			continue
		}
		if err := tx.Model(&kanban.Bucket{}).Where("id = ?", b.ID).Update("position", i).Error; err != nil {
			return fmt.Errorf("failed to renumber bucket: %w", err)
		}
	}
	return nil
}

// NormalizeTasks renumbers the tasks of a bucket 0..n-1 ordered by
// (position, id).
func NormalizeTasks(tx *gorm.DB, bucketID string) error {
	var tasks []kanban.Task
	if err := tx.Select("id", "position").
		Where("bucket_id = ?", bucketID).
		Order("position ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	for i, t := range tasks {
		if t.Position == i {
			continue
		}
		if err := tx.Model(&kanban.Task{}).Where("id = ?", t.ID).Update("position", i).Error; err != nil {
			return fmt.Errorf("failed to renumber task: %w", err)
		}
	}
	return nil
}

// ShiftBuckets opens a gap at position in a board by incrementing every
// bucket at or after it.
func ShiftBuckets(tx *gorm.DB, boardID string, position int) error {
	if err := tx.Model(&kanban.Bucket{}).
		Where("board_id = ? AND position >= ?", boardID, position).
		Update("position", gorm.Expr("position + 1")).Error; err != nil {
		return fmt.Errorf("failed to shift buckets: %w", err)
	}
	return nil
}

// ShiftTasks opens a gap at position in a bucket.
func ShiftTasks(tx *gorm.DB, bucketID string, position int) error {
	if err := tx.Model(&kanban.Task{}).
		Where("bucket_id = ? AND position >= ?", bucketID, position).
		Update("position", gorm.Expr("position + 1")).Error; err != nil {
		return fmt.Errorf("failed to shift tasks: %w", err)
	}
	return nil
}

// CountBuckets returns the number of buckets in a board.
func CountBuckets(tx *gorm.DB, boardID string) (int, error) {
	var n int64
	if err := tx.Model(&kanban.Bucket{}).Where("board_id = ?", boardID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count buckets: %w", err)
	}
	return int(n), nil
}

// CountTasks returns the number of tasks in a bucket.
func CountTasks(tx *gorm.DB, bucketID string) (int, error) {
	var n int64
	if err := tx.Model(&kanban.Task{}).Where("bucket_id = ?", bucketID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return int(n), nil
}

// DeleteTaskChildren removes the rows owned by the given tasks.
func DeleteTaskChildren(tx *gorm.DB, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	var linkIDs []string
	if err := tx.Model(&kanban.Attachment{}).Where("task_id IN ?", taskIDs).Pluck("link_id", &linkIDs).Error; err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}
	for _, model := range []any{&kanban.CheckListItem{}, &kanban.Comment{}, &kanban.Attachment{}, &kanban.TaskTag{}} {
		if err := tx.Where("task_id IN ?", taskIDs).Delete(model).Error; err != nil {
			return fmt.Errorf("failed to delete task children: %w", err)
		}
	}
	if len(linkIDs) > 0 {
		if err := tx.Where("id IN ?", linkIDs).Delete(&kanban.StoredObject{}).Error; err != nil {
			return fmt.Errorf("failed to delete stored objects: %w", err)
		}
	}
	return nil
}
