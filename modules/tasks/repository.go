package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/reorder"
	"github.com/fillip1984/inveniam/store"
)

var (
	errTaskNotFound   = fmt.Errorf("task %w", kanban.ErrNotFound)
	errBucketNotFound = fmt.Errorf("bucket %w", kanban.ErrNotFound)
	errTagNotFound    = fmt.Errorf("tag %w", kanban.ErrNotFound)
)

// Repository provides access to tasks and their children.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func byCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func findBucket(tx *gorm.DB, userID, bucketID string) (*kanban.Bucket, error) {
	var bucket kanban.Bucket
	if err := tx.First(&bucket, "id = ? AND user_id = ?", bucketID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBucketNotFound
		}
		return nil, fmt.Errorf("failed to find bucket: %w", err)
	}
	return &bucket, nil
}

func findTask(tx *gorm.DB, userID, taskID string) (*kanban.Task, error) {
	var task kanban.Task
	if err := tx.First(&task, "id = ? AND user_id = ?", taskID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Create inserts a task at the clamped position of its bucket, or appends
// when position is nil.
func (r *Repository) Create(task *kanban.Task, position *int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findBucket(tx, task.UserID, task.BucketID); err != nil {
			return err
		}
		count, err := store.CountTasks(tx, task.BucketID)
		if err != nil {
			return err
		}
		task.Position = count
		if position != nil {
			task.Position = reorder.Clamp(*position, count)
		}
		if err := store.ShiftTasks(tx, task.BucketID, task.Position); err != nil {
			return err
		}
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
}

// FindTree loads a task with its children and bucket reference.
func (r *Repository) FindTree(userID, taskID string) (*kanban.Task, error) {
	var task kanban.Task
	if err := r.db.
		Preload("CheckListItems", byCreation).
		Preload("Comments", byCreation).
		Preload("Attachments", byCreation).
		Preload("Attachments.Link").
		Preload("Tags.Tag").
		First(&task, "id = ? AND user_id = ?", taskID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	var bucket kanban.Bucket
	if err := r.db.Select("id", "name").First(&bucket, "id = ?", task.BucketID).Error; err != nil {
		return nil, fmt.Errorf("failed to find task bucket: %w", err)
	}
	task.Bucket = &kanban.BucketRef{ID: bucket.ID, Name: bucket.Name}
	return &task, nil
}

// BoardOf returns the board id of a bucket.
func (r *Repository) BoardOf(bucketID string) (string, error) {
	var bucket kanban.Bucket
	if err := r.db.Select("board_id").First(&bucket, "id = ?", bucketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errBucketNotFound
		}
		return "", fmt.Errorf("failed to find bucket: %w", err)
	}
	return bucket.BoardID, nil
}

// TaskChanges is the validated form applied by Update.
type TaskChanges struct {
	ID          string
	UserID      string
	Text        string
	Description *string
	Complete    bool
	Priority    *kanban.Priority
	StartDate   *time.Time
	DueDate     *time.Time
	BucketID    string
	CheckList   []CheckListInput
	Comments    []CommentInput
	TagIDs      []string
	Attachments []AttachmentInput
}

// UpdateResult reports where an updated task ended up.
type UpdateResult struct {
	FromBucketID string
	ToBucketID   string
	BoardID      string
}

// Update applies a task form in one transaction. Children are diffed against
// the stored rows. A completed task moves to the end of its board's
// "Complete" bucket when one exists; any bucket change appends the task to
// the target and renumbers the source.
func (r *Repository) Update(c TaskChanges) (*UpdateResult, error) {
	var res UpdateResult
	err := r.db.Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, c.UserID, c.ID)
		if err != nil {
			return err
		}
		target, err := findBucket(tx, c.UserID, c.BucketID)
		if err != nil {
			return err
		}
		if c.Complete {
			var done kanban.Bucket
			err := tx.Select("id", "board_id").
				Where("board_id = ? AND user_id = ? AND LOWER(name) = ?", target.BoardID, c.UserID, strings.ToLower(kanban.CompleteBucketName)).
				Order("position ASC").
				First(&done).Error
			switch {
			case err == nil:
				target = &done
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("failed to find complete bucket: %w", err)
			}
		}

		if err := diffCheckList(tx, c); err != nil {
			return err
		}
		if err := diffComments(tx, c); err != nil {
			return err
		}
		if err := diffTags(tx, c); err != nil {
			return err
		}
		if err := diffAttachments(tx, c); err != nil {
			return err
		}

		fields := map[string]any{
			"text":        c.Text,
			"description": c.Description,
			"complete":    c.Complete,
			"priority":    c.Priority,
			"start_date":  c.StartDate,
			"due_date":    c.DueDate,
		}
		moved := target.ID != task.BucketID
		if moved {
			count, err := store.CountTasks(tx, target.ID)
			if err != nil {
				return err
			}
			fields["bucket_id"] = target.ID
			fields["position"] = count
		}
		if err := tx.Model(&kanban.Task{}).Where("id = ?", c.ID).Updates(fields).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if moved {
			if err := store.NormalizeTasks(tx, task.BucketID); err != nil {
				return err
			}
		}

		res = UpdateResult{FromBucketID: task.BucketID, ToBucketID: target.ID, BoardID: target.BoardID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func diffCheckList(tx *gorm.DB, c TaskChanges) error {
	var stored []kanban.CheckListItem
	if err := tx.Where("task_id = ?", c.ID).Find(&stored).Error; err != nil {
		return fmt.Errorf("failed to load checklist: %w", err)
	}
	keep := map[string]bool{}
	for _, in := range c.CheckList {
		if in.ID != nil && *in.ID != "" {
			keep[*in.ID] = true
		}
	}
	existing := map[string]bool{}
	for _, item := range stored {
		existing[item.ID] = true
		if !keep[item.ID] {
			if err := tx.Delete(&kanban.CheckListItem{}, "id = ?", item.ID).Error; err != nil {
				return fmt.Errorf("failed to delete checklist item: %w", err)
			}
		}
	}
	for _, in := range c.CheckList {
		if in.ID != nil && existing[*in.ID] {
			if err := tx.Model(&kanban.CheckListItem{}).Where("id = ?", *in.ID).
				Updates(map[string]any{"text": in.Text, "complete": in.Complete}).Error; err != nil {
				return fmt.Errorf("failed to update checklist item: %w", err)
			}
			continue
		}
		item := kanban.CheckListItem{
			ID:       uuid.New().String(),
			Text:     in.Text,
			Complete: in.Complete,
			TaskID:   c.ID,
			UserID:   c.UserID,
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create checklist item: %w", err)
		}
	}
	return nil
}

func diffComments(tx *gorm.DB, c TaskChanges) error {
	var storedIDs []string
	if err := tx.Model(&kanban.Comment{}).Where("task_id = ?", c.ID).Pluck("id", &storedIDs).Error; err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	existing := map[string]bool{}
	for _, id := range storedIDs {
		existing[id] = true
	}
	keep := map[string]bool{}
	for _, in := range c.Comments {
		if in.ID != nil && existing[*in.ID] {
			keep[*in.ID] = true
			continue
		}
		posted := in.Posted
		if posted.IsZero() {
			posted = time.Now()
		}
		comment := kanban.Comment{
			ID:     uuid.New().String(),
			Text:   in.Text,
			Posted: posted.UTC(),
			TaskID: c.ID,
			UserID: c.UserID,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		keep[comment.ID] = true
	}
	for _, id := range storedIDs {
		if !keep[id] {
			if err := tx.Delete(&kanban.Comment{}, "id = ?", id).Error; err != nil {
				return fmt.Errorf("failed to delete comment: %w", err)
			}
		}
	}
	return nil
}

func diffTags(tx *gorm.DB, c TaskChanges) error {
	var storedIDs []string
	if err := tx.Model(&kanban.TaskTag{}).Where("task_id = ?", c.ID).Pluck("tag_id", &storedIDs).Error; err != nil {
		return fmt.Errorf("failed to load task tags: %w", err)
	}
	existing := map[string]bool{}
	for _, id := range storedIDs {
		existing[id] = true
	}
	want := map[string]bool{}
	for _, id := range c.TagIDs {
		if want[id] {
			continue
		}
		want[id] = true
		if existing[id] {
			continue
		}
		var n int64
		if err := tx.Model(&kanban.Tag{}).Where("id = ? AND user_id = ?", id, c.UserID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to find tag: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", errTagNotFound, id)
		}
		if err := tx.Create(&kanban.TaskTag{TaskID: c.ID, TagID: id}).Error; err != nil {
			return fmt.Errorf("failed to tag task: %w", err)
		}
	}
	for _, id := range storedIDs {
		if !want[id] {
			if err := tx.Where("task_id = ? AND tag_id = ?", c.ID, id).Delete(&kanban.TaskTag{}).Error; err != nil {
				return fmt.Errorf("failed to untag task: %w", err)
			}
		}
	}
	return nil
}

func diffAttachments(tx *gorm.DB, c TaskChanges) error {
	var stored []kanban.Attachment
	if err := tx.Where("task_id = ?", c.ID).Find(&stored).Error; err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}
	existing := map[string]bool{}
	for _, a := range stored {
		existing[a.ID] = true
	}
	keep := map[string]bool{}
	for _, in := range c.Attachments {
		if in.ID != nil && existing[*in.ID] {
			keep[*in.ID] = true
			continue
		}
		if in.Link.Key == "" || in.Link.BucketName == "" {
			return fmt.Errorf("%w: attachment link requires bucketName and key", kanban.ErrValidation)
		}
		link := kanban.StoredObject{
			ID:         uuid.New().String(),
			URL:        in.Link.URL,
			BucketName: in.Link.BucketName,
			Key:        in.Link.Key,
			UserID:     c.UserID,
		}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to create stored object: %w", err)
		}
		added := in.Added
		if added.IsZero() {
			added = time.Now()
		}
		attachment := kanban.Attachment{
			ID:     uuid.New().String(),
			Text:   in.Text,
			Added:  added.UTC(),
			TaskID: c.ID,
			LinkID: link.ID,
			UserID: c.UserID,
		}
		if err := tx.Create(&attachment).Error; err != nil {
			return fmt.Errorf("failed to create attachment: %w", err)
		}
	}
	for _, a := range stored {
		if keep[a.ID] {
			continue
		}
		if err := tx.Delete(&kanban.Attachment{}, "id = ?", a.ID).Error; err != nil {
			return fmt.Errorf("failed to delete attachment: %w", err)
		}
		if err := tx.Delete(&kanban.StoredObject{}, "id = ?", a.LinkID).Error; err != nil {
			return fmt.Errorf("failed to delete stored object: %w", err)
		}
	}
	return nil
}

// UpdatePositions applies a task position batch in one transaction and
// re-normalises every touched bucket, including the buckets tasks left. It
// returns the ids of the affected boards.
func (r *Repository) UpdatePositions(userID string, updates []kanban.TaskPositionUpdate) ([]string, error) {
	var boardIDs []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var touched []string
		seenBucket := map[string]bool{}
		seenBoard := map[string]bool{}
		touch := func(b *kanban.Bucket) {
			if !seenBucket[b.ID] {
				seenBucket[b.ID] = true
				touched = append(touched, b.ID)
			}
			if !seenBoard[b.BoardID] {
				seenBoard[b.BoardID] = true
				boardIDs = append(boardIDs, b.BoardID)
			}
		}

		for _, u := range updates {
			task, err := findTask(tx, userID, u.ID)
			if err != nil {
				return fmt.Errorf("%w: %s", err, u.ID)
			}
			dest, err := findBucket(tx, userID, u.BucketID)
			if err != nil {
				return fmt.Errorf("%w: %s", err, u.BucketID)
			}
			if task.BucketID != dest.ID {
				src, err := findBucket(tx, userID, task.BucketID)
				if err != nil {
					return err
				}
				touch(src)
			}
			touch(dest)
			if err := tx.Model(&kanban.Task{}).Where("id = ?", u.ID).
				Updates(map[string]any{"position": u.Position, "bucket_id": dest.ID}).Error; err != nil {
				return fmt.Errorf("failed to update task position: %w", err)
			}
		}
		for _, id := range touched {
			if err := store.NormalizeTasks(tx, id); err != nil {
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

// Delete removes a task with its children and renumbers its siblings.
func (r *Repository) Delete(userID, taskID string) (*kanban.Task, error) {
	var task *kanban.Task
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = findTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		if err := store.DeleteTaskChildren(tx, []string{taskID}); err != nil {
			return err
		}
		if err := tx.Delete(&kanban.Task{}, "id = ?", taskID).Error; err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return store.NormalizeTasks(tx, task.BucketID)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// FindDated returns the user's tasks that have a due date.
func (r *Repository) FindDated(userID string) ([]kanban.Task, error) {
	var tasks []kanban.Task
	if err := r.db.
		Select("id", "text", "description", "complete", "priority", "due_date").
		Where("user_id = ? AND due_date IS NOT NULL", userID).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}
