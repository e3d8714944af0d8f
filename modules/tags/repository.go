package tags

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fillip1984/inveniam/domain/kanban"
)

var (
	errTagNotFound = fmt.Errorf("tag %w", kanban.ErrNotFound)
	errTagExists   = fmt.Errorf("%w: tag name already exists", kanban.ErrValidation)
)

// Repository provides access to tags.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tag repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new tag.
func (r *Repository) Create(tag *kanban.Tag) error {
	if err := r.db.Create(tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errTagExists
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// FindAll returns the user's tags ordered by name.
func (r *Repository) FindAll(userID string) ([]kanban.Tag, error) {
	var tags []kanban.Tag
	if err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	return tags, nil
}

// FindByID retrieves a tag owned by the user.
func (r *Repository) FindByID(userID, id string) (*kanban.Tag, error) {
	var tag kanban.Tag
	if err := r.db.First(&tag, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errTagNotFound
		}
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}
	return &tag, nil
}

// Update changes the name and description of a tag.
func (r *Repository) Update(tag *kanban.Tag) error {
	result := r.db.Model(&kanban.Tag{}).
		Where("id = ? AND user_id = ?", tag.ID, tag.UserID).
		Updates(map[string]any{"name": tag.Name, "description": tag.Description})
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errTagExists
		}
		return fmt.Errorf("failed to update tag: %w", err)
	}
	if result.RowsAffected == 0 {
		return errTagNotFound
	}
	return nil
}

// Delete removes a tag and its task associations.
func (r *Repository) Delete(userID, id string) (*kanban.Tag, error) {
	var tag kanban.Tag
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errTagNotFound
			}
			return fmt.Errorf("failed to find tag: %w", err)
		}
		if err := tx.Where("tag_id = ?", id).Delete(&kanban.TaskTag{}).Error; err != nil {
			return fmt.Errorf("failed to delete tag associations: %w", err)
		}
		if err := tx.Delete(&kanban.Tag{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}
