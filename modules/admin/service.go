package admin

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/reorder"
)

// Service exports and imports a user's boards.
type Service struct {
	db *gorm.DB
}

// NewService creates an admin service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Export returns every board of the user ordered by name, with buckets and
// tasks in position order.
func (s *Service) Export(userID string) ([]ExportBoard, error) {
	var boards []kanban.Board
	if err := s.db.
		Preload("Buckets", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }).
		Preload("Buckets.Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&boards).Error; err != nil {
		return nil, fmt.Errorf("failed to export boards: %w", err)
	}

	out := make([]ExportBoard, 0, len(boards))
	for _, b := range boards {
		eb := ExportBoard{Name: b.Name, Description: b.Description, Buckets: make([]ExportBucket, 0, len(b.Buckets))}
		for _, bk := range b.Buckets {
			ebk := ExportBucket{Name: bk.Name, Position: bk.Position, Tasks: make([]ExportTask, 0, len(bk.Tasks))}
			for _, t := range bk.Tasks {
				ebk.Tasks = append(ebk.Tasks, ExportTask{
					Text:        t.Text,
					Description: t.Description,
					Position:    t.Position,
					StartDate:   t.StartDate,
					DueDate:     t.DueDate,
				})
			}
			eb.Buckets = append(eb.Buckets, ebk)
		}
		out = append(out, eb)
	}
	return out, nil
}

// Import creates the boards of an export document for the user in one
// transaction. Positions are renumbered from the document's order, so gaps
// and duplicates in the input are tolerated.
func (s *Service) Import(userID, data string) (ImportResponse, error) {
	var doc []ExportBoard
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return ImportResponse{}, fmt.Errorf("%w: data is not an export document: %v", kanban.ErrValidation, err)
	}
	for _, b := range doc {
		if strings.TrimSpace(b.Name) == "" {
			return ImportResponse{}, fmt.Errorf("%w: board name is required", kanban.ErrValidation)
		}
	}

	var resp ImportResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, eb := range doc {
			board := kanban.Board{
				ID:          uuid.New().String(),
				Name:        strings.TrimSpace(eb.Name),
				Description: eb.Description,
				UserID:      userID,
			}
			if err := tx.Create(&board).Error; err != nil {
				return fmt.Errorf("failed to import board: %w", err)
			}
			resp.Boards++

			buckets := slices.Clone(eb.Buckets)
			slices.SortStableFunc(buckets, func(a, b ExportBucket) int { return a.Position - b.Position })
			buckets = reorder.Renumber(buckets, func(b ExportBucket, p int) ExportBucket { b.Position = p; return b })

			for _, ebk := range buckets {
				bucket := kanban.Bucket{
					ID:       uuid.New().String(),
					Name:     ebk.Name,
					Position: ebk.Position,
					BoardID:  board.ID,
					UserID:   userID,
				}
				if err := tx.Create(&bucket).Error; err != nil {
					return fmt.Errorf("failed to import bucket: %w", err)
				}
				resp.Buckets++

				tasks := slices.Clone(ebk.Tasks)
				slices.SortStableFunc(tasks, func(a, b ExportTask) int { return a.Position - b.Position })
				tasks = reorder.Renumber(tasks, func(t ExportTask, p int) ExportTask { t.Position = p; return t })

				for _, et := range tasks {
					task := kanban.Task{
						ID:          uuid.New().String(),
						Text:        et.Text,
						Description: et.Description,
						StartDate:   et.StartDate,
						DueDate:     et.DueDate,
						Position:    et.Position,
						BucketID:    bucket.ID,
						UserID:      userID,
					}
					if err := tx.Create(&task).Error; err != nil {
						return fmt.Errorf("failed to import task: %w", err)
					}
					resp.Tasks++
				}
			}
		}
		return nil
	})
	if err != nil {
		return ImportResponse{}, err
	}
	return resp, nil
}
