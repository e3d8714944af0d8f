package boards

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/modules/auth"
	"github.com/fillip1984/inveniam/search"
)

// Service implements the board and bucket operations.
type Service struct {
	repo    *Repository
	profile auth.ProfilePort
	loc     *time.Location
	now     func() time.Time
	logger  types.Logger
}

// NewService creates a board service. loc is the timezone used when the
// caller's profile has none.
func NewService(repo *Repository, profile auth.ProfilePort, loc *time.Location, logger types.Logger) *Service {
	return &Service{
		repo:    repo,
		profile: profile,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Create validates and stores a new board.
func (s *Service) Create(userID, name, description string) (*kanban.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", kanban.ErrValidation)
	}
	board := &kanban.Board{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		UserID:      userID,
		Buckets:     []kanban.Bucket{},
	}
	if err := s.repo.Create(board); err != nil {
		return nil, err
	}
	return board, nil
}

// ReadAll lists the caller's boards as summaries.
func (s *Service) ReadAll(userID string) ([]kanban.BoardSummary, error) {
	boards, err := s.repo.FindAll(userID)
	if err != nil {
		return nil, err
	}
	out := make([]kanban.BoardSummary, 0, len(boards))
	for _, b := range boards {
		sum := kanban.BoardSummary{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Buckets:     make([]kanban.BucketSummary, 0, len(b.Buckets)),
		}
		for _, bk := range b.Buckets {
			bs := kanban.BucketSummary{Name: bk.Name, Tasks: make([]kanban.TaskSummary, 0, len(bk.Tasks))}
			for _, t := range bk.Tasks {
				bs.Tasks = append(bs.Tasks, kanban.TaskSummary{
					Text:        t.Text,
					Description: t.Description,
					Complete:    t.Complete,
				})
			}
			sum.Buckets = append(sum.Buckets, bs)
		}
		out = append(out, sum)
	}
	return out, nil
}

// ReadOne loads a board tree. When query is set, tasks are filtered by the
// search mini-language evaluated in the caller's timezone. Filtered tasks
// keep their stored positions.
func (s *Service) ReadOne(ctx context.Context, userID, id string, query *string) (*kanban.Board, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", kanban.ErrValidation)
	}
	board, err := s.repo.FindTree(userID, id)
	if err != nil {
		return nil, err
	}
	if query == nil || strings.TrimSpace(*query) == "" {
		return board, nil
	}

	loc := auth.ResolveLocation(ctx, s.profile, userID, s.loc, s.logger)
	q := search.Parse(*query, s.now(), loc)
	for i := range board.Buckets {
		board.Buckets[i].Tasks = q.Filter(board.Buckets[i].Tasks)
	}
	return board, nil
}

// Update renames a board.
func (s *Service) Update(userID, id, name, description string) (*kanban.Board, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", kanban.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", kanban.ErrValidation)
	}
	board := &kanban.Board{ID: id, Name: name, Description: description, UserID: userID}
	if err := s.repo.Update(board); err != nil {
		return nil, err
	}
	return s.repo.FindByID(userID, id)
}

// Delete removes a board and everything below it.
func (s *Service) Delete(userID, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", kanban.ErrValidation)
	}
	return s.repo.Delete(userID, id)
}

// AddBucket inserts a bucket into a board.
func (s *Service) AddBucket(userID, boardID, name string, position *int) (*kanban.Bucket, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: bucketName is required", kanban.ErrValidation)
	}
	if boardID == "" {
		return nil, fmt.Errorf("%w: boardId is required", kanban.ErrValidation)
	}
	return s.repo.AddBucket(userID, boardID, name, position)
}

// RemoveBucket deletes a bucket and its tasks.
func (s *Service) RemoveBucket(userID, bucketID string) (*kanban.Bucket, error) {
	if bucketID == "" {
		return nil, fmt.Errorf("%w: bucketId is required", kanban.ErrValidation)
	}
	return s.repo.RemoveBucket(userID, bucketID)
}

// UpdateBucketPositions persists a bucket reorder and returns the touched
// board ids.
func (s *Service) UpdateBucketPositions(userID string, updates []kanban.BucketPositionUpdate) ([]string, error) {
	if len(updates) == 0 {
		return nil, nil
	}
	for _, u := range updates {
		if u.ID == "" {
			return nil, fmt.Errorf("%w: bucket id is required", kanban.ErrValidation)
		}
		if u.Position < 0 {
			return nil, fmt.Errorf("%w: position must not be negative", kanban.ErrValidation)
		}
	}
	return s.repo.UpdateBucketPositions(userID, updates)
}

// ReadAllBuckets lists id/name pairs in position order.
func (s *Service) ReadAllBuckets(userID, boardID string) ([]BucketOption, error) {
	buckets, err := s.repo.FindBuckets(userID, boardID)
	if err != nil {
		return nil, err
	}
	out := make([]BucketOption, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, BucketOption{ID: b.ID, Name: b.Name})
	}
	return out, nil
}
