package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"

	"github.com/fillip1984/inveniam/calendar"
	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/modules/auth"
	"github.com/fillip1984/inveniam/status"
)

// Service implements the task operations.
type Service struct {
	repo    *Repository
	profile auth.ProfilePort
	loc     *time.Location
	now     func() time.Time
	logger  types.Logger
}

// NewService creates a task service. loc is the timezone used when the
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

func (s *Service) location(ctx context.Context, userID string) *time.Location {
	return auth.ResolveLocation(ctx, s.profile, userID, s.loc, s.logger)
}

// Create validates and inserts a new task.
func (s *Service) Create(userID string, req CreateTaskRequest) (*kanban.Task, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", kanban.ErrValidation)
	}
	if req.BucketID == "" {
		return nil, fmt.Errorf("%w: bucketId is required", kanban.ErrValidation)
	}
	task := &kanban.Task{
		ID:          uuid.New().String(),
		Text:        text,
		Description: req.Description,
		BucketID:    req.BucketID,
		UserID:      userID,
	}
	if err := s.repo.Create(task, req.Position); err != nil {
		return nil, err
	}
	return task, nil
}

// ReadOne loads a task with its children.
func (s *Service) ReadOne(userID, taskID string) (*kanban.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: taskId is required", kanban.ErrValidation)
	}
	return s.repo.FindTree(userID, taskID)
}

// Update applies the task form. Dates are interpreted in the caller's
// timezone and stored in UTC.
func (s *Service) Update(ctx context.Context, userID string, req UpdateTaskRequest) (*kanban.Task, *UpdateResult, error) {
	changes, err := s.validate(ctx, userID, req)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.repo.Update(changes)
	if err != nil {
		return nil, nil, err
	}
	task, err := s.repo.FindTree(userID, req.ID)
	if err != nil {
		return nil, nil, err
	}
	return task, res, nil
}

func (s *Service) validate(ctx context.Context, userID string, req UpdateTaskRequest) (TaskChanges, error) {
	if req.ID == "" {
		return TaskChanges{}, fmt.Errorf("%w: id is required", kanban.ErrValidation)
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return TaskChanges{}, fmt.Errorf("%w: text is required", kanban.ErrValidation)
	}
	if req.BucketID == "" {
		return TaskChanges{}, fmt.Errorf("%w: bucketId is required", kanban.ErrValidation)
	}

	var priority *kanban.Priority
	if req.Priority != nil {
		p, err := kanban.ParsePriority(*req.Priority)
		if err != nil {
			return TaskChanges{}, fmt.Errorf("%w: %v", kanban.ErrValidation, err)
		}
		priority = p
	}

	var loc *time.Location
	parse := func(field string, v *string) (*time.Time, error) {
		if v == nil || strings.TrimSpace(*v) == "" {
			return nil, nil
		}
		if loc == nil {
			loc = s.location(ctx, userID)
		}
		t, err := calendar.ParseDate(strings.TrimSpace(*v), loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be yyyy-mm-dd", kanban.ErrValidation, field)
		}
		t = t.UTC()
		return &t, nil
	}
	start, err := parse("startDate", req.StartDate)
	if err != nil {
		return TaskChanges{}, err
	}
	due, err := parse("dueDate", req.DueDate)
	if err != nil {
		return TaskChanges{}, err
	}
	if start != nil && due != nil && due.Before(*start) {
		return TaskChanges{}, fmt.Errorf("%w: dueDate must not be before startDate", kanban.ErrValidation)
	}

	for _, item := range req.CheckListItems {
		if strings.TrimSpace(item.Text) == "" {
			return TaskChanges{}, fmt.Errorf("%w: checklist item text is required", kanban.ErrValidation)
		}
	}
	for _, c := range req.Comments {
		if strings.TrimSpace(c.Text) == "" {
			return TaskChanges{}, fmt.Errorf("%w: comment text is required", kanban.ErrValidation)
		}
	}
	tagIDs := make([]string, 0, len(req.TaskTags))
	for _, tt := range req.TaskTags {
		if tt.Tag.ID == "" {
			return TaskChanges{}, fmt.Errorf("%w: tag id is required", kanban.ErrValidation)
		}
		tagIDs = append(tagIDs, tt.Tag.ID)
	}

	return TaskChanges{
		ID:          req.ID,
		UserID:      userID,
		Text:        text,
		Description: req.Description,
		Complete:    req.Complete,
		Priority:    priority,
		StartDate:   start,
		DueDate:     due,
		BucketID:    req.BucketID,
		CheckList:   req.CheckListItems,
		Comments:    req.Comments,
		TagIDs:      tagIDs,
		Attachments: req.Attachments,
	}, nil
}

// UpdatePositions persists a task reorder and returns the touched board ids.
func (s *Service) UpdatePositions(userID string, updates []kanban.TaskPositionUpdate) ([]string, error) {
	if len(updates) == 0 {
		return nil, nil
	}
	for _, u := range updates {
		if u.ID == "" || u.BucketID == "" {
			return nil, fmt.Errorf("%w: task id and bucketId are required", kanban.ErrValidation)
		}
		if u.Position < 0 {
			return nil, fmt.Errorf("%w: position must not be negative", kanban.ErrValidation)
		}
	}
	return s.repo.UpdatePositions(userID, updates)
}

// Delete removes a task.
func (s *Service) Delete(userID, taskID string) (*kanban.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: taskId is required", kanban.ErrValidation)
	}
	return s.repo.Delete(userID, taskID)
}

// Status builds the caller's status report in their timezone.
func (s *Service) Status(ctx context.Context, userID string) (status.Report, error) {
	return s.report(userID, s.location(ctx, userID))
}

func (s *Service) report(userID string, loc *time.Location) (status.Report, error) {
	tasks, err := s.repo.FindDated(userID)
	if err != nil {
		return status.Report{}, err
	}
	return status.Generate(tasks, s.now(), loc), nil
}
