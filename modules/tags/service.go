package tags

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/fillip1984/inveniam/domain/kanban"
)

// Service implements the tag operations.
type Service struct {
	repo *Repository
}

// NewService creates a tag service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", kanban.ErrValidation)
	}
	return name, nil
}

// Create stores a new tag. Names are unique per owner.
func (s *Service) Create(userID, name string, description *string) (*kanban.Tag, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	tag := &kanban.Tag{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		UserID:      userID,
	}
	if err := s.repo.Create(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ReadAll lists tags by name. A non-empty query keeps only the tags whose
// name fuzzy-matches it.
func (s *Service) ReadAll(userID, query string) ([]kanban.Tag, error) {
	all, err := s.repo.FindAll(userID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}

	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	matches := fuzzy.Find(query, names)
	idx := make([]int, 0, len(matches))
	for _, m := range matches {
		idx = append(idx, m.Index)
	}
	sort.Ints(idx)

	out := make([]kanban.Tag, 0, len(idx))
	for _, i := range idx {
		out = append(out, all[i])
	}
	return out, nil
}

// ReadOne returns a tag.
func (s *Service) ReadOne(userID, id string) (*kanban.Tag, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", kanban.ErrValidation)
	}
	return s.repo.FindByID(userID, id)
}

// Update renames a tag.
func (s *Service) Update(userID, id, name string, description *string) (*kanban.Tag, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", kanban.ErrValidation)
	}
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(&kanban.Tag{ID: id, Name: name, Description: description, UserID: userID}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(userID, id)
}

// Delete removes a tag from every task and deletes it.
func (s *Service) Delete(userID, id string) (*kanban.Tag, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", kanban.ErrValidation)
	}
	return s.repo.Delete(userID, id)
}
