package tags

import "github.com/fillip1984/inveniam/domain/kanban"

// TagForm is the input of tags.create and tags.update.
type TagForm struct {
	kanban.Caller
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ReadAllRequest is the input of tags.readAll.
type ReadAllRequest struct {
	kanban.Caller
	Query string `json:"query"`
}

type ReadAllResponse []kanban.Tag

// TagIDRequest is the input of tags.readOne and tags.delete.
type TagIDRequest struct {
	kanban.Caller
	ID string `json:"id"`
}
