package attachments

import (
	"errors"
	"fmt"

	"github.com/fillip1984/inveniam/domain/kanban"
)

var (
	// ErrObjectNotFound is returned when no object is stored under a key.
	ErrObjectNotFound = fmt.Errorf("object %w", kanban.ErrNotFound)

	// ErrUnknownBucket is returned for paths naming another bucket.
	ErrUnknownBucket = fmt.Errorf("bucket %w", kanban.ErrNotFound)

	// ErrInvalidKey is returned for malformed object keys.
	ErrInvalidKey = fmt.Errorf("%w: invalid object key", kanban.ErrValidation)

	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("object too large")

	// ErrUploadDenied is returned when the upload token is missing or invalid.
	ErrUploadDenied = errors.New("unauthorized: invalid upload token")
)
