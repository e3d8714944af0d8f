// Package reorder keeps ordered sibling lists dense.
//
// Every function returns fresh slices and never mutates its input, so callers
// holding immutable snapshots can reuse the previous value on rollback.
// Positions are always reassigned from the final slice index.
package reorder

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a source index does not address an item.
var ErrIndexOutOfRange = errors.New("index out of range")

// Setter returns item with its position set to position.
type Setter[T any] func(item T, position int) T

// Clamp bounds an insertion index to [0, length].
func Clamp(index, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}

// Renumber copies items and assigns position = index to each element.
func Renumber[T any](items []T, set Setter[T]) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = set(item, i)
	}
	return out
}

// Insert places item at the clamped index and renumbers the result.
func Insert[T any](items []T, item T, index int, set Setter[T]) []T {
	index = Clamp(index, len(items))
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:index]...)
	out = append(out, item)
	out = append(out, items[index:]...)
	return Renumber(out, set)
}

// Remove drops the item at index and renumbers the remainder. It also returns
// the removed item as it was before removal.
func Remove[T any](items []T, index int, set Setter[T]) ([]T, T, error) {
	var zero T
	if index < 0 || index >= len(items) {
		return nil, zero, fmt.Errorf("%w: remove %d of %d", ErrIndexOutOfRange, index, len(items))
	}
	removed := items[index]
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	return Renumber(out, set), removed, nil
}

// Move relocates the item at from to index to within one list. The target is
// clamped to the bounds of the list after removal, so any to is accepted.
func Move[T any](items []T, from, to int, set Setter[T]) ([]T, error) {
	rest, item, err := Remove(items, from, set)
	if err != nil {
		return nil, err
	}
	return Insert(rest, item, to, set), nil
}

// Transfer moves the item at from in src to index to in dst. Both returned
// lists are renumbered.
func Transfer[T any](src []T, from int, dst []T, to int, set Setter[T]) ([]T, []T, error) {
	rest, item, err := Remove(src, from, set)
	if err != nil {
		return nil, nil, err
	}
	return rest, Insert(dst, item, to, set), nil
}

// IsDense reports whether positions form exactly {0, ..., n-1}.
func IsDense[T any](items []T, position func(T) int) bool {
	seen := make([]bool, len(items))
	for _, item := range items {
		p := position(item)
		if p < 0 || p >= len(items) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// IndexOf returns the index of the first item matching pred, or -1.
func IndexOf[T any](items []T, pred func(T) bool) int {
	for i, item := range items {
		if pred(item) {
			return i
		}
	}
	return -1
}
