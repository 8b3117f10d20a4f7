// Package draft holds the in-memory editable copy of the company document
// and applies field and list mutations as copy-on-write structural updates.
package draft

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"datavault/api/internal/schema"
)

// Path addresses a value inside the document tree. Elements are string map
// keys or int list indices.
type Path []any

var (
	ErrEmptyPath   = errors.New("empty path")
	ErrBadPathStep = errors.New("path step does not match container")

	// errNoop aborts a mutation without treating it as a failure.
	errNoop = errors.New("no-op")
)

// Controller is the single writer of the draft document. Mutation entry
// points are serialized by a mutex; the committed document is never mutated
// in place, so a successful save can swap it by reference.
type Controller struct {
	mu        sync.Mutex
	draft     schema.Document
	committed schema.Document
	onChange  func()
}

// New seeds a controller with the last committed document. onChange fires
// after every successful mutation and may be nil.
func New(committed schema.Document, onChange func()) *Controller {
	return &Controller{
		draft:     committed,
		committed: committed,
		onChange:  onChange,
	}
}

// Snapshot returns the current draft. The tree must be treated as read-only;
// all writes go through the mutation methods.
func (c *Controller) Snapshot() schema.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Committed returns the last committed document.
func (c *Controller) Committed() schema.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Dirty reports whether the draft has diverged from the committed document.
// Mutations always produce a new root, so root identity is enough.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !sameRoot(c.draft, c.committed)
}

// Commit records a document as durably saved. Only the exact tree that was
// handed to the store clears the dirty state; edits made while the save was
// in flight keep the controller dirty.
func (c *Controller) Commit(saved schema.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = saved
}

// SetField replaces the value at path, shallow-copying every container from
// the root to the leaf's parent. Containers off the path are shared with the
// previous draft.
func (c *Controller) SetField(path Path, value any) error {
	return c.mutate(path, func(any) (any, error) {
		return value, nil
	})
}

// AppendListItem appends item to the list at path.
func (c *Controller) AppendListItem(path Path, item any) error {
	return c.mutate(path, func(node any) (any, error) {
		list, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a list", ErrBadPathStep, path)
		}
		next := make([]any, len(list), len(list)+1)
		copy(next, list)
		return append(next, item), nil
	})
}

// RemoveListItem removes the element at index from the list at path. An
// out-of-bounds index is a no-op; the draft is left untouched and no change
// notification fires.
func (c *Controller) RemoveListItem(path Path, index int) error {
	return c.mutate(path, func(node any) (any, error) {
		list, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a list", ErrBadPathStep, path)
		}
		if index < 0 || index >= len(list) {
			return nil, errNoop
		}
		next := make([]any, 0, len(list)-1)
		next = append(next, list[:index]...)
		next = append(next, list[index+1:]...)
		return next, nil
	})
}

// ReplaceListItemField sets one field of the list element at index.
func (c *Controller) ReplaceListItemField(path Path, index int, field string, value any) error {
	leaf := make(Path, 0, len(path)+2)
	leaf = append(leaf, path...)
	leaf = append(leaf, index, field)
	return c.SetField(leaf, value)
}

func (c *Controller) mutate(path Path, apply func(any) (any, error)) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}

	c.mu.Lock()
	next, err := rewrite(c.draft, path, apply)
	if errors.Is(err, errNoop) {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}
	root, ok := next.(map[string]any)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: mutation replaced the document root", ErrBadPathStep)
	}
	c.draft = root
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

// rewrite walks path and rebuilds the spine above the target: each container
// on the way down is shallow-copied, everything else is reused by reference.
func rewrite(node any, path Path, apply func(any) (any, error)) (any, error) {
	if len(path) == 0 {
		return apply(node)
	}

	switch step := path[0].(type) {
	case string:
		container, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: key %q on non-object", ErrBadPathStep, step)
		}
		child, err := rewrite(container[step], path[1:], apply)
		if err != nil {
			return nil, err
		}
		next := make(map[string]any, len(container)+1)
		for key, value := range container {
			next[key] = value
		}
		next[step] = child
		return next, nil
	case int:
		container, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: index %d on non-list", ErrBadPathStep, step)
		}
		if step < 0 || step >= len(container) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrBadPathStep, step)
		}
		child, err := rewrite(container[step], path[1:], apply)
		if err != nil {
			return nil, err
		}
		next := make([]any, len(container))
		copy(next, container)
		next[step] = child
		return next, nil
	default:
		return nil, fmt.Errorf("%w: unsupported step %T", ErrBadPathStep, path[0])
	}
}

func sameRoot(a, b schema.Document) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
