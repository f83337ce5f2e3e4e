package backend

import (
	"errors"

	"github.com/thiagokokada/gitkid/internal/native"
)

var errCursorReleased = errors.New("cursor already released")

// SnapshotCursor serves a collection that the library can only hand out in
// one piece. Every Reset reloads it, so a restarted traversal observes the
// current state of the repository.
type SnapshotCursor[T any] struct {
	load     func() ([]T, error)
	code     func(error) int
	items    []T
	pos      int
	released bool
}

func NewSnapshotCursor[T any](load func() ([]T, error), code func(error) int) *SnapshotCursor[T] {
	if code == nil {
		code = func(error) int { return native.CodeUnknown }
	}
	return &SnapshotCursor[T]{load: load, code: code}
}

func (c *SnapshotCursor[T]) Reset() error {
	if c.released {
		return native.Failed(native.OpReset, native.CodeUnknown, errCursorReleased)
	}
	items, err := c.load()
	if err != nil {
		return native.Failed(native.OpReset, c.code(err), err)
	}
	c.items = items
	c.pos = 0
	return nil
}

func (c *SnapshotCursor[T]) Advance() (bool, error) {
	if c.released {
		return false, native.Failed(native.OpAdvance, native.CodeUnknown, errCursorReleased)
	}
	if c.pos < len(c.items) {
		c.pos++
	}
	return c.pos < len(c.items), nil
}

func (c *SnapshotCursor[T]) Current() (native.Raw, error) {
	if c.released {
		return nil, native.Failed(native.OpCurrent, native.CodeUnknown, errCursorReleased)
	}
	if c.pos >= len(c.items) {
		return nil, nil
	}
	return c.items[c.pos], nil
}

func (c *SnapshotCursor[T]) Release() error {
	if c.released {
		return native.Failed(native.OpRelease, native.CodeUnknown, errCursorReleased)
	}
	c.released = true
	c.items = nil
	return nil
}
