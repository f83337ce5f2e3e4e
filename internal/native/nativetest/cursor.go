// Package nativetest provides an in-memory native.Cursor for tests.
package nativetest

import (
	"errors"
	"sync/atomic"

	"github.com/thiagokokada/gitkid/internal/native"
)

// ErrReleased is returned by every call made after Release.
var ErrReleased = errors.New("nativetest: cursor used after release")

// Cursor walks a fixed slice of raw values and records every call. Errors can
// be injected per operation through the *Func hooks.
type Cursor struct {
	Items []native.Raw

	ResetFunc   func() error
	AdvanceFunc func(pos int) error
	CurrentFunc func(pos int) error
	ReleaseFunc func() error

	pos int

	Resets   int
	Advances int
	Currents int
	// Releases is atomic because cleanups run on a runtime goroutine.
	Releases atomic.Int32
}

// New returns a cursor over items, positioned at the first element.
func New(items ...native.Raw) *Cursor {
	return &Cursor{Items: items}
}

// Strings returns a cursor over the given string values.
func Strings(values ...string) *Cursor {
	items := make([]native.Raw, len(values))
	for i, v := range values {
		items[i] = v
	}
	return New(items...)
}

func (c *Cursor) released() bool {
	return c.Releases.Load() > 0
}

func (c *Cursor) Reset() error {
	if c.released() {
		return ErrReleased
	}
	c.Resets++
	if c.ResetFunc != nil {
		if err := c.ResetFunc(); err != nil {
			return err
		}
	}
	c.pos = 0
	return nil
}

func (c *Cursor) Advance() (bool, error) {
	if c.released() {
		return false, ErrReleased
	}
	c.Advances++
	if c.AdvanceFunc != nil {
		if err := c.AdvanceFunc(c.pos); err != nil {
			return false, err
		}
	}
	if c.pos < len(c.Items) {
		c.pos++
	}
	return c.pos < len(c.Items), nil
}

func (c *Cursor) Current() (native.Raw, error) {
	if c.released() {
		return nil, ErrReleased
	}
	c.Currents++
	if c.CurrentFunc != nil {
		if err := c.CurrentFunc(c.pos); err != nil {
			return nil, err
		}
	}
	if c.pos >= len(c.Items) {
		return nil, nil
	}
	return c.Items[c.pos], nil
}

func (c *Cursor) Release() error {
	c.Releases.Add(1)
	if c.ReleaseFunc != nil {
		return c.ReleaseFunc()
	}
	return nil
}

// Position returns the index the cursor currently points at.
func (c *Cursor) Position() int {
	return c.pos
}
