// Package cursor turns a native.Cursor into a restartable, lazily decoded
// sequence of domain values.
//
// An Iterator owns its native cursor exclusively and releases it exactly once,
// either through Close or, for iterators that are dropped without Close,
// through a runtime cleanup. Callers should always Close; the cleanup only
// keeps an abandoned handle from leaking.
//
// Iterators are not safe for concurrent use. The native cursor has a single
// mutable position, so only one traversal may be active at a time: while a
// combinator or Seq is running, every other call on the same iterator except
// Close reports ErrTraversalInProgress.
package cursor

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/thiagokokada/gitkid/internal/native"
)

var (
	// ErrInvalidUse is returned by Next when it is not preceded by a HasNext
	// call that returned true for the current position.
	ErrInvalidUse = errors.New("cursor: Next called without a successful HasNext")
	// ErrClosed is returned by any operation on a closed iterator.
	ErrClosed = errors.New("cursor: iterator closed")
	// ErrTraversalInProgress is returned when a traversal starts while another
	// traversal of the same iterator has not finished.
	ErrTraversalInProgress = errors.New("cursor: traversal already in progress")
)

// Decoder builds a domain value from a raw element reference.
type Decoder[T any] func(raw native.Raw) (T, error)

type Option func(*options)

type options struct {
	name string
}

// WithName labels the iterator in log records.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

type Iterator[T any] struct {
	rel     *releaser
	decode  Decoder[T]
	cleanup runtime.Cleanup

	// firstProbe is set after a reset: the next HasNext inspects the current
	// element instead of advancing.
	firstProbe bool
	// ready is true between a HasNext that returned true and the Next that
	// consumes that position.
	ready      bool
	exhausted  bool
	traversing bool
	closed     bool
}

// releaser is kept apart from Iterator so a cleanup can reference it without
// keeping the Iterator reachable.
type releaser struct {
	once sync.Once
	c    native.Cursor
	name string
	err  error
}

func (r *releaser) release() error {
	r.once.Do(func() {
		r.err = native.Wrap(native.OpRelease, r.c.Release())
	})
	return r.err
}

func releaseAbandoned(r *releaser) {
	slog.Warn("cursor iterator dropped without Close", slog.String("name", r.name))
	if err := r.release(); err != nil {
		slog.Error("release abandoned cursor", slog.String("name", r.name), slog.Any("error", err))
	}
}

// New takes ownership of c and resets it to its first element, whatever its
// previous position. If the reset fails, c is released before returning.
func New[T any](c native.Cursor, decode Decoder[T], opts ...Option) (*Iterator[T], error) {
	if c == nil {
		return nil, errors.New("cursor: nil native cursor")
	}
	if decode == nil {
		return nil, errors.New("cursor: nil decoder")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	it := &Iterator[T]{
		rel:    &releaser{c: c, name: o.name},
		decode: decode,
	}
	if err := it.reset(); err != nil {
		return nil, errors.Join(err, it.rel.release())
	}
	it.cleanup = runtime.AddCleanup(it, releaseAbandoned, it.rel)
	slog.Debug("cursor opened", slog.String("name", o.name))
	return it, nil
}

// reset drops the confirmed position before touching the native cursor, so
// a failed reset leaves nothing readable until the next successful one.
func (it *Iterator[T]) reset() error {
	it.ready = false
	it.exhausted = true
	if err := it.rel.c.Reset(); err != nil {
		return native.Wrap(native.OpReset, err)
	}
	it.firstProbe = true
	it.exhausted = false
	return nil
}

// check reports why a protocol call cannot run now.
func (it *Iterator[T]) check() error {
	if it.closed {
		return ErrClosed
	}
	if it.traversing {
		return ErrTraversalInProgress
	}
	return nil
}

// Restart returns the iterator to the state before its first element. It may
// be called any number of times.
func (it *Iterator[T]) Restart() error {
	if err := it.check(); err != nil {
		return err
	}
	return it.reset()
}

// HasNext reports whether an element is available. The first call after a
// reset checks the current element; later calls advance the native cursor.
func (it *Iterator[T]) HasNext() (bool, error) {
	if err := it.check(); err != nil {
		return false, err
	}
	return it.hasNext()
}

func (it *Iterator[T]) hasNext() (bool, error) {
	it.ready = false
	if it.exhausted {
		return false, nil
	}
	if it.firstProbe {
		it.firstProbe = false
		raw, err := it.rel.c.Current()
		if err != nil {
			return false, native.Wrap(native.OpCurrent, err)
		}
		it.ready = raw != nil
	} else {
		ok, err := it.rel.c.Advance()
		if err != nil {
			return false, native.Wrap(native.OpAdvance, err)
		}
		it.ready = ok
	}
	it.exhausted = !it.ready
	return it.ready, nil
}

// Next decodes the element confirmed by the preceding HasNext.
func (it *Iterator[T]) Next() (T, error) {
	if err := it.check(); err != nil {
		var zero T
		return zero, err
	}
	return it.next()
}

func (it *Iterator[T]) next() (T, error) {
	var zero T
	if !it.ready {
		return zero, ErrInvalidUse
	}
	it.ready = false
	raw, err := it.rel.c.Current()
	if err != nil {
		return zero, native.Wrap(native.OpCurrent, err)
	}
	if raw == nil {
		return zero, ErrInvalidUse
	}
	v, err := it.decode(raw)
	if err != nil {
		return zero, fmt.Errorf("decode: %w", err)
	}
	return v, nil
}

// Close releases the native cursor. Only the first call reaches the native
// library; later calls return nil.
func (it *Iterator[T]) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.ready = false
	it.cleanup.Stop()
	slog.Debug("cursor closed", slog.String("name", it.rel.name))
	return it.rel.release()
}

// each restarts the iterator and calls fn for every element until fn returns
// false.
func (it *Iterator[T]) each(fn func(T) bool) error {
	if err := it.check(); err != nil {
		return err
	}
	it.traversing = true
	defer func() { it.traversing = false }()

	if err := it.reset(); err != nil {
		return err
	}
	for {
		if it.closed {
			return ErrClosed
		}
		ok, err := it.hasNext()
		if err != nil || !ok {
			return err
		}
		v, err := it.next()
		if err != nil {
			return err
		}
		if !fn(v) {
			return nil
		}
	}
}

// Use opens an iterator over c, passes it to fn and closes it on every exit
// path, including panics.
func Use[T any](c native.Cursor, decode Decoder[T], fn func(*Iterator[T]) error, opts ...Option) (err error) {
	it, err := New(c, decode, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, it.Close())
	}()
	return fn(it)
}
