package cursor

import "iter"

// Any reports whether pred holds for some element. It stops at the first match.
func (it *Iterator[T]) Any(pred func(T) bool) (bool, error) {
	found := false
	err := it.each(func(v T) bool {
		found = pred(v)
		return !found
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// All reports whether pred holds for every element. It stops at the first
// element that does not match and is true for an empty collection.
func (it *Iterator[T]) All(pred func(T) bool) (bool, error) {
	all := true
	err := it.each(func(v T) bool {
		all = pred(v)
		return all
	})
	if err != nil {
		return false, err
	}
	return all, nil
}

// First returns the earliest element matching pred.
func (it *Iterator[T]) First(pred func(T) bool) (T, bool, error) {
	var (
		match T
		found bool
	)
	err := it.each(func(v T) bool {
		if pred(v) {
			match, found = v, true
			return false
		}
		return true
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return match, found, nil
}

// Collect returns every element in iteration order.
func (it *Iterator[T]) Collect() ([]T, error) {
	return Map(it, func(v T) T { return v })
}

// Seq returns a range-over-func traversal that starts from the first element.
// A failure is yielded once as the final pair, with the zero value of T.
func (it *Iterator[T]) Seq() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if err := it.each(func(v T) bool { return yield(v, nil) }); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Map applies fn to every element and returns the results in iteration order.
// The result always has one entry per element; nothing is filtered out.
func Map[T, R any](it *Iterator[T], fn func(T) R) ([]R, error) {
	out := make([]R, 0)
	err := it.each(func(v T) bool {
		out = append(out, fn(v))
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
