// Package options implements the functional-option pattern shared by the
// parser, the assembler and the store.
package options

// Option configures a target of type T.
type Option[T any] interface {
	apply(T) error
}

// Func is an Option implemented by a plain function. A nil Func does nothing.
type Func[T any] func(T) error

func (f Func[T]) apply(target T) error {
	if f == nil {
		return nil
	}

	return f(target)
}

// New returns an Option backed by fn.
func New[T any](fn func(T) error) Func[T] {
	return fn
}

// NoError returns an Option backed by an infallible fn.
func NoError[T any](fn func(T)) Func[T] {
	return func(target T) error {
		fn(target)
		return nil
	}
}

// Apply applies opts to target in order and stops at the first error.
// Nil options are skipped.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
