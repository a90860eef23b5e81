// Package option provides a generic Option type, used in place of nil-able
// pointers for values that are legitimately absent rather than erroneous.
package option

// Option represents a value which may or may not be present.
type Option[A any] struct {
	isSome bool
	some   A
}

// Some wraps a present value.
func Some[A any](a A) Option[A] {
	return Option[A]{isSome: true, some: a}
}

// None constructs an absent value.
func None[A any]() Option[A] {
	return Option[A]{}
}

// IsSome returns true if the option holds a value.
func (o Option[A]) IsSome() bool {
	return o.isSome
}

// IsNone returns true if the option is empty.
func (o Option[A]) IsNone() bool {
	return !o.isSome
}

// UnwrapOr extracts the value, or returns the supplied default if empty.
func (o Option[A]) UnwrapOr(a A) A {
	if o.isSome {
		return o.some
	}

	return a
}

// UnwrapOrErr extracts the value, or returns err if the option is empty.
func (o Option[A]) UnwrapOrErr(err error) (A, error) {
	if !o.isSome {
		var zero A
		return zero, err
	}

	return o.some, nil
}

// WhenSome invokes f with the contained value if one is present.
func (o Option[A]) WhenSome(f func(A)) {
	if o.isSome {
		f(o.some)
	}
}

// MapOption transforms a pure function A -> B into one operating inside the
// Option context.
func MapOption[A, B any](o Option[A], f func(A) B) Option[B] {
	if o.IsNone() {
		return None[B]()
	}

	return Some(f(o.some))
}
