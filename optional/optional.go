// Package optional provides Opt, a value wrapper that records whether the
// value was explicitly supplied. Fields of type Opt are always treated as
// optional by the binder regardless of the wrapped type: absence leaves Set
// false, and any supplied value (even one equal to the default) sets it.
package optional

// Opt pairs a value with an explicit-set flag, in the manner of the
// database/sql Null types.
type Opt[T any] struct {
	Value T
	Set   bool
}

// Of returns an Opt holding v with the set flag raised.
func Of[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

// Get returns the wrapped value and whether it was explicitly set.
func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// Or returns the wrapped value when set, and fallback otherwise.
func (o Opt[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

// Ptr returns a pointer to a copy of the value when set, and nil otherwise.
func (o Opt[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}
