package message

// Opt is a value that may be absent. The zero Opt is absent.
//
// Envelope fields such as error or rid are meaningful by presence alone: an
// error code of 0 is still an error. Opt keeps "absent" apart from
// "present but zero".
type Opt[T any] struct {
	value T
	ok    bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, ok: true}
}

// None returns an absent Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSet reports whether the value is present.
func (o Opt[T]) IsSet() bool {
	return o.ok
}

// Value returns the value, or the zero T when absent.
func (o Opt[T]) Value() T {
	return o.value
}
