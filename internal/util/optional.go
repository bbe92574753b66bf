package util

// Optional marks whether a value was provided, so a partial update can tell
// "unset" apart from a zero value.
type Optional[T any] struct {
	Val   T
	IsSet bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Val: v, IsSet: true}
}

// ApplyTo writes the value into dst when set.
func (o Optional[T]) ApplyTo(dst *T) {
	if o.IsSet {
		*dst = o.Val
	}
}
