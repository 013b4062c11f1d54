package api

import "encoding/json"

// Optional distinguishes an absent JSON field from an explicit null in
// patch payloads.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON records presence and nullness before decoding the value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Present reports whether the field carries a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// Ptr returns the value, or nil when the field is absent or null.
func (o Optional[T]) Ptr() *T {
	if !o.Present() {
		return nil
	}
	value := o.Value
	return &value
}

// Of builds a present Optional, mostly for tests.
func Of[T any](value T) Optional[T] {
	return Optional[T]{Set: true, Value: value}
}
