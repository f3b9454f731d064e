package domain

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state update value: unset, set to a value, or cleared.
// In JSON an absent key leaves it unset and an explicit null clears it.
type Field[T any] struct {
	set   bool
	value *T
}

// Set returns a field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: &v}
}

// Clear returns a field that removes the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{set: true}
}

// IsSet reports whether the field was supplied at all.
func (f Field[T]) IsSet() bool { return f.set }

// IsCleared reports whether the field was explicitly nulled.
func (f Field[T]) IsCleared() bool { return f.set && f.value == nil }

// Value returns the carried value and whether there is one.
func (f Field[T]) Value() (T, bool) {
	if f.value == nil {
		var zero T
		return zero, false
	}
	return *f.value, true
}

// Ptr returns the carried value as a pointer, nil when unset or cleared.
func (f Field[T]) Ptr() *T {
	if f.value == nil {
		return nil
	}
	v := *f.value
	return &v
}

// UnmarshalJSON is only invoked for keys present in the document.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.value = &v
	return nil
}
