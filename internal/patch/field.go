// Package patch models partial updates where an omitted field keeps the stored value.
package patch

import (
	"bytes"
	"encoding/json"
)

// Field is an optional value decoded from a JSON request body.
// A missing key or an explicit null leaves the field unset.
type Field[T any] struct {
	Set   bool
	Value T
}

// Of returns a set field holding value.
func Of[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Field[T]{}
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	f.Set = true
	f.Value = value
	return nil
}

// Apply copies the value into dst when the field is set and reports whether it did.
func (f Field[T]) Apply(dst *T) bool {
	if !f.Set || dst == nil {
		return false
	}
	*dst = f.Value
	return true
}

// Updates accumulates column assignments for a coalescing UPDATE statement.
type Updates map[string]any

// Put records column = field.Value when the field is set.
func Put[T any](updates Updates, column string, field Field[T]) {
	if field.Set {
		updates[column] = field.Value
	}
}
