package model

import (
	"bytes"
	"encoding/json"
)

// Optional is a field of a partial update ("patch") payload.
//
// Three states matter and a plain pointer can only tell two of them apart:
//
//	key absent         → Set == false             (leave the stored value alone)
//	"key": null        → Set == true, Null == true
//	"key": "value"     → Set == true, Value holds the decoded value
//
// encoding/json only calls UnmarshalJSON for keys that appear in the
// document, and it does call it for a literal null, so Set is an exact
// presence flag.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns a present Optional holding JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON records presence and decodes the value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON writes null for unset or null values.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Present reports whether the key carried a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}
