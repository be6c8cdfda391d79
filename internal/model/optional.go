// Package model defines the rows the application reads from and writes to the
// backend tables, plus the small value types shared by every layer.
//
// The application never owns durable state: every value here is a transient
// copy of a remote row, held for the lifetime of one screen.
package model

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
)

// Optional is a tagged optional for nullable columns. The zero value is absent.
//
// Callers must go through Get (or OrElse) to read the value, so every read site
// handles the absent case explicitly:
//
//	if addr, ok := room.Address.Get(); ok {
//	    fmt.Println(addr)
//	}
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether a value is held.
func (o Optional[T]) Present() bool {
	return o.ok
}

// OrElse returns the held value, or def when absent.
func (o Optional[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// IsZero lets `omitzero` struct tags drop absent values.
func (o Optional[T]) IsZero() bool {
	return !o.ok
}

// MarshalJSON encodes an absent value as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Scan implements sql.Scanner so optionals can be read straight from a row.
func (o *Optional[T]) Scan(src any) error {
	var n sql.Null[T]
	if err := n.Scan(src); err != nil {
		return err
	}
	o.value, o.ok = n.V, n.Valid
	return nil
}

// Value implements driver.Valuer; absent becomes SQL NULL.
func (o Optional[T]) Value() (driver.Value, error) {
	return sql.Null[T]{V: o.value, Valid: o.ok}.Value()
}
