// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package jsonenc

import (
	"bytes"
	"encoding/json"
	"io"
	"iter"
	"reflect"
	"slices"

	"github.com/pkg/errors"
)

// OrderedMap is a string keyed map that remembers the order in which keys were first inserted.
// It is the JSON object type used throughout dllogger: epoch keys of a metrics table must be written
// in the order the epochs were given, and files read back keep the order they were written in.
//
// The zero value is an empty map ready to use.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set the value for key. A key that already exists keeps its original position and has its value replaced.
func (m *OrderedMap) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, found := m.values[key]; !found {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (value any, found bool) {
	if m == nil {
		return nil, false
	}
	value, found = m.values[key]
	return
}

// Delete removes key, if present.
func (m *OrderedMap) Delete(key string) {
	if m == nil {
		return
	}
	if _, found := m.values[key]; !found {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over key/value pairs in insertion order.
func (m *OrderedMap) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}
		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

// Equal returns whether both maps hold the same keys, in the same order, with deeply equal values.
// Nested OrderedMap values are compared the same way.
func (m *OrderedMap) Equal(other *OrderedMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	if !slices.Equal(m.keys, other.keys) {
		return false
	}
	for _, key := range m.keys {
		if !valuesEqual(m.values[key], other.values[key]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch aV := a.(type) {
	case *OrderedMap:
		bV, ok := b.(*OrderedMap)
		return ok && aV.Equal(bV)
	case []any:
		bV, ok := b.([]any)
		if !ok || len(aV) != len(bV) {
			return false
		}
		for ii := range aV {
			if !valuesEqual(aV[ii], bV[ii]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// MarshalJSON implements json.Marshaler. Values are normalized (see Normalize) while encoding.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for ii, key := range m.keys {
		if ii > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := marshalNoEscape(key)
		if err != nil {
			return nil, errors.Wrapf(err, "jsonenc: failed to encode key %q", key)
		}
		value, err := normalize(m.values[key], "$."+key)
		if err != nil {
			return nil, err
		}
		valueJSON, err := marshalNoEscape(encodable(value))
		if err != nil {
			return nil, errors.Wrapf(err, "jsonenc: failed to encode value for key %q", key)
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. The order of keys in data is preserved, and nested
// objects are decoded as *OrderedMap. Integer literals are decoded as int64 (uint64 if too large),
// other numbers as float64.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "jsonenc: failed to read JSON object")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.Errorf("jsonenc: expected a JSON object, got %v", tok)
	}
	m.keys = nil
	m.values = make(map[string]any)
	return decodeObjectInto(dec, m)
}

// Unmarshal decodes any JSON value into the canonical tree used by dllogger: nil, bool, string,
// int64, uint64, float64, []any and *OrderedMap.
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	value, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err = dec.Token(); err != io.EOF {
		return nil, errors.New("jsonenc: unexpected data after the JSON value")
	}
	return value, nil
}

func decodeObjectInto(dec *json.Decoder, m *OrderedMap) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "jsonenc: failed to read object key")
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Errorf("jsonenc: expected an object key, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return errors.WithMessagef(err, "in key %q", key)
		}
		m.Set(key, value)
	}
	if _, err := dec.Token(); err != nil { // Closing '}'.
		return errors.Wrap(err, "jsonenc: failed to read end of object")
	}
	return nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "jsonenc: failed to read JSON value")
	}
	if number, isNumber := tok.(json.Number); isNumber {
		return parseNumber(string(number), "$")
	}
	delim, isDelim := tok.(json.Delim)
	if !isDelim {
		// string, bool or nil.
		return tok, nil
	}
	switch delim {
	case '{':
		nested := NewOrderedMap()
		if err = decodeObjectInto(dec, nested); err != nil {
			return nil, err
		}
		return nested, nil
	case '[':
		list := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, errors.WithMessagef(err, "in list element #%d", len(list))
			}
			list = append(list, value)
		}
		if _, err = dec.Token(); err != nil { // Closing ']'.
			return nil, errors.Wrap(err, "jsonenc: failed to read end of list")
		}
		return list, nil
	default:
		return nil, errors.Errorf("jsonenc: unexpected delimiter %q", delim)
	}
}
