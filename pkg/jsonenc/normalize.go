// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package jsonenc

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

// UnsupportedTypeError is returned by Normalize (and so by every write) for values that have no
// JSON representation, like functions, channels or complex numbers.
type UnsupportedTypeError struct {
	Type reflect.Type

	// Path of the value within the encoded document, e.g.: "$.model.optimizer_config.schedule".
	Path string
}

// Error implements error.
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("jsonenc: value of type %s at %s is not JSON serializable", e.Type, e.Path)
}

// Normalize converts v into the canonical JSON tree used by dllogger: nil, bool, string, int64,
// uint64, float64, []any and *OrderedMap.
//
// Checked in this order:
//
//   - numeric arrays: gonum mat.Vector becomes a list, mat.Matrix a list of rows;
//   - numeric scalars: every Go integer kind becomes int64 (uint64 above math.MaxInt64), every float kind,
//     float16.Float16 and bfloat16.BFloat16 become float64;
//   - json.Marshaler and encoding.TextMarshaler values are encoded by them and decoded back;
//   - strings, booleans;
//   - slices and arrays become lists (a nil slice becomes an empty list);
//   - maps with string or integer keys become *OrderedMap with keys sorted;
//   - pointers and interfaces are dereferenced, nil becomes null;
//   - structs become *OrderedMap with their exported fields, following the encoding/json field
//     rules: `json` tag names, "-", omitempty, omitzero and embedded structs. Field values are normalized
//     like any other value, so numeric library values inside structs are converted too.
//
// Anything else fails with *UnsupportedTypeError. Non-finite floats (NaN and ±Inf) are converted
// to null, with a warning logged.
//
// The input is never modified: *OrderedMap values are copied.
func Normalize(v any) (any, error) {
	return normalize(v, "$")
}

func normalize(v any, path string) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil, nil
	}

	switch x := v.(type) {
	case *OrderedMap:
		return x.normalized(path)
	case OrderedMap:
		return x.normalized(path)
	case mat.Vector:
		list := make([]any, x.Len())
		for ii := range list {
			list[ii] = finiteOrNil(x.AtVec(ii), fmt.Sprintf("%s[%d]", path, ii))
		}
		return list, nil
	case mat.Matrix:
		rows, cols := x.Dims()
		list := make([]any, rows)
		for row := range rows {
			rowList := make([]any, cols)
			for col := range cols {
				rowList[col] = finiteOrNil(x.At(row, col), fmt.Sprintf("%s[%d][%d]", path, row, col))
			}
			list[row] = rowList
		}
		return list, nil
	case float16.Float16:
		return finiteOrNil(float64(x.Float32()), path), nil
	case bfloat16.BFloat16:
		return finiteOrNil(float64(x.Float32()), path), nil
	case json.Number:
		return parseNumber(string(x), path)
	case json.Marshaler:
		return remarshal(x, path)
	case encoding.TextMarshaler:
		text, err := x.MarshalText()
		if err != nil {
			return nil, errors.Wrapf(err, "jsonenc: failed to encode %T at %s", x, path)
		}
		return string(text), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintValue(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return finiteOrNil(rv.Float(), path), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for ii := range list {
			value, err := normalize(rv.Index(ii).Interface(), fmt.Sprintf("%s[%d]", path, ii))
			if err != nil {
				return nil, err
			}
			list[ii] = value
		}
		return list, nil
	case reflect.Map:
		return normalizeMap(rv, path)
	case reflect.Pointer, reflect.Interface:
		return normalize(rv.Elem().Interface(), path)
	case reflect.Struct:
		m := NewOrderedMap()
		if err := addStructFields(m, rv, path, false); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, &UnsupportedTypeError{Type: rv.Type(), Path: path}
	}
}

// normalizeMap converts a Go map to an *OrderedMap with the keys sorted, the same order
// encoding/json would have used.
func normalizeMap(rv reflect.Value, path string) (*OrderedMap, error) {
	type entry struct {
		key   string
		value reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		var key string
		k := iter.Key()
		switch k.Kind() {
		case reflect.String:
			key = k.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			key = strconv.FormatInt(k.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			key = strconv.FormatUint(k.Uint(), 10)
		default:
			return nil, &UnsupportedTypeError{Type: rv.Type(), Path: path}
		}
		entries = append(entries, entry{key, iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if a.key < b.key {
			return -1
		} else if a.key > b.key {
			return 1
		}
		return 0
	})
	m := NewOrderedMap()
	for _, e := range entries {
		value, err := normalize(e.value.Interface(), path+"."+e.key)
		if err != nil {
			return nil, err
		}
		m.Set(e.key, value)
	}
	return m, nil
}

// addStructFields sets in m the JSON fields of the struct rv. Fields of embedded structs are
// promoted, but never replace a field of the outer struct.
func addStructFields(m *OrderedMap, rv reflect.Value, path string, promoted bool) error {
	rt := rv.Type()
	for ii := range rt.NumField() {
		field := rt.Field(ii)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, options, _ := strings.Cut(tag, ",")
		fv := rv.Field(ii)
		if field.Anonymous && name == "" {
			embedded := fv
			if embedded.Kind() == reflect.Pointer {
				if embedded.IsNil() {
					continue
				}
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				if err := addStructFields(m, embedded, path, true); err != nil {
					return err
				}
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if hasTagOption(options, "omitempty") && isEmptyValue(fv) {
			continue
		}
		if hasTagOption(options, "omitzero") && fv.IsZero() {
			continue
		}
		if _, found := m.Get(name); found && promoted {
			continue
		}
		value, err := normalize(fv.Interface(), path+"."+name)
		if err != nil {
			return err
		}
		m.Set(name, value)
	}
	return nil
}

func hasTagOption(options, option string) bool {
	for options != "" {
		var current string
		current, options, _ = strings.Cut(options, ",")
		if current == option {
			return true
		}
	}
	return false
}

// isEmptyValue follows the encoding/json definition of empty for omitempty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

// normalized returns a normalized copy of m.
func (m *OrderedMap) normalized(path string) (*OrderedMap, error) {
	out := NewOrderedMap()
	for key, value := range m.All() {
		normalizedValue, err := normalize(value, path+"."+key)
		if err != nil {
			return nil, err
		}
		out.Set(key, normalizedValue)
	}
	return out, nil
}

// remarshal encodes v with encoding/json and decodes it back into the canonical tree.
func remarshal(v any, path string) (any, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		var unsupported *json.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return nil, &UnsupportedTypeError{Type: unsupported.Type, Path: path}
		}
		return nil, errors.Wrapf(err, "jsonenc: failed to encode %T at %s", v, path)
	}
	return Unmarshal(encoded)
}

// uintValue keeps unsigned integers as int64 whenever they fit.
func uintValue(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

// parseNumber converts a JSON number literal: integer literals become int64 (or uint64 if too
// large for it), anything else a float64. Integers too large for uint64 fall back to float64.
func parseNumber(literal string, path string) (any, error) {
	if !strings.ContainsAny(literal, ".eE") {
		if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(literal, 10, 64); err == nil {
			return u, nil
		}
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "jsonenc: invalid number %q at %s", literal, path)
	}
	return finiteOrNil(f, path), nil
}

// Float64 returns the numeric value of a canonical tree value (float64, int64 or uint64) as a float64,
// and whether it was a number.
func Float64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// formatFloat formats f the way encoding/json does, except that integral values keep a ".0"
// suffix, so they are read back as float64 and not as integers.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	literal := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// Clean up e-09 to e-9, like encoding/json.
		n := len(literal)
		if n >= 4 && literal[n-4] == 'e' && literal[n-3] == '-' && literal[n-2] == '0' {
			literal = literal[:n-2] + literal[n-1:]
		}
		return literal
	}
	if !strings.Contains(literal, ".") {
		literal += ".0"
	}
	return literal
}

// encodable replaces the float64 values of a normalized value by their literal (see formatFloat).
// Objects are handled by OrderedMap.MarshalJSON.
func encodable(v any) any {
	switch x := v.(type) {
	case float64:
		return json.Number(formatFloat(x))
	case []any:
		list := make([]any, len(x))
		for ii, e := range x {
			list[ii] = encodable(e)
		}
		return list
	}
	return v
}

func finiteOrNil(f float64, path string) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		klog.Warningf("jsonenc: non-finite value %v at %s written as null", f, path)
		return nil
	}
	return f
}
