// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package configs

import (
	"reflect"
	"slices"
	"strings"

	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/pkg/errors"
)

// Callback is a training callback (early stopping, checkpointing, learning rate schedule, ...)
// that can list its attributes.
type Callback interface {
	// Name of the callback type, e.g.: "EarlyStopping".
	Name() string

	// Attributes of the callback. Attributes whose names start with "_" and functions are not logged.
	Attributes() map[string]any
}

// SimpleCallback is a static Callback.
type SimpleCallback struct {
	TypeName string
	Attrs    map[string]any
}

// Name implements Callback.
func (c *SimpleCallback) Name() string { return c.TypeName }

// Attributes implements Callback.
func (c *SimpleCallback) Attributes() map[string]any { return c.Attrs }

// NewCallbackConfig creates a Config of KindCallbacks, with data:
//
//	{<callback name>: {<attribute>: <value>, ...}}
//
// Attributes are sorted by name, and those whose names start with "_" or whose values are
// functions are silently omitted.
//
// The source can be a Callback, a []Callback (one entry per callback, in order), or a
// *jsonenc.OrderedMap or map[string]any with previously saved callbacks data, stored as is.
// Any other type fails with ErrTypeMismatch.
func NewCallbackConfig(source any) (*Config, error) {
	switch s := source.(type) {
	case *jsonenc.OrderedMap, map[string]any:
		return fromMapping(KindCallbacks, s)
	case Callback:
		if isNil(s) {
			break
		}
		return callbacksConfig([]Callback{s})
	case []Callback:
		return callbacksConfig(s)
	}
	return nil, errors.Wrapf(ErrTypeMismatch,
		"callbacks config requires a configs.Callback, a []configs.Callback or a mapping, got %T", source)
}

func callbacksConfig(callbacks []Callback) (*Config, error) {
	data := jsonenc.NewOrderedMap()
	for ii, callback := range callbacks {
		if isNil(callback) {
			return nil, errors.Wrapf(ErrTypeMismatch, "callback #%d is nil", ii)
		}
		data.Set(callbackName(callback), publicAttributes(callback.Attributes()))
	}
	return newConfig(KindCallbacks, data)
}

// callbackName returns the callback's Name, or the name of its Go type if empty.
func callbackName(callback Callback) string {
	if name := callback.Name(); name != "" {
		return name
	}
	t := reflect.TypeOf(callback)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func publicAttributes(attrs map[string]any) *jsonenc.OrderedMap {
	keys := make([]string, 0, len(attrs))
	for key, value := range attrs {
		if strings.HasPrefix(key, "_") {
			continue
		}
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	public := jsonenc.NewOrderedMap()
	for _, key := range keys {
		public.Set(key, attrs[key])
	}
	return public
}
