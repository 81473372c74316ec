// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package configs defines Config, the unit of data logged in an experiment.
//
// A Config is a tagged variant: its Kind selects one of the categories (metrics, model or callbacks)
// and its data is a JSON object (*jsonenc.OrderedMap) already normalized to plain JSON values.
// It is created from a raw source object (a gota data frame, a Model, a Callback, ...) with one of
// the constructors NewMetricsConfig, NewModelConfig or NewCallbackConfig, or rehydrated from a
// previously written data file with FromCategory.
//
// Config.Config returns the pair (category, data) that is written under the category key in the
// experiment data file.
package configs

import (
	"fmt"
	"reflect"

	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/gomlx/dllogger/pkg/support/xslices"
	"github.com/pkg/errors"
)

var (
	// ErrTypeMismatch is returned by the Config constructors when given a source of a type they
	// don't support, or a source whose contents can't be converted.
	ErrTypeMismatch = errors.New("configs: unsupported source type")

	// ErrUnknownCategory is returned by FromCategory for a category with no registered constructor.
	ErrUnknownCategory = errors.New("configs: unknown category")
)

// Config holds the data of one category of an experiment. Create it with one of the constructors:
// the zero value is not a valid Config.
type Config struct {
	kind Kind
	data *jsonenc.OrderedMap
}

// newConfig normalizes data into plain JSON values and creates the Config.
func newConfig(kind Kind, data any) (*Config, error) {
	normalized, err := jsonenc.Normalize(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "while creating %s config", kind)
	}
	m, ok := normalized.(*jsonenc.OrderedMap)
	if !ok {
		return nil, errors.Wrapf(ErrTypeMismatch, "%s config data must be a JSON object, got %T", kind, normalized)
	}
	return &Config{kind: kind, data: m}, nil
}

// fromMapping creates a Config from previously deserialized data: it is stored as is, after
// normalization.
func fromMapping(kind Kind, data any) (*Config, error) {
	if isNil(data) {
		return nil, errors.Wrapf(ErrTypeMismatch, "%s config from nil %T", kind, data)
	}
	return newConfig(kind, data)
}

// Kind returns the category of the Config. It is KindInvalid for a nil or zero-value Config.
func (c *Config) Kind() Kind {
	if c == nil {
		return KindInvalid
	}
	return c.kind
}

// IsValid returns whether c was created by one of the constructors.
func (c *Config) IsValid() bool {
	return c != nil && c.kind != KindInvalid && c.kind.IsAKind() && c.data != nil
}

// Category name: the key under which the Config data is written in the experiment data file.
func (c *Config) Category() string {
	return c.Kind().String()
}

// Data returns the JSON object of the Config. It should not be modified.
func (c *Config) Data() *jsonenc.OrderedMap {
	if c == nil {
		return nil
	}
	return c.data
}

// Config returns the (category, data) pair to be written in the experiment data file.
func (c *Config) Config() (category string, data *jsonenc.OrderedMap) {
	return c.Category(), c.Data()
}

// Equal returns whether both Configs have the same kind and equal data.
func (c *Config) Equal(other *Config) bool {
	return c.Kind() == other.Kind() && c.Data().Equal(other.Data())
}

// String implements fmt.Stringer.
func (c *Config) String() string {
	if !c.IsValid() {
		return "configs.Config(invalid)"
	}
	return fmt.Sprintf("configs.Config(%s, keys=%q)", c.kind, c.data.Keys())
}

// Constructor of a Config from a source object or from previously deserialized data.
type Constructor func(source any) (*Config, error)

// registry maps category names to the constructors used to rehydrate saved data.
var registry = map[string]Constructor{
	"metrics":   NewMetricsConfig,
	"model":     NewModelConfig,
	"callbacks": NewCallbackConfig,
}

// FromCategory rehydrates a Config from the data previously written under category.
// It fails with ErrUnknownCategory if category has no registered constructor.
func FromCategory(category string, data any) (*Config, error) {
	constructor, found := registry[category]
	if !found {
		return nil, errors.Wrapf(ErrUnknownCategory, "category %q (known categories: %q)", category, Categories())
	}
	return constructor(data)
}

// Categories returns the sorted list of category names that can be rehydrated with FromCategory.
func Categories() []string {
	return xslices.SortedKeys(registry)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
