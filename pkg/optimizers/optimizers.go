// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package optimizers describes the hyperparameters of the usual ML optimizers (SGD, Adam and
// variations, RMSProp), to be logged along with a model.
//
// An *Optimizer implements configs.Optimizer, so it can be attached to a configs.ModelSnapshot,
// and runrecord.OptimizerDataFrom converts it to the flat run record fields.
//
// Example:
//
//	opt := optimizers.Adam().LearningRate(0.005).WeightDecay(0.004).Done()
//	if _, err := opt.ParseSettings("beta_1=0.95;amsgrad=true"); err != nil { ... }
//	model := &configs.ModelSnapshot{ArchitectureConfig: arch, OptimizerConfig: opt}
package optimizers

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/gomlx/dllogger/pkg/support/xslices"
	"github.com/pkg/errors"
)

// Names of the hyperparameters shared by most optimizers.
const (
	NameKey         = "name"
	LearningRateKey = "learning_rate"
	WeightDecayKey  = "weight_decay"
)

// Optimizer holds the name of an optimizer and its hyperparameters, in the order they were defined.
//
// Hyperparameter values are float64, int, bool or string: the type of the default value defines the
// type accepted by Set and ParseSettings.
type Optimizer struct {
	name   string
	params *jsonenc.OrderedMap
}

// New creates an Optimizer with the given name and no hyperparameters.
func New(name string) *Optimizer {
	return &Optimizer{name: name, params: jsonenc.NewOrderedMap()}
}

// Name of the optimizer, e.g.: "Adam".
func (o *Optimizer) Name() string { return o.name }

// Keys returns the names of the hyperparameters, in the order they were defined.
func (o *Optimizer) Keys() []string { return o.params.Keys() }

// Get returns the value of the hyperparameter, and whether it is defined.
func (o *Optimizer) Get(key string) (value any, found bool) {
	return o.params.Get(key)
}

// Set the value of a hyperparameter. If the hyperparameter is already defined, the new value must be
// of the same type as the previous one, except that int values are accepted for float64 hyperparameters.
func (o *Optimizer) Set(key string, value any) error {
	if key == "" || key == NameKey {
		return errors.Errorf("invalid hyperparameter name %q for optimizer %s", key, o.name)
	}
	previous, found := o.params.Get(key)
	if found {
		if _, isFloat := previous.(float64); isFloat {
			if asInt, isInt := value.(int); isInt {
				value = float64(asInt)
			}
		}
		if fmt.Sprintf("%T", previous) != fmt.Sprintf("%T", value) {
			return errors.Errorf("hyperparameter %q of optimizer %s is a %T, can't set it to %#v",
				key, o.name, previous, value)
		}
	}
	o.params.Set(key, value)
	return nil
}

// floatParam returns a float64 hyperparameter, or 0 if not defined.
func (o *Optimizer) floatParam(key string) float64 {
	value, found := o.params.Get(key)
	if !found {
		return 0
	}
	if asInt, isInt := value.(int); isInt {
		return float64(asInt)
	}
	if f, isNumber := jsonenc.Float64(value); isNumber {
		return f
	}
	return math.NaN()
}

// LearningRate returns the "learning_rate" hyperparameter, or 0 if not defined.
func (o *Optimizer) LearningRate() float64 { return o.floatParam(LearningRateKey) }

// WeightDecay returns the "weight_decay" hyperparameter, or 0 if not defined.
func (o *Optimizer) WeightDecay() float64 { return o.floatParam(WeightDecayKey) }

// HyperParameters returns an object with the "name" of the optimizer followed by its hyperparameters.
// It implements configs.Optimizer.
func (o *Optimizer) HyperParameters() (any, error) {
	hp := jsonenc.NewOrderedMap()
	hp.Set(NameKey, o.name)
	for key, value := range o.params.All() {
		hp.Set(key, value)
	}
	return hp, nil
}

// String implements fmt.Stringer.
func (o *Optimizer) String() string {
	parts := make([]string, 0, o.params.Len())
	for key, value := range o.params.All() {
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	return fmt.Sprintf("%s(%s)", o.name, strings.Join(parts, ", "))
}

// KnownOptimizers maps the (lower case) optimizer names to constructors with default values.
var KnownOptimizers = map[string]func() *Optimizer{
	"sgd":     func() *Optimizer { return StochasticGradientDescent().Done() },
	"adam":    func() *Optimizer { return Adam().Done() },
	"adamax":  func() *Optimizer { return Adam().Adamax().Done() },
	"adamw":   func() *Optimizer { return Adam().WeightDecay(0.004).Done() },
	"rmsprop": func() *Optimizer { return RMSProp().Done() },
}

// ByName returns a known optimizer with default hyperparameters. The name is not case-sensitive.
func ByName(name string) (*Optimizer, error) {
	constructor, found := KnownOptimizers[strings.ToLower(name)]
	if !found {
		return nil, errors.Errorf("unknown optimizer %q, valid values are %q", name, xslices.SortedKeys(KnownOptimizers))
	}
	return constructor(), nil
}

// FromHyperParameters rebuilds an Optimizer from the object returned by HyperParameters, e.g. after
// reading it back from an experiment data file. Hyperparameters of known optimizers keep the type of
// their default values; unknown optimizers and hyperparameters are accepted as is.
func FromHyperParameters(hp *jsonenc.OrderedMap) (*Optimizer, error) {
	nameValue, _ := hp.Get(NameKey)
	name, ok := nameValue.(string)
	if !ok || name == "" {
		return nil, errors.Errorf("optimizer hyperparameters have no %q", NameKey)
	}
	opt, err := ByName(name)
	if err != nil {
		opt = New(name)
	}
	opt.name = name
	for key, value := range hp.All() {
		if key == NameKey {
			continue
		}
		if previous, found := opt.params.Get(key); found {
			value = convertLike(previous, value)
		}
		opt.params.Set(key, value)
	}
	return opt, nil
}

// convertLike converts a number read back from a file to the Go type of the default value previous.
// Values of other types are returned unchanged.
func convertLike(previous, value any) any {
	switch previous.(type) {
	case int:
		switch v := value.(type) {
		case int64:
			return int(v)
		case float64:
			if v == math.Trunc(v) {
				return int(v)
			}
		}
	case float64:
		if f, isNumber := jsonenc.Float64(value); isNumber {
			return f
		}
	}
	return value
}
