// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package configs

import (
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/pkg/errors"
)

// Keys of the model Config data.
const (
	ModelConfigKey     = "model_config"
	OptimizerConfigKey = "optimizer_config"
)

// Optimizer is anything that can describe its hyperparameters as a JSON-serializable value
// (usually a mapping from hyperparameter name to value).
type Optimizer interface {
	HyperParameters() (any, error)
}

// Model is anything that can describe its architecture as a JSON-serializable value, and that has
// an Optimizer attached.
type Model interface {
	Architecture() (any, error)

	// Optimizer attached to the model, or nil if none.
	Optimizer() Optimizer
}

// HyperParameters is a static Optimizer: it returns itself as its hyperparameters.
type HyperParameters map[string]any

// HyperParameters implements Optimizer.
func (h HyperParameters) HyperParameters() (any, error) {
	return map[string]any(h), nil
}

// ModelSnapshot is a static Model, for models whose description is already at hand, e.g. read
// from a file.
type ModelSnapshot struct {
	// ArchitectureConfig is any JSON-serializable description of the model.
	ArchitectureConfig any

	// OptimizerConfig attached to the model.
	OptimizerConfig Optimizer
}

// Architecture implements Model.
func (m *ModelSnapshot) Architecture() (any, error) {
	return m.ArchitectureConfig, nil
}

// Optimizer implements Model.
func (m *ModelSnapshot) Optimizer() Optimizer {
	return m.OptimizerConfig
}

// NewModelConfig creates a Config of KindModel, with data:
//
//	{"model_config": <architecture>, "optimizer_config": <optimizer hyperparameters>}
//
// The source can be a Model, which must have an Optimizer attached, or a *jsonenc.OrderedMap or
// map[string]any with previously saved model data, stored as is.
// Any other type fails with ErrTypeMismatch.
func NewModelConfig(source any) (*Config, error) {
	switch s := source.(type) {
	case *jsonenc.OrderedMap, map[string]any:
		return fromMapping(KindModel, s)
	case Model:
		if isNil(s) {
			break
		}
		return modelConfig(s)
	}
	return nil, errors.Wrapf(ErrTypeMismatch, "model config requires a configs.Model or a mapping, got %T", source)
}

func modelConfig(model Model) (*Config, error) {
	architecture, err := model.Architecture()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get architecture of model %T", model)
	}
	optimizer := model.Optimizer()
	if isNil(optimizer) {
		return nil, errors.Wrapf(ErrTypeMismatch, "model %T has no optimizer attached", model)
	}
	hyperParams, err := optimizer.HyperParameters()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get hyperparameters of optimizer %T", optimizer)
	}
	data := jsonenc.NewOrderedMap()
	data.Set(ModelConfigKey, architecture)
	data.Set(OptimizerConfigKey, hyperParams)
	return newConfig(KindModel, data)
}
