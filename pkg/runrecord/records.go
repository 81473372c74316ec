// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package runrecord

import (
	"fmt"
	"math"

	"github.com/gomlx/dllogger/pkg/optimizers"
	"github.com/pkg/errors"
)

// NoArchitecture is the printable form of a missing architecture.
const NoArchitecture = "None"

// ModelData holds the model fields of the record.
type ModelData struct {
	// Checkpoint path of the final model.
	Checkpoint string

	// Architecture of the model, in printable form.
	Architecture string

	// Epochs trained.
	Epochs int
}

// NewModelData creates a ModelData, converting architecture to its printable form: its String
// method if it is a fmt.Stringer, fmt.Sprint otherwise, and NoArchitecture if nil.
func NewModelData(checkpoint string, architecture any, epochs int) ModelData {
	return ModelData{
		Checkpoint:   checkpoint,
		Architecture: printable(architecture),
		Epochs:       epochs,
	}
}

func printable(architecture any) string {
	if architecture == nil {
		return NoArchitecture
	}
	if stringer, ok := architecture.(fmt.Stringer); ok {
		return stringer.String()
	}
	return fmt.Sprint(architecture)
}

// Validate returns an error wrapping ErrInvalidRecord if the fields are not valid.
func (m ModelData) Validate() error {
	if m.Epochs < 0 {
		return errors.Wrapf(ErrInvalidRecord, "model epochs must be >= 0, got %d", m.Epochs)
	}
	return nil
}

// MetricsData holds the per-epoch losses and metrics, and the final test metrics.
type MetricsData struct {
	TrainLosses  []float64
	ValLosses    []float64
	TrainMetrics []map[string]float64
	ValMetrics   []map[string]float64
	TestMetrics  map[string]float64
}

// Validate returns an error wrapping ErrInvalidRecord if the fields are not valid.
func (m MetricsData) Validate() error {
	for _, list := range []struct {
		name    string
		metrics []map[string]float64
	}{{"train_metrics", m.TrainMetrics}, {"val_metrics", m.ValMetrics}} {
		for epoch, metrics := range list.metrics {
			if _, found := metrics[""]; found {
				return errors.Wrapf(ErrInvalidRecord, "%s of epoch %d has a metric with an empty name", list.name, epoch)
			}
		}
	}
	if _, found := m.TestMetrics[""]; found {
		return errors.Wrapf(ErrInvalidRecord, "test_metrics has a metric with an empty name")
	}
	return nil
}

// OptimizerData holds the optimizer fields of the record.
type OptimizerData struct {
	// LR is the learning rate.
	LR float64

	// Optimizer name.
	Optimizer string

	// WeightDecay is the L2 regularization term.
	WeightDecay float64
}

// OptimizerDataFrom returns the OptimizerData of opt.
func OptimizerDataFrom(opt *optimizers.Optimizer) OptimizerData {
	return OptimizerData{
		LR:          opt.LearningRate(),
		Optimizer:   opt.Name(),
		WeightDecay: opt.WeightDecay(),
	}
}

// Validate returns an error wrapping ErrInvalidRecord if the fields are not valid.
func (o OptimizerData) Validate() error {
	if o.LR < 0 || math.IsNaN(o.LR) || math.IsInf(o.LR, 0) {
		return errors.Wrapf(ErrInvalidRecord, "learning rate must be finite and >= 0, got %g", o.LR)
	}
	if o.WeightDecay < 0 || math.IsNaN(o.WeightDecay) || math.IsInf(o.WeightDecay, 0) {
		return errors.Wrapf(ErrInvalidRecord, "weight decay must be finite and >= 0, got %g", o.WeightDecay)
	}
	return nil
}
