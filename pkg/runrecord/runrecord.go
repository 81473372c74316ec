// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package runrecord implements a flat, fixed schema, record of a training run, and a Logger that
// saves each record to its own JSON file, never overwriting an existing one.
//
// It is independent of the configs/experiment/project packages: the record is written in one file
// with the keys (in this order):
//
//	lr, optimizer, weight_decay, checkpoint, architecture, epochs,
//	train_losses, val_losses, train_metrics, val_metrics, test_metrics,
//	annotations (only if set), date, time
//
// Example:
//
//	data, err := runrecord.NewExperimentData(
//		runrecord.WithModel(runrecord.NewModelData("/ckpt/final", model, 10)),
//		runrecord.WithOptimizer(runrecord.OptimizerDataFrom(opt)),
//		runrecord.WithMetrics(runrecord.MetricsData{TrainLosses: losses}))
//	if err != nil { ... }
//	logger, err := runrecord.NewLogger("~/work/runs")
//	if err != nil { ... }
//	filePath, err := logger.Save(data, "baseline")
package runrecord

import (
	"time"

	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/pkg/errors"
)

// Layouts of the "date" and "time" fields of the record.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

var (
	// ErrInvalidRecord is returned by NewExperimentData if any of its parts fails validation.
	ErrInvalidRecord = errors.New("runrecord: invalid record")

	// ErrNotExperimentData is returned by Logger.Save if not given an ExperimentData.
	ErrNotExperimentData = errors.New("The data must be an ExperimentData object")

	// ErrFileExists is returned by Logger.Save if the record file already exists.
	ErrFileExists = errors.New("runrecord: record file already exists")
)

// ExperimentData is the record of one training run. Create it with NewExperimentData.
type ExperimentData struct {
	model       ModelData
	metrics     MetricsData
	optimizer   OptimizerData
	annotations *string
	timestamp   time.Time
}

// Option for NewExperimentData.
type Option func(d *ExperimentData)

// WithModel sets the model fields of the record.
func WithModel(model ModelData) Option {
	return func(d *ExperimentData) { d.model = model }
}

// WithMetrics sets the metrics fields of the record.
func WithMetrics(metrics MetricsData) Option {
	return func(d *ExperimentData) { d.metrics = metrics }
}

// WithOptimizer sets the optimizer fields of the record.
func WithOptimizer(optimizer OptimizerData) Option {
	return func(d *ExperimentData) { d.optimizer = optimizer }
}

// WithAnnotations sets free text annotations. Without it, there is no "annotations" key in the record.
func WithAnnotations(annotations string) Option {
	return func(d *ExperimentData) { d.annotations = &annotations }
}

// WithTimestamp sets the time of the record. By default, it is the time the record is saved.
func WithTimestamp(timestamp time.Time) Option {
	return func(d *ExperimentData) { d.timestamp = timestamp }
}

// NewExperimentData creates a record with the given options. Fields not set get their zero
// values, and the architecture defaults to NoArchitecture.
//
// It fails with an error wrapping ErrInvalidRecord if any of the parts fails validation.
func NewExperimentData(options ...Option) (*ExperimentData, error) {
	d := &ExperimentData{model: NewModelData("", nil, 0)}
	for _, option := range options {
		option(d)
	}
	if err := d.model.Validate(); err != nil {
		return nil, err
	}
	if err := d.metrics.Validate(); err != nil {
		return nil, err
	}
	if err := d.optimizer.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Model fields of the record.
func (d *ExperimentData) Model() ModelData { return d.model }

// Metrics fields of the record.
func (d *ExperimentData) Metrics() MetricsData { return d.metrics }

// Optimizer fields of the record.
func (d *ExperimentData) Optimizer() OptimizerData { return d.optimizer }

// Annotations of the record, and whether they were set.
func (d *ExperimentData) Annotations() (string, bool) {
	if d.annotations == nil {
		return "", false
	}
	return *d.annotations, true
}

// Timestamp of the record. It is zero if not set and the record was not loaded from a file.
func (d *ExperimentData) Timestamp() time.Time { return d.timestamp }

// Get returns the flat record, with "date" and "time" taken from the record timestamp, or from the
// current time if not set.
func (d *ExperimentData) Get() *jsonenc.OrderedMap {
	timestamp := d.timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return d.recordAt(timestamp)
}

func (d *ExperimentData) recordAt(timestamp time.Time) *jsonenc.OrderedMap {
	r := jsonenc.NewOrderedMap()
	r.Set("lr", d.optimizer.LR)
	r.Set("optimizer", d.optimizer.Optimizer)
	r.Set("weight_decay", d.optimizer.WeightDecay)
	r.Set("checkpoint", d.model.Checkpoint)
	r.Set("architecture", d.model.Architecture)
	r.Set("epochs", d.model.Epochs)
	r.Set("train_losses", d.metrics.TrainLosses)
	r.Set("val_losses", d.metrics.ValLosses)
	r.Set("train_metrics", d.metrics.TrainMetrics)
	r.Set("val_metrics", d.metrics.ValMetrics)
	r.Set("test_metrics", d.metrics.TestMetrics)
	if d.annotations != nil {
		r.Set("annotations", *d.annotations)
	}
	r.Set("date", timestamp.Format(DateLayout))
	r.Set("time", timestamp.Format(TimeLayout))
	return r
}
