// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package configs

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/gomlx/dllogger/pkg/support/xslices"
	"github.com/pkg/errors"
)

// TrainingPlotFileName is the file name within a GoMLX checkpoint directory that holds the
// plot points collected during training.
const TrainingPlotFileName = "training_plot_points.json"

// Point is one metric measured during training, as saved by GoMLX in TrainingPlotFileName.
type Point struct {
	// MetricName of this point, e.g.: "Eval on Validation: Mean Loss".
	MetricName string

	// Short name
	Short string

	// MetricType typically will be "loss", "accuracy".
	MetricType string

	// Step is the global step this metric was measured.
	// Usually, this is an int value, stored as a float64.
	Step float64

	// Value is the metric captured.
	Value float64
}

// LoadPointsFromCheckpoint loads the points in TrainingPlotFileName of a GoMLX checkpoint directory.
func LoadPointsFromCheckpoint(checkpointDir string) ([]Point, error) {
	checkpointDir, err := fsutil.ReplaceTildeInDir(checkpointDir)
	if err != nil {
		return nil, err
	}
	return LoadPoints(filepath.Join(checkpointDir, TrainingPlotFileName))
}

// LoadPoints parses all points saved in the given file: a stream of JSON encoded Point values.
func LoadPoints(filePath string) ([]Point, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read points file %q", filePath)
	}
	defer func() { _ = f.Close() }()

	dec := json.NewDecoder(f)
	var points []Point
	for {
		var point Point
		err := dec.Decode(&point)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error while decoding points file %q", filePath)
		}
		points = append(points, point)
	}
	return points, nil
}

// metricsFromPoints converts points to a History with one epoch per distinct step, sorted by step,
// and one column per metric name, in order of first appearance.
func metricsFromPoints(points []Point) (*Config, error) {
	var steps []float64
	stepIdx := make(map[float64]int)
	for _, p := range points {
		if _, found := stepIdx[p.Step]; !found {
			stepIdx[p.Step] = -1
			steps = append(steps, p.Step)
		}
	}
	slices.Sort(steps)
	for idx, step := range steps {
		stepIdx[step] = idx
	}

	var history History
	colIdx := make(map[string]int)
	for _, p := range points {
		if p.MetricName == "" {
			return nil, errors.Wrapf(ErrTypeMismatch, "point at step %g has no metric name", p.Step)
		}
		idx, found := colIdx[p.MetricName]
		if !found {
			idx = len(history)
			colIdx[p.MetricName] = idx
			history = append(history, Column{Name: p.MetricName, Values: nanSlice(len(steps))})
		}
		history[idx].Values[stepIdx[p.Step]] = p.Value
	}
	return metricsFromHistory(history)
}

func nanSlice(n int) []float64 {
	return xslices.SliceWithValue(n, math.NaN())
}
