// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package configs

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/pkg/errors"
)

// EpochKeyPrefix is prepended to the 0-based row index to form the epoch keys of the metrics data.
const EpochKeyPrefix = "epoch_"

// EpochKey returns the key used in the metrics data for the epoch index (0-based).
func EpochKey(epoch int) string {
	return fmt.Sprintf("%s%d", EpochKeyPrefix, epoch)
}

// Column of a History: the value of one metric for each epoch.
type Column struct {
	Name   string
	Values []float64
}

// History of the training metrics, one Column per metric, all with one value per epoch.
// The order of the columns is the order the metrics are written for each epoch.
type History []Column

// NumEpochs returns the number of epochs in the history, or an error if the columns have different lengths.
func (h History) NumEpochs() (int, error) {
	if len(h) == 0 {
		return 0, nil
	}
	numEpochs := len(h[0].Values)
	for _, col := range h[1:] {
		if len(col.Values) != numEpochs {
			return 0, errors.Wrapf(ErrTypeMismatch, "metrics history column %q has %d values, but column %q has %d",
				col.Name, len(col.Values), h[0].Name, numEpochs)
		}
	}
	return numEpochs, nil
}

// NewMetricsConfig creates a Config of KindMetrics. The data has one entry per epoch (row) keyed
// "epoch_<i>" (0-based, in row order), and each entry maps the metric (column) name to its value
// as a float64.
//
// The source can be:
//
//   - a gota dataframe.DataFrame (or a pointer to one): one row per epoch, one column per metric.
//     Columns must be numeric (int, float or bool).
//   - a History.
//   - a []Point, as saved during training by GoMLX: one entry per distinct step (in step order),
//     one metric per Point.MetricName.
//   - a *jsonenc.OrderedMap or a map[string]any with previously saved metrics data, stored as is.
//
// Any other type fails with ErrTypeMismatch. NaN and infinite values are stored as null.
func NewMetricsConfig(source any) (*Config, error) {
	switch s := source.(type) {
	case *jsonenc.OrderedMap, map[string]any:
		return fromMapping(KindMetrics, s)
	case dataframe.DataFrame:
		return metricsFromDataFrame(s)
	case *dataframe.DataFrame:
		if s == nil {
			break
		}
		return metricsFromDataFrame(*s)
	case History:
		return metricsFromHistory(s)
	case []Point:
		return metricsFromPoints(s)
	}
	return nil, errors.Wrapf(ErrTypeMismatch,
		"metrics config requires a dataframe.DataFrame, a configs.History, a []configs.Point or a mapping, got %T", source)
}

func metricsFromDataFrame(df dataframe.DataFrame) (*Config, error) {
	if df.Err != nil {
		return nil, errors.Wrapf(ErrTypeMismatch, "metrics data frame is invalid: %v", df.Err)
	}
	names := df.Names()
	history := make(History, 0, len(names))
	for _, name := range names {
		col := df.Col(name)
		if col.Type() == series.String {
			return nil, errors.Wrapf(ErrTypeMismatch, "metrics data frame column %q is not numeric", name)
		}
		history = append(history, Column{Name: name, Values: col.Float()})
	}
	return metricsFromHistory(history)
}

func metricsFromHistory(history History) (*Config, error) {
	numEpochs, err := history.NumEpochs()
	if err != nil {
		return nil, err
	}
	data := jsonenc.NewOrderedMap()
	for epoch := range numEpochs {
		values := jsonenc.NewOrderedMap()
		for _, col := range history {
			values.Set(col.Name, col.Values[epoch])
		}
		data.Set(EpochKey(epoch), values)
	}
	return newConfig(KindMetrics, data)
}

// HistoryFromMetrics converts the data of a metrics Config back to a History, with the columns in the
// order they first appear. Epochs missing a metric, or with a null value, get a NaN.
func HistoryFromMetrics(c *Config) (History, error) {
	if c.Kind() != KindMetrics {
		return nil, errors.Wrapf(ErrTypeMismatch, "expected a metrics config, got %s", c)
	}
	data := c.Data()
	var history History
	colIdx := make(map[string]int)
	numEpochs := data.Len()
	epoch := 0
	for epochKey, value := range data.All() {
		values, ok := value.(*jsonenc.OrderedMap)
		if !ok {
			return nil, errors.Wrapf(ErrTypeMismatch, "metrics entry %q is a %T, not an object", epochKey, value)
		}
		for name, metricValue := range values.All() {
			idx, found := colIdx[name]
			if !found {
				idx = len(history)
				colIdx[name] = idx
				history = append(history, Column{Name: name, Values: nanSlice(numEpochs)})
			}
			if metricValue == nil {
				continue
			}
			f, ok := jsonenc.Float64(metricValue)
			if !ok {
				return nil, errors.Wrapf(ErrTypeMismatch, "metrics entry %q, metric %q is a %T, not a number",
					epochKey, name, metricValue)
			}
			history[idx].Values[epoch] = f
		}
		epoch++
	}
	return history, nil
}
