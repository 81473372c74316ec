// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/gomlx/dllogger/pkg/optimizers"
	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultDropColumns are the CSV columns that are not metrics: the epoch index written by Keras'
// CSVLogger.
var DefaultDropColumns = []string{"epoch"}

// Manifest describes the configs of an experiment to log. Relative paths are relative to the
// manifest file.
//
// Example:
//
//	description: Adam with a larger learning rate
//	metrics:
//	  csv: history.csv
//	model:
//	  architecture: model.json
//	  optimizer: adam
//	  settings: learning_rate=0.005;beta_1=0.95
//	callbacks:
//	  - name: EarlyStopping
//	    attributes: {monitor: val_loss, patience: 3}
type Manifest struct {
	Description string             `yaml:"description"`
	Metrics     *MetricsManifest   `yaml:"metrics"`
	Model       *ModelManifest     `yaml:"model"`
	Callbacks   []CallbackManifest `yaml:"callbacks"`

	// baseDir of relative paths.
	baseDir string
}

// MetricsManifest selects the source of the metrics: a CSV file (one row per epoch, one column per
// metric) or a GoMLX training points file.
type MetricsManifest struct {
	CSV         string   `yaml:"csv"`
	Points      string   `yaml:"points"`
	DropColumns []string `yaml:"drop_columns"`
}

// ModelManifest describes the model: its architecture as a JSON file, and its optimizer by name
// with optional settings ("k=v;k=v").
type ModelManifest struct {
	Architecture string `yaml:"architecture"`
	Optimizer    string `yaml:"optimizer"`
	Settings     string `yaml:"settings"`
}

// CallbackManifest describes one callback.
type CallbackManifest struct {
	Name       string         `yaml:"name"`
	Attributes map[string]any `yaml:"attributes"`
}

// LoadManifest reads a YAML manifest file.
func LoadManifest(filePath string) (*Manifest, error) {
	filePath, err := fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return nil, err
	}
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %q", filePath)
	}
	m := &Manifest{}
	if err = yaml.Unmarshal(contents, m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %q", filePath)
	}
	m.baseDir = filepath.Dir(filePath)
	return m, nil
}

// path resolves a path of the manifest.
func (m *Manifest) path(p string) string {
	p = fsutil.MustReplaceTildeInDir(p)
	if m.baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.baseDir, p)
}

// Configs builds the configs described by the manifest, in the order metrics, model, callbacks.
func (m *Manifest) Configs() ([]*configs.Config, error) {
	var cfgs []*configs.Config
	if m.Metrics != nil {
		cfg, err := m.metricsConfig()
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	if m.Model != nil {
		cfg, err := m.modelConfig()
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	if len(m.Callbacks) > 0 {
		callbacks := make([]configs.Callback, 0, len(m.Callbacks))
		for ii, cb := range m.Callbacks {
			if cb.Name == "" {
				return nil, errors.Errorf("callback #%d in manifest has no name", ii)
			}
			callbacks = append(callbacks, &configs.SimpleCallback{TypeName: cb.Name, Attrs: cb.Attributes})
		}
		cfg, err := configs.NewCallbackConfig(callbacks)
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func (m *Manifest) metricsConfig() (*configs.Config, error) {
	mm := m.Metrics
	switch {
	case mm.CSV != "" && mm.Points != "":
		return nil, errors.New("metrics in manifest must set only one of csv or points")
	case mm.CSV != "":
		dropColumns := mm.DropColumns
		if dropColumns == nil {
			dropColumns = DefaultDropColumns
		}
		df, err := readMetricsCSV(m.path(mm.CSV), dropColumns)
		if err != nil {
			return nil, err
		}
		return configs.NewMetricsConfig(df)
	case mm.Points != "":
		pointsPath := m.path(mm.Points)
		var points []configs.Point
		var err error
		if isDir, _ := isDirectory(pointsPath); isDir {
			points, err = configs.LoadPointsFromCheckpoint(pointsPath)
		} else {
			points, err = configs.LoadPoints(pointsPath)
		}
		if err != nil {
			return nil, err
		}
		return configs.NewMetricsConfig(points)
	}
	return nil, errors.New("metrics in manifest must set csv or points")
}

// readMetricsCSV reads a CSV file with a header into a gota data frame, dropping the given columns
// if present.
func readMetricsCSV(filePath string, dropColumns []string) (*dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open metrics file %q", filePath)
	}
	defer func() { _ = f.Close() }()
	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to parse metrics file %q", filePath)
	}
	var toDrop []string
	for _, name := range df.Names() {
		if slices.Contains(dropColumns, name) {
			toDrop = append(toDrop, name)
		}
	}
	if len(toDrop) > 0 {
		df = df.Drop(toDrop)
		if df.Err != nil {
			return nil, errors.Wrapf(df.Err, "failed to drop columns %q of metrics file %q", toDrop, filePath)
		}
	}
	return &df, nil
}

func (m *Manifest) modelConfig() (*configs.Config, error) {
	mm := m.Model
	model := &configs.ModelSnapshot{}
	if mm.Architecture != "" {
		architecture, err := readJSON(m.path(mm.Architecture))
		if err != nil {
			return nil, err
		}
		model.ArchitectureConfig = architecture
	}
	if mm.Optimizer == "" {
		return nil, errors.New("model in manifest has no optimizer")
	}
	opt, err := optimizers.ByName(mm.Optimizer)
	if err != nil {
		return nil, err
	}
	if _, err = opt.ParseSettings(mm.Settings); err != nil {
		return nil, err
	}
	model.OptimizerConfig = opt
	return configs.NewModelConfig(model)
}

// readJSON reads any JSON value from a file, keeping the order of object keys.
func readJSON(filePath string) (any, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", filePath)
	}
	value, err := jsonenc.Unmarshal(contents)
	if err != nil {
		return nil, errors.WithMessagef(err, "while parsing %q", filePath)
	}
	return value, nil
}

func isDirectory(p string) (bool, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}
