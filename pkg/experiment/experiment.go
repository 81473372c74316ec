// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package experiment implements Experiment: a named, timestamped and described collection of
// configs.Config, saved as two JSON files in the experiment folder:
//
//   - InfoFileName ("experiment_config.json"): {"name", "description", "datetime"};
//   - DataFileName ("experiment_data.json"): one entry per Config category, in the order the
//     Configs were given. If two Configs have the same category, the later one is kept.
//
// Experiments are usually created with project.Project.CreateExperiment. To create one directly:
//
//	exp, err := experiment.Build(dir, "baseline", time.Now()).
//		Description("Adam with default settings").
//		Configs(metricsCfg, modelCfg).
//		Done()
//	if err != nil { ... }
//	err = exp.Register()
//
// Open (or Load) reads a registered experiment back.
package experiment

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// InfoFileName is the name of the file with the experiment name, description and datetime.
	InfoFileName = "experiment_config.json"

	// DataFileName is the name of the file with the data of the experiment Configs.
	DataFileName = "experiment_data.json"

	// DatetimeLayout of the experiment datetime, with second precision and no time zone.
	DatetimeLayout = "2006-01-02T15:04:05"
)

// ErrNotAConfig is returned by Register if any of the configs is nil or not created by one of the
// configs constructors.
var ErrNotAConfig = errors.New("is not a Config object")

// Info is the contents of InfoFileName.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Datetime    string `json:"datetime"`
}

// Experiment is a named collection of configs.Config, to be saved in a folder.
type Experiment struct {
	dir, name, description string
	datetime               time.Time
	configs                []*configs.Config
}

// Builder for an Experiment, created with Build. Once configured, call Done.
type Builder struct {
	exp *Experiment
}

// Build starts the configuration of an Experiment to be saved in dir, with the given name and
// datetime (usually time.Now()). The datetime is truncated to seconds.
func Build(dir, name string, datetime time.Time) *Builder {
	return &Builder{exp: &Experiment{
		dir:      dir,
		name:     name,
		datetime: datetime.Truncate(time.Second),
	}}
}

// Description sets the free text description of the experiment. Default is empty.
func (b *Builder) Description(description string) *Builder {
	b.exp.description = description
	return b
}

// Configs appends configs to the experiment. They are only validated when registering.
func (b *Builder) Configs(cfgs ...*configs.Config) *Builder {
	b.exp.configs = append(b.exp.configs, cfgs...)
	return b
}

// Done returns the configured Experiment. It doesn't write anything, see Experiment.Register.
func (b *Builder) Done() (*Experiment, error) {
	if b.exp.dir == "" {
		return nil, errors.Errorf("directory of experiment %q not configured or empty", b.exp.name)
	}
	return b.exp, nil
}

// Name of the experiment.
func (e *Experiment) Name() string { return e.name }

// Description of the experiment.
func (e *Experiment) Description() string { return e.description }

// SetDescription replaces the description. It is only saved on the next Register.
func (e *Experiment) SetDescription(description string) { e.description = description }

// Datetime of the experiment, with second precision.
func (e *Experiment) Datetime() time.Time { return e.datetime }

// Dir where the experiment files are saved.
func (e *Experiment) Dir() string { return e.dir }

// Configs returns the list of configs of the experiment, in order.
func (e *Experiment) Configs() []*configs.Config { return slices.Clone(e.configs) }

// Config returns the last Config of the experiment with the given category.
func (e *Experiment) Config(category string) (*configs.Config, bool) {
	for _, cfg := range slices.Backward(e.configs) {
		if cfg.Category() == category {
			return cfg, true
		}
	}
	return nil, false
}

// Info returns the contents of InfoFileName.
func (e *Experiment) Info() Info {
	return Info{
		Name:        e.name,
		Description: e.description,
		Datetime:    e.datetime.Format(DatetimeLayout),
	}
}

// Data merges the (category, data) pairs of all configs, in order: a later Config replaces the data
// of an earlier one with the same category.
//
// It fails with ErrNotAConfig if any of the configs is not valid.
func (e *Experiment) Data() (*jsonenc.OrderedMap, error) {
	data := jsonenc.NewOrderedMap()
	for ii, cfg := range e.configs {
		if !cfg.IsValid() {
			return nil, errors.Wrapf(ErrNotAConfig, "experiment %q: element #%d (%T, %s)", e.name, ii, cfg, cfg)
		}
		category, cfgData := cfg.Config()
		data.Set(category, cfgData)
	}
	return data, nil
}

// Register saves the experiment files, InfoFileName and DataFileName, in the experiment folder,
// which is created if needed. Existing files are overwritten.
//
// All configs are validated before anything is written. The two files are not written atomically:
// an error writing the second one leaves the first one in place.
func (e *Experiment) Register() error {
	data, err := e.Data()
	if err != nil {
		return err
	}
	if err = fsutil.EnsureDir(e.dir); err != nil {
		return errors.WithMessagef(err, "while registering experiment %q", e.name)
	}
	if err = jsonenc.WriteFile(filepath.Join(e.dir, InfoFileName), e.Info()); err != nil {
		return errors.WithMessagef(err, "while registering experiment %q", e.name)
	}
	if err = jsonenc.WriteFile(filepath.Join(e.dir, DataFileName), data); err != nil {
		return errors.WithMessagef(err, "while registering experiment %q", e.name)
	}
	klog.V(1).Infof("registered experiment %q in %q with categories %q", e.name, e.dir, data.Keys())
	return nil
}

// String implements fmt.Stringer.
func (e *Experiment) String() string {
	return fmt.Sprintf("Experiment(%q, %s, %d configs)", e.name, e.datetime.Format(DatetimeLayout), len(e.configs))
}
