// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/gomlx/dllogger/pkg/optimizers"
	"github.com/gomlx/dllogger/pkg/runrecord"
	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// RecordManifest describes a flat run record.
//
// Example:
//
//	checkpoint: /work/ckpt/final
//	architecture: "Sequential(Conv2d(24, 48), ReLU(), Linear(216, 4))"
//	epochs: 2
//	optimizer: adam
//	settings: learning_rate=0.0001
//	train_losses: [0.9, 0.4]
//	test_metrics: {accuracy: 0.7}
//	annotations: first try
type RecordManifest struct {
	Checkpoint   string               `yaml:"checkpoint"`
	Architecture *string              `yaml:"architecture"`
	Epochs       int                  `yaml:"epochs"`
	Optimizer    string               `yaml:"optimizer"`
	Settings     string               `yaml:"settings"`
	TrainLosses  []float64            `yaml:"train_losses"`
	ValLosses    []float64            `yaml:"val_losses"`
	TrainMetrics []map[string]float64 `yaml:"train_metrics"`
	ValMetrics   []map[string]float64 `yaml:"val_metrics"`
	TestMetrics  map[string]float64   `yaml:"test_metrics"`
	Annotations  *string              `yaml:"annotations"`
}

// LoadRecordManifest reads a YAML record manifest.
func LoadRecordManifest(filePath string) (*RecordManifest, error) {
	filePath, err := fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return nil, err
	}
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read record manifest %q", filePath)
	}
	m := &RecordManifest{}
	if err = yaml.Unmarshal(contents, m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse record manifest %q", filePath)
	}
	return m, nil
}

// ExperimentData converts the manifest to a runrecord.ExperimentData.
func (m *RecordManifest) ExperimentData() (*runrecord.ExperimentData, error) {
	var architecture any
	if m.Architecture != nil {
		architecture = *m.Architecture
	}
	options := []runrecord.Option{
		runrecord.WithModel(runrecord.NewModelData(m.Checkpoint, architecture, m.Epochs)),
		runrecord.WithMetrics(runrecord.MetricsData{
			TrainLosses:  m.TrainLosses,
			ValLosses:    m.ValLosses,
			TrainMetrics: m.TrainMetrics,
			ValMetrics:   m.ValMetrics,
			TestMetrics:  m.TestMetrics,
		}),
	}
	if m.Optimizer != "" {
		opt, err := optimizers.ByName(m.Optimizer)
		if err != nil {
			return nil, err
		}
		if _, err = opt.ParseSettings(m.Settings); err != nil {
			return nil, err
		}
		options = append(options, runrecord.WithOptimizer(runrecord.OptimizerDataFrom(opt)))
	}
	if m.Annotations != nil {
		options = append(options, runrecord.WithAnnotations(*m.Annotations))
	}
	return runrecord.NewExperimentData(options...)
}

var flagRecordManifest string

var recordCmd = &cobra.Command{
	Use:   "record DIR NAME",
	Short: "Saves a flat run record to DIR/NAME.json, never overwriting an existing one",
	Args:  cobra.ExactArgs(2),
	RunE: runE(func(cmd *cobra.Command, args []string) {
		dir, name := args[0], args[1]
		manifest := &RecordManifest{}
		if flagRecordManifest != "" {
			manifest = must.M1(LoadRecordManifest(flagRecordManifest))
		}
		data := must.M1(manifest.ExperimentData())
		logger := must.M1(runrecord.NewLogger(dir))
		filePath := must.M1(logger.Save(data, name))
		fmt.Printf("Record saved to %s\n", filePath)
	}),
}

func init() {
	recordCmd.Flags().StringVar(&flagRecordManifest, "manifest", "", "YAML file with the record fields.")
	rootCmd.AddCommand(recordCmd)
}
