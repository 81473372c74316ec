// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/janpfeifer/must"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	flagLogManifest     string
	flagLogDescription  string
	flagLogMetricsCSV   string
	flagLogPoints       string
	flagLogArchitecture string
	flagLogOptimizer    string
	flagLogSettings     string
)

var logCmd = &cobra.Command{
	Use:   "log PROJECT_DIR EXPERIMENT",
	Short: "Registers an experiment in the project, from a YAML manifest and/or flags",
	Long: `Registers an experiment in the project, from a YAML manifest and/or flags.

Flags override the corresponding manifest fields. Registering an existing experiment
overwrites its files.`,
	Args: cobra.ExactArgs(2),
	RunE: runE(func(cmd *cobra.Command, args []string) {
		projectDir, name := args[0], args[1]
		manifest := &Manifest{}
		if flagLogManifest != "" {
			manifest = must.M1(LoadManifest(flagLogManifest))
		}
		applyLogFlags(manifest)
		cfgs := must.M1(manifest.Configs())
		proj := must.M1(openProject(projectDir, false))
		exp := must.M1(proj.CreateExperiment(name, cfgs, manifest.Description))
		klog.V(1).Infof("registered %s", exp)
		fmt.Printf("Experiment %q registered in %s\n", exp.Name(), exp.Dir())
	}),
}

// applyLogFlags overrides the manifest fields with the flags set.
func applyLogFlags(manifest *Manifest) {
	if flagLogDescription != "" {
		manifest.Description = flagLogDescription
	}
	if flagLogMetricsCSV != "" || flagLogPoints != "" {
		manifest.Metrics = &MetricsManifest{CSV: flagLogMetricsCSV, Points: flagLogPoints}
	}
	if flagLogArchitecture != "" || flagLogOptimizer != "" || flagLogSettings != "" {
		if manifest.Model == nil {
			manifest.Model = &ModelManifest{}
		}
		if flagLogArchitecture != "" {
			manifest.Model.Architecture = flagLogArchitecture
		}
		if flagLogOptimizer != "" {
			manifest.Model.Optimizer = flagLogOptimizer
		}
		if flagLogSettings != "" {
			manifest.Model.Settings = flagLogSettings
		}
	}
}

func init() {
	flags := logCmd.Flags()
	flags.StringVar(&flagLogManifest, "manifest", "", "YAML file describing the experiment configs.")
	flags.StringVar(&flagLogDescription, "description", "", "Free text description of the experiment.")
	flags.StringVar(&flagLogMetricsCSV, "metrics_csv", "", "CSV file with one row per epoch and one column per metric.")
	flags.StringVar(&flagLogPoints, "points", "",
		"GoMLX training points file, or checkpoint directory with one, to use as metrics.")
	flags.StringVar(&flagLogArchitecture, "architecture", "", "JSON file with the model architecture.")
	flags.StringVar(&flagLogOptimizer, "optimizer", "", "Optimizer name: sgd, adam, adamw, adamax or rmsprop.")
	flags.StringVar(&flagLogSettings, "set", "",
		`Optimizer hyperparameters settings, e.g.: "learning_rate=0.005;beta_1=0.95" or "file:<path>".`)
	rootCmd.AddCommand(logCmd)
}
