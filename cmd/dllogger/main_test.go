// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/gomlx/dllogger/pkg/project"
	"github.com/gomlx/dllogger/pkg/runrecord"
	"github.com/janpfeifer/gonb/gonbui/plotly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, filePath, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filePath, []byte(contents), 0600))
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "history.csv"), "epoch,loss,val_loss\n0,0.9,1.0\n1,0.5,0.7\n2,0.25,0.6\n")
	writeFile(t, filepath.Join(dir, "model.json"), `{"name": "sequential_1", "layers": [{"class_name": "Dense"}]}`)
	writeFile(t, filepath.Join(dir, "manifest.yaml"), `
description: Adam with a larger learning rate
metrics:
  csv: history.csv
model:
  architecture: model.json
  optimizer: adam
  settings: learning_rate=0.005;beta_1=0.95
callbacks:
  - name: EarlyStopping
    attributes: {monitor: val_loss, patience: 3, _internal: 1}
`)
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Adam with a larger learning rate", manifest.Description)

	cfgs, err := manifest.Configs()
	require.NoError(t, err)
	require.Len(t, cfgs, 3)

	metrics := cfgs[0]
	assert.Equal(t, "metrics", metrics.Category())
	assert.Equal(t, []string{"epoch_0", "epoch_1", "epoch_2"}, metrics.Data().Keys())
	epoch1, _ := metrics.Data().Get("epoch_1")
	assert.Equal(t, []string{"loss", "val_loss"}, epoch1.(*jsonenc.OrderedMap).Keys(), "epoch column must be dropped")

	model := cfgs[1]
	optimizerConfig, _ := model.Data().Get(configs.OptimizerConfigKey)
	lr, _ := optimizerConfig.(*jsonenc.OrderedMap).Get("learning_rate")
	assert.Equal(t, 0.005, lr)
	modelConfig, _ := model.Data().Get(configs.ModelConfigKey)
	assert.Equal(t, []string{"name", "layers"}, modelConfig.(*jsonenc.OrderedMap).Keys())

	callbacks := cfgs[2]
	earlyStopping, _ := callbacks.Data().Get("EarlyStopping")
	assert.Equal(t, []string{"monitor", "patience"}, earlyStopping.(*jsonenc.OrderedMap).Keys())

	// Invalid manifests.
	_, err = (&Manifest{Metrics: &MetricsManifest{}}).Configs()
	require.Error(t, err)
	_, err = (&Manifest{Model: &ModelManifest{}}).Configs()
	require.Error(t, err)
	_, err = (&Manifest{Model: &ModelManifest{Optimizer: "adam", Settings: "unknown=1"}}).Configs()
	require.Error(t, err)
}

func TestRecordManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "record.yaml")
	writeFile(t, manifestPath, `
checkpoint: /work/ckpt/final
architecture: "Sequential(Linear(216, 4))"
epochs: 2
optimizer: sgd
settings: learning_rate=0.1
train_losses: [0.9, 0.4]
test_metrics: {accuracy: 0.7}
annotations: first try
`)
	manifest, err := LoadRecordManifest(manifestPath)
	require.NoError(t, err)
	data, err := manifest.ExperimentData()
	require.NoError(t, err)
	assert.Equal(t, "SGD", data.Optimizer().Optimizer)
	assert.Equal(t, 0.1, data.Optimizer().LR)
	assert.Equal(t, "Sequential(Linear(216, 4))", data.Model().Architecture)
	annotations, found := data.Annotations()
	assert.True(t, found)
	assert.Equal(t, "first try", annotations)

	// No architecture given.
	data, err = (&RecordManifest{}).ExperimentData()
	require.NoError(t, err)
	assert.Equal(t, runrecord.NoArchitecture, data.Model().Architecture)
}

func TestBuildFigures(t *testing.T) {
	histories := []configs.History{
		{{Name: "loss", Values: []float64{0.9, math.NaN(), 0.3}}},
		{{Name: "loss", Values: []float64{0.8, 0.4}}, {Name: "accuracy", Values: []float64{0.5, 0.6}}},
	}
	figures := BuildFigures([]string{"baseline", "adamw"}, histories, true)
	require.Len(t, figures, 2)
	assert.Len(t, figures[0].Data, 2)
	assert.Len(t, figures[1].Data, 1)

	var buf bytes.Buffer
	require.NoError(t, WritePlotlyAsHTML(&buf, figures...))
	html := buf.String()
	assert.Contains(t, html, plotly.PlotlySrc)
	assert.Contains(t, html, "Plotly.newPlot('plot1', data);")
}

func TestCommands(t *testing.T) {
	root := t.TempDir()
	projectDir := filepath.Join(root, "mnist")
	csvPath := filepath.Join(root, "history.csv")
	writeFile(t, csvPath, "loss,accuracy\n0.9,0.5\n0.4,0.75\n")

	for name, optimizer := range map[string]string{"baseline": "adam", "adamw": "adamw"} {
		rootCmd.SetArgs([]string{"log", projectDir, name,
			"--metrics_csv", csvPath, "--optimizer", optimizer, "--description", "run " + name})
		require.NoError(t, rootCmd.Execute())
	}
	proj, err := project.New(root, "mnist")
	require.NoError(t, err)
	exp, err := proj.OpenExperiment("baseline")
	require.NoError(t, err)
	assert.Equal(t, "run baseline", exp.Description())
	require.Len(t, exp.Configs(), 2)

	rootCmd.SetArgs([]string{"list", projectDir})
	require.NoError(t, rootCmd.Execute())
	rootCmd.SetArgs([]string{"show", projectDir, "baseline"})
	require.NoError(t, rootCmd.Execute())

	htmlPath := filepath.Join(root, "plots.html")
	rootCmd.SetArgs([]string{"plot", projectDir, "baseline", "adamw", "--output", htmlPath})
	require.NoError(t, rootCmd.Execute())
	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "plot1")

	rootCmd.SetArgs([]string{"show", filepath.Join(root, "missing"), "baseline"})
	require.Error(t, rootCmd.Execute())

	recordsDir := filepath.Join(root, "records")
	rootCmd.SetArgs([]string{"record", recordsDir, "run_1"})
	require.NoError(t, rootCmd.Execute())
	rootCmd.SetArgs([]string{"record", recordsDir, "run_1"})
	require.Error(t, rootCmd.Execute(), "records are never overwritten")
}
