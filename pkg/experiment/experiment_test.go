// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package experiment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfigs(t *testing.T) (metrics, model *configs.Config) {
	t.Helper()
	metrics, err := configs.NewMetricsConfig(configs.History{
		{Name: "loss", Values: []float64{0.9, 0.4}},
		{Name: "val_loss", Values: []float64{1.0, 0.6}},
	})
	require.NoError(t, err)
	model, err = configs.NewModelConfig(&configs.ModelSnapshot{
		ArchitectureConfig: map[string]any{"name": "sequential_1"},
		OptimizerConfig:    configs.HyperParameters{"learning_rate": 0.005},
	})
	require.NoError(t, err)
	return
}

func TestRegisterAndOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mnist", "baseline")
	metrics, model := testConfigs(t)
	datetime := time.Date(2024, 5, 17, 10, 30, 15, 123456789, time.Local)
	exp, err := Build(dir, "baseline", datetime).
		Description("first run").
		Configs(metrics, model).
		Done()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 17, 10, 30, 15, 0, time.Local), exp.Datetime())
	require.NoError(t, exp.Register())

	info, err := jsonenc.ReadFile(filepath.Join(dir, InfoFileName))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "description", "datetime"}, info.Keys())
	datetimeStr, _ := info.Get("datetime")
	assert.Equal(t, "2024-05-17T10:30:15", datetimeStr)

	contents, err := os.ReadFile(filepath.Join(dir, DataFileName))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "\n    \"metrics\": {\n        \"epoch_0\": {")

	loaded, err := Open(dir)
	require.NoError(t, err)
	if diff := cmp.Diff(exp.Info(), loaded.Info()); diff != "" {
		t.Errorf("Info mismatch (-registered +loaded):\n%s", diff)
	}
	assert.True(t, exp.Datetime().Equal(loaded.Datetime()))
	if diff := cmp.Diff(exp.Configs(), loaded.Configs()); diff != "" {
		t.Errorf("Configs mismatch (-registered +loaded):\n%s", diff)
	}
}

func TestCategoryCollision(t *testing.T) {
	dir := t.TempDir()
	first, _ := testConfigs(t)
	second, err := configs.NewMetricsConfig(configs.History{{Name: "loss", Values: []float64{0.1}}})
	require.NoError(t, err)
	exp, err := Build(dir, "collision", time.Now()).Configs(first, second).Done()
	require.NoError(t, err)
	require.NoError(t, exp.Register())

	loaded, err := Open(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Configs(), 1)
	assert.True(t, second.Equal(loaded.Configs()[0]), "the later config must be kept")
	cfg, found := exp.Config("metrics")
	require.True(t, found)
	assert.Same(t, second, cfg)
}

func TestRegisterNotAConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exp")
	metrics, _ := testConfigs(t)
	for _, invalid := range []*configs.Config{nil, {}} {
		exp, err := Build(dir, "invalid", time.Now()).Configs(metrics, invalid).Done()
		require.NoError(t, err)
		err = exp.Register()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotAConfig))
		assert.Contains(t, err.Error(), "element #1")
		_, statErr := os.Stat(filepath.Join(dir, InfoFileName))
		assert.True(t, os.IsNotExist(statErr), "nothing should be written")
	}
}

func TestReRegister(t *testing.T) {
	dir := t.TempDir()
	metrics, model := testConfigs(t)
	exp, err := Build(dir, "rerun", time.Now()).Configs(metrics, model).Done()
	require.NoError(t, err)
	require.NoError(t, exp.Register())
	exp.SetDescription("updated")
	require.NoError(t, exp.Register(), "registering again overwrites the files")
	loaded, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "updated", loaded.Description())
}

func TestLoadErrors(t *testing.T) {
	_, err := Build("", "no dir", time.Now()).Done()
	require.Error(t, err)

	dir := t.TempDir()
	_, err = Open(dir)
	require.Error(t, err)

	require.NoError(t, jsonenc.WriteFile(filepath.Join(dir, InfoFileName),
		Info{Name: "unknown", Datetime: "2024-05-17T10:30:15"}))
	require.NoError(t, jsonenc.WriteFile(filepath.Join(dir, DataFileName),
		map[string]any{"optimizer": map[string]any{"lr": 0.1}}))
	_, err = Open(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, configs.ErrUnknownCategory))

	require.NoError(t, jsonenc.WriteFile(filepath.Join(dir, InfoFileName),
		Info{Name: "bad date", Datetime: "17/05/2024"}))
	_, err = Open(dir)
	require.Error(t, err)
}
