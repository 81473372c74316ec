// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package configs

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	assert.Equal(t, "metrics", KindMetrics.String())
	assert.Equal(t, "model", KindModel.String())
	assert.Equal(t, "callbacks", KindCallbacks.String())
	kind, err := KindString("callbacks")
	require.NoError(t, err)
	assert.Equal(t, KindCallbacks, kind)
	_, err = KindString("optimizer")
	require.Error(t, err)
	assert.False(t, Kind(17).IsAKind())
}

func TestZeroConfig(t *testing.T) {
	var zero Config
	assert.False(t, zero.IsValid())
	assert.Equal(t, KindInvalid, zero.Kind())
	var nilConfig *Config
	assert.False(t, nilConfig.IsValid())
	category, data := nilConfig.Config()
	assert.Equal(t, "invalid", category)
	assert.Nil(t, data)
}

func getPath(t *testing.T, m *jsonenc.OrderedMap, keys ...string) any {
	t.Helper()
	var value any = m
	for _, key := range keys {
		obj, ok := value.(*jsonenc.OrderedMap)
		require.True(t, ok, "value at %q is a %T, not an object", key, value)
		var found bool
		value, found = obj.Get(key)
		require.True(t, found, "key %q not found", key)
	}
	return value
}

func TestMetricsConfigFromDataFrame(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{0.9, 0.5, 0.25}, series.Float, "loss"),
		series.New([]int{1, 2, 3}, series.Int, "count"),
	)
	cfg, err := NewMetricsConfig(df)
	require.NoError(t, err)
	category, data := cfg.Config()
	assert.Equal(t, "metrics", category)
	assert.Equal(t, []string{"epoch_0", "epoch_1", "epoch_2"}, data.Keys())
	epoch0 := getPath(t, data, "epoch_0").(*jsonenc.OrderedMap)
	assert.Equal(t, []string{"loss", "count"}, epoch0.Keys())
	assert.Equal(t, 0.25, getPath(t, data, "epoch_2", "loss"))
	assert.Equal(t, 2.0, getPath(t, data, "epoch_1", "count"))

	// Pointer to data frame.
	cfgPtr, err := NewMetricsConfig(&df)
	require.NoError(t, err)
	assert.True(t, cfg.Equal(cfgPtr))

	// Non-numeric columns.
	_, err = NewMetricsConfig(dataframe.New(series.New([]string{"a"}, series.String, "name")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	// Empty data frame: no epochs.
	cfg, err = NewMetricsConfig(History{})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Data().Len())
}

func TestMetricsConfigFromHistory(t *testing.T) {
	history := History{
		{Name: "loss", Values: []float64{1.5, math.NaN()}},
		{Name: "accuracy", Values: []float64{0.5, 0.75}},
	}
	cfg, err := NewMetricsConfig(history)
	require.NoError(t, err)
	assert.Nil(t, getPath(t, cfg.Data(), "epoch_1", "loss"), "NaN must be stored as null")
	assert.Equal(t, 0.75, getPath(t, cfg.Data(), "epoch_1", "accuracy"))

	back, err := HistoryFromMetrics(cfg)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "loss", back[0].Name)
	assert.Equal(t, 1.5, back[0].Values[0])
	assert.True(t, math.IsNaN(back[0].Values[1]))
	assert.Equal(t, []float64{0.5, 0.75}, back[1].Values)

	_, err = NewMetricsConfig(History{
		{Name: "loss", Values: []float64{1, 2}},
		{Name: "accuracy", Values: []float64{1}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestMetricsConfigFromPoints(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), TrainingPlotFileName)
	f, err := os.Create(filePath)
	require.NoError(t, err)
	enc := json.NewEncoder(f)
	for _, p := range []Point{
		{MetricName: "Train: loss", Short: "loss", MetricType: "loss", Step: 100, Value: 0.5},
		{MetricName: "Eval: accuracy", Short: "acc", MetricType: "accuracy", Step: 100, Value: 0.8},
		{MetricName: "Train: loss", Short: "loss", MetricType: "loss", Step: 10, Value: 0.9},
	} {
		require.NoError(t, enc.Encode(p))
	}
	require.NoError(t, f.Close())

	points, err := LoadPointsFromCheckpoint(filepath.Dir(filePath))
	require.NoError(t, err)
	require.Len(t, points, 3)

	cfg, err := NewMetricsConfig(points)
	require.NoError(t, err)
	data := cfg.Data()
	assert.Equal(t, []string{"epoch_0", "epoch_1"}, data.Keys())
	assert.Equal(t, 0.9, getPath(t, data, "epoch_0", "Train: loss"))
	assert.Nil(t, getPath(t, data, "epoch_0", "Eval: accuracy"))
	assert.Equal(t, 0.8, getPath(t, data, "epoch_1", "Eval: accuracy"))

	_, err = LoadPoints(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestModelConfig(t *testing.T) {
	model := &ModelSnapshot{
		ArchitectureConfig: map[string]any{
			"name":   "sequential_1",
			"layers": []map[string]any{{"class_name": "Dense", "units": 10}},
		},
		OptimizerConfig: HyperParameters{"name": "Adam", "learning_rate": float32(0.005)},
	}
	cfg, err := NewModelConfig(model)
	require.NoError(t, err)
	category, data := cfg.Config()
	assert.Equal(t, "model", category)
	assert.Equal(t, []string{ModelConfigKey, OptimizerConfigKey}, data.Keys())
	assert.Equal(t, "sequential_1", getPath(t, data, ModelConfigKey, "name"))
	assert.InDelta(t, 0.005, getPath(t, data, OptimizerConfigKey, "learning_rate").(float64), 1e-9)

	_, err = NewModelConfig(&ModelSnapshot{ArchitectureConfig: "mlp"})
	require.Error(t, err, "models without an optimizer should fail")

	_, err = NewModelConfig(&ModelSnapshot{
		ArchitectureConfig: map[string]any{"activation": func(x float64) float64 { return x }},
		OptimizerConfig:    HyperParameters{},
	})
	var unsupported *jsonenc.UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported), "got %v", err)

	_, err = NewModelConfig((*ModelSnapshot)(nil))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

type earlyStopping struct {
	patience int
}

func (e *earlyStopping) Name() string { return "" }
func (e *earlyStopping) Attributes() map[string]any {
	return map[string]any{
		"patience":     e.patience,
		"monitor":      "val_loss",
		"_best_weight": 0.1,
		"on_epoch_end": func() {},
	}
}

func TestCallbackConfig(t *testing.T) {
	cfg, err := NewCallbackConfig(&earlyStopping{patience: 3})
	require.NoError(t, err)
	category, data := cfg.Config()
	assert.Equal(t, "callbacks", category)
	assert.Equal(t, []string{"earlyStopping"}, data.Keys())
	attrs := getPath(t, data, "earlyStopping").(*jsonenc.OrderedMap)
	assert.Equal(t, []string{"monitor", "patience"}, attrs.Keys())
	assert.Equal(t, int64(3), getPath(t, attrs, "patience"))

	cfg, err = NewCallbackConfig([]Callback{
		&SimpleCallback{TypeName: "ModelCheckpoint", Attrs: map[string]any{"save_best_only": true}},
		&earlyStopping{patience: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ModelCheckpoint", "earlyStopping"}, cfg.Data().Keys())
}

func TestTypeMismatch(t *testing.T) {
	for _, tc := range []struct {
		name        string
		constructor Constructor
		source      any
	}{
		{"metrics from int", NewMetricsConfig, 42},
		{"metrics from nil", NewMetricsConfig, nil},
		{"metrics from nil data frame", NewMetricsConfig, (*dataframe.DataFrame)(nil)},
		{"model from string", NewModelConfig, "sequential_1"},
		{"callbacks from list", NewCallbackConfig, []any{1, 2}},
		{"callbacks from nil map", NewCallbackConfig, map[string]any(nil)},
	} {
		_, err := tc.constructor(tc.source)
		require.Error(t, err, tc.name)
		assert.True(t, errors.Is(err, ErrTypeMismatch), "%s: got %v", tc.name, err)
	}
}

func TestFromCategory(t *testing.T) {
	assert.Equal(t, []string{"callbacks", "metrics", "model"}, Categories())

	original, err := NewModelConfig(&ModelSnapshot{
		ArchitectureConfig: map[string]any{"name": "sequential_1"},
		OptimizerConfig:    HyperParameters{"learning_rate": 0.005},
	})
	require.NoError(t, err)

	encoded, err := jsonenc.Marshal(original.Data())
	require.NoError(t, err)
	decoded, err := jsonenc.Unmarshal(encoded)
	require.NoError(t, err)

	rehydrated, err := FromCategory(original.Category(), decoded)
	require.NoError(t, err)
	assert.True(t, original.Equal(rehydrated))

	_, err = FromCategory("optimizer", decoded)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	// Plain maps are accepted as previously deserialized data.
	cfg, err := FromCategory("metrics", map[string]any{"epoch_0": map[string]any{"loss": 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), getPath(t, cfg.Data(), "epoch_0", "loss"))
	history, err := HistoryFromMetrics(cfg)
	require.NoError(t, err)
	assert.Equal(t, History{{Name: "loss", Values: []float64{1}}}, history)
}
