// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package optimizers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdam(t *testing.T) {
	opt := Adam().LearningRate(0.005).Done()
	assert.Equal(t, "Adam", opt.Name())
	assert.Equal(t, 0.005, opt.LearningRate())
	assert.Equal(t, 0.0, opt.WeightDecay())
	assert.Equal(t, []string{"learning_rate", "beta_1", "beta_2", "epsilon", "amsgrad", "weight_decay"}, opt.Keys())

	hp, err := opt.HyperParameters()
	require.NoError(t, err)
	m := hp.(*jsonenc.OrderedMap)
	assert.Equal(t, "name", m.Keys()[0])
	name, _ := m.Get("name")
	assert.Equal(t, "Adam", name)

	assert.Equal(t, "AdamW", Adam().WeightDecay(0.01).Done().Name())
	assert.Equal(t, "Adamax", Adam().Adamax().Done().Name())
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{
		"sgd": "SGD", "Adam": "Adam", "ADAMW": "AdamW", "adamax": "Adamax", "rmsprop": "RMSprop",
	} {
		opt, err := ByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, opt.Name())
	}
	_, err := ByName("lion")
	require.Error(t, err)
}

func TestSet(t *testing.T) {
	opt := StochasticGradientDescent().Momentum(0.9, true).Done()
	require.NoError(t, opt.Set("learning_rate", 1))
	assert.Equal(t, 1.0, opt.LearningRate())
	require.Error(t, opt.Set("nesterov", "yes"))
	require.Error(t, opt.Set("name", "other"))
	require.NoError(t, opt.Set("clipnorm", 1.0))
	value, found := opt.Get("clipnorm")
	assert.True(t, found)
	assert.Equal(t, 1.0, value)
}

func TestParseSettings(t *testing.T) {
	opt := RMSProp().Done()
	require.NoError(t, opt.Set("steps", 10))
	paramsSet, err := opt.ParseSettings("learning_rate=0.01;centered=true;steps=1_000")
	require.NoError(t, err)
	assert.Equal(t, []string{"learning_rate", "centered", "steps"}, paramsSet)
	assert.Equal(t, 0.01, opt.LearningRate())
	centered, _ := opt.Get("centered")
	assert.Equal(t, true, centered)
	steps, _ := opt.Get("steps")
	assert.Equal(t, 1000, steps)

	_, err = opt.ParseSettings("unknown=1")
	require.Error(t, err)
	_, err = opt.ParseSettings("rho")
	require.Error(t, err)
	_, err = opt.ParseSettings("centered=maybe")
	require.Error(t, err)

	settingsPath := filepath.Join(t.TempDir(), "settings.txt")
	require.NoError(t, os.WriteFile(settingsPath, []byte("# RMSProp tuning\nrho=0.95\n\nmomentum=0.1;epsilon=1e-6\n"), 0600))
	paramsSet, err = opt.ParseSettings("file:" + settingsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"rho", "momentum", "epsilon"}, paramsSet)
	rho, _ := opt.Get("rho")
	assert.Equal(t, 0.95, rho)
}

func TestFromHyperParameters(t *testing.T) {
	original := Adam().LearningRate(0.005).WeightDecay(0.004).Done()
	hp, err := original.HyperParameters()
	require.NoError(t, err)
	encoded, err := jsonenc.Marshal(hp)
	require.NoError(t, err)
	decoded := jsonenc.NewOrderedMap()
	require.NoError(t, decoded.UnmarshalJSON(encoded))

	opt, err := FromHyperParameters(decoded)
	require.NoError(t, err)
	assert.Equal(t, original.String(), opt.String())

	// Unknown optimizers are kept as is.
	custom := jsonenc.NewOrderedMap()
	custom.Set("name", "Lion")
	custom.Set("learning_rate", 0.0003)
	opt, err = FromHyperParameters(custom)
	require.NoError(t, err)
	assert.Equal(t, "Lion", opt.Name())
	assert.Equal(t, 0.0003, opt.LearningRate())

	// Integers read back are converted to the type of the default value.
	sgd := jsonenc.NewOrderedMap()
	sgd.Set("name", "SGD")
	sgd.Set("learning_rate", int64(1))
	opt, err = FromHyperParameters(sgd)
	require.NoError(t, err)
	lr, _ := opt.Get("learning_rate")
	assert.Equal(t, 1.0, lr)

	_, err = FromHyperParameters(jsonenc.NewOrderedMap())
	require.Error(t, err)
}
