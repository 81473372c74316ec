// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/experiment"
	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/gomlx/dllogger/pkg/support/sets"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsConfig(t *testing.T) *configs.Config {
	t.Helper()
	cfg, err := configs.NewMetricsConfig(configs.History{{Name: "loss", Values: []float64{0.5, 0.25}}})
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	root := t.TempDir()
	proj, err := New(root, "mnist")
	require.NoError(t, err)
	assert.Equal(t, root+string(filepath.Separator)+"mnist"+string(filepath.Separator), proj.Dir())
	fi, err := os.Stat(proj.Dir())
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	_, err = New(root, "mnist")
	require.NoError(t, err, "creating the project twice must not fail")

	require.NoError(t, os.WriteFile(filepath.Join(root, "file"), nil, 0600))
	_, err = New(root, "file")
	require.Error(t, err)
}

func TestCreateExperimentErrors(t *testing.T) {
	proj, err := New(t.TempDir(), "mnist")
	require.NoError(t, err)

	_, err = proj.CreateExperiment("", []*configs.Config{metricsConfig(t)}, "")
	require.Error(t, err)
	assert.Equal(t, "Must use a non empty experiment name", err.Error())

	_, err = proj.CreateExperiment("baseline", nil, "")
	require.Error(t, err)
	assert.Equal(t, "The configurations list is empty, there are nothing to log", err.Error())

	_, err = proj.CreateExperiment("baseline", []*configs.Config{nil}, "")
	assert.True(t, errors.Is(err, experiment.ErrNotAConfig))

	// Experiments are always immediate subfolders of the project.
	for _, name := range []string{"../other", "a/b", "..", "."} {
		_, err = proj.CreateExperiment(name, []*configs.Config{metricsConfig(t)}, "")
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, fsutil.ErrInvalidName), "%s: got %v", name, err)
		_, err = proj.OpenExperiment(name)
		assert.True(t, errors.Is(err, fsutil.ErrInvalidName), "%s: got %v", name, err)
	}
	_, statErr := os.Stat(filepath.Join(filepath.Dir(filepath.Clean(proj.Dir())), "other"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCreateOpenList(t *testing.T) {
	proj, err := New(t.TempDir(), "mnist")
	require.NoError(t, err)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	proj.WithClock(func() time.Time { return now })

	for _, name := range []string{"experiment_1", "experiment_2"} {
		_, err := proj.CreateExperiment(name, []*configs.Config{metricsConfig(t)}, "description of "+name)
		require.NoError(t, err)
	}
	// Files in the project folder are not experiments.
	require.NoError(t, os.WriteFile(filepath.Join(proj.Dir(), "notes.txt"), []byte("x"), 0600))

	names, err := proj.ListExperiments()
	require.NoError(t, err)
	assert.True(t, names.Equal(sets.MakeWith("experiment_1", "experiment_2")), "got %v", names)

	exp, err := proj.OpenExperiment("experiment_2")
	require.NoError(t, err)
	assert.Equal(t, "experiment_2", exp.Name())
	assert.Equal(t, "description of experiment_2", exp.Description())
	assert.True(t, now.Equal(exp.Datetime()))
	require.Len(t, exp.Configs(), 1)
	assert.True(t, metricsConfig(t).Equal(exp.Configs()[0]))

	_, err = proj.OpenExperiment("missing")
	require.Error(t, err)
}
