// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package project implements Project: a folder holding one subfolder per experiment.
//
// Example:
//
//	proj, err := project.New("~/work/runs", "mnist")
//	if err != nil { ... }
//	exp, err := proj.CreateExperiment("baseline", []*configs.Config{metricsCfg, modelCfg}, "Adam, lr=0.005")
//	...
//	names, err := proj.ListExperiments()
package project

import (
	"time"

	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/experiment"
	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/gomlx/dllogger/pkg/support/sets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrEmptyExperimentName is returned by CreateExperiment when given an empty name.
	ErrEmptyExperimentName = errors.New("Must use a non empty experiment name")

	// ErrNoConfigs is returned by CreateExperiment when given no configs.
	ErrNoConfigs = errors.New("The configurations list is empty, there are nothing to log")
)

// Project is a named folder under a root directory, with one subfolder per experiment.
type Project struct {
	root, name, dir string
	now             func() time.Time
}

// New creates the Project name under root. The project folder is created if it doesn't exist yet.
// A "~" prefix in root is replaced by the user's home directory.
func New(root, name string) (*Project, error) {
	root, err := fsutil.ReplaceTildeInDir(root)
	if err != nil {
		return nil, err
	}
	dir, err := fsutil.JoinFolder(root, name)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid project root %q or name %q", root, name)
	}
	if err = fsutil.EnsureDir(dir); err != nil {
		return nil, errors.WithMessagef(err, "while creating project %q", name)
	}
	return &Project{root: root, name: name, dir: dir, now: time.Now}, nil
}

// WithClock sets the function used to timestamp new experiments. Default is time.Now.
func (p *Project) WithClock(now func() time.Time) *Project {
	p.now = now
	return p
}

// Name of the project.
func (p *Project) Name() string { return p.name }

// Root directory given when creating the project, with "~" expanded.
func (p *Project) Root() string { return p.root }

// Dir is the project folder, always ending with a path separator.
func (p *Project) Dir() string { return p.dir }

// ExperimentDir returns the folder of the experiment name, always ending with a path separator.
// The name must be a single path element, otherwise it fails with fsutil.ErrInvalidName.
func (p *Project) ExperimentDir(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyExperimentName
	}
	if err := fsutil.ValidateName(name); err != nil {
		return "", errors.WithMessagef(err, "experiment of project %q", p.name)
	}
	return fsutil.JoinFolder(p.dir, name)
}

// CreateExperiment creates the folder for experiment name, if it doesn't exist yet, and registers
// in it a new experiment with the given configs and description, timestamped with the current time.
//
// If the experiment was already registered, its files are overwritten.
func (p *Project) CreateExperiment(name string, cfgs []*configs.Config, description string) (*experiment.Experiment, error) {
	if name == "" {
		return nil, ErrEmptyExperimentName
	}
	if len(cfgs) == 0 {
		return nil, ErrNoConfigs
	}
	dir, err := p.ExperimentDir(name)
	if err != nil {
		return nil, err
	}
	if err = fsutil.EnsureDir(dir); err != nil {
		return nil, errors.WithMessagef(err, "while creating experiment %q in project %q", name, p.name)
	}
	exp, err := experiment.Build(dir, name, p.now()).
		Description(description).
		Configs(cfgs...).
		Done()
	if err != nil {
		return nil, err
	}
	if err = exp.Register(); err != nil {
		return nil, err
	}
	klog.V(1).Infof("project %q: created experiment %q", p.name, name)
	return exp, nil
}

// OpenExperiment loads the experiment name previously registered in the project.
func (p *Project) OpenExperiment(name string) (*experiment.Experiment, error) {
	dir, err := p.ExperimentDir(name)
	if err != nil {
		return nil, err
	}
	exp, err := experiment.Load(dir, experiment.InfoFileName, experiment.DataFileName)
	if err != nil {
		return nil, errors.WithMessagef(err, "while opening experiment %q of project %q", name, p.name)
	}
	return exp, nil
}

// ListExperiments returns the names of the immediate subfolders of the project folder.
func (p *Project) ListExperiments() (sets.Set[string], error) {
	names, err := fsutil.ListSubdirs(p.dir)
	if err != nil {
		return nil, errors.WithMessagef(err, "while listing experiments of project %q", p.name)
	}
	return sets.MakeWith(names...), nil
}
