// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package experiment

import (
	"path/filepath"
	"time"

	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/pkg/errors"
)

// Open loads the experiment registered in dir, see Load.
func Open(dir string) (*Experiment, error) {
	return Load(dir, InfoFileName, DataFileName)
}

// Load reads an experiment from its info and data files. Relative file paths are taken from dir.
//
// One Config is recreated (with configs.FromCategory) for each entry in the data file, in file order.
// An entry with an unknown category fails with configs.ErrUnknownCategory.
func Load(dir, infoFile, dataFile string) (*Experiment, error) {
	if !filepath.IsAbs(infoFile) {
		infoFile = filepath.Join(dir, infoFile)
	}
	if !filepath.IsAbs(dataFile) {
		dataFile = filepath.Join(dir, dataFile)
	}

	var info Info
	if err := jsonenc.ReadFileInto(infoFile, &info); err != nil {
		return nil, errors.WithMessagef(err, "while loading experiment from %q", dir)
	}
	datetime, err := time.ParseInLocation(DatetimeLayout, info.Datetime, time.Local)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid datetime %q in %q", info.Datetime, infoFile)
	}

	data, err := jsonenc.ReadFile(dataFile)
	if err != nil {
		return nil, errors.WithMessagef(err, "while loading experiment %q", info.Name)
	}
	builder := Build(dir, info.Name, datetime).Description(info.Description)
	for category, categoryData := range data.All() {
		cfg, err := configs.FromCategory(category, categoryData)
		if err != nil {
			return nil, errors.WithMessagef(err, "while loading experiment %q from %q", info.Name, dataFile)
		}
		builder.Configs(cfg)
	}
	return builder.Done()
}
