// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package runrecord

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FileExtension of the record files.
const FileExtension = ".json"

// Logger saves records as "<name>.json" files in its folder.
type Logger struct {
	folder string
	now    func() time.Time
}

// NewLogger creates a Logger that saves records in folder, which is created if it doesn't exist.
// If folder is empty, the current working directory is used. A "~" prefix is replaced by the
// user's home directory.
func NewLogger(folder string) (*Logger, error) {
	if folder == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get the current working directory")
		}
		folder = wd
	}
	folder, err := fsutil.ReplaceTildeInDir(folder)
	if err != nil {
		return nil, err
	}
	folder, err = fsutil.JoinFolder(folder)
	if err != nil {
		return nil, err
	}
	if err = fsutil.EnsureDir(folder); err != nil {
		return nil, err
	}
	return &Logger{folder: folder, now: time.Now}, nil
}

// WithClock sets the function used to timestamp records without one. Default is time.Now.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Folder where records are saved, always ending with a path separator.
func (l *Logger) Folder() string { return l.folder }

// Path of the record file for name. A FileExtension suffix in name is not repeated.
// The name must be a single path element, otherwise it fails with fsutil.ErrInvalidName.
func (l *Logger) Path(name string) (string, error) {
	if name == "" {
		return "", errors.New("runrecord: record name must not be empty")
	}
	if err := fsutil.ValidateName(name); err != nil {
		return "", errors.WithMessage(err, "runrecord: record")
	}
	if !strings.HasSuffix(name, FileExtension) {
		name += FileExtension
	}
	return filepath.Join(l.folder, name), nil
}

// Save writes the record data to the file "<name>.json" in the logger folder, and returns its path.
// The record "date" and "time" are the record timestamp, or the current time if it has none.
//
// It fails with ErrNotExperimentData if data is nil, and with ErrFileExists if the file already
// exists, in which case the existing file is left untouched.
func (l *Logger) Save(data *ExperimentData, name string) (string, error) {
	if data == nil {
		return "", ErrNotExperimentData
	}
	filePath, err := l.Path(name)
	if err != nil {
		return "", err
	}
	exists, err := fsutil.FileExists(filePath)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.Wrapf(ErrFileExists, "record %q in %q", name, filePath)
	}
	timestamp := data.timestamp
	if timestamp.IsZero() {
		timestamp = l.now()
	}
	err = jsonenc.CreateFile(filePath, data.recordAt(timestamp))
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", errors.Wrapf(ErrFileExists, "record %q in %q", name, filePath)
		}
		return "", errors.WithMessagef(err, "while saving record %q", name)
	}
	klog.V(1).Infof("saved record %q to %q", name, filePath)
	return filePath, nil
}

// fileRecord is the layout of a record file, used for reading it back.
type fileRecord struct {
	LR           float64              `json:"lr"`
	Optimizer    string               `json:"optimizer"`
	WeightDecay  float64              `json:"weight_decay"`
	Checkpoint   string               `json:"checkpoint"`
	Architecture string               `json:"architecture"`
	Epochs       int                  `json:"epochs"`
	TrainLosses  []float64            `json:"train_losses"`
	ValLosses    []float64            `json:"val_losses"`
	TrainMetrics []map[string]float64 `json:"train_metrics"`
	ValMetrics   []map[string]float64 `json:"val_metrics"`
	TestMetrics  map[string]float64   `json:"test_metrics"`
	Annotations  *string              `json:"annotations"`
	Date         string               `json:"date"`
	Time         string               `json:"time"`
}

// Load reads a record file previously written by Logger.Save. The timestamp is read in the local
// time zone. Values written as null (NaN or infinite) are read back as 0.
func Load(filePath string) (*ExperimentData, error) {
	var rec fileRecord
	if err := jsonenc.ReadFileInto(filePath, &rec); err != nil {
		return nil, err
	}
	timestamp, err := time.ParseInLocation(DateLayout+" "+TimeLayout, rec.Date+" "+rec.Time, time.Local)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid date/time %q/%q in record %q", rec.Date, rec.Time, filePath)
	}
	options := []Option{
		WithModel(ModelData{Checkpoint: rec.Checkpoint, Architecture: rec.Architecture, Epochs: rec.Epochs}),
		WithMetrics(MetricsData{
			TrainLosses:  rec.TrainLosses,
			ValLosses:    rec.ValLosses,
			TrainMetrics: rec.TrainMetrics,
			ValMetrics:   rec.ValMetrics,
			TestMetrics:  rec.TestMetrics,
		}),
		WithOptimizer(OptimizerData{LR: rec.LR, Optimizer: rec.Optimizer, WeightDecay: rec.WeightDecay}),
		WithTimestamp(timestamp),
	}
	if rec.Annotations != nil {
		options = append(options, WithAnnotations(*rec.Annotations))
	}
	data, err := NewExperimentData(options...)
	if err != nil {
		return nil, errors.WithMessagef(err, "while loading record %q", filePath)
	}
	return data, nil
}
