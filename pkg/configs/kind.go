// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package configs

// Kind of Config, one per category of data logged in an experiment.
//
// The string form of a Kind (see Kind.String) is the category name used as the top-level key in
// the experiment data file.
type Kind int

//go:generate go tool enumer -type=Kind -trimprefix=Kind -transform=snake -text -json kind.go

const (
	// KindInvalid is the Kind of a zero-value Config, which is not a valid Config.
	KindInvalid Kind = iota

	// KindMetrics holds the per-epoch training metrics.
	KindMetrics

	// KindModel holds the model architecture and its optimizer hyperparameters.
	KindModel

	// KindCallbacks holds the public attributes of the training callbacks.
	KindCallbacks
)
