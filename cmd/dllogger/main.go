// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// dllogger logs, lists, shows and plots deep learning experiments saved with the
// github.com/gomlx/dllogger packages.
//
// A project is a folder with one subfolder per experiment. Usage:
//
//	dllogger log ~/work/runs/mnist baseline --manifest baseline.yaml
//	dllogger list ~/work/runs/mnist
//	dllogger show ~/work/runs/mnist baseline
//	dllogger plot ~/work/runs/mnist baseline adamw --output /tmp/mnist.html
//	dllogger record ~/work/records run_1 --manifest run_1.yaml
//
// Logging flags from klog (-v, -logtostderr, ...) are accepted by all commands.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/gomlx/dllogger/pkg/project"
	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var rootCmd = &cobra.Command{
	Use:           "dllogger",
	Short:         "Logs and inspects deep learning experiments",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	klog.InitFlags(nil)
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func main() {
	defer klog.Flush()
	if err := rootCmd.Execute(); err != nil {
		klog.Errorf("Error: %+v", err)
		os.Exit(1)
	}
}

// runE converts a command body that panics on errors (usually with must.M and must.M1) to a cobra.RunE.
func runE(fn func(cmd *cobra.Command, args []string)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return exceptions.TryCatch[error](func() { fn(cmd, args) })
	}
}

// openProject opens the project in projectDir. If mustExist is set, it fails if the folder doesn't exist,
// instead of creating it.
func openProject(projectDir string, mustExist bool) (*project.Project, error) {
	projectDir, err := fsutil.ReplaceTildeInDir(projectDir)
	if err != nil {
		return nil, err
	}
	projectDir, err = filepath.Abs(projectDir)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid project directory %q", projectDir)
	}
	if mustExist {
		exists, err := fsutil.FileExists(projectDir)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.Errorf("project directory %q doesn't exist", projectDir)
		}
	}
	return project.New(filepath.Dir(projectDir), filepath.Base(projectDir))
}
