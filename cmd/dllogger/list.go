// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/experiment"
	"github.com/gomlx/dllogger/pkg/support/sets"
	"github.com/gomlx/dllogger/pkg/support/xslices"
	"github.com/janpfeifer/must"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var listCmd = &cobra.Command{
	Use:   "list PROJECT_DIR",
	Short: "Lists the experiments of a project",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) {
		proj := must.M1(openProject(args[0], true))
		names := must.M1(proj.ListExperiments())
		table := newTable(lipgloss.Left)
		table.Table.Headers("Experiment", "Datetime", "Age", "Categories", "Description")
		for _, name := range sets.Sorted(names) {
			exp, err := proj.OpenExperiment(name)
			if err != nil {
				klog.V(1).Infof("failed to open experiment %q: %+v", name, err)
				table.Row(true, name, "", "", "", "not an experiment: "+err.Error())
				continue
			}
			table.Row(false, experimentRow(exp)...)
		}
		printTable(proj.Name(), table)
	}),
}

func experimentRow(exp *experiment.Experiment) []string {
	categories := xslices.Map(exp.Configs(), (*configs.Config).Category)
	return []string{
		exp.Name(),
		exp.Info().Datetime,
		humanize.Time(exp.Datetime()),
		strings.Join(categories, ", "),
		exp.Description(),
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
