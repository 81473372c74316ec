// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/experiment"
	"github.com/gomlx/dllogger/pkg/jsonenc"
	"github.com/gomlx/dllogger/pkg/optimizers"
	"github.com/janpfeifer/must"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var showCmd = &cobra.Command{
	Use:   "show PROJECT_DIR EXPERIMENT",
	Short: "Shows the summary, metrics, optimizer and callbacks of an experiment",
	Args:  cobra.ExactArgs(2),
	RunE: runE(func(cmd *cobra.Command, args []string) {
		proj := must.M1(openProject(args[0], true))
		exp := must.M1(proj.OpenExperiment(args[1]))
		showSummary(exp)
		if cfg, found := exp.Config(configs.KindMetrics.String()); found {
			showMetrics(must.M1(configs.HistoryFromMetrics(cfg)))
		}
		if cfg, found := exp.Config(configs.KindModel.String()); found {
			showOptimizer(cfg)
		}
		if cfg, found := exp.Config(configs.KindCallbacks.String()); found {
			showCallbacks(cfg)
		}
	}),
}

func showSummary(exp *experiment.Experiment) {
	table := newTable(lipgloss.Right, lipgloss.Left)
	table.Row(false, "name", exp.Name())
	table.Row(false, "datetime", fmt.Sprintf("%s (%s)", exp.Info().Datetime, humanize.Time(exp.Datetime())))
	table.Row(false, "description", exp.Description())
	table.Row(false, "folder", exp.Dir())
	for _, cfg := range exp.Configs() {
		table.Row(false, "# "+cfg.Category()+" entries", humanize.Comma(int64(cfg.Data().Len())))
	}
	printTable("Summary", table)
}

// showMetrics prints one row per epoch. Epochs with missing values are highlighted.
func showMetrics(history configs.History) {
	if len(history) == 0 {
		return
	}
	table := newTable(lipgloss.Right)
	headers := []string{"epoch"}
	for _, col := range history {
		headers = append(headers, col.Name)
	}
	table.Table.Headers(headers...)
	numEpochs, _ := history.NumEpochs()
	for epoch := range numEpochs {
		row := []string{strconv.Itoa(epoch)}
		hasMissing := false
		for _, col := range history {
			value := col.Values[epoch]
			if math.IsNaN(value) {
				hasMissing = true
				row = append(row, "-")
				continue
			}
			row = append(row, strconv.FormatFloat(value, 'g', 6, 64))
		}
		table.Row(hasMissing, row...)
	}
	printTable("Metrics", table)
}

func showOptimizer(cfg *configs.Config) {
	value, _ := cfg.Data().Get(configs.OptimizerConfigKey)
	hp, ok := value.(*jsonenc.OrderedMap)
	if !ok {
		return
	}
	opt, err := optimizers.FromHyperParameters(hp)
	if err != nil {
		klog.Warningf("invalid optimizer hyperparameters: %v", err)
		return
	}
	table := newTable(lipgloss.Right, lipgloss.Left)
	table.Table.Headers("Hyperparameter", "Value")
	table.Row(false, optimizers.NameKey, opt.Name())
	for _, key := range opt.Keys() {
		value, _ := opt.Get(key)
		table.Row(false, key, formatValue(value))
	}
	printTable("Optimizer", table)
}

func showCallbacks(cfg *configs.Config) {
	table := newTable(lipgloss.Right, lipgloss.Left)
	table.Table.Headers("Callback", "Attribute", "Value")
	for name, value := range cfg.Data().All() {
		attrs, ok := value.(*jsonenc.OrderedMap)
		if !ok || attrs.Len() == 0 {
			table.Row(false, name, "", formatValue(value))
			continue
		}
		for attr, attrValue := range attrs.All() {
			table.Row(false, name, attr, formatValue(attrValue))
		}
	}
	printTable("Callbacks", table)
}

// formatValue of the canonical JSON tree for display.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	case *jsonenc.OrderedMap, []any:
		encoded, err := jsonenc.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return strings.Join(strings.Fields(string(encoded)), " ")
	}
	return fmt.Sprintf("%v", value)
}

func init() {
	rootCmd.AddCommand(showCmd)
}
