// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"
	"os"

	"github.com/gomlx/dllogger/pkg/configs"
	"github.com/gomlx/dllogger/pkg/support/xslices"
	"github.com/janpfeifer/gonb/gonbui/plotly"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	ptypes "github.com/MetalBlueberry/go-plotly/pkg/types"
)

var (
	flagPlotOutput string
	flagPlotLogY   bool
)

var plotCmd = &cobra.Command{
	Use:   "plot PROJECT_DIR EXPERIMENT...",
	Short: "Plots the metrics of one or more experiments to an HTML file, one plot per metric",
	Args:  cobra.MinimumNArgs(2),
	RunE: runE(func(cmd *cobra.Command, args []string) {
		proj := must.M1(openProject(args[0], true))
		names := args[1:]
		dirs := make([]string, len(names))
		histories := make([]configs.History, len(names))
		for ii, name := range names {
			exp := must.M1(proj.OpenExperiment(name))
			dirs[ii] = exp.Dir()
			cfg, found := exp.Config(configs.KindMetrics.String())
			if !found {
				panic(errors.Errorf("experiment %q has no metrics", name))
			}
			histories[ii] = must.M1(configs.HistoryFromMetrics(cfg))
		}
		figures := BuildFigures(MinimalUniquePaths(dirs...), histories, flagPlotLogY)
		if len(figures) == 0 {
			panic(errors.Errorf("no metrics to plot in experiments %q", names))
		}

		outputPath := flagPlotOutput
		if outputPath == "" {
			tmpFile := must.M1(os.CreateTemp("", "dllogger-plots-*.html"))
			outputPath = tmpFile.Name()
			must.M(tmpFile.Close())
		}
		must.M(PlotlyToHTMLFile(outputPath, figures...))
		fmt.Printf("\nPlots written to:\t%s\n\n", outputPath)
	}),
}

// BuildFigures creates one figure per metric name, in order of first appearance, with one line per
// experiment (labeled with labels) over the epochs. Missing (NaN) values are skipped.
func BuildFigures(labels []string, histories []configs.History, logY bool) []*grob.Fig {
	var metricNames []string
	figures := make(map[string]*grob.Fig)
	for expIdx, history := range histories {
		for _, col := range history {
			fig, found := figures[col.Name]
			if !found {
				fig = newFigure(col.Name, logY)
				figures[col.Name] = fig
				metricNames = append(metricNames, col.Name)
			}
			epochs := make([]float64, 0, len(col.Values))
			values := make([]float64, 0, len(col.Values))
			for epoch, value := range col.Values {
				if math.IsNaN(value) || math.IsInf(value, 0) {
					continue
				}
				epochs = append(epochs, float64(epoch))
				values = append(values, value)
			}
			fig.Data = append(fig.Data, &grob.Scatter{
				Name: ptypes.S(labels[expIdx]),
				Line: &grob.ScatterLine{
					Shape: grob.ScatterLineShapeLinear,
				},
				Mode: "lines+markers",
				X:    ptypes.DataArray(epochs),
				Y:    ptypes.DataArray(values),
			})
		}
	}
	result := make([]*grob.Fig, 0, len(metricNames))
	for _, name := range metricNames {
		result = append(result, figures[name])
	}
	return result
}

func newFigure(metricName string, logY bool) *grob.Fig {
	yAxis := &grob.LayoutYaxis{
		Showgrid: ptypes.B(true),
	}
	if logY {
		yAxis.Type = grob.LayoutYaxisTypeLog
	}
	return &grob.Fig{
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{
				Text: ptypes.S(metricName),
			},
			Xaxis: &grob.LayoutXaxis{
				Showgrid: ptypes.B(true),
			},
			Yaxis: yAxis,
		},
	}
}

var (
	singleFileHTML = `<!DOCTYPE html>
	<head>
		<meta charset="utf-8">
		<script src="{{ .CDN }}"></script>
	</head>
	<body style="background-color: black;">
{{- range $i, $f := .Figures }}
		<div id="plot{{ $i }}"></div>
		{{ if not (eq $i (lastIdx $.Figures)) }}
		<hr style="border-color: gray;">
		{{ end }}
{{- end }}
	<script>
{{- range $i, $f := .Figures }}
		data = JSON.parse(atob('{{ $f }}'))
		Plotly.newPlot('plot{{ $i }}', data);
{{- end }}
	</script>
	</body>
</html>`
	singleFileHTMLTmpl = template.Must(template.New("plotly").Funcs(template.FuncMap{
		"lastIdx": func(a []string) int { return len(a) - 1 },
	}).Parse(singleFileHTML))
)

// WritePlotlyAsHTML renders the Plotly figures to an HTML page.
func WritePlotlyAsHTML(w io.Writer, figures ...*grob.Fig) error {
	figuresAsJSON := make([][]byte, 0, len(figures))
	for ii, fig := range figures {
		figAsJSON, err := json.Marshal(fig)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal plotly figure #%d", ii)
		}
		figuresAsJSON = append(figuresAsJSON, figAsJSON)
	}
	data := &struct {
		CDN     string
		Figures []string
	}{
		CDN:     plotly.PlotlySrc,
		Figures: xslices.Map(figuresAsJSON, base64.StdEncoding.EncodeToString),
	}
	if err := singleFileHTMLTmpl.Execute(w, data); err != nil {
		return errors.Wrap(err, "failed to render plotly")
	}
	return nil
}

// PlotlyToHTMLFile renders the Plotly figures to an HTML file.
func PlotlyToHTMLFile(fileName string, figures ...*grob.Fig) error {
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %q", fileName)
	}
	if err = WritePlotlyAsHTML(f, figures...); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close file %q", fileName)
	}
	return nil
}

func init() {
	plotCmd.Flags().StringVar(&flagPlotOutput, "output", "", "HTML file to write. Default is a new temporary file.")
	plotCmd.Flags().BoolVar(&flagPlotLogY, "log_y", false, "Use a logarithmic scale for the metric values.")
	rootCmd.AddCommand(plotCmd)
}
