package report

import (
	"bytes"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kbukum/getfnative/errors"
)

// ChartRenderer writes an interactive HTML version of the error curve.
type ChartRenderer struct {
	// AssetsHost overrides where the echarts scripts are loaded from.
	AssetsHost string
}

// NewChartRenderer returns a renderer using the default echarts assets.
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{}
}

// Build lays out the chart.
func (r *ChartRenderer) Build(c Curve, title, subtitle string) *charts.Line {
	xs := make([]string, c.Len())
	data := make([]opts.LineData, c.Len())
	for i, v := range c.LogValues() {
		xs[i] = strconv.FormatFloat(c.Heights[i], 'f', -1, 64)
		data[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  title,
			Theme:      "dark",
			Width:      "1200px",
			Height:     "600px",
			AssetsHost: r.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "src_height", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Error", Type: "log"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(xs).AddSeries("error", data,
		charts.WithMarkPointNameTypeItemOpts(opts.MarkPointNameTypeItem{Name: "minimum", Type: "min"}),
	)
	return line
}

// Write renders the chart to w.
func (r *ChartRenderer) Write(w io.Writer, c Curve, title, subtitle string) error {
	if c.Len() == 0 {
		return errors.ReportFailed("chart", errEmptyCurve)
	}
	var buf bytes.Buffer
	if err := r.Build(c, title, subtitle).Render(&buf); err != nil {
		return errors.ReportFailed("render chart", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.ReportFailed("write chart", err)
	}
	return nil
}

// Render writes the chart to path.
func (r *ChartRenderer) Render(c Curve, title, subtitle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.ReportFailed("create chart", err)
	}
	if err := r.Write(f, c, title, subtitle); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.ReportFailed("close chart", err)
	}
	return nil
}
