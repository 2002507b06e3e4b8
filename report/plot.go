package report

import (
	stderrors "errors"
	"fmt"
	"image/color"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/kbukum/getfnative/errors"
)

var errEmptyCurve = stderrors.New("curve is empty")

// PlotFormats are the file extensions PlotRenderer can write.
var PlotFormats = []string{"svg", "png", "pdf", "eps", "jpg", "jpeg", "tif", "tiff"}

var (
	plotBackground = color.Black
	plotForeground = color.White
	plotHighlight  = color.RGBA{R: 255, G: 82, B: 82, A: 255}
)

// PlotRenderer draws the error curve on a log axis over a dark background.
type PlotRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewPlotRenderer returns a renderer with a 2:1 figure.
func NewPlotRenderer() *PlotRenderer {
	return &PlotRenderer{Width: 9.6 * vg.Inch, Height: 4.8 * vg.Inch}
}

// SupportedFormat reports whether ext can be rendered.
func SupportedFormat(ext string) bool {
	return slices.Contains(PlotFormats, NormalizeExt(ext))
}

// Build lays out the plot without writing it.
func (r *PlotRenderer) Build(c Curve, title string) (*plot.Plot, error) {
	if c.Len() == 0 {
		return nil, errors.ReportFailed("plot", errEmptyCurve)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "src_height"
	p.Y.Label.Text = "Error"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	darken(p)

	logVals := c.LogValues()
	xys := make(plotter.XYs, c.Len())
	for i := range xys {
		xys[i] = plotter.XY{X: c.Heights[i], Y: logVals[i]}
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, errors.ReportFailed("plot", err)
	}
	line.Color = plotForeground
	line.Width = vg.Points(1)
	points.Color = plotForeground
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(1.5)
	p.Add(line, points)

	if i := c.BestIndex(); i >= 0 {
		mark, err := plotter.NewScatter(plotter.XYs{{X: c.Heights[i], Y: logVals[i]}})
		if err != nil {
			return nil, errors.ReportFailed("plot", err)
		}
		mark.Color = plotHighlight
		mark.Shape = draw.RingGlyph{}
		mark.Radius = vg.Points(4)
		p.Add(mark)
	}

	// Add sets the range from the data and widens a flat one by ±1, which
	// can reach zero or below on the log axis.
	p.Y.Min, p.Y.Max = logRange(logVals)
	return p, nil
}

// logRange returns positive y bounds covering vals, one decade either side
// when every value is equal.
func logRange(vals []float64) (lo, hi float64) {
	lo, hi = floats.Min(vals), floats.Max(vals)
	if lo == hi {
		lo, hi = lo/10, hi*10
	}
	return lo, hi
}

// Render writes the plot to path; the extension selects the format.
func (r *PlotRenderer) Render(c Curve, title, path string) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = errors.ReportFailed("save plot", fmt.Errorf("plot panicked: %v", v))
		}
	}()
	p, err := r.Build(c, title)
	if err != nil {
		return err
	}
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return errors.ReportFailed("save plot", err)
	}
	return nil
}

func darken(p *plot.Plot) {
	p.BackgroundColor = plotBackground
	p.Title.TextStyle.Color = plotForeground
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = plotForeground
		ax.Label.TextStyle.Color = plotForeground
		ax.Tick.Label.Color = plotForeground
		ax.Tick.LineStyle.Color = plotForeground
	}
}
