package report

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/getfnative/descale"
	"github.com/kbukum/getfnative/errors"
	"github.com/kbukum/getfnative/logger"
	"github.com/kbukum/getfnative/observability"
	"github.com/kbukum/getfnative/sweep"
)

// Options selects which artifacts a Reporter writes.
type Options struct {
	// Dir is the output directory. Empty selects DefaultDir(input).
	Dir string
	// Ext is the plot format, "svg" when empty.
	Ext string
	// HTML also writes an interactive chart next to the plot.
	HTML bool
	// DBPath enables the SQLite run history when set.
	DBPath string
	// Minima is how many local minima the summary lists.
	Minima int
}

// Meta describes the sweep being reported.
type Meta struct {
	Input    string
	Frame    int
	Params   descale.Params
	Geometry descale.Geometry
}

// Result lists what a report produced.
type Result struct {
	PlotPath  string
	ChartPath string
	Best      *Point
	Minima    []Point
	Stored    bool
}

// Reporter writes the artifacts of finished sweeps.
type Reporter struct {
	opts  Options
	plot  *PlotRenderer
	chart *ChartRenderer
	store *Store
	log   *logger.Logger
}

// NewReporter validates opts and opens the run store if configured.
func NewReporter(opts Options, log *logger.Logger) (*Reporter, error) {
	if opts.Ext == "" {
		opts.Ext = DefaultExt
	}
	opts.Ext = NormalizeExt(opts.Ext)
	if !SupportedFormat(opts.Ext) {
		return nil, errors.InvalidConfig("report.ext", fmt.Sprintf("unsupported plot format %q", opts.Ext))
	}
	if opts.Minima <= 0 {
		opts.Minima = 5
	}
	if log == nil {
		log = logger.Get(logger.ComponentReport)
	}

	r := &Reporter{opts: opts, plot: NewPlotRenderer(), chart: NewChartRenderer(), log: log}
	if opts.DBPath != "" {
		store, err := OpenStore(opts.DBPath)
		if err != nil {
			return nil, err
		}
		r.store = store
	}
	return r, nil
}

// Close releases the run store.
func (r *Reporter) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// Report writes the plot, chart and history entry for out. A partial
// outcome is reported with its completed prefix; an outcome with no
// completed candidate is only stored.
func (r *Reporter) Report(ctx context.Context, out *sweep.Outcome, meta Meta) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanReport)
	defer span.End()

	curve := FromOutcome(out)
	res := &Result{Minima: curve.RankedMinima(r.opts.Minima)}
	if best, ok := curve.Best(); ok {
		res.Best = &best
	}
	log := r.log.WithFields(logger.Fields(logger.FieldRunID, out.RunID.String()))

	if curve.Len() > 0 {
		dir := r.opts.Dir
		if dir == "" {
			dir = DefaultDir(meta.Input)
		}
		path, err := UniquePath(dir, meta.Frame, meta.Geometry.Base.Height, r.opts.Ext)
		if err != nil {
			observability.SetSpanError(ctx, err)
			return res, err
		}
		if err := r.plot.Render(curve, r.title(out, meta), path); err != nil {
			observability.SetSpanError(ctx, err)
			return res, err
		}
		res.PlotPath = path
		log.Info("plot written", logger.Fields(logger.FieldPath, path))

		if r.opts.HTML {
			chartPath := WithExt(path, "html")
			if err := r.chart.Render(curve, r.title(out, meta), meta.Params.String(), chartPath); err != nil {
				observability.SetSpanError(ctx, err)
				return res, err
			}
			res.ChartPath = chartPath
			log.Info("chart written", logger.Fields(logger.FieldPath, chartPath))
		}
	} else {
		log.Warn("no candidate completed, nothing to plot")
	}

	r.summarize(log, out, res)

	if r.store != nil {
		if err := r.store.Save(ctx, r.run(out, meta, res), curve); err != nil {
			observability.SetSpanError(ctx, err)
			return res, err
		}
		res.Stored = true
	}
	return res, nil
}

func (r *Reporter) title(out *sweep.Outcome, meta Meta) string {
	title := fmt.Sprintf("frame %d, %s, base %s", meta.Frame, meta.Params, meta.Geometry.Base)
	if out.Partial() {
		title += fmt.Sprintf(" (partial %d/%d)", out.Completed, len(out.Candidates))
	}
	return title
}

func (r *Reporter) summarize(log *logger.Logger, out *sweep.Outcome, res *Result) {
	fields := logger.Fields(
		logger.FieldCompleted, out.Completed,
		logger.FieldTotal, len(out.Candidates),
	)
	if res.Best != nil {
		fields["best_src_height"] = res.Best.Height
		fields["best_error"] = res.Best.Value
	}
	if len(res.Minima) > 0 {
		heights := make([]float64, len(res.Minima))
		for i, p := range res.Minima {
			heights[i] = p.Height
		}
		fields["minima"] = heights
	}
	log.Info("sweep summary", fields)
}

func (r *Reporter) run(out *sweep.Outcome, meta Meta, res *Result) Run {
	run := Run{
		ID:         out.RunID,
		CreatedAt:  out.Started,
		Input:      meta.Input,
		Frame:      meta.Frame,
		Kernel:     meta.Params.String(),
		Mode:       string(meta.Params.Mode),
		BaseWidth:  meta.Geometry.Base.Width,
		BaseHeight: meta.Geometry.Base.Height,
		Total:      len(out.Candidates),
		Completed:  out.Completed,
		Duration:   out.Duration,
		Best:       res.Best,
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if out.Err != nil {
		run.Failure = out.Err.Error()
	}
	return run
}
