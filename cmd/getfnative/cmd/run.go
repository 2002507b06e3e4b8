package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kbukum/getfnative/bootstrap"
	"github.com/kbukum/getfnative/config"
	"github.com/kbukum/getfnative/errors"
	"github.com/kbukum/getfnative/logger"
	"github.com/kbukum/getfnative/metric"
	"github.com/kbukum/getfnative/observability"
	"github.com/kbukum/getfnative/pipeline"
	"github.com/kbukum/getfnative/report"
	"github.com/kbukum/getfnative/resilience"
	"github.com/kbukum/getfnative/sweep"
	"github.com/kbukum/getfnative/version"
)

// loadConfig merges defaults, config files, environment and whichever of
// the sweep flags the command defines.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(configFlag)
	keys := make(map[string]string, len(flagKeys))
	for name, key := range flagKeys {
		if cmd.Flags().Lookup(name) != nil {
			keys[name] = key
		}
	}
	cfg := &config.Config{}
	err := config.Load(config.AppName, cfg,
		config.WithConfigFile(path),
		config.WithDefaults(config.Defaults()),
		config.WithFlags(cmd.Flags(), keys),
	)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSweep(cmd *cobra.Command, input string) error {
	abs, err := filepath.Abs(input)
	if err != nil {
		return errors.InvalidInput("input", err.Error()).WithCause(err)
	}
	if _, err := os.Stat(abs); err != nil {
		return errors.InvalidInput("input", fmt.Sprintf("cannot read %s", input)).WithCause(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	info := version.Get()
	app, err := bootstrap.NewApp(cfg,
		bootstrap.WithVersion(info.Short()),
		bootstrap.WithSummaryOutput(cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}

	r := &runner{
		app:      app,
		cfg:      cfg,
		input:    abs,
		version:  info.Short(),
		log:      app.Logger.WithComponent(logger.ComponentSweep),
		progress: progressWriter(cmd.ErrOrStderr()),
		stdout:   cmd.OutOrStdout(),
	}
	app.OnStart(r.initTelemetry, r.prepare)
	return app.RunTask(cmd.Context(), r.run)
}

// runner holds one sweep from preparation to report.
type runner struct {
	app      *bootstrap.App[*config.Config]
	cfg      *config.Config
	input    string
	version  string
	log      *logger.Logger
	progress io.Writer
	stdout   io.Writer

	metrics    *observability.SweepMetrics
	runID      uuid.UUID
	job        metric.Job
	candidates []sweep.Candidate
	driver     *sweep.Driver
	reporter   *report.Reporter
}

// initTelemetry installs the OTLP providers when enabled. Metrics are
// always recorded; without providers they go to the no-op global meter.
func (r *runner) initTelemetry(ctx context.Context) error {
	if r.cfg.Telemetry.Enabled {
		tp, err := observability.InitTracer(ctx, r.cfg.Tracer(r.version))
		if err != nil {
			return err
		}
		r.app.OnStop(tp.Shutdown)

		mp, err := observability.InitMeter(ctx, r.cfg.Meter(r.version))
		if err != nil {
			return err
		}
		r.app.OnStop(mp.Shutdown)
	}

	metrics, err := observability.NewSweepMetrics(observability.Meter(config.AppName))
	if err != nil {
		return err
	}
	r.metrics = metrics
	return nil
}

// prepare resolves the geometry, builds the candidates and wires the
// engine, driver and reporter.
func (r *runner) prepare(ctx context.Context) error {
	cfg := r.cfg
	clip, ok := cfg.Clip()
	if !ok {
		probed, err := metric.Probe(ctx, cfg.Command(), r.input, cfg.Sweep.Frame)
		if err != nil {
			return err
		}
		clip = probed
		r.log.Debug("clip probed", logger.Fields("clip", clip.String()))
	}
	geom, err := cfg.Geometry(clip)
	if err != nil {
		return err
	}
	r.log.Info(fmt.Sprintf("Using base dimensions with the same parities as %s", geom.Base))

	plan := cfg.Plan()
	r.candidates, err = plan.Candidates(geom.Base.Height, clip.Height)
	if err != nil {
		return err
	}

	r.job = metric.Job{Input: r.input, Frame: cfg.Sweep.Frame, Params: cfg.Params(), Geometry: geom}
	bulkhead := resilience.NewBulkhead(cfg.Bulkhead())
	engine, err := metric.NewCommandProducer(cfg.Command(), r.job,
		metric.WithBulkhead(bulkhead),
		metric.WithEngineLogger(r.app.Logger.WithComponent(logger.ComponentEngine)),
	)
	if err != nil {
		return err
	}

	r.runID = uuid.New()
	opts := []sweep.Option{
		sweep.WithLimits(cfg.Pipeline.Concurrency, cfg.Pipeline.Backlog),
		sweep.WithLogger(r.log),
		sweep.WithRunID(r.runID),
		sweep.WithObserver(func(s pipeline.OrderedState) {
			r.metrics.RecordScheduler(context.Background(), s.Outstanding, s.Buffered)
		}),
	}
	if r.progress != nil {
		opts = append(opts, sweep.WithProgress(r.printProgress))
	}
	r.driver, err = sweep.NewDriver(metric.Instrument(engine, r.metrics), opts...)
	if err != nil {
		return err
	}

	r.reporter, err = report.NewReporter(cfg.ReportOptions(), r.app.Logger.WithComponent(logger.ComponentReport))
	if err != nil {
		return err
	}
	r.app.OnStop(func(context.Context) error { return r.reporter.Close() })

	s := r.app.Summary
	s.Track("Input", "file", r.input)
	s.Track("Input", "frame", cfg.Sweep.Frame)
	s.Track("Input", "clip", clip)
	s.Track("Input", "base", geom.Base)
	s.Track("Descale", "kernel", r.job.Params)
	s.Track("Descale", "mode", r.job.Params.Mode)
	s.Track("Sweep", "mode", plan.Mode())
	s.Track("Sweep", "candidates", fmt.Sprintf("%d (%g .. %g)", len(r.candidates),
		r.candidates[0].Height, r.candidates[len(r.candidates)-1].Height))
	s.Track("Sweep", "concurrency", r.driver.Concurrency())
	s.Track("Sweep", "backlog", r.driver.Backlog())
	s.Track("Engine", "command", cfg.Engine.Command)
	s.Track("Engine", "max processes", bulkhead.MaxConcurrent())
	s.Track("Run", "id", r.runID)
	return nil
}

// run executes the sweep and reports whatever prefix was delivered. A
// sweep error takes precedence over a report error.
func (r *runner) run(ctx context.Context) error {
	runCtx, tracker := observability.StartRun(ctx, r.runID.String(), len(r.candidates), r.metrics)
	out, sweepErr := r.driver.Run(runCtx, r.candidates)
	if r.progress != nil {
		fmt.Fprintln(r.progress)
	}
	if out == nil {
		tracker.End(runCtx, 0, sweepErr)
		return sweepErr
	}
	tracker.End(runCtx, out.Completed, sweepErr)
	r.log.Info(fmt.Sprintf("Done in %.2fs", out.Duration.Seconds()))

	meta := report.Meta{Input: r.input, Frame: r.job.Frame, Params: r.job.Params, Geometry: r.job.Geometry}
	res, reportErr := r.reporter.Report(context.WithoutCancel(ctx), out, meta)
	if sweepErr != nil {
		return sweepErr
	}
	if reportErr != nil {
		return reportErr
	}
	if res.PlotPath != "" {
		fmt.Fprintln(r.stdout, res.PlotPath)
	}
	return nil
}

func (r *runner) printProgress(p sweep.Progress) {
	fmt.Fprintf(r.progress, "\r%d/%d", p.Done, p.Total)
}

// progressWriter returns w when it is a terminal.
func progressWriter(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return w
	}
	return nil
}
