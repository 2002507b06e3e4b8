package sweep

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/getfnative/errors"
	"github.com/kbukum/getfnative/logger"
	"github.com/kbukum/getfnative/pipeline"
)

// Outcome is the result of one sweep run. Values is index-aligned with
// Candidates; only the first Completed entries hold delivered results.
type Outcome struct {
	RunID      uuid.UUID
	Candidates []Candidate
	Values     []float64
	Completed  int
	Started    time.Time
	Duration   time.Duration
	// Err is the terminal failure, nil for a complete sweep.
	Err error
}

// Partial reports whether the sweep stopped before every candidate was scored.
func (o *Outcome) Partial() bool {
	return o.Completed < len(o.Candidates)
}

// CompletedValues returns the delivered prefix of the error curve.
func (o *Outcome) CompletedValues() []float64 {
	return o.Values[:o.Completed]
}

// CompletedHeights returns the heights matching CompletedValues.
func (o *Outcome) CompletedHeights() []float64 {
	return Heights(o.Candidates[:o.Completed])
}

// Progress is reported after each delivered result.
type Progress struct {
	Candidate Candidate
	Value     float64
	Done      int
	Total     int
}

// Driver feeds candidates through an ordered pipeline of Producer calls.
type Driver struct {
	producer   Producer
	limits     pipeline.OrderedConfig
	log        *logger.Logger
	onProgress func(Progress)
	runID      uuid.UUID
}

// Option configures a Driver.
type Option func(*Driver)

// WithLimits sets the in-flight and backlog ceilings. Zero values select
// the pipeline defaults.
func WithLimits(concurrency, backlog int) Option {
	return func(d *Driver) {
		d.limits.Concurrency = concurrency
		d.limits.Backlog = backlog
	}
}

// WithLogger sets the driver's logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithProgress registers a callback invoked on the consumer side after
// each delivered result.
func WithProgress(fn func(Progress)) Option {
	return func(d *Driver) { d.onProgress = fn }
}

// WithObserver exposes scheduler snapshots, e.g. for in-flight gauges.
// fn runs under the scheduler lock and must not block.
func WithObserver(fn func(pipeline.OrderedState)) Option {
	return func(d *Driver) { d.limits.Observe = fn }
}

// WithRunID fixes the run identifier instead of generating one per Run.
func WithRunID(id uuid.UUID) Option {
	return func(d *Driver) { d.runID = id }
}

// NewDriver validates the limits and returns a Driver.
func NewDriver(producer Producer, opts ...Option) (*Driver, error) {
	if producer == nil {
		return nil, errors.InvalidConfig("producer", "a metric producer is required")
	}
	d := &Driver{producer: producer, log: logger.Get(logger.ComponentSweep)}
	for _, opt := range opts {
		opt(d)
	}
	limits, err := d.limits.Normalize()
	if err != nil {
		return nil, errors.InvalidConfig("pipeline", err.Error()).WithCause(err)
	}
	d.limits = limits
	return d, nil
}

// Concurrency returns the effective in-flight ceiling.
func (d *Driver) Concurrency() int { return d.limits.Concurrency }

// Backlog returns the effective backlog ceiling.
func (d *Driver) Backlog() int { return d.limits.Backlog }

// Run scores every candidate and returns the collected outcome.
// Configuration problems are returned before any work starts, with a nil
// Outcome. A failed or canceled sweep returns its Outcome alongside the
// error so the delivered prefix can still be reported.
func (d *Driver) Run(ctx context.Context, candidates []Candidate) (*Outcome, error) {
	if err := Validate(candidates); err != nil {
		return nil, err
	}

	runID := d.runID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	out := &Outcome{
		RunID:      runID,
		Candidates: candidates,
		Values:     make([]float64, len(candidates)),
		Started:    time.Now(),
	}
	log := d.log.WithFields(logger.Fields(logger.FieldRunID, out.RunID.String()))
	log.Info("sweep started", logger.Fields(
		logger.FieldTotal, len(candidates),
		"concurrency", d.limits.Concurrency,
		"backlog", d.limits.Backlog,
		"min", candidates[0].Height,
		"max", candidates[len(candidates)-1].Height,
	))

	scored, err := pipeline.Ordered(pipeline.FromSlice(candidates), d.limits,
		func(ctx context.Context, _ int, c Candidate) (float64, error) {
			return d.producer.Submit(ctx, c).Wait(ctx)
		})
	if err != nil {
		return nil, errors.InvalidConfig("pipeline", err.Error()).WithCause(err)
	}

	progress := pipeline.Tap(scored, func(_ context.Context, r pipeline.Indexed[float64]) error {
		log.Debug("candidate scored", logger.Fields(
			logger.FieldIndex, r.Index,
			logger.FieldCandidate, candidates[r.Index].Height,
			logger.FieldValue, r.Value,
		))
		return nil
	})

	runErr := pipeline.Drain(progress, func(_ context.Context, r pipeline.Indexed[float64]) error {
		if r.Index != out.Completed {
			return errors.InvariantViolation(
				fmt.Sprintf("delivered index %d while expecting %d", r.Index, out.Completed))
		}
		out.Values[r.Index] = r.Value
		out.Completed++
		if d.onProgress != nil {
			d.onProgress(Progress{
				Candidate: candidates[r.Index],
				Value:     r.Value,
				Done:      out.Completed,
				Total:     len(candidates),
			})
		}
		return nil
	}).Run(ctx)
	out.Duration = time.Since(out.Started)

	if runErr != nil {
		out.Err = classify(ctx, runErr)
		log.Error("sweep failed", logger.MergeWithError(logger.Fields(
			logger.FieldCompleted, out.Completed,
			logger.FieldTotal, len(candidates),
			logger.FieldDuration, out.Duration.Milliseconds(),
		), out.Err))
		return out, out.Err
	}

	log.Info("sweep finished", logger.Fields(
		logger.FieldCompleted, out.Completed,
		logger.FieldDuration, out.Duration.Milliseconds(),
	))
	return out, nil
}

// classify maps pipeline failures onto application errors.
func classify(ctx context.Context, err error) error {
	if errors.CodeOf(err) == errors.ErrCodeInvariantViolation {
		return err
	}
	if ctx.Err() != nil {
		return errors.Canceled(err)
	}
	var idxErr *pipeline.IndexError
	if stderrors.As(err, &idxErr) {
		return errors.ProducerFailed(idxErr.Index, idxErr.Err)
	}
	return err
}
