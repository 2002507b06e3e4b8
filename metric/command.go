package metric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"text/template"
	"time"

	"github.com/kbukum/getfnative/descale"
	"github.com/kbukum/getfnative/errors"
	"github.com/kbukum/getfnative/logger"
	"github.com/kbukum/getfnative/observability"
	"github.com/kbukum/getfnative/process"
	"github.com/kbukum/getfnative/resilience"
	"github.com/kbukum/getfnative/sweep"
)

// CommandConfig describes how the engine is invoked.
type CommandConfig struct {
	// Command is the engine executable.
	Command string
	// Args are text/template strings rendered with TemplateData per candidate.
	Args []string
	// ProbeArgs, when set, are rendered with the job only and must print
	// WIDTHxHEIGHT of the letterbox-free clip.
	ProbeArgs   []string
	Env         []string
	Dir         string
	Timeout     time.Duration
	GracePeriod time.Duration
}

// Job is the sweep-wide context of every engine run.
type Job struct {
	Input    string
	Frame    int
	Params   descale.Params
	Geometry descale.Geometry
}

// TemplateData is what engine argument templates see.
type TemplateData struct {
	Index     int
	SrcHeight float64
	Input     string
	Frame     int
	Kernel    string
	B         float64
	C         float64
	Taps      int
	Mode      string
	Threshold float64
	Clip      descale.Size
	Base      descale.Size
	Crop      descale.Crop
	// Args are the descale arguments for SrcHeight.
	Args descale.Args
}

var templateFuncs = template.FuncMap{
	// json renders a value as compact JSON, e.g. {{json .Args.Fields}}.
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	// num formats a float without exponent or trailing zeros.
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
}

// CommandProducer scores candidates by running the engine once per candidate.
type CommandProducer struct {
	cfg      CommandConfig
	job      Job
	args     []*template.Template
	bulkhead *resilience.Bulkhead
	log      *logger.Logger
}

// CommandOption configures a CommandProducer.
type CommandOption func(*CommandProducer)

// WithBulkhead shares an engine concurrency ceiling between producers.
func WithBulkhead(b *resilience.Bulkhead) CommandOption {
	return func(p *CommandProducer) { p.bulkhead = b }
}

// WithEngineLogger sets the producer's logger.
func WithEngineLogger(l *logger.Logger) CommandOption {
	return func(p *CommandProducer) { p.log = l }
}

// NewCommandProducer parses the argument templates and checks that the
// engine can be found.
func NewCommandProducer(cfg CommandConfig, job Job, opts ...CommandOption) (*CommandProducer, error) {
	if cfg.Command == "" {
		return nil, errors.InvalidConfig("engine.command", "engine command is required")
	}
	if err := job.Params.Validate(); err != nil {
		return nil, err
	}
	args, err := parseArgs("engine.args", cfg.Args)
	if err != nil {
		return nil, err
	}
	if err := process.LookPath(cfg.Command); err != nil {
		return nil, err
	}

	p := &CommandProducer{cfg: cfg, job: job, args: args, log: logger.Get(logger.ComponentEngine)}
	for _, opt := range opts {
		opt(p)
	}
	if p.bulkhead == nil {
		p.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{Name: "engine"})
	}
	return p, nil
}

// Submit implements sweep.Producer.
func (p *CommandProducer) Submit(ctx context.Context, c sweep.Candidate) sweep.Handle {
	f := newFuture()
	go func() {
		f.resolve(p.Score(ctx, c))
	}()
	return f
}

// Score runs the engine for c and parses its error value.
func (p *CommandProducer) Score(ctx context.Context, c sweep.Candidate) (float64, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanEngine)
	defer span.End()

	args, err := render(p.args, p.templateData(c))
	if err != nil {
		return 0, err
	}
	cmd := process.Command{
		Binary:      p.cfg.Command,
		Args:        args,
		Env:         p.cfg.Env,
		Dir:         p.cfg.Dir,
		Timeout:     p.cfg.Timeout,
		GracePeriod: p.cfg.GracePeriod,
	}

	res, err := resilience.ExecuteWithResult(p.bulkhead, ctx, func() (*process.Result, error) {
		return process.Run(ctx, cmd)
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		if ctx.Err() == nil {
			p.log.Warn("engine run failed", logger.MergeWithError(logger.Fields(
				logger.FieldIndex, c.Index,
				logger.FieldCandidate, c.Height,
			), err))
		}
		return 0, err
	}

	val, err := ParseValue(res.LastLine())
	if err != nil {
		observability.SetSpanError(ctx, err)
		return 0, err
	}
	p.log.Debug("engine run finished", logger.Fields(
		logger.FieldIndex, c.Index,
		logger.FieldCandidate, c.Height,
		logger.FieldValue, val,
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return val, nil
}

func (p *CommandProducer) templateData(c sweep.Candidate) TemplateData {
	d := jobData(p.job)
	d.Index = c.Index
	d.SrcHeight = c.Height
	d.Args = descale.CroppingArgs(p.job.Geometry, c.Height, p.job.Params.Mode)
	return d
}

func jobData(job Job) TemplateData {
	return TemplateData{
		Input:     job.Input,
		Frame:     job.Frame,
		Kernel:    string(job.Params.Kernel),
		B:         job.Params.B,
		C:         job.Params.C,
		Taps:      job.Params.Taps,
		Mode:      string(job.Params.Mode),
		Threshold: job.Params.Threshold,
		Clip:      job.Geometry.Clip,
		Base:      job.Geometry.Base,
		Crop:      job.Geometry.Crop,
	}
}

// Probe runs the engine's probe command and returns the clip size.
func Probe(ctx context.Context, cfg CommandConfig, input string, frame int) (descale.Size, error) {
	if len(cfg.ProbeArgs) == 0 {
		return descale.Size{}, errors.InvalidConfig("engine.probe_args",
			"clip size is unknown and no probe command is configured")
	}
	tmpls, err := parseArgs("engine.probe_args", cfg.ProbeArgs)
	if err != nil {
		return descale.Size{}, err
	}
	args, err := render(tmpls, TemplateData{Input: input, Frame: frame})
	if err != nil {
		return descale.Size{}, err
	}
	res, err := process.Run(ctx, process.Command{
		Binary:      cfg.Command,
		Args:        args,
		Env:         cfg.Env,
		Dir:         cfg.Dir,
		Timeout:     cfg.Timeout,
		GracePeriod: cfg.GracePeriod,
	})
	if err != nil {
		if errors.CodeOf(err) != "" {
			return descale.Size{}, err
		}
		return descale.Size{}, errors.EngineUnavailable(cfg.Command, err)
	}
	return descale.ParseSize(res.LastLine())
}

// ParseValue parses one engine output line as a non-negative error value.
func ParseValue(line string) (float64, error) {
	if line == "" {
		return 0, errors.InvalidInput("engine output", "engine printed no value")
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, errors.InvalidInput("engine output", fmt.Sprintf("cannot parse %q as a number", line)).WithCause(err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, errors.InvalidInput("engine output", fmt.Sprintf("error value must be a finite non-negative number (got %q)", line))
	}
	return v, nil
}

func parseArgs(field string, args []string) ([]*template.Template, error) {
	out := make([]*template.Template, len(args))
	for i, a := range args {
		t, err := template.New(fmt.Sprintf("%s[%d]", field, i)).
			Funcs(templateFuncs).
			Option("missingkey=error").
			Parse(a)
		if err != nil {
			return nil, errors.InvalidConfig(field, fmt.Sprintf("argument %d is not a valid template", i)).WithCause(err)
		}
		out[i] = t
	}
	return out, nil
}

func render(tmpls []*template.Template, data TemplateData) ([]string, error) {
	out := make([]string, len(tmpls))
	var buf bytes.Buffer
	for i, t := range tmpls {
		buf.Reset()
		if err := t.Execute(&buf, data); err != nil {
			return nil, errors.InvalidConfig(t.Name(), "argument template failed").WithCause(err)
		}
		out[i] = buf.String()
	}
	return out, nil
}
