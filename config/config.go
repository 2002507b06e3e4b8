package config

import (
	"strings"
	"time"

	"github.com/kbukum/getfnative/descale"
	"github.com/kbukum/getfnative/logger"
	"github.com/kbukum/getfnative/metric"
	"github.com/kbukum/getfnative/observability"
	"github.com/kbukum/getfnative/report"
	"github.com/kbukum/getfnative/resilience"
	"github.com/kbukum/getfnative/sweep"
	"github.com/kbukum/getfnative/validation"
)

// AppName is the default application name used for file lookup and the
// environment prefix.
const AppName = "getfnative"

// Config is the full getfnative configuration.
type Config struct {
	Name      string          `yaml:"name" mapstructure:"name" validate:"required"`
	Logging   logger.Config   `yaml:"logging" mapstructure:"logging"`
	Sweep     SweepConfig     `yaml:"sweep" mapstructure:"sweep"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Descale   DescaleConfig   `yaml:"descale" mapstructure:"descale"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// SweepConfig selects the candidate heights.
type SweepConfig struct {
	Min     descale.Fraction `yaml:"min" mapstructure:"min" validate:"gte=0"`
	Max     descale.Fraction `yaml:"max" mapstructure:"max" validate:"gte=0"`
	Step    descale.Fraction `yaml:"step" mapstructure:"step" validate:"gte=0"`
	Heights []float64        `yaml:"heights" mapstructure:"heights" validate:"dive,gt=0"`
	Quick   bool             `yaml:"quick" mapstructure:"quick"`
	Frame   int              `yaml:"frame" mapstructure:"frame" validate:"gte=0"`
}

// PipelineConfig bounds the ordered pipeline. Zero selects the defaults.
type PipelineConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0"`
	Backlog     int `yaml:"backlog" mapstructure:"backlog" validate:"gte=0"`
}

// DescaleConfig holds the kernel and clip geometry.
type DescaleConfig struct {
	Kernel     string           `yaml:"kernel" mapstructure:"kernel"`
	B          descale.Fraction `yaml:"b" mapstructure:"b"`
	C          descale.Fraction `yaml:"c" mapstructure:"c"`
	Taps       int              `yaml:"taps" mapstructure:"taps" validate:"gte=0"`
	Mode       string           `yaml:"mode" mapstructure:"mode"`
	Threshold  descale.Fraction `yaml:"threshold" mapstructure:"threshold" validate:"gte=0"`
	BaseWidth  int              `yaml:"base_width" mapstructure:"base_width" validate:"gte=0"`
	BaseHeight int              `yaml:"base_height" mapstructure:"base_height" validate:"gte=0"`
	ClipWidth  int              `yaml:"clip_width" mapstructure:"clip_width" validate:"gte=0"`
	ClipHeight int              `yaml:"clip_height" mapstructure:"clip_height" validate:"gte=0"`
	Crop       descale.Crop     `yaml:"crop" mapstructure:"crop"`
}

// EngineConfig describes the external metric engine.
type EngineConfig struct {
	Command       string        `yaml:"command" mapstructure:"command" validate:"required"`
	Args          []string      `yaml:"args" mapstructure:"args" validate:"min=1"`
	ProbeArgs     []string      `yaml:"probe_args" mapstructure:"probe_args"`
	Env           []string      `yaml:"env" mapstructure:"env"`
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	GracePeriod   time.Duration `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"`
	MaxConcurrent int           `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// MaxWait bounds the wait for a free engine slot; zero waits as long
	// as the sweep runs and a negative value fails immediately.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// ReportConfig selects the artifacts written after a sweep.
type ReportConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Ext    string `yaml:"ext" mapstructure:"ext"`
	DB     string `yaml:"db" mapstructure:"db"`
	HTML   bool   `yaml:"html" mapstructure:"html"`
	Minima int    `yaml:"minima" mapstructure:"minima" validate:"gte=0"`
}

// TelemetryConfig configures OTLP export. Nothing is exported unless
// Enabled is set.
type TelemetryConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint    string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure    bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate  float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval    time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
}

// Defaults returns the values applied beneath config files, environment
// variables and flags, keyed by configuration path.
func Defaults() map[string]any {
	p := descale.DefaultParams()
	return map[string]any{
		"name":                  AppName,
		"descale.kernel":        string(p.Kernel),
		"descale.b":             p.B,
		"descale.c":             p.C,
		"descale.taps":          p.Taps,
		"descale.mode":          string(p.Mode),
		"descale.threshold":     p.Threshold,
		"engine.grace_period":   "5s",
		"report.ext":            report.DefaultExt,
		"report.minima":         5,
		"telemetry.endpoint":    "localhost:4318",
		"telemetry.insecure":    true,
		"telemetry.sample_rate": 1.0,
		"telemetry.interval":    "15s",
		"telemetry.environment": "development",
	}
}

// ApplyDefaults fills zero values that have no flag or file default.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = AppName
	}
	c.Logging.ApplyDefaults()
	if c.Report.Ext == "" {
		c.Report.Ext = report.DefaultExt
	}
	c.Report.Ext = report.NormalizeExt(c.Report.Ext)
}

// Validate validates the configuration: struct tags first, then the
// cross-field rules of each section.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("config", validation.Validate(c))
	v.Merge("logging", c.Logging.Validate())
	v.Merge("descale", c.Params().Validate())
	v.Merge("descale.crop", c.Descale.Crop.Validate())

	s := c.Sweep
	if s.Min != 0 && s.Max != 0 {
		v.Custom(s.Min < s.Max, "sweep.min", "must be below sweep.max")
	}
	v.Custom(!(s.Quick && len(s.Heights) > 0), "sweep.quick", "cannot be combined with sweep.heights")
	v.Custom(report.SupportedFormat(c.Report.Ext), "report.ext",
		"must be one of: "+strings.Join(report.PlotFormats, ", "))
	if c.Descale.ClipWidth != 0 || c.Descale.ClipHeight != 0 {
		v.Custom(c.Descale.ClipWidth > 0 && c.Descale.ClipHeight > 0, "descale.clip_width",
			"clip_width and clip_height must be set together")
	}
	return v.Validate()
}

// AppName returns the configured application name.
func (c *Config) AppName() string { return c.Name }

// LoggingConfig returns the logging section.
func (c *Config) LoggingConfig() *logger.Config { return &c.Logging }

// Params returns the kernel parameters with kernel and mode names
// normalized. Unknown names are kept as given for Validate to report.
func (c *Config) Params() descale.Params {
	d := c.Descale
	p := descale.Params{
		Kernel:    descale.Kernel(d.Kernel),
		B:         float64(d.B),
		C:         float64(d.C),
		Taps:      d.Taps,
		Mode:      descale.Mode(d.Mode),
		Threshold: float64(d.Threshold),
	}
	if k, err := descale.ParseKernel(d.Kernel); err == nil {
		p.Kernel = k
	}
	if m, err := descale.ParseMode(d.Mode); err == nil {
		p.Mode = m
	}
	return p
}

// Clip returns the configured letterbox-free clip size and whether it is set.
func (c *Config) Clip() (descale.Size, bool) {
	s := descale.Size{Width: c.Descale.ClipWidth, Height: c.Descale.ClipHeight}
	return s, s.Width > 0 && s.Height > 0
}

// Geometry resolves the base dimensions for a clip.
func (c *Config) Geometry(clip descale.Size) (descale.Geometry, error) {
	return descale.NewGeometry(clip, c.Descale.Crop, c.Descale.BaseWidth, c.Descale.BaseHeight)
}

// Plan returns the candidate generation settings.
func (c *Config) Plan() sweep.Plan {
	return sweep.Plan{
		Quick:   c.Sweep.Quick,
		Heights: c.Sweep.Heights,
		Min:     float64(c.Sweep.Min),
		Max:     float64(c.Sweep.Max),
		Step:    float64(c.Sweep.Step),
	}
}

// Command returns the engine invocation settings.
func (c *Config) Command() metric.CommandConfig {
	e := c.Engine
	return metric.CommandConfig{
		Command:     e.Command,
		Args:        e.Args,
		ProbeArgs:   e.ProbeArgs,
		Env:         e.Env,
		Dir:         e.Dir,
		Timeout:     e.Timeout,
		GracePeriod: e.GracePeriod,
	}
}

// Bulkhead returns the engine concurrency ceiling.
func (c *Config) Bulkhead() resilience.BulkheadConfig {
	return resilience.BulkheadConfig{
		Name:          "engine",
		MaxConcurrent: c.Engine.MaxConcurrent,
		MaxWait:       c.Engine.MaxWait,
	}
}

// ReportOptions returns the reporter settings.
func (c *Config) ReportOptions() report.Options {
	r := c.Report
	return report.Options{Dir: r.Dir, Ext: r.Ext, HTML: r.HTML, DBPath: r.DB, Minima: r.Minima}
}

// Tracer returns the OTLP tracer settings.
func (c *Config) Tracer(version string) *observability.TracerConfig {
	t := observability.DefaultTracerConfig(c.Name)
	t.ServiceVersion = version
	t.Environment = c.Telemetry.Environment
	t.Endpoint = c.Telemetry.Endpoint
	t.Insecure = c.Telemetry.Insecure
	t.SampleRate = c.Telemetry.SampleRate
	return &t
}

// Meter returns the OTLP meter settings.
func (c *Config) Meter(version string) *observability.MeterConfig {
	m := observability.DefaultMeterConfig(c.Name)
	m.ServiceVersion = version
	m.Environment = c.Telemetry.Environment
	m.Endpoint = c.Telemetry.Endpoint
	m.Insecure = c.Telemetry.Insecure
	if c.Telemetry.Interval > 0 {
		m.Interval = c.Telemetry.Interval
	}
	return &m
}
