package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/getfnative/descale"
	"github.com/kbukum/getfnative/report"
	"github.com/kbukum/getfnative/sweep"
)

const configFlag = "config"

// flagKeys maps sweep flags to configuration keys.
var flagKeys = map[string]string{
	"frame":          "sweep.frame",
	"min-src-height": "sweep.min",
	"max-src-height": "sweep.max",
	"step-length":    "sweep.step",
	"heights":        "sweep.heights",
	"quick":          "sweep.quick",
	"kernel":         "descale.kernel",
	"bicubic-b":      "descale.b",
	"bicubic-c":      "descale.c",
	"lanczos-taps":   "descale.taps",
	"mode":           "descale.mode",
	"threshold":      "descale.threshold",
	"base-height":    "descale.base_height",
	"base-width":     "descale.base_width",
	"clip-width":     "descale.clip_width",
	"clip-height":    "descale.clip_height",
	"crop-top":       "descale.crop.top",
	"crop-bottom":    "descale.crop.bottom",
	"crop-left":      "descale.crop.left",
	"crop-right":     "descale.crop.right",
	"concurrency":    "pipeline.concurrency",
	"backlog":        "pipeline.backlog",
	"engine":         "engine.command",
	"engine-timeout": "engine.timeout",
	"max-engines":    "engine.max_concurrent",
	"save-dir":       "report.dir",
	"save-ext":       "report.ext",
	"html":           "report.html",
	"db":             "report.db",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"telemetry":      "telemetry.enabled",
}

func addSweepFlags(cmd *cobra.Command) {
	p := descale.DefaultParams()
	b := descale.Fraction(p.B)
	c := descale.Fraction(p.C)
	threshold := descale.Fraction(p.Threshold)
	var minHeight, maxHeight descale.Fraction
	step := descale.Fraction(sweep.DefaultStep)

	f := cmd.Flags()
	f.String(configFlag, "", "Config file (default: ./getfnative.yml, ./config.yml or the user config dir)")

	f.IntP("frame", "f", 0, "Frame to analyse")
	f.Var(&minHeight, "min-src-height", "Minimum native src_height to consider (default: max - 100)")
	f.Var(&maxHeight, "max-src-height", "Maximum native src_height to consider (default: base height)")
	f.Var(&step, "step-length", "Step length of the src_height search")
	f.StringSlice("heights", nil, "Explicit src_height candidates, strictly increasing")
	f.Bool("quick", false, "Scan the fixed set of common downscale ratios instead of a range")

	f.StringP("kernel", "k", string(p.Kernel), "Resize kernel: bilinear, bicubic, lanczos, spline16, spline36, spline64")
	f.VarP(&b, "bicubic-b", "b", "B parameter of bicubic resize")
	f.VarP(&c, "bicubic-c", "c", "C parameter of bicubic resize")
	f.IntP("lanczos-taps", "t", p.Taps, "Taps parameter of lanczos resize")
	f.StringP("mode", "m", string(p.Mode), "Descale axes: wh, w (width only) or h (height only)")
	f.Var(&threshold, "threshold", "Per-pixel difference below which the error is ignored")

	f.Int("base-height", 0, "Base integer height before cropping (default: clip height)")
	f.Int("base-width", 0, "Base integer width before cropping (default: clip width)")
	f.Int("clip-width", 0, "Letterbox-free clip width (default: probed by the engine)")
	f.Int("clip-height", 0, "Letterbox-free clip height (default: probed by the engine)")
	f.Int("crop-top", 0, "Top border size of letterboxing")
	f.Int("crop-bottom", 0, "Bottom border size of letterboxing")
	f.Int("crop-left", 0, "Left border size of letterboxing")
	f.Int("crop-right", 0, "Right border size of letterboxing")

	f.Int("concurrency", 0, "Maximum engine runs in flight (default: number of CPUs)")
	f.Int("backlog", 0, "Maximum candidates submitted ahead of delivery (default: 3 x concurrency)")
	f.String("engine", "", "Engine executable")
	f.Duration("engine-timeout", time.Duration(0), "Timeout of one engine run (0: none)")
	f.Int("max-engines", 0, "Maximum concurrent engine processes (default: number of CPUs)")

	f.String("save-dir", "", "Output directory (default: getfnative_results next to the input)")
	f.String("save-ext", report.DefaultExt, "Plot file format")
	f.Bool("html", false, "Also write an interactive HTML chart")
	f.String("db", "", "SQLite run history file")

	f.String("log-level", "info", "Log level")
	f.String("log-format", "console", "Log format: console, pretty or json")
	f.Bool("telemetry", false, "Export traces and metrics over OTLP/HTTP")
}
