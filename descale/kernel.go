package descale

import (
	"fmt"
	"strings"

	"github.com/kbukum/getfnative/errors"
)

// Kernel names a resize kernel understood by the engine.
type Kernel string

const (
	Bilinear Kernel = "bilinear"
	Bicubic  Kernel = "bicubic"
	Lanczos  Kernel = "lanczos"
	Spline16 Kernel = "spline16"
	Spline36 Kernel = "spline36"
	Spline64 Kernel = "spline64"
)

var kernels = []Kernel{Bilinear, Bicubic, Lanczos, Spline16, Spline36, Spline64}

// Kernels returns every supported kernel.
func Kernels() []Kernel {
	return append([]Kernel(nil), kernels...)
}

// ParseKernel resolves a kernel name case-insensitively.
func ParseKernel(name string) (Kernel, error) {
	k := Kernel(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range kernels {
		if k == known {
			return k, nil
		}
	}
	return "", errors.InvalidConfig("descale.kernel",
		fmt.Sprintf("unknown kernel %q (want one of %s)", name, joinKernels()))
}

func joinKernels() string {
	names := make([]string, len(kernels))
	for i, k := range kernels {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Mode selects the axes that are descaled.
type Mode string

const (
	ModeWidth  Mode = "w"
	ModeHeight Mode = "h"
	ModeBoth   Mode = "wh"
)

// ParseMode accepts w, h, wh or hw in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w":
		return ModeWidth, nil
	case "h":
		return ModeHeight, nil
	case "wh", "hw":
		return ModeBoth, nil
	}
	return "", errors.InvalidConfig("descale.mode", fmt.Sprintf("mode must be w, h or wh (got %q)", s))
}

// Width reports whether the horizontal axis is descaled.
func (m Mode) Width() bool { return strings.Contains(string(m), "w") }

// Height reports whether the vertical axis is descaled.
func (m Mode) Height() bool { return strings.Contains(string(m), "h") }

// DefaultThreshold is the per-pixel difference below which rescale error is ignored.
const DefaultThreshold = 0.015

// Params are the kernel settings shared by every candidate of a sweep.
type Params struct {
	Kernel    Kernel  `json:"kernel"`
	B         float64 `json:"b"`
	C         float64 `json:"c"`
	Taps      int     `json:"taps"`
	Mode      Mode    `json:"mode"`
	Threshold float64 `json:"threshold"`
}

// DefaultParams returns bicubic b=0 c=1/2, three lanczos taps, both axes.
func DefaultParams() Params {
	return Params{
		Kernel:    Bicubic,
		B:         0,
		C:         0.5,
		Taps:      3,
		Mode:      ModeBoth,
		Threshold: DefaultThreshold,
	}
}

// Validate checks the parameter combination.
func (p Params) Validate() error {
	if _, err := ParseKernel(string(p.Kernel)); err != nil {
		return err
	}
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.Kernel == Lanczos && p.Taps < 1 {
		return errors.InvalidConfig("descale.taps", fmt.Sprintf("lanczos needs at least one tap (got %d)", p.Taps))
	}
	if p.Threshold < 0 {
		return errors.InvalidConfig("descale.threshold", fmt.Sprintf("threshold must not be negative (got %g)", p.Threshold))
	}
	return nil
}

// String renders the kernel with the parameters that apply to it.
func (p Params) String() string {
	switch p.Kernel {
	case Bicubic:
		return fmt.Sprintf("bicubic(b=%g, c=%g)", p.B, p.C)
	case Lanczos:
		return fmt.Sprintf("lanczos(taps=%d)", p.Taps)
	default:
		return string(p.Kernel)
	}
}
