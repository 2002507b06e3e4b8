package sweep

import (
	"fmt"

	"github.com/kbukum/getfnative/errors"
)

const (
	// DefaultStep is the spacing of a range sweep when none is configured.
	DefaultStep = 0.25
	// DefaultWindow is how far below the maximum a range sweep starts by default.
	DefaultWindow = 100
)

// Plan selects how the candidate sequence is generated. Exactly one mode
// applies: Quick uses Ratios, a non-empty Heights uses Values and anything
// else is a Range.
type Plan struct {
	Quick   bool
	Heights []float64
	// Min, Max and Step bound a range sweep. Zero selects the default:
	// Max is the base height, Min is Max - DefaultWindow and Step is
	// DefaultStep.
	Min  float64
	Max  float64
	Step float64
}

// Candidates builds the sequence for a clip whose letterbox-free height is
// clipHeight and whose upscale base height is baseHeight.
func (p Plan) Candidates(baseHeight, clipHeight int) ([]Candidate, error) {
	switch {
	case p.Quick:
		return Ratios(clipHeight)
	case len(p.Heights) > 0:
		return Values(p.Heights)
	}

	max := p.Max
	if max == 0 {
		max = float64(baseHeight)
	}
	if max > float64(baseHeight) {
		return nil, errors.InvalidConfig("sweep.max",
			fmt.Sprintf("max (%g) must not exceed the base height (%d)", max, baseHeight))
	}
	min := p.Min
	if min == 0 {
		min = max - DefaultWindow
	}
	step := p.Step
	if step == 0 {
		step = DefaultStep
	}
	return Range(min, max, step)
}

// Mode names the generation mode for logs and reports.
func (p Plan) Mode() string {
	switch {
	case p.Quick:
		return "ratios"
	case len(p.Heights) > 0:
		return "values"
	default:
		return "range"
	}
}
