package sweep

import (
	"fmt"
	"math"
	"sort"

	"github.com/kbukum/getfnative/errors"
)

// Range returns evenly spaced candidates min, min+step, ... up to max.
// step must be positive and min must lie below max-step.
func Range(min, max, step float64) ([]Candidate, error) {
	if !finite(min, max, step) {
		return nil, errors.InvalidConfig("sweep", "bounds must be finite numbers")
	}
	if step <= 0 {
		return nil, errors.InvalidConfig("sweep.step", fmt.Sprintf("step must be positive (got %g)", step))
	}
	if min >= max-step {
		return nil, errors.InvalidConfig("sweep.min",
			fmt.Sprintf("min (%g) must be below max - step (%g)", min, max-step))
	}

	n := int(math.Floor((max-min)/step)) + 1
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{Index: i, Height: min + float64(i)*step}
	}
	return out, nil
}

// Values turns an explicit list of heights into candidates. The list must be
// non-empty and strictly increasing.
func Values(heights []float64) ([]Candidate, error) {
	if len(heights) == 0 {
		return nil, errors.InvalidConfig("sweep.heights", "candidate list is empty")
	}
	out := make([]Candidate, len(heights))
	for i, h := range heights {
		if !finite(h) || h <= 0 {
			return nil, errors.InvalidConfig("sweep.heights", fmt.Sprintf("height %d is not a positive number (got %g)", i, h))
		}
		if i > 0 && h <= heights[i-1] {
			return nil, errors.InvalidConfig("sweep.heights",
				fmt.Sprintf("heights must be strictly increasing (%g after %g)", h, heights[i-1]))
		}
		out[i] = Candidate{Index: i, Height: h}
	}
	return out, nil
}

// Ratios returns the quick-scan candidate set for a clip height: downscale
// ratios 1/1.08 through 1/1.50 and 0.92 through 0.70, sorted ascending.
func Ratios(clipHeight int) ([]Candidate, error) {
	if clipHeight <= 0 {
		return nil, errors.InvalidConfig("descale.clip_height", fmt.Sprintf("clip height must be positive (got %d)", clipHeight))
	}
	h := float64(clipHeight)
	heights := make([]float64, 0, 43+23)
	for n := 7; n < 50; n++ {
		heights = append(heights, h/(1.01+0.01*float64(n)))
	}
	for n := 7; n < 30; n++ {
		heights = append(heights, h*(0.99-0.01*float64(n)))
	}
	sort.Float64s(heights)
	return Values(dedupe(heights))
}

// Validate checks that candidates form a well-formed sweep.
func Validate(candidates []Candidate) error {
	if len(candidates) == 0 {
		return errors.InvalidConfig("sweep", "candidate sequence is empty")
	}
	for i, c := range candidates {
		if c.Index != i {
			return errors.InvalidConfig("sweep", fmt.Sprintf("candidate at position %d has index %d", i, c.Index))
		}
		if i > 0 && c.Height <= candidates[i-1].Height {
			return errors.InvalidConfig("sweep", fmt.Sprintf("candidate %d is not strictly above its predecessor", i))
		}
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// dedupe drops neighbours that are equal after sorting.
func dedupe(sorted []float64) []float64 {
	out := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
