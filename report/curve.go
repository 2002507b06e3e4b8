package report

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kbukum/getfnative/sweep"
)

// minLogValue replaces non-positive errors on a log axis when the curve has
// no positive value to borrow.
const minLogValue = 1e-10

// Point is one sample of the error curve.
type Point struct {
	Height float64 `json:"src_height"`
	Value  float64 `json:"error"`
}

// Curve is the error as a function of candidate height, in sweep order.
type Curve struct {
	Heights []float64
	Values  []float64
}

// NewCurve pairs heights with values.
func NewCurve(heights, values []float64) (Curve, error) {
	if len(heights) != len(values) {
		return Curve{}, fmt.Errorf("report: %d heights but %d values", len(heights), len(values))
	}
	return Curve{Heights: heights, Values: values}, nil
}

// FromOutcome returns the delivered prefix of a sweep as a curve.
func FromOutcome(o *sweep.Outcome) Curve {
	return Curve{Heights: o.CompletedHeights(), Values: o.CompletedValues()}
}

// Len returns the number of samples.
func (c Curve) Len() int { return len(c.Values) }

// At returns sample i.
func (c Curve) At(i int) Point {
	return Point{Height: c.Heights[i], Value: c.Values[i]}
}

// Best returns the sample with the lowest error.
func (c Curve) Best() (Point, bool) {
	i := c.BestIndex()
	if i < 0 {
		return Point{}, false
	}
	return c.At(i), true
}

// BestIndex returns the index of the lowest error, or -1 for an empty curve.
func (c Curve) BestIndex() int {
	if c.Len() == 0 {
		return -1
	}
	return floats.MinIdx(c.Values)
}

// LocalMinima returns the interior samples lower than both neighbours, in
// height order. These are the dips a native resolution produces.
func (c Curve) LocalMinima() []Point {
	var out []Point
	for i := 1; i < c.Len()-1; i++ {
		if c.Values[i] < c.Values[i-1] && c.Values[i] < c.Values[i+1] {
			out = append(out, c.At(i))
		}
	}
	return out
}

// RankedMinima returns up to n local minima, lowest error first.
func (c Curve) RankedMinima(n int) []Point {
	minima := c.LocalMinima()
	vals := make([]float64, len(minima))
	for i, p := range minima {
		vals[i] = p.Value
	}
	idx := make([]int, len(vals))
	floats.Argsort(vals, idx)

	if n > len(idx) || n < 0 {
		n = len(idx)
	}
	out := make([]Point, n)
	for i := range out {
		out[i] = minima[idx[i]]
	}
	return out
}

// LogValues returns the values with non-positive entries raised to the
// smallest positive value so they can be drawn on a log axis.
func (c Curve) LogValues() []float64 {
	floor := math.Inf(1)
	for _, v := range c.Values {
		if v > 0 && v < floor {
			floor = v
		}
	}
	if math.IsInf(floor, 1) {
		floor = minLogValue
	}
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		out[i] = max(v, floor)
	}
	return out
}
