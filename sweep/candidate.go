package sweep

import "context"

// Candidate is one native-height hypothesis. Candidates are created by the
// generators in this package and never mutated afterwards.
type Candidate struct {
	// Index is the candidate's position in the sweep and its delivery order.
	Index int `json:"index"`
	// Height is the hypothesised native (source) height in pixels.
	Height float64 `json:"src_height"`
}

// Producer starts the error computation for one candidate.
// Implementations must allow at least the driver's concurrency limit of
// outstanding handles and should stop work when ctx is canceled.
type Producer interface {
	Submit(ctx context.Context, c Candidate) Handle
}

// Handle is an in-flight computation. Wait blocks until the value is
// available, the computation fails, or ctx is done.
type Handle interface {
	Wait(ctx context.Context) (float64, error)
}

// Heights returns the candidate heights in sweep order.
func Heights(candidates []Candidate) []float64 {
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = c.Height
	}
	return out
}
