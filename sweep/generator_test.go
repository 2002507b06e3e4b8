package sweep

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kbukum/getfnative/errors"
)

func TestRange(t *testing.T) {
	got, err := Range(500, 501, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Candidate{
		{Index: 0, Height: 500},
		{Index: 1, Height: 500.25},
		{Index: 2, Height: 500.5},
		{Index: 3, Height: 500.75},
		{Index: 4, Height: 501},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Range mismatch (-want +got):\n%s", diff)
	}
}

func TestRange_DefaultWindow(t *testing.T) {
	got, err := Range(620, 720, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 401 {
		t.Fatalf("expected 401 candidates, got %d", len(got))
	}
	if got[len(got)-1].Height != 720 {
		t.Errorf("last height = %g, want 720", got[len(got)-1].Height)
	}
}

func TestRange_StepDoesNotDivide(t *testing.T) {
	got, err := Range(0, 1, 0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 0.3, 0.6, 0.9}
	if diff := cmp.Diff(want, Heights(got), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("heights mismatch (-want +got):\n%s", diff)
	}
}

func TestRange_Invalid(t *testing.T) {
	tests := []struct {
		name           string
		min, max, step float64
	}{
		{"zero step", 500, 600, 0},
		{"negative step", 500, 600, -1},
		{"min equals max", 600, 600, 1},
		{"window narrower than step", 599.5, 600, 1},
		{"min equals max minus step", 599, 600, 1},
		{"nan", math.NaN(), 600, 1},
		{"inf", 500, math.Inf(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Range(tt.min, tt.max, tt.step)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := errors.CodeOf(err); code != errors.ErrCodeInvalidConfig {
				t.Errorf("code = %s, want %s", code, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestValues(t *testing.T) {
	got, err := Values([]float64{540, 720, 810})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range got {
		if c.Index != i {
			t.Errorf("candidate %d has index %d", i, c.Index)
		}
	}
	if diff := cmp.Diff([]float64{540, 720, 810}, Heights(got)); diff != "" {
		t.Errorf("heights mismatch (-want +got):\n%s", diff)
	}
}

func TestValues_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		heights []float64
	}{
		{"empty", nil},
		{"zero", []float64{0, 1}},
		{"negative", []float64{-5}},
		{"duplicate", []float64{720, 720}},
		{"descending", []float64{720, 540}},
		{"nan", []float64{math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Values(tt.heights); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRatios(t *testing.T) {
	got, err := Ratios(1080)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected candidates")
	}
	if err := Validate(got); err != nil {
		t.Fatalf("ratios are not a valid sweep: %v", err)
	}
	first, last := got[0].Height, got[len(got)-1].Height
	if math.Abs(first-1080/1.5) > 1e-6 {
		t.Errorf("lowest height = %g, want %g", first, 1080/1.5)
	}
	if math.Abs(last-1080/1.08) > 1e-6 {
		t.Errorf("highest height = %g, want %g", last, 1080/1.08)
	}
}

func TestRatios_InvalidHeight(t *testing.T) {
	if _, err := Ratios(0); err == nil {
		t.Fatal("expected error for zero clip height")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("expected error for empty sweep")
	}
	bad := []Candidate{{Index: 0, Height: 1}, {Index: 2, Height: 2}}
	if err := Validate(bad); err == nil {
		t.Error("expected error for index gap")
	}
	flat := []Candidate{{Index: 0, Height: 1}, {Index: 1, Height: 1}}
	if err := Validate(flat); err == nil {
		t.Error("expected error for non-increasing heights")
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]float64{1, 1, 2, 3, 3, 3, 4})
	if diff := cmp.Diff([]float64{1, 2, 3, 4}, got); diff != "" {
		t.Errorf("dedupe mismatch (-want +got):\n%s", diff)
	}
}
