package validation

import (
	stderrors "errors"
	"math"
	"strings"
	"testing"

	"github.com/kbukum/getfnative/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("engine.command", "vspipe")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("engine.command", "")
	if !v2.HasErrors() {
		t.Error("expected error for empty required field")
	}

	v3 := New()
	v3.Required("engine.command", "   ")
	if !v3.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorPositive(t *testing.T) {
	tests := []struct {
		value float64
		ok    bool
	}{
		{0.25, true},
		{1, true},
		{0, false},
		{-1, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tt := range tests {
		v := New().Positive("sweep.step", tt.value)
		if v.HasErrors() == tt.ok {
			t.Errorf("Positive(%v): HasErrors = %v", tt.value, v.HasErrors())
		}
	}
}

func TestValidatorFinite(t *testing.T) {
	if New().Finite("descale.b", -0.5).HasErrors() {
		t.Error("negative finite value should pass")
	}
	if !New().Finite("descale.b", math.NaN()).HasErrors() {
		t.Error("NaN should fail")
	}
}

func TestValidatorRange(t *testing.T) {
	v := New()
	v.Range("telemetry.sample_rate", 0.5, 0, 1)
	if v.HasErrors() {
		t.Error("expected no errors for value in range")
	}

	v2 := New()
	v2.Range("telemetry.sample_rate", 1.5, 0, 1)
	if !v2.HasErrors() {
		t.Error("expected error for value above range")
	}

	v3 := New()
	v3.Range("telemetry.sample_rate", math.NaN(), 0, 1)
	if !v3.HasErrors() {
		t.Error("expected error for NaN")
	}
}

func TestValidatorMin(t *testing.T) {
	v := New()
	v.Min("pipeline.concurrency", 0, 0)
	if v.HasErrors() {
		t.Error("expected no errors at min")
	}

	v2 := New()
	v2.Min("pipeline.concurrency", -1, 0)
	if !v2.HasErrors() {
		t.Error("expected error below min")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"w", "h", "wh"}

	v := New()
	v.OneOf("descale.mode", "wh", allowed)
	if v.HasErrors() {
		t.Error("expected no errors for allowed value")
	}

	v2 := New()
	v2.OneOf("descale.mode", "x", allowed)
	if !v2.HasErrors() {
		t.Error("expected error for disallowed value")
	}

	v3 := New()
	v3.OneOf("descale.mode", "", allowed)
	if v3.HasErrors() {
		t.Error("expected no error for empty value (optional)")
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(true, "sweep.min", "should not appear")
	if v.HasErrors() {
		t.Error("expected no errors when condition is true")
	}

	v2 := New()
	v2.Custom(false, "sweep.min", "must not exceed sweep.max")
	if !v2.HasErrors() {
		t.Error("expected error when condition is false")
	}
	if v2.Errors()[0].Message != "must not exceed sweep.max" {
		t.Errorf("expected custom message, got %q", v2.Errors()[0].Message)
	}
}

func TestValidatorValidate(t *testing.T) {
	v := New()
	v.Required("engine.command", "vspipe")
	if err := v.Validate(); err != nil {
		t.Errorf("expected nil for valid input, got %v", err)
	}

	v2 := New()
	v2.Required("engine.command", "")
	v2.Positive("sweep.step", 0)
	err := v2.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := errors.As(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidConfig {
		t.Errorf("code = %s, want %s", appErr.Code, errors.ErrCodeInvalidConfig)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field errors in details, got %v", appErr.Details["fields"])
	}
	if !strings.Contains(appErr.Message, "engine.command") || !strings.Contains(appErr.Message, "sweep.step") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
	if _, ok := appErr.Details["field"]; ok {
		t.Error("multi-field error should not carry a single field detail")
	}
}

func TestValidatorValidateSingleField(t *testing.T) {
	err := New().Required("engine.command", "").Validate()
	appErr := errors.As(err)
	if appErr == nil {
		t.Fatal("expected AppError")
	}
	if appErr.Details["field"] != "engine.command" {
		t.Errorf("field detail = %v", appErr.Details["field"])
	}
}

func TestValidatorMerge(t *testing.T) {
	inner := New().Required("engine.command", "").Validate()

	v := New()
	v.Merge("engine", inner)
	v.Merge("report", errors.InvalidInput("report.ext", "unsupported"))
	v.Merge("logging", stderrors.New("logging.level is bad"))
	v.Merge("sweep", nil)

	got := v.Errors()
	want := []FieldError{
		{Field: "engine.command", Message: "is required"},
		{Field: "report.ext", Message: "unsupported"},
		{Field: "logging", Message: "logging.level is bad"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("error %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New()
	result := v.Required("engine.command", "vspipe").Positive("sweep.step", 0.25).Min("pipeline.backlog", 4, 0)
	if result != v {
		t.Error("expected chaining to return same validator")
	}
	if v.HasErrors() {
		t.Error("expected no errors for valid chained validation")
	}
}

type engineSection struct {
	Command       string `mapstructure:"command" validate:"required"`
	MaxConcurrent int    `mapstructure:"max_concurrent" validate:"gte=0"`
}

type rootConfig struct {
	Name   string        `mapstructure:"name" validate:"required,min=3"`
	Mode   string        `mapstructure:"mode" validate:"omitempty,oneof=w h wh"`
	Engine engineSection `mapstructure:"engine"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := rootConfig{Name: "getfnative", Mode: "h", Engine: engineSection{Command: "vspipe"}}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	cfg := rootConfig{Name: "gf", Mode: "x", Engine: engineSection{MaxConcurrent: -1}}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := errors.As(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %T", err)
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	got := make(map[string]string, len(fields))
	for _, f := range fields {
		got[f.Field] = f.Message
	}

	want := map[string]string{
		"name":                  "must be at least 3 characters",
		"mode":                  "must be one of: w h wh",
		"engine.command":        "is required",
		"engine.max_concurrent": "must be at least 0",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("%s: message = %q, want %q", field, got[field], msg)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"MaxConcurrent": "max_concurrent",
		"Step":          "step",
		"base":          "base",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
