// Package validation checks configuration values before a sweep starts.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Field names in messages
// are the dotted configuration keys taken from mapstructure tags.
//
// # Struct Tag Validation
//
//	type EngineConfig struct {
//	    Command string        `mapstructure:"command" validate:"required"`
//	    Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Positive("sweep.step", step).Custom(lo <= hi, "sweep.min", "must not exceed sweep.max")
//	err := v.Validate()
//
// Both forms return an errors.AppError with code INVALID_CONFIG.
package validation
