// Package validation checks configuration and pipeline definitions.
//
// Struct tags are checked with go-playground/validator; Validator collects
// programmatic checks. Both report failures as INVALID_CONFIG errors whose
// "fields" detail lists every offending field.
//
//	type EngineConfig struct {
//	    Workers int `mapstructure:"workers" validate:"min=1"`
//	}
//	err := validation.Validate(cfg)
//
//	v := validation.New()
//	v.At(validation.Index("nodes", 0)).Required("component", node.Component)
//	err := v.Err()
package validation
