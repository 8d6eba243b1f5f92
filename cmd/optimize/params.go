// Package main tunes plant genetics with CMA-ES.
package main

import (
	"github.com/joepstevens0/inf-masterproef/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Column name in the evaluation log
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	field func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{
				Name: "lambda", Path: "genetics.borchert_honda_lambda", Min: 0.3, Max: 0.8,
				field: func(c *config.Config) *float64 { return &c.Genetics.BorchertHondaLambda },
			},
			{
				Name: "alpha", Path: "genetics.borchert_honda_alpha", Min: 0.5, Max: 4.0,
				field: func(c *config.Config) *float64 { return &c.Genetics.BorchertHondaAlpha },
			},
			{
				Name: "aux_shoot_req", Path: "genetics.aux_shoot_requirement", Min: 0.5, Max: 3.0,
				field: func(c *config.Config) *float64 { return &c.Genetics.AuxShootRequirement },
			},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg. Order follows Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(cfg) = v
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(cfg)
	}
	return v
}
