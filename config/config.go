// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/joepstevens0/inf-masterproef/environment"
	"github.com/joepstevens0/inf-masterproef/geom"
	"github.com/joepstevens0/inf-masterproef/tree"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Seed         uint64             `yaml:"seed"`
	World        WorldConfig        `yaml:"world"`
	Genetics     GeneticsConfig     `yaml:"genetics"`
	Distribution DistributionConfig `yaml:"distribution"`
	Shadow       ShadowConfig       `yaml:"shadow"`
	Tropism      TropismConfig      `yaml:"tropism"`
	Growth       GrowthConfig       `yaml:"growth"`
	Run          RunConfig          `yaml:"run"`
	Logging      LoggingConfig      `yaml:"logging"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Server       ServerConfig       `yaml:"server"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the growth volume and its spatial subdivision.
// The volume is a cube of BoxSize standing on y=0, centred on x=0.
type WorldConfig struct {
	BoxSize       float64 `yaml:"box_size"`
	Resolution    int     `yaml:"resolution"`     // Cells per axis for markers and shadow voxels
	SpaceDividing string  `yaml:"space_dividing"` // markers, shadow_voxels or none
}

// GeneticsConfig holds the plant genetics. Angles are in degrees.
type GeneticsConfig struct {
	BorchertHondaLambda          float64 `yaml:"borchert_honda_lambda"` // Share of resources kept on the main axis
	BorchertHondaAlpha           float64 `yaml:"borchert_honda_alpha"`  // Light to resource conversion factor
	PoleLength                   float64 `yaml:"pole_length"`           // Root support pole in meters
	AuxShootRequirement          float64 `yaml:"aux_shoot_requirement"`
	TerminalShootRequirement     float64 `yaml:"terminal_shoot_requirement"`
	MetamerBaseLength            float64 `yaml:"metamer_base_length"`
	BudPerceptionAngle           float64 `yaml:"bud_perception_angle"`
	BudPerceptionRadius          float64 `yaml:"bud_perception_radius"` // Multiple of the cell size
	OccupancyRadius              float64 `yaml:"occupancy_radius"`      // Multiple of the cell size
	AxillaryPerturbationAngle    float64 `yaml:"axillary_perturbation_angle"`
	OptimalGrowthDirectionWeight float64 `yaml:"optimal_growth_direction_weight"`
	ShedThreshold                float64 `yaml:"shed_threshold"`
}

// DistributionConfig selects the resource distributor.
type DistributionConfig struct {
	Mode string  `yaml:"mode"` // borchert_honda, priority_list or none
	WMax float64 `yaml:"w_max"`
	WMin float64 `yaml:"w_min"`
	K    float64 `yaml:"k"` // Fraction of the ranked buds on the weight ramp
}

// ShadowConfig holds the shadow pyramid parameters.
type ShadowConfig struct {
	A         float64 `yaml:"a"`
	B         float64 `yaml:"b"`
	C         float64 `yaml:"c"`
	MaxShadow float64 `yaml:"max_shadow"`
	Layers    int     `yaml:"layers"`
}

// TropismConfig holds the environmental growth bias.
type TropismConfig struct {
	StartWeight float64 `yaml:"start_weight"`
	Rate        float64 `yaml:"rate"` // Weight multiplier per iteration
	Dir         r3.Vec  `yaml:"dir"`
}

// GrowthConfig holds the width model and bud rendering parameters.
type GrowthConfig struct {
	WidthExponent    float64 `yaml:"width_exponent"`
	WidthMin         float64 `yaml:"width_min"`
	BudRecoverySpeed float64 `yaml:"bud_recovery_speed"` // Damage healed per iteration, 0 never heals
	BudStubLength    float64 `yaml:"bud_stub_length"`
	BudStubWidth     float64 `yaml:"bud_stub_width"`
}

// RunConfig holds headless run settings.
type RunConfig struct {
	Iterations int    `yaml:"iterations"`
	Spalier    bool   `yaml:"spalier"`    // Apply spalier training after every iteration
	PruneRule  string `yaml:"prune_rule"` // Rule applied once after the last iteration, empty for none
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // Empty logs to the console only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TelemetryConfig holds run output settings.
type TelemetryConfig struct {
	OutputDir   string `yaml:"output_dir"`   // Empty disables output
	PerfWindow  int    `yaml:"perf_window"`  // Iterations averaged per perf record
	ShadowLayer int    `yaml:"shadow_layer"` // Shadow slice written with the final state, -1 for none
}

// ServerConfig holds the websocket front end settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Bounds                    geom.BoundingVolume
	SeedPos                   r3.Vec
	BudPerceptionAngle        float64 // radians
	AxillaryPerturbationAngle float64 // radians
	SpaceDividing             environment.SpaceDividingMode
	Distribution              tree.DistributionMode
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns the embedded default configuration.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the simulation cannot run with and refreshes the
// derived values.
func (c *Config) Validate() error {
	var errs []error
	if c.World.BoxSize <= 0 {
		errs = append(errs, fmt.Errorf("world.box_size must be positive, got %v", c.World.BoxSize))
	}
	if c.World.Resolution <= 0 {
		errs = append(errs, fmt.Errorf("world.resolution must be positive, got %d", c.World.Resolution))
	}
	if l := c.Genetics.BorchertHondaLambda; l < 0 || l > 1 {
		errs = append(errs, fmt.Errorf("genetics.borchert_honda_lambda must be in [0,1], got %v", l))
	}
	if c.Genetics.MetamerBaseLength <= 0 {
		errs = append(errs, fmt.Errorf("genetics.metamer_base_length must be positive, got %v", c.Genetics.MetamerBaseLength))
	}
	if c.Tropism.Rate <= 0 {
		errs = append(errs, fmt.Errorf("tropism.rate must be positive, got %v", c.Tropism.Rate))
	}
	if c.Growth.WidthExponent <= 0 {
		errs = append(errs, fmt.Errorf("growth.width_exponent must be positive, got %v", c.Growth.WidthExponent))
	}
	if c.Shadow.Layers < 0 {
		errs = append(errs, fmt.Errorf("shadow.layers must not be negative, got %d", c.Shadow.Layers))
	}
	if c.Run.Iterations < 0 {
		errs = append(errs, fmt.Errorf("run.iterations must not be negative, got %d", c.Run.Iterations))
	}

	space, err := environment.ParseSpaceDividingMode(c.World.SpaceDividing)
	if err != nil {
		errs = append(errs, fmt.Errorf("world.space_dividing: %w", err))
	}
	dist, err := tree.ParseDistributionMode(c.Distribution.Mode)
	if err != nil {
		errs = append(errs, fmt.Errorf("distribution.mode: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.Derived.SpaceDividing = space
	c.Derived.Distribution = dist
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	s := c.World.BoxSize
	c.Derived.Bounds = geom.Box(r3.Vec{X: -s / 2}, r3.Vec{X: s / 2, Y: s, Z: s})

	// The seed sits on the floor at the centre of the volume
	c.Derived.SeedPos = c.Derived.Bounds.Center()
	c.Derived.SeedPos.Y = 0

	c.Derived.BudPerceptionAngle = c.Genetics.BudPerceptionAngle * math.Pi / 180
	c.Derived.AxillaryPerturbationAngle = c.Genetics.AxillaryPerturbationAngle * math.Pi / 180
}

// TreeGenetics converts the genetics section into the plant's genetics.
func (c *Config) TreeGenetics() *tree.Genetics {
	g := c.Genetics
	return &tree.Genetics{
		BorchertHondaLambda:          g.BorchertHondaLambda,
		BorchertHondaAlpha:           g.BorchertHondaAlpha,
		PoleLength:                   g.PoleLength,
		AuxShootRequirement:          g.AuxShootRequirement,
		TerminalShootRequirement:     g.TerminalShootRequirement,
		MetamerBaseLength:            g.MetamerBaseLength,
		BudPerceptionAngle:           c.Derived.BudPerceptionAngle,
		BudPerceptionRadius:          g.BudPerceptionRadius,
		OccupancyRadius:              g.OccupancyRadius,
		AxillaryPerturbationAngle:    c.Derived.AxillaryPerturbationAngle,
		OptimalGrowthDirectionWeight: g.OptimalGrowthDirectionWeight,
		ShedThreshold:                g.ShedThreshold,
	}
}

// GrowthParams converts the growth section into the plant's growth parameters.
func (c *Config) GrowthParams() tree.GrowthParams {
	return tree.GrowthParams{
		WidthExponent:    c.Growth.WidthExponent,
		WidthMin:         c.Growth.WidthMin,
		BudRecoverySpeed: c.Growth.BudRecoverySpeed,
		BudStubLength:    c.Growth.BudStubLength,
		BudStubWidth:     c.Growth.BudStubWidth,
	}
}

// PriorityWeights returns the priority-list weights.
func (c *Config) PriorityWeights() tree.PriorityWeights {
	return tree.PriorityWeights{Max: c.Distribution.WMax, Min: c.Distribution.WMin, K: c.Distribution.K}
}

// EnvironmentParams returns the environment construction parameters.
func (c *Config) EnvironmentParams() environment.Params {
	r := c.World.Resolution
	return environment.Params{
		Bounds:     c.Derived.Bounds,
		Resolution: geom.GridCoord{X: r, Y: r, Z: r},
		Mode:       c.Derived.SpaceDividing,
		Shadow: environment.ShadowParams{
			A:         c.Shadow.A,
			B:         c.Shadow.B,
			C:         c.Shadow.C,
			MaxShadow: c.Shadow.MaxShadow,
			MaxLayers: c.Shadow.Layers,
		},
		Tropism: environment.Tropism{
			StartWeight: c.Tropism.StartWeight,
			Rate:        c.Tropism.Rate,
			Dir:         c.Tropism.Dir,
		},
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
