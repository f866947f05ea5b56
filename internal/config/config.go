// Package config loads and validates run configuration from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full run configuration recognized by the optimizer.
type Config struct {
	Run     RunConfig     `yaml:"run" validate:"required"`
	Vehicle VehicleConfig `yaml:"vehicle" validate:"required"`
	Track   TrackConfig   `yaml:"track" validate:"required"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// RunConfig holds the evolutionary strategy knobs.
type RunConfig struct {
	Strategy       string  `yaml:"strategy" validate:"oneof=mu_plus_lambda cma_es"`
	Mu             int     `yaml:"mu" validate:"gte=1"`
	Lambda         int     `yaml:"lambda" validate:"gte=1"`
	SampleCount    int     `yaml:"samples" validate:"gte=8"`
	Tau            float64 `yaml:"tau" validate:"gt=0"`
	SigmaFraction  float64 `yaml:"sigma_fraction" validate:"gt=0,lte=1"`
	Generations    int     `yaml:"generations" validate:"gte=1"`
	PlateauWindow  int     `yaml:"plateau_window" validate:"gte=0"`
	PlateauEpsilon float64 `yaml:"plateau_epsilon" validate:"gte=0"`
	Seed           int64   `yaml:"seed"`
	Workers        int     `yaml:"workers" validate:"gte=0"`
	Recombination  string  `yaml:"recombination" validate:"omitempty,oneof=discrete intermediate"`
	PenaltyFitness float64 `yaml:"penalty_fitness" validate:"gt=0"`
	Density        int     `yaml:"density" validate:"gte=1"`
	StartSpeedMPS  float64 `yaml:"start_speed_mps" validate:"gte=0"`
}

// VehicleConfig holds the point-mass vehicle parameters.
type VehicleConfig struct {
	MassKG          float64 `yaml:"mass_kg" validate:"gt=0"`
	PeakPowerW      float64 `yaml:"peak_power_w" validate:"gt=0"`
	PeakBrakeDecel  float64 `yaml:"peak_brake_decel" validate:"gt=0"`
	Friction        float64 `yaml:"friction" validate:"gt=0"`
	DragCoefficient float64 `yaml:"drag_coefficient" validate:"gte=0"`
	FrontalAreaM2   float64 `yaml:"frontal_area_m2" validate:"gte=0"`
	MaxSpeedMPS     float64 `yaml:"max_speed_mps" validate:"gt=0"`
	Gravity         float64 `yaml:"gravity" validate:"gt=0"`
}

// TrackConfig selects the track source.
type TrackConfig struct {
	Source string `yaml:"source" validate:"oneof=csv synthetic"`
	Path   string `yaml:"path" validate:"required_if=Source csv"`
	Name   string `yaml:"name" validate:"required_if=Source synthetic"`
}

// StoreConfig selects the run archive backend.
type StoreConfig struct {
	Kind string `yaml:"kind" validate:"omitempty,oneof=memory sqlite"`
	Path string `yaml:"path"`
}

// OutputConfig controls run artifacts.
type OutputConfig struct {
	ArtifactsDir string `yaml:"artifacts_dir"`
	Plots        bool   `yaml:"plots"`
}

// Default returns a runnable configuration: a mid-size GT-style car on
// the synthetic oval.
func Default() Config {
	return Config{
		Run: RunConfig{
			Strategy:       "mu_plus_lambda",
			Mu:             20,
			Lambda:         40,
			SampleCount:    32,
			Tau:            0.22,
			SigmaFraction:  0.3,
			Generations:    120,
			PlateauWindow:  25,
			PlateauEpsilon: 1e-4,
			Seed:           1,
			PenaltyFitness: 1e-6,
			Density:        8,
		},
		Vehicle: VehicleConfig{
			MassKG:          1200,
			PeakPowerW:      320_000,
			PeakBrakeDecel:  14,
			Friction:        1.4,
			DragCoefficient: 0.9,
			FrontalAreaM2:   1.8,
			MaxSpeedMPS:     95,
			Gravity:         9.81,
		},
		Track: TrackConfig{
			Source: "synthetic",
			Name:   "oval",
		},
		Output: OutputConfig{
			ArtifactsDir: "artifacts",
			Plots:        true,
		},
	}
}

// Load reads a YAML file and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks all constraint tags.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
