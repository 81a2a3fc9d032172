// Package config loads qpot run configurations from YAML or JSON files and
// turns them into a pipeline.Problem with matching stage options.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/katalvlaran/qpot/decompose"
	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/oum"
	"github.com/katalvlaran/qpot/pipeline"
	"github.com/katalvlaran/qpot/stitch"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// validate is the shared validator, with the "model" tag checking the drift
// catalogue.
var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("model", validateModel); err != nil {
		panic(fmt.Sprintf("config: register model validation: %v", err))
	}
}

func validateModel(fl validator.FieldLevel) bool {
	_, err := drift.Lookup(fl.Field().String())
	return err == nil
}

// File is the on-disk run configuration.
type File struct {
	// Domain is the rectangular mesh.
	Domain DomainConfig `json:"domain" yaml:"domain"`

	// Model selects a catalogue drift and its parameter overrides.
	Model ModelConfig `json:"model" yaml:"model"`

	// Equilibria overrides the model's stable equilibria when non-empty.
	Equilibria []PointConfig `json:"equilibria" yaml:"equilibria" validate:"omitempty,dive"`

	// Saddles overrides the model's saddles when non-empty.
	Saddles []SaddleConfig `json:"saddles" yaml:"saddles" validate:"omitempty,dive"`

	Solver    SolverConfig    `json:"solver" yaml:"solver"`
	Stitch    StitchConfig    `json:"stitch" yaml:"stitch"`
	Decompose DecomposeConfig `json:"decompose" yaml:"decompose"`

	// MaxParallel bounds concurrent local solves; 0 selects GOMAXPROCS.
	MaxParallel int `json:"max_parallel" yaml:"max_parallel" validate:"gte=0"`
}

// DomainConfig mirrors domain.Domain.
type DomainConfig struct {
	XLo float64 `json:"x_lo" yaml:"x_lo"`
	XHi float64 `json:"x_hi" yaml:"x_hi" validate:"gtfield=XLo"`
	YLo float64 `json:"y_lo" yaml:"y_lo"`
	YHi float64 `json:"y_hi" yaml:"y_hi" validate:"gtfield=YLo"`
	NX  int     `json:"nx" yaml:"nx" validate:"gte=2"`
	NY  int     `json:"ny" yaml:"ny" validate:"gte=2"`
}

// ModelConfig names a catalogue model.
type ModelConfig struct {
	Name   string             `json:"name" yaml:"name" validate:"required,model"`
	Params map[string]float64 `json:"params" yaml:"params"`
}

// PointConfig is a planar point.
type PointConfig struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// SaddleConfig is a saddle with an optional explicit basin pair.
type SaddleConfig struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Basins []int   `json:"basins" yaml:"basins" validate:"omitempty,len=2,dive,gte=0"`
}

// SolverConfig mirrors oum.Options.
type SolverConfig struct {
	UpdateRadius   int             `json:"update_radius" yaml:"update_radius" validate:"gte=1"`
	Connectivity   int             `json:"connectivity" yaml:"connectivity" validate:"oneof=4 8"`
	StopAtBoundary bool            `json:"stop_at_boundary" yaml:"stop_at_boundary"`
	MaxValue       float64         `json:"max_value" yaml:"max_value" validate:"gte=0"` // 0 = unlimited
	Tolerance      float64         `json:"tolerance" yaml:"tolerance" validate:"gt=0,lte=0.1"`
	Diffusion      DiffusionConfig `json:"diffusion" yaml:"diffusion"`
}

// DiffusionConfig holds the symmetric diffusion matrix entries.
type DiffusionConfig struct {
	A11 float64 `json:"a11" yaml:"a11" validate:"gt=0"`
	A12 float64 `json:"a12" yaml:"a12"`
	A22 float64 `json:"a22" yaml:"a22" validate:"gt=0"`
}

// StitchConfig selects the alignment policy.
type StitchConfig struct {
	Policy    string `json:"policy" yaml:"policy" validate:"oneof=spanning-tree least-squares"`
	Tolerance int    `json:"tolerance" yaml:"tolerance" validate:"gte=0"`
}

// DecomposeConfig mirrors decompose.Options.
type DecomposeConfig struct {
	Enabled              bool    `json:"enabled" yaml:"enabled"`
	Epsilon              float64 `json:"epsilon" yaml:"epsilon" validate:"gt=0"`
	Delta                float64 `json:"delta" yaml:"delta"` // negative = h²
	MaxViolationFraction float64 `json:"max_violation_fraction" yaml:"max_violation_fraction" validate:"gte=0,lte=1"`
}

// Default returns the predator/prey scenario on [−0.5,20]² at 1000×1000.
func Default() File {
	return File{
		Domain: DomainConfig{XLo: -0.5, XHi: 20, YLo: -0.5, YHi: 20, NX: 1000, NY: 1000},
		Model:  ModelConfig{Name: "holling"},
		Solver: SolverConfig{
			UpdateRadius: 5,
			Connectivity: 8,
			Tolerance:    1e-6,
			Diffusion:    DiffusionConfig{A11: 1, A22: 1},
		},
		Stitch:    StitchConfig{Policy: "spanning-tree", Tolerance: 1},
		Decompose: DecomposeConfig{Enabled: true, Epsilon: 0.1, Delta: -1, MaxViolationFraction: 0.05},
	}
}

// Load reads path over Default(), applies QPOT_* environment overrides and
// validates the result.
func Load(path string) (File, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	loadFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *File) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	return nil
}

func loadFromEnv(cfg *File) {
	if v := os.Getenv("QPOT_MAX_PARALLEL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MaxParallel = i
		}
	}
	if v := os.Getenv("QPOT_UPDATE_RADIUS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Solver.UpdateRadius = i
		}
	}
	if v := os.Getenv("QPOT_MODEL"); v != "" {
		cfg.Model.Name = v
	}
}

// Validate checks struct tags and cross-field constraints.
func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for k, v := range f.Model.Params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: model param %s=%g", ErrInvalidConfig, k, v)
		}
	}

	return nil
}

// Problem binds the model and builds the pipeline problem and options.
// Equilibria and saddles fall back to the model's catalogue values.
func (f File) Problem() (pipeline.Problem, []pipeline.Option, error) {
	m, err := drift.Lookup(f.Model.Name)
	if err != nil {
		return pipeline.Problem{}, nil, err
	}
	field, err := m.Bind(f.Model.Params)
	if err != nil {
		return pipeline.Problem{}, nil, err
	}
	dom, err := domain.New(f.Domain.XLo, f.Domain.XHi, f.Domain.YLo, f.Domain.YHi, f.Domain.NX, f.Domain.NY)
	if err != nil {
		return pipeline.Problem{}, nil, err
	}

	p := pipeline.Problem{Domain: dom, Field: field}
	if len(f.Equilibria) > 0 {
		for _, e := range f.Equilibria {
			p.Equilibria = append(p.Equilibria, [2]float64{e.X, e.Y})
		}
	} else {
		for _, e := range m.Equilibria {
			p.Equilibria = append(p.Equilibria, [2]float64{e.X, e.Y})
		}
	}
	if len(f.Saddles) > 0 {
		for _, s := range f.Saddles {
			p.Saddles = append(p.Saddles, stitch.Saddle{X: s.X, Y: s.Y, Basins: s.Basins})
		}
	} else {
		for _, s := range m.Saddles {
			p.Saddles = append(p.Saddles, stitch.Saddle{X: s.X, Y: s.Y})
		}
	}

	conn := domain.Conn8
	if f.Solver.Connectivity == 4 {
		conn = domain.Conn4
	}
	solve := []oum.Option{
		oum.WithUpdateRadius(f.Solver.UpdateRadius),
		oum.WithConnectivity(conn),
		oum.WithStopAtBoundary(f.Solver.StopAtBoundary),
		oum.WithTolerance(f.Solver.Tolerance),
		oum.WithDiffusion(f.Solver.Diffusion.A11, f.Solver.Diffusion.A12, f.Solver.Diffusion.A22),
	}
	if f.Solver.MaxValue > 0 {
		solve = append(solve, oum.WithMaxValue(f.Solver.MaxValue))
	}

	var policy stitch.Policy = stitch.SpanningTree{}
	if f.Stitch.Policy == (stitch.LeastSquares{}).Name() {
		policy = stitch.LeastSquares{}
	}

	opts := []pipeline.Option{
		pipeline.WithSolveOptions(solve...),
		pipeline.WithStitchOptions(stitch.WithPolicy(policy), stitch.WithTolerance(f.Stitch.Tolerance)),
	}
	if f.Decompose.Enabled {
		opts = append(opts, pipeline.WithDecomposeOptions(
			decompose.WithEpsilon(f.Decompose.Epsilon),
			decompose.WithDelta(f.Decompose.Delta),
			decompose.WithViolationFraction(f.Decompose.MaxViolationFraction),
		))
	} else {
		opts = append(opts, pipeline.WithoutDecompose())
	}
	if f.MaxParallel > 0 {
		opts = append(opts, pipeline.WithMaxParallel(f.MaxParallel))
	}

	return p, opts, nil
}
