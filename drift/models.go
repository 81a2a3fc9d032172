package drift

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrUnknownModel indicates a catalogue lookup for an unregistered name.
	ErrUnknownModel = errors.New("drift: unknown model")

	// ErrUnknownParam indicates a parameter binding names a parameter the
	// model does not declare.
	ErrUnknownParam = errors.New("drift: unknown parameter")

	// ErrBadParam indicates a non-finite parameter value.
	ErrBadParam = errors.New("drift: parameter must be finite")
)

// Params binds parameter names to numeric values.
type Params map[string]float64

// Point is a planar coordinate.
type Point struct {
	X, Y float64
}

// Model is a named deterministic skeleton with default parameters.
// Equilibria and Saddles describe the default parameterisation and are
// informational: equilibrium finding is left to external root-finders.
type Model struct {
	Name        string
	Description string
	Defaults    Params
	Equilibria  []Point // stable equilibria under Defaults
	Saddles     []Point // unstable equilibria on separatrices under Defaults
	build       func(p Params) Field
}

// Bind merges overrides into the defaults and returns the bound Field.
// Unknown names yield ErrUnknownParam, non-finite values ErrBadParam.
func (m Model) Bind(overrides Params) (Field, error) {
	p := make(Params, len(m.Defaults))
	for k, v := range m.Defaults {
		p[k] = v
	}
	for k, v := range overrides {
		if _, ok := m.Defaults[k]; !ok {
			return nil, fmt.Errorf("%w: %q for model %q", ErrUnknownParam, k, m.Name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s=%g", ErrBadParam, k, v)
		}
		p[k] = v
	}

	return m.build(p), nil
}

var catalogue = map[string]Model{}

func register(m Model) { catalogue[m.Name] = m }

// Lookup returns the catalogue model with the given name.
func Lookup(name string) (Model, error) {
	m, ok := catalogue[name]
	if !ok {
		return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}

	return m, nil
}

// Names lists catalogue model names in sorted order.
func Names() []string {
	out := make([]string, 0, len(catalogue))
	for k := range catalogue {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

func init() {
	register(Model{
		Name:        "holling",
		Description: "predator/prey with logistic prey growth and Holling type III predation",
		Defaults: Params{
			"alpha": 1.54, "beta": 10.14, "delta": 1,
			"gamma": 0.476, "kappa": 1, "mu": 0.112509,
		},
		Equilibria: []Point{{1.4049, 2.8081}, {4.9040, 4.0619}},
		Saddles:    []Point{{4.2008, 4.0039}},
		build: func(p Params) Field {
			alpha, beta, delta := p["alpha"], p["beta"], p["delta"]
			gamma, kappa, mu := p["gamma"], p["kappa"], p["mu"]

			return Func(func(x, y float64) (float64, float64) {
				x2 := x * x
				sat := x2 / (kappa + x2)

				return alpha*x*(1-x/beta) - delta*sat*y, gamma*sat*y - mu*y*y
			})
		},
	})

	register(Model{
		Name:        "gradient",
		Description: "pure gradient flow of a(x²+y²)",
		Defaults:    Params{"a": 1},
		Equilibria:  []Point{{0, 0}},
		build: func(p Params) Field {
			a2 := 2 * p["a"]

			return Func(func(x, y float64) (float64, float64) { return -a2 * x, -a2 * y })
		},
	})

	register(Model{
		Name:        "rotational",
		Description: "gradient of (x²+y²)/2 plus an orthogonal rotation of rate omega",
		Defaults:    Params{"omega": 1},
		Equilibria:  []Point{{0, 0}},
		build: func(p Params) Field {
			w := p["omega"]

			return Func(func(x, y float64) (float64, float64) { return -x - w*y, -y + w*x })
		},
	})

	register(Model{
		Name:        "double-well",
		Description: "symmetric bistable gradient flow (x − x³, −y)",
		Defaults:    Params{"k": 1},
		Equilibria:  []Point{{-1, 0}, {1, 0}},
		Saddles:     []Point{{0, 0}},
		build: func(p Params) Field {
			k := p["k"]

			return Func(func(x, y float64) (float64, float64) { return x - x*x*x, -k * y })
		},
	})

	register(Model{
		Name:        "vanderpol-damped",
		Description: "Van der Pol oscillator with negative mu (stable focus at the origin)",
		Defaults:    Params{"mu": -1},
		Equilibria:  []Point{{0, 0}},
		build: func(p Params) Field {
			mu := p["mu"]

			return Func(func(x, y float64) (float64, float64) { return y, mu*(1-x*x)*y - x })
		},
	})
}
