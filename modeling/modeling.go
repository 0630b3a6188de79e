// Public domain.

// Package modeling holds fit parameters and a small least-squares
// fitting front end used by the sky model components.
package modeling

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

var ErrParameter = errors.New("modeling: parameter")

// Parameter is a single named model parameter.  Error is the one sigma
// uncertainty, filled in by Fit.  Min and Max bound the value during
// fitting; NaN leaves the corresponding side open.
type Parameter struct {
	Name   string
	Value  float64
	Unit   string
	Frozen bool
	Min    float64
	Max    float64
	Error  float64
}

// NewParameter returns an unbounded free parameter.
func NewParameter(name string, value float64, unit string) *Parameter {
	return &Parameter{Name: name, Value: value, Unit: unit,
		Min: math.NaN(), Max: math.NaN()}
}

func (p *Parameter) inBounds(v float64) bool {
	if !math.IsNaN(p.Min) && v < p.Min {
		return false
	}
	if !math.IsNaN(p.Max) && v > p.Max {
		return false
	}
	return true
}

// Parameters is an ordered, name-indexed parameter set.
type Parameters struct {
	list  []*Parameter
	index map[string]int
}

func NewParameters(ps ...*Parameter) (*Parameters, error) {
	set := &Parameters{index: make(map[string]int, len(ps))}
	for _, p := range ps {
		if _, dup := set.index[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrParameter, p.Name)
		}
		set.index[p.Name] = len(set.list)
		set.list = append(set.list, p)
	}
	return set, nil
}

func (ps *Parameters) Len() int { return len(ps.list) }

// At returns the parameter at position i.
func (ps *Parameters) At(i int) *Parameter { return ps.list[i] }

func (ps *Parameters) Get(name string) (*Parameter, error) {
	i, ok := ps.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: no parameter %q", ErrParameter, name)
	}
	return ps.list[i], nil
}

// Free lists the parameters not frozen, in declaration order.
func (ps *Parameters) Free() []*Parameter {
	var out []*Parameter
	for _, p := range ps.list {
		if !p.Frozen {
			out = append(out, p)
		}
	}
	return out
}

// Values snapshots the current values of all parameters.
func (ps *Parameters) Values() []float64 {
	out := make([]float64, len(ps.list))
	for i, p := range ps.list {
		out[i] = p.Value
	}
	return out
}

// FitResult reports the outcome of Fit.  Covariance is nil when the
// numeric Hessian at the minimum was not positive definite.
type FitResult struct {
	Success    bool
	Value      float64
	NEval      int
	Covariance *Covariance
}

// Fit minimizes objective over the free parameters with Nelder-Mead,
// starting from their current values.  objective receives the free
// values in declaration order and is treated as a chi-square style
// statistic: the covariance is the inverse of half its Hessian at the
// minimum.  On success the free parameters are updated in place with
// the fitted values and their uncertainties.
func Fit(ps *Parameters, objective func(x []float64) float64) (*FitResult, error) {
	free := ps.Free()
	if len(free) == 0 {
		return nil, fmt.Errorf("%w: nothing to fit, all parameters frozen", ErrParameter)
	}
	x0 := make([]float64, len(free))
	for i, p := range free {
		x0[i] = p.Value
	}

	bounded := func(x []float64) float64 {
		for i, p := range free {
			if !p.inBounds(x[i]) {
				return math.Inf(1)
			}
		}
		return objective(x)
	}

	problem := optimize.Problem{Func: bounded}
	res, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("modeling: fit: %w", err)
	}
	for i, p := range free {
		p.Value = res.X[i]
	}
	out := &FitResult{
		Success: true,
		Value:   res.F,
		NEval:   res.Stats.FuncEvaluations,
	}

	names := make([]string, len(free))
	for i, p := range free {
		names[i] = p.Name
	}
	if cov := hessianCovariance(bounded, res.X); cov != nil {
		c, err := NewCovariance(names, cov)
		if err == nil {
			out.Covariance = c
			errs := c.Errors()
			for i, p := range free {
				p.Error = errs[i]
			}
		}
	}
	return out, nil
}

// hessianCovariance inverts half the central-difference Hessian of f at
// x.  Returns nil when the Hessian is not positive definite.
func hessianCovariance(f func([]float64) float64, x []float64) *mat.SymDense {
	n := len(x)
	h := make([]float64, n)
	for i := range h {
		h[i] = 1e-4 * (1 + math.Abs(x[i]))
	}
	hess := mat.NewSymDense(n, nil)
	f0 := f(x)
	xp := append([]float64(nil), x...)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var d2 float64
			if i == j {
				xp[i] = x[i] + h[i]
				fp := f(xp)
				xp[i] = x[i] - h[i]
				fm := f(xp)
				xp[i] = x[i]
				d2 = (fp - 2*f0 + fm) / (h[i] * h[i])
			} else {
				xp[i], xp[j] = x[i]+h[i], x[j]+h[j]
				fpp := f(xp)
				xp[j] = x[j] - h[j]
				fpm := f(xp)
				xp[i] = x[i] - h[i]
				fmm := f(xp)
				xp[j] = x[j] + h[j]
				fmp := f(xp)
				xp[i], xp[j] = x[i], x[j]
				d2 = (fpp - fpm - fmp + fmm) / (4 * h[i] * h[j])
			}
			if math.IsNaN(d2) || math.IsInf(d2, 0) {
				return nil
			}
			hess.SetSym(i, j, d2/2)
		}
	}
	var ch mat.Cholesky
	if !ch.Factorize(hess) {
		return nil
	}
	var inv mat.SymDense
	if err := ch.InverseTo(&inv); err != nil {
		return nil
	}
	return &inv
}
