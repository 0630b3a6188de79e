// Public domain.

package modeling

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Covariance pairs a symmetric covariance matrix with the parameter
// names labeling its rows.
type Covariance struct {
	names []string
	index map[string]int
	m     *mat.SymDense
}

func NewCovariance(names []string, m *mat.SymDense) (*Covariance, error) {
	if r := m.SymmetricDim(); r != len(names) {
		return nil, fmt.Errorf("%w: %d names for a %d by %d matrix",
			ErrParameter, len(names), r, r)
	}
	c := &Covariance{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if _, dup := c.index[n]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrParameter, n)
		}
		c.index[n] = i
	}
	c.m = mat.NewSymDense(len(names), nil)
	c.m.CopySym(m)
	return c, nil
}

func (c *Covariance) Names() []string { return append([]string(nil), c.names...) }

// Get returns the covariance between two named parameters.
func (c *Covariance) Get(a, b string) (float64, error) {
	i, ok := c.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: no parameter %q", ErrParameter, a)
	}
	j, ok := c.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: no parameter %q", ErrParameter, b)
	}
	return c.m.At(i, j), nil
}

// Errors returns the square roots of the diagonal, one sigma
// uncertainties in name order.
func (c *Covariance) Errors() []float64 {
	out := make([]float64, len(c.names))
	for i := range out {
		out[i] = math.Sqrt(c.m.At(i, i))
	}
	return out
}

// Sub extracts the covariance restricted to the named parameters.
func (c *Covariance) Sub(names ...string) (*Covariance, error) {
	sub := mat.NewSymDense(len(names), nil)
	for i, a := range names {
		ia, ok := c.index[a]
		if !ok {
			return nil, fmt.Errorf("%w: no parameter %q", ErrParameter, a)
		}
		for j := i; j < len(names); j++ {
			jb, ok := c.index[names[j]]
			if !ok {
				return nil, fmt.Errorf("%w: no parameter %q", ErrParameter, names[j])
			}
			sub.SetSym(i, j, c.m.At(ia, jb))
		}
	}
	return NewCovariance(names, sub)
}
