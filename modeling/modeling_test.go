// Public domain.

package modeling_test

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gammasky/skyirf/modeling"
)

func TestParametersIndex(t *testing.T) {
	a := modeling.NewParameter("amplitude", 1, "sr-1")
	s := modeling.NewParameter("sigma", .1, "deg")
	ps, err := modeling.NewParameters(a, s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ps.Get("sigma")
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatal("Get returned a different parameter")
	}
	if _, err := ps.Get("nope"); !errors.Is(err, modeling.ErrParameter) {
		t.Fatal("want ErrParameter, got", err)
	}
	if _, err := modeling.NewParameters(a, a); !errors.Is(err, modeling.ErrParameter) {
		t.Fatal("duplicate accepted")
	}
}

func TestFreeSkipsFrozen(t *testing.T) {
	a := modeling.NewParameter("a", 1, "")
	b := modeling.NewParameter("b", 2, "")
	b.Frozen = true
	ps, err := modeling.NewParameters(a, b)
	if err != nil {
		t.Fatal(err)
	}
	free := ps.Free()
	if len(free) != 1 || free[0] != a {
		t.Fatal("free parameters:", free)
	}
}

// quadratic chi-square with a known minimum and curvature
func TestFitQuadratic(t *testing.T) {
	a := modeling.NewParameter("a", 0, "")
	b := modeling.NewParameter("b", 0, "")
	ps, err := modeling.NewParameters(a, b)
	if err != nil {
		t.Fatal(err)
	}
	res, err := modeling.Fit(ps, func(x []float64) float64 {
		da := x[0] - 3
		db := x[1] + 1
		return da*da/.25 + db*db/4
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatal("fit did not converge")
	}
	if math.Abs(a.Value-3) > 1e-4 || math.Abs(b.Value+1) > 1e-4 {
		t.Fatalf("minimum at (%g, %g)", a.Value, b.Value)
	}
	if res.Covariance == nil {
		t.Fatal("no covariance")
	}
	// chi2 = da^2/sigma_a^2 + db^2/sigma_b^2 with sigma_a=.5, sigma_b=2
	if math.Abs(a.Error-.5) > .01 || math.Abs(b.Error-2) > .04 {
		t.Fatalf("errors (%g, %g), want (.5, 2)", a.Error, b.Error)
	}
}

func TestFitRespectsFrozenAndBounds(t *testing.T) {
	a := modeling.NewParameter("a", .5, "")
	a.Min, a.Max = 0, 1
	b := modeling.NewParameter("b", 7, "")
	b.Frozen = true
	ps, err := modeling.NewParameters(a, b)
	if err != nil {
		t.Fatal(err)
	}
	res, err := modeling.Fit(ps, func(x []float64) float64 {
		d := x[0] - 2 // true minimum outside the bounds
		return d * d
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = res
	if b.Value != 7 {
		t.Fatal("frozen parameter moved:", b.Value)
	}
	if a.Value < 0 || a.Value > 1 {
		t.Fatal("bounded parameter escaped:", a.Value)
	}
	if a.Value < .99 {
		t.Fatal("expected the fit to push against the upper bound, got", a.Value)
	}
}

func TestFitAllFrozen(t *testing.T) {
	a := modeling.NewParameter("a", 1, "")
	a.Frozen = true
	ps, err := modeling.NewParameters(a)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := modeling.Fit(ps, func(x []float64) float64 { return 0 }); !errors.Is(err, modeling.ErrParameter) {
		t.Fatal("want ErrParameter, got", err)
	}
}

func TestCovarianceSub(t *testing.T) {
	m := mat.NewSymDense(3, []float64{
		4, 1, 0,
		1, 9, 2,
		0, 2, 16,
	})
	c, err := modeling.NewCovariance([]string{"a", "b", "c"}, m)
	if err != nil {
		t.Fatal(err)
	}
	errs := c.Errors()
	for i, want := range []float64{2, 3, 4} {
		if errs[i] != want {
			t.Fatalf("error %d: got %g, want %g", i, errs[i], want)
		}
	}
	v, err := c.Get("b", "c")
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Fatal("cov(b, c):", v)
	}
	sub, err := c.Sub("c", "a")
	if err != nil {
		t.Fatal(err)
	}
	v, err = sub.Get("c", "c")
	if err != nil {
		t.Fatal(err)
	}
	if v != 16 {
		t.Fatal("sub cov(c, c):", v)
	}
	if _, err := c.Sub("zz"); !errors.Is(err, modeling.ErrParameter) {
		t.Fatal("want ErrParameter, got", err)
	}
}
