package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokamak/config"
	"tokamak/state"
)

// affine r(x) = A·x − b
type affine struct {
	a [][]float64
	b []float64
}

func (f affine) Dim() int { return len(f.b) }

func (f affine) Residual(x []float64) ([]float64, error) {
	r := make([]float64, len(f.b))
	for i, row := range f.a {
		for j, v := range row {
			r[i] += v * x[j]
		}
		r[i] -= f.b[i]
	}
	return r, nil
}

func optimizer(t *testing.T, mutate func(*config.SolverConfig)) *Optimizer {
	t.Helper()
	cfg := config.DefaultOptimizer()
	cfg.InitialGuessMode = config.GuessXOld
	if mutate != nil {
		mutate(&cfg)
	}
	o, err := NewOptimizer(cfg)
	require.NoError(t, err)
	return o
}

func TestOptimizerQuadratic(t *testing.T) {
	f := affine{a: [][]float64{{3, 1}, {1, 2}}, b: []float64{9, 8}}
	res := optimizer(t, nil).minimize(f, []float64{0, 0}, false)
	require.Equal(t, Converged, res.Outcome)
	assert.LessOrEqual(t, res.Residual, 1e-12)
	assert.InDeltaSlice(t, []float64{2, 3}, res.X, 1e-5)
	assert.Greater(t, res.Iterations, 0)
}

func TestOptimizerZeroBudget(t *testing.T) {
	o := optimizer(t, func(c *config.SolverConfig) { c.MaxIter = 0 })
	f := affine{a: [][]float64{{1}}, b: []float64{5}}
	res := o.minimize(f, []float64{1}, false)
	assert.Equal(t, Converged, res.Outcome)
	assert.Equal(t, []float64{1}, res.X)
	assert.True(t, o.ArtificiallyLinear(false))
}

func TestOptimizerBudgetTooSmall(t *testing.T) {
	f := affine{a: [][]float64{{100, 0}, {0, 0.01}}, b: []float64{1, 1}}
	res := optimizer(t, func(c *config.SolverConfig) { c.MaxIter = 1 }).minimize(f, []float64{0, 0}, false)
	assert.Equal(t, Failed, res.Outcome)
	assert.Greater(t, res.Residual, 1e-12)
}

func TestOptimizerProblem(t *testing.T) {
	f := newFixture(state.TempIon, state.TempEl)
	f.frozen = true
	p := f.problem(t)
	o := optimizer(t, func(c *config.SolverConfig) {
		c.InitialGuessMode = config.GuessLinear
		c.Tol = 1e-16
	})
	res := o.Solve(p)
	// 冻结系数下线性预测已是精确解
	assert.Equal(t, Converged, res.Outcome)
	assert.Equal(t, 0, res.Iterations)
	assert.True(t, o.ArtificiallyLinear(p.Frozen()))
}

func TestLinearStrategy(t *testing.T) {
	l, err := NewLinear(config.DefaultLinear())
	require.NoError(t, err)
	assert.True(t, l.ArtificiallyLinear(false))

	f := newFixture(state.TempIon, state.TempEl)
	f.frozen = true
	res := l.Solve(f.problem(t))
	assert.Equal(t, Converged, res.Outcome)
	assert.Less(t, res.Residual, 1e-10)

	_, err = NewLinear(config.DefaultNewton())
	assert.ErrorIs(t, err, config.ErrInvalid)
}
