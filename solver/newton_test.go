package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"tokamak/config"
	"tokamak/maths"
)

// scalar 一维残差 r(x) = f(x)
type scalar func(x float64) float64

func (scalar) Dim() int { return 1 }

func (f scalar) Residual(x []float64) ([]float64, error) { return []float64{f(x[0])}, nil }

// uphill 返回取反的雅可比，Newton 方向变成上升方向
type uphill struct{ FiniteDifference }

func (u uphill) Jacobian(r Residual, x []float64) (*mat.Dense, error) {
	j, err := u.FiniteDifference.Jacobian(r, x)
	if err != nil {
		return nil, err
	}
	j.Scale(-1, j)
	return j, nil
}

func newton(t *testing.T, mutate func(*config.SolverConfig), opts ...Option) *NewtonRaphson {
	t.Helper()
	cfg := config.DefaultNewton()
	cfg.InitialGuessMode = config.GuessXOld
	if mutate != nil {
		mutate(&cfg)
	}
	n, err := NewNewtonRaphson(cfg, opts...)
	require.NoError(t, err)
	return n
}

func TestNewtonDampingPicksHalfStep(t *testing.T) {
	n := newton(t, nil)
	res := n.iterate(scalar(math.Atan), []float64{2}, false)
	require.Equal(t, Converged, res.Outcome)
	// 完整步从 2 跳到 −3.54，|atan| 变大；τ=0.5 时下降
	assert.Equal(t, 0.5, res.History[1].Tau)
	assert.Less(t, res.History[1].Residual, math.Atan(2))
	assert.InDelta(t, 0, res.X[0], 1e-5)
	assert.Equal(t, len(res.History)-1, res.Iterations)
}

func TestNewtonOwnLU(t *testing.T) {
	gonum := newton(t, nil).iterate(scalar(math.Atan), []float64{2}, false)
	own := newton(t, nil, WithLinearSolver(maths.LUSolver{})).iterate(scalar(math.Atan), []float64{2}, false)
	assert.Equal(t, gonum.Outcome, own.Outcome)
	assert.Equal(t, gonum.Iterations, own.Iterations)
	assert.InDelta(t, gonum.X[0], own.X[0], 1e-12)
}

func TestNewtonDampingExhausted(t *testing.T) {
	n := newton(t, nil, WithDifferentiator(uphill{}))
	res := n.iterate(scalar(math.Atan), []float64{2}, false)
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, []float64{2}, res.X)
}

func TestNewtonZeroBudget(t *testing.T) {
	n := newton(t, func(c *config.SolverConfig) { c.MaxIter = 0 })
	res := n.iterate(scalar(math.Atan), []float64{2}, false)
	assert.Equal(t, Converged, res.Outcome)
	assert.Equal(t, []float64{2}, res.X)
	assert.Equal(t, 0, res.Iterations)
	assert.True(t, n.ArtificiallyLinear(false))
}

// x³ 的 Newton 迭代只有线性收敛，每步残差乘以 (2/3)³
func TestNewtonCoarseTolerance(t *testing.T) {
	cube := scalar(func(x float64) float64 { return x * x * x })

	res := newton(t, func(c *config.SolverConfig) { c.MaxIter = 3 }).iterate(cube, []float64{1}, false)
	assert.Equal(t, Failed, res.Outcome, "residual %g above coarse_tol", res.Residual)
	assert.Equal(t, 3, res.Iterations)

	res = newton(t, func(c *config.SolverConfig) { c.MaxIter = 6 }).iterate(cube, []float64{1}, false)
	assert.Equal(t, Converged, res.Outcome)
	assert.Greater(t, res.Residual, 1e-5)
	assert.Less(t, res.Residual, 1e-2)
}

func TestNewtonNonFiniteResidual(t *testing.T) {
	res := newton(t, nil).iterate(scalar(func(float64) float64 { return math.NaN() }), []float64{1}, false)
	assert.Equal(t, Failed, res.Outcome)
}

func TestNewtonConfigKind(t *testing.T) {
	_, err := NewNewtonRaphson(config.DefaultOptimizer())
	assert.ErrorIs(t, err, config.ErrInvalid)
}
