package tokamak

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tokamak/config"
	"tokamak/solver"
)

func smallConfig() *config.Config {
	c := config.Default()
	c.Static.Nr = 10
	c.Runtime.TFinal = 0.3
	c.Runtime.FixedDt = 0.1
	return c
}

func TestRun(t *testing.T) {
	sim, err := NewSim(smallConfig(), nil)
	require.NoError(t, err)
	rec, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, rec.Len())
	assert.InDelta(t, 0.3, rec.Time[3], 1e-12)
	for i, o := range rec.Outcome {
		assert.Equal(t, solver.Converged, o, "step %d", i)
	}
	// 加热使中心离子温度变化
	assert.NotEqual(t, rec.Profiles["temp_ion"][0][0], rec.Profiles["temp_ion"][3][0])
}

func TestRunDtTooSmall(t *testing.T) {
	c := smallConfig()
	c.Static.Solver.MaxIter = 1
	c.Static.Solver.Tol = 1e-30
	c.Static.Solver.CoarseTol = 1e-30
	c.Runtime.MinDt = 1e-2
	core, logs := observer.New(zapcore.WarnLevel)
	sim, err := NewSim(c, zap.New(core))
	require.NoError(t, err)
	_, err = sim.Run(context.Background())
	assert.ErrorIs(t, err, ErrDtTooSmall)
	// 0.1 → 0.033 → 0.011 → 0.0037 < min_dt
	assert.Equal(t, 3, logs.FilterMessage("step failed, reducing dt").Len())
}

func TestRunArtificiallyLinearNoRetry(t *testing.T) {
	c := smallConfig()
	c.Static.Solver.MaxIter = 1
	c.Static.Solver.Tol = 1e-30
	c.Static.Solver.CoarseTol = 1e-30
	c.Static.Solver.FrozenCoeffs = true
	sim, err := NewSim(c, nil)
	require.NoError(t, err)
	rec, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Len())
	assert.Equal(t, []int{0, 0, 0, 0}, rec.Retries)
	assert.Equal(t, solver.Failed, rec.Outcome[1])
}

func TestRunLimits(t *testing.T) {
	c := smallConfig()
	c.Runtime.MaxSteps = 2
	sim, err := NewSim(c, nil)
	require.NoError(t, err)
	rec, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSimInvalid(t *testing.T) {
	c := smallConfig()
	c.Static.Solver.Kind = "simplex"
	_, err := NewSim(c, nil)
	assert.ErrorIs(t, err, config.ErrUnknownSolver)
}
