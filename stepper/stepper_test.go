package stepper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tokamak/config"
	"tokamak/fvm"
	"tokamak/geometry"
	"tokamak/solver"
	"tokamak/sources"
	"tokamak/state"
	"tokamak/transport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func baseConfig() *config.Config {
	c := config.Default()
	c.Static.Nr = 8
	c.Static.Rmin = 0.5
	c.Static.Rmaj = 1.5
	c.Static.IonHeatEq = false
	c.Static.ElHeatEq = false
	return c
}

func input(t *testing.T, c *config.Config) Input {
	t.Helper()
	geo, err := geometry.NewCircular(c.Static.Nr, c.Static.Rmin, c.Static.Rmaj)
	require.NoError(t, err)
	dt := 0.1
	dynT, dynNext := c.Slice(0), c.Slice(dt)
	coreT := state.Initial(geo, dynT)
	return Input{
		Geo:             geo,
		Static:          c.Static,
		DynT:            dynT,
		DynTPlusDt:      dynNext,
		CoreT:           coreT,
		CoreTPlusDt:     state.Prescribe(coreT, dynNext),
		Dt:              dt,
		ExplicitSources: sources.Default().ComputeExplicit(dynT, geo, coreT),
	}
}

func newStepper(t *testing.T, c *config.Config) *Stepper {
	t.Helper()
	strategy, err := FromConfig(c.Static.Solver)
	require.NoError(t, err)
	tm, err := transport.New(c.Static.TransportModel)
	require.NoError(t, err)
	s, err := New(strategy, tm, sources.Default())
	require.NoError(t, err)
	return s
}

func TestEmptySelection(t *testing.T) {
	c := baseConfig()
	in := input(t, c)
	out, err := newStepper(t, c).Step(in)
	require.NoError(t, err)
	assert.Equal(t, solver.Converged, out.Outcome)
	if diff := cmp.Diff(in.CoreTPlusDt, out.Profiles); diff != "" {
		t.Errorf("profiles changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(state.ZeroTransport(c.Static.Nr), out.Transport); diff != "" {
		t.Errorf("transport not zero:\n%s", diff)
	}
	if diff := cmp.Diff(state.ZeroAux(c.Static.Nr), out.Aux); diff != "" {
		t.Errorf("aux not zero:\n%s", diff)
	}
}

func TestZeroBudget(t *testing.T) {
	for _, cfg := range []config.SolverConfig{config.DefaultNewton(), config.DefaultOptimizer()} {
		c := baseConfig()
		c.Static.IonHeatEq = true
		c.Static.ElHeatEq = true
		cfg.MaxIter = 0
		cfg.InitialGuessMode = config.GuessXOld
		c.Static.Solver = cfg
		in := input(t, c)
		out, err := newStepper(t, c).Step(in)
		require.NoError(t, err)
		assert.Equal(t, solver.Converged, out.Outcome, cfg.Kind)
		assert.Equal(t, in.CoreT.TempIon.Value, out.Profiles.TempIon.Value, cfg.Kind)
		assert.Equal(t, in.CoreT.TempEl.Value, out.Profiles.TempEl.Value, cfg.Kind)
		assert.Equal(t, 0, out.Iterations)
		assert.True(t, out.ArtificiallyLinear)
	}
}

func TestFrozenNewtonConvergesInOneIteration(t *testing.T) {
	c := baseConfig()
	c.Static.IonHeatEq = true
	c.Static.ElHeatEq = true
	c.Static.Solver = config.DefaultNewton()
	c.Static.Solver.FrozenCoeffs = true
	c.Static.Solver.Tol = 1e-10
	c.Static.Solver.MaxIter = 5
	c.Static.Solver.InitialGuessMode = config.GuessXOld
	c.Static.Solver.Jacobian = config.JacobianOperator

	out, err := newStepper(t, c).Step(input(t, c))
	require.NoError(t, err)
	assert.Equal(t, solver.Converged, out.Outcome)
	assert.Equal(t, 1, out.Iterations)
	assert.True(t, out.ArtificiallyLinear)
}

func TestDensityOptimizerNoOp(t *testing.T) {
	c := baseConfig()
	c.Static.DensEq = true
	c.Static.Solver = config.DefaultOptimizer()
	c.Static.Solver.MaxIter = 0
	c.Static.Solver.InitialGuessMode = config.GuessXOld

	in := input(t, c)
	out, err := newStepper(t, c).Step(in)
	require.NoError(t, err)
	assert.Equal(t, solver.Converged, out.Outcome)
	assert.Equal(t, in.CoreT.Ne.Value, out.Profiles.Ne.Value)
}

func TestNonEvolvingFieldsUntouched(t *testing.T) {
	c := baseConfig()
	c.Static.IonHeatEq = true
	in := input(t, c)
	out, err := newStepper(t, c).Step(in)
	require.NoError(t, err)
	require.Equal(t, solver.Converged, out.Outcome)
	assert.False(t, out.ArtificiallyLinear)
	assert.NotEqual(t, in.CoreT.TempIon.Value, out.Profiles.TempIon.Value)
	for _, f := range []state.Field{state.TempEl, state.Psi, state.Ne} {
		want, _ := in.CoreTPlusDt.Get(f)
		got, _ := out.Profiles.Get(f)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s changed (-want +got):\n%s", f, diff)
		}
	}
	assert.Equal(t, in.CoreTPlusDt.Ni, out.Profiles.Ni)
}

func TestStepIdempotent(t *testing.T) {
	c := baseConfig()
	c.Static.IonHeatEq = true
	c.Static.ElHeatEq = true
	c.Static.DensEq = true
	c.Static.TransportModel = config.TransportCriticalGradient
	in := input(t, c)
	s := newStepper(t, c)
	first, err := s.Step(in)
	require.NoError(t, err)
	second, err := s.Step(in)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated step differs (-first +second):\n%s", diff)
	}
}

func TestAllFieldsEvolve(t *testing.T) {
	c := baseConfig()
	c.Static.IonHeatEq = true
	c.Static.ElHeatEq = true
	c.Static.CurrentEq = true
	c.Static.DensEq = true
	c.Static.ThetaImp = 0.5
	in := input(t, c)
	out, err := newStepper(t, c).Step(in)
	require.NoError(t, err)
	assert.Equal(t, solver.Converged, out.Outcome)
	assert.Less(t, out.Residual, c.Static.Solver.Tol)
	assert.Len(t, out.Transport.ChiFaceIon, c.Static.Nr+1)
	// 演化 ne 时 ni 随之更新
	d := in.DynTPlusDt.Composition.Dilution()
	assert.InDelta(t, out.Profiles.Ne.Value[2]*d, out.Profiles.Ni.Value[2], 1e-12)
}

func TestLinearStrategyStep(t *testing.T) {
	c := baseConfig()
	c.Static.IonHeatEq = true
	c.Static.Solver = config.DefaultLinear()
	out, err := newStepper(t, c).Step(input(t, c))
	require.NoError(t, err)
	assert.Equal(t, solver.Converged, out.Outcome)
	assert.True(t, out.ArtificiallyLinear)
}

func TestMisuse(t *testing.T) {
	_, err := New(nil, transport.Constant{}, sources.Default())
	assert.ErrorIs(t, err, ErrNoStrategy)

	_, err = FromConfig(config.SolverConfig{Kind: "simplex"})
	assert.ErrorIs(t, err, config.ErrUnknownSolver)

	c := baseConfig()
	c.Static.IonHeatEq = true
	in := input(t, c)
	in.CoreT.TempIon = fvm.NewCellVariable([]float64{1, 2}, 0.5, 1)
	_, err = newStepper(t, c).Step(in)
	assert.ErrorIs(t, err, state.ErrShape)
}
