package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseSolverDefaultsFollowKind(t *testing.T) {
	c, err := Parse([]byte(`
static:
  dens_eq: true
  solver:
    kind: optimizer
    maxiter: 7
`))
	require.NoError(t, err)
	want := DefaultOptimizer()
	want.MaxIter = 7
	assert.Equal(t, want, c.Static.Solver)
	assert.True(t, c.Static.DensEq)
	assert.True(t, c.Static.IonHeatEq, "unset fields keep defaults")
}

func TestParseNewtonOverrides(t *testing.T) {
	c, err := Parse([]byte(`
static:
  solver:
    kind: newton_raphson
    initial_guess_mode: x_old
    tol: 1.0e-10
    maxiter: 5
    frozen_coeffs: true
`))
	require.NoError(t, err)
	s := c.Static.Solver
	assert.Equal(t, GuessXOld, s.InitialGuessMode)
	assert.Equal(t, 1e-10, s.Tol)
	assert.Equal(t, 5, s.MaxIter)
	assert.True(t, s.FrozenCoeffs)
	assert.Equal(t, 0.5, s.DeltaReductionFactor)
	assert.Equal(t, 0.01, s.TauMin)
}

func TestParseUnknownSolver(t *testing.T) {
	_, err := Parse([]byte("static: {solver: {kind: simplex}}"))
	assert.ErrorIs(t, err, ErrUnknownSolver)
}

func TestParseInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"theta":     "static: {theta_imp: 1.5}",
		"tau_min":   "static: {solver: {kind: newton_raphson, tau_min: 0}}",
		"coarse":    "static: {solver: {kind: newton_raphson, tol: 0.1, coarse_tol: 0.01}}",
		"guess":     "static: {solver: {kind: optimizer, initial_guess_mode: random}}",
		"transport": "static: {transport_model: qlknn}",
		"zimp":      "dynamic: {composition: {zimp: 1}}",
		"dt":        "runtime: {dt_reduction_factor: 1}",
		"source":    "dynamic: {sources: {gas_puff: {mode: prescribed}}}",
	} {
		_, err := Parse([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalid, name)
	}
}

func TestTimeSeries(t *testing.T) {
	c, err := Parse([]byte(`
dynamic:
  profiles:
    ti_bound: {0: 1, 2: 3}
    te_bound: 2.5
`))
	require.NoError(t, err)
	ti := c.Dynamic.Profiles.TiBound
	assert.Equal(t, 1.0, ti.At(-1))
	assert.Equal(t, 2.0, ti.At(1))
	assert.Equal(t, 3.0, ti.At(2))
	assert.Equal(t, 3.0, ti.At(10))
	assert.Equal(t, 2.5, c.Dynamic.Profiles.TeBound.At(7))

	d := c.Slice(0.5)
	assert.Equal(t, 0.5, d.T)
	assert.Equal(t, 1.5, d.Profiles.TiBound)
	assert.Equal(t, 2.5, d.Profiles.TeBound)

	_, err = Parse([]byte("dynamic: {profiles: {ti_bound: [1, 2]}}"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSliceSources(t *testing.T) {
	c := Default()
	c.Dynamic.Sources["generic_ion_el_heat"] = SourceInput{
		Mode:      SourceModel,
		Amplitude: NewTimeSeries(map[float64]float64{0: 0, 1: 4}),
		Width:     0.2,
	}
	d := c.Slice(0.25)
	src := d.Sources["generic_ion_el_heat"]
	assert.Equal(t, 1.0, src.Amplitude)
	assert.Equal(t, 0.2, src.Width)
	assert.Equal(t, SourceZero, d.Sources["fusion_heat"].Mode)
	assert.InDelta(t, (10-1.5)/9.0, d.Composition.Dilution(), 1e-15)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runtime: {t_final: 2, fixed_dt: 0.5}"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Runtime.TFinal)
	assert.Equal(t, 0.5, c.Runtime.FixedDt)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
