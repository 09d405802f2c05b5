package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokamak/config"
	"tokamak/geometry"
	"tokamak/state"
)

func setup(t *testing.T) (*config.Config, *geometry.Geometry) {
	t.Helper()
	geo, err := geometry.NewCircular(8, 1, 3)
	require.NoError(t, err)
	return config.Default(), geo
}

func TestExplicitImplicitSplit(t *testing.T) {
	c, geo := setup(t)
	c.Dynamic.Sources["fusion_heat"] = config.SourceInput{Mode: config.SourceModel, Implicit: true, Amplitude: config.Constant(0.1)}
	dyn := c.Slice(0)
	p := state.Initial(geo, dyn)

	m := Default()
	exp := m.ComputeExplicit(dyn, geo, p)
	assert.Contains(t, exp.Explicit, "generic_ion_el_heat")
	assert.Contains(t, exp.Explicit, "gas_puff")
	assert.NotContains(t, exp.Explicit, "fusion_heat")

	imp := m.ComputeImplicit(dyn, geo, p)
	assert.Equal(t, []string{"fusion_heat"}, keys(imp))
	assert.Greater(t, imp["fusion_heat"][state.TempIon][0], 0.0)
}

func TestZeroMode(t *testing.T) {
	c, geo := setup(t)
	src := c.Dynamic.Sources["gas_puff"]
	src.Mode = config.SourceZero
	c.Dynamic.Sources["gas_puff"] = src
	delete(c.Dynamic.Sources, "external_current")
	dyn := c.Slice(0)
	exp := Default().ComputeExplicit(dyn, geo, state.Initial(geo, dyn))
	assert.NotContains(t, exp.Explicit, "gas_puff")
	assert.NotContains(t, exp.Explicit, "external_current")
	assert.Equal(t, make([]float64, 8), exp.Total(state.Ne, 8))
}

func TestGenericHeatSplit(t *testing.T) {
	c, geo := setup(t)
	dyn := c.Slice(0)
	sp := dyn.Sources["generic_ion_el_heat"]
	out := GenericIonElHeat{}.Profile(sp, dyn, geo, state.Profiles{})
	for i := range out[state.TempIon] {
		total := out[state.TempIon][i] + out[state.TempEl][i]
		assert.InDelta(t, sp.ElFraction*total, out[state.TempEl][i], 1e-12)
	}
	// 峰值在 location 处
	assert.Greater(t, out[state.TempEl][0], out[state.TempEl][7])
}

func TestQei(t *testing.T) {
	c, geo := setup(t)
	dyn := c.Slice(0)
	p := state.Initial(geo, dyn)
	m := Default()
	k := m.Qei(dyn, geo, p)
	for _, v := range k {
		assert.Greater(t, v, 0.0)
	}
	// 电子温度越高交换越弱
	hot := p.Copy()
	for i := range hot.TempEl.Value {
		hot.TempEl.Value[i] *= 4
	}
	assert.InDelta(t, k[2]/8, m.Qei(dyn, geo, hot)[2], 1e-12)

	dyn.Numerics.QeiMult = 0
	assert.Equal(t, make([]float64, 8), m.Qei(dyn, geo, p))
}

func keys(m map[string]state.Contribution) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
