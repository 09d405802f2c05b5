// Package sources 源模型与离子-电子能量交换
package sources

import (
	"math"

	"tokamak/config"
	"tokamak/geometry"
	"tokamak/state"
)

// Source 单个源模型
type Source interface {
	Name() string
	Affected() []state.Field
	// Profile 计算源剖面，结果按 Affected 的字段给出
	Profile(sp config.SourceParams, dyn *config.Dynamic, geo *geometry.Geometry, p state.Profiles) state.Contribution
}

// Models 源模型集合
type Models struct {
	Sources []Source
}

// Default 内置源
func Default() *Models {
	return &Models{Sources: []Source{
		GenericIonElHeat{},
		GasPuff{},
		ExternalCurrent{},
		FusionHeat{},
	}}
}

// ComputeExplicit 步前计算显式源，结果在整个步内不变
func (m *Models) ComputeExplicit(dyn *config.Dynamic, geo *geometry.Geometry, p state.Profiles) state.SourceProfiles {
	return state.SourceProfiles{
		Explicit: m.compute(dyn, geo, p, false),
		Implicit: map[string]state.Contribution{},
	}
}

// ComputeImplicit 按当前试探解计算隐式源
func (m *Models) ComputeImplicit(dyn *config.Dynamic, geo *geometry.Geometry, p state.Profiles) map[string]state.Contribution {
	return m.compute(dyn, geo, p, true)
}

func (m *Models) compute(dyn *config.Dynamic, geo *geometry.Geometry, p state.Profiles, implicit bool) map[string]state.Contribution {
	out := map[string]state.Contribution{}
	for _, s := range m.Sources {
		sp, ok := dyn.Sources[s.Name()]
		if !ok || sp.Mode != config.SourceModel || sp.Implicit != implicit {
			continue
		}
		out[s.Name()] = s.Profile(sp, dyn, geo, p)
	}
	return out
}

const (
	qeiScale = 0.05
	minTemp  = 1e-3
)

// Qei 离子-电子交换系数 k，交换功率 Q_i = k·(Te − Ti) = −Q_e
func (m *Models) Qei(dyn *config.Dynamic, geo *geometry.Geometry, p state.Profiles) []float64 {
	k := make([]float64, geo.Nr())
	mult := dyn.Numerics.QeiMult
	if mult == 0 {
		return k
	}
	for i := range k {
		te := math.Max(p.TempEl.Value[i], minTemp)
		k[i] = mult * qeiScale * p.Ne.Value[i] * p.Ni.Value[i] / (dyn.Composition.Ai * te * math.Sqrt(te))
	}
	return k
}

func gaussian(geo *geometry.Geometry, loc, width, amp float64) []float64 {
	out := make([]float64, geo.Nr())
	for i, r := range geo.Mesh.CellCenters {
		d := (r - loc) / width
		out[i] = amp * math.Exp(-0.5*d*d)
	}
	return out
}

// GenericIonElHeat 高斯形加热，按 el_fraction 分给电子
type GenericIonElHeat struct{}

func (GenericIonElHeat) Name() string { return "generic_ion_el_heat" }

func (GenericIonElHeat) Affected() []state.Field { return []state.Field{state.TempIon, state.TempEl} }

func (GenericIonElHeat) Profile(sp config.SourceParams, _ *config.Dynamic, geo *geometry.Geometry, _ state.Profiles) state.Contribution {
	ion := gaussian(geo, sp.Location, sp.Width, sp.Amplitude*(1-sp.ElFraction))
	el := gaussian(geo, sp.Location, sp.Width, sp.Amplitude*sp.ElFraction)
	return state.Contribution{state.TempIon: ion, state.TempEl: el}
}

// GasPuff 边界附近指数衰减的粒子源
type GasPuff struct{}

func (GasPuff) Name() string { return "gas_puff" }

func (GasPuff) Affected() []state.Field { return []state.Field{state.Ne} }

func (GasPuff) Profile(sp config.SourceParams, _ *config.Dynamic, geo *geometry.Geometry, _ state.Profiles) state.Contribution {
	ne := make([]float64, geo.Nr())
	for i, r := range geo.Mesh.CellCenters {
		ne[i] = sp.Amplitude * math.Exp(-(1-r)/sp.Width)
	}
	return state.Contribution{state.Ne: ne}
}

// ExternalCurrent 高斯形外部驱动电流
type ExternalCurrent struct{}

func (ExternalCurrent) Name() string { return "external_current" }

func (ExternalCurrent) Affected() []state.Field { return []state.Field{state.Psi} }

func (ExternalCurrent) Profile(sp config.SourceParams, _ *config.Dynamic, geo *geometry.Geometry, _ state.Profiles) state.Contribution {
	return state.Contribution{state.Psi: gaussian(geo, sp.Location, sp.Width, sp.Amplitude)}
}

// FusionHeat α粒子加热，∝ ni²·Ti²，随温度变化，宜隐式处理
type FusionHeat struct{}

func (FusionHeat) Name() string { return "fusion_heat" }

func (FusionHeat) Affected() []state.Field { return []state.Field{state.TempIon, state.TempEl} }

func (FusionHeat) Profile(sp config.SourceParams, _ *config.Dynamic, geo *geometry.Geometry, p state.Profiles) state.Contribution {
	ion := make([]float64, geo.Nr())
	el := make([]float64, geo.Nr())
	for i := range ion {
		ni, ti := p.Ni.Value[i], math.Max(p.TempIon.Value[i], 0)
		power := sp.Amplitude * ni * ni * ti * ti
		ion[i] = (1 - sp.ElFraction) * power
		el[i] = sp.ElFraction * power
	}
	return state.Contribution{state.TempIon: ion, state.TempEl: el}
}
