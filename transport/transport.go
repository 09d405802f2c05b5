// Package transport 输运模型：给出面上的热扩散率、粒子扩散和对流系数
package transport

import (
	"fmt"
	"math"

	"tokamak/config"
	"tokamak/geometry"
	"tokamak/state"
)

// Model 输运模型，必须是纯函数
type Model interface {
	Name() string
	Compute(dyn *config.Dynamic, geo *geometry.Geometry, p state.Profiles) state.CoreTransport
}

// New 按名字创建模型
func New(kind config.TransportModel) (Model, error) {
	switch kind {
	case config.TransportConstant:
		return Constant{}, nil
	case config.TransportCriticalGradient:
		return CriticalGradient{}, nil
	}
	return nil, fmt.Errorf("%w: transport_model %q", config.ErrInvalid, kind)
}

// Compute 调用模型并把扩散系数限制在 [chi_min, chi_max]
func Compute(m Model, dyn *config.Dynamic, geo *geometry.Geometry, p state.Profiles) state.CoreTransport {
	t := m.Compute(dyn, geo, p)
	lo, hi := dyn.Transport.ChiMin, dyn.Transport.ChiMax
	for _, chi := range [][]float64{t.ChiFaceIon, t.ChiFaceEl, t.DFaceEl} {
		for i, v := range chi {
			chi[i] = math.Min(math.Max(v, lo), hi)
		}
	}
	return t
}

// Constant 常系数输运
type Constant struct{}

func (Constant) Name() string { return string(config.TransportConstant) }

func (Constant) Compute(dyn *config.Dynamic, geo *geometry.Geometry, _ state.Profiles) state.CoreTransport {
	t := state.ZeroTransport(geo.Nr())
	fill(t.ChiFaceIon, dyn.Transport.ChiIon)
	fill(t.ChiFaceEl, dyn.Transport.ChiEl)
	fill(t.DFaceEl, dyn.Transport.De)
	fill(t.VFaceEl, dyn.Transport.Ve)
	return t
}

// CriticalGradient 临界梯度模型
//
//	chi = chi_min + stiffness·max(0, R/L_T − R/L_crit)^exponent
type CriticalGradient struct{}

func (CriticalGradient) Name() string { return string(config.TransportCriticalGradient) }

func (CriticalGradient) Compute(dyn *config.Dynamic, geo *geometry.Geometry, p state.Profiles) state.CoreTransport {
	tp := dyn.Transport
	t := state.ZeroTransport(geo.Nr())
	stiff := func(dst []float64, tv []float64, grad []float64) {
		for i := range dst {
			// 归一化梯度 R/L_T = −R ∂T/∂r / T，r = ρ·Rmin
			rlt := -geo.Rmaj * grad[i] / (geo.Rmin * math.Max(tv[i], minTemp))
			excess := math.Max(0, rlt-tp.CritGradient)
			dst[i] = tp.ChiMin + tp.Stiffness*math.Pow(excess, tp.Exponent)
		}
	}
	stiff(t.ChiFaceIon, p.TempIon.FaceValue(), p.TempIon.FaceGrad())
	stiff(t.ChiFaceEl, p.TempEl.FaceValue(), p.TempEl.FaceGrad())
	fill(t.DFaceEl, tp.De)
	fill(t.VFaceEl, tp.Ve)
	return t
}

const minTemp = 1e-3

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}
