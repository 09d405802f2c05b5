package solver

import (
	"fmt"
	"math"

	"tokamak/config"
	"tokamak/fvm"
	"tokamak/geometry"
	"tokamak/sources"
	"tokamak/state"
	"tokamak/transport"
)

// Evaluation 一次系数计算的结果
type Evaluation struct {
	Coeffs    *fvm.Coeffs
	Transport state.CoreTransport
	Aux       state.AuxOutput
}

// CoeffsCallback 系数回调：由试探解计算离散系数，必须无副作用
type CoeffsCallback interface {
	// Coeffs x 按演化顺序给出；explicitCall 为 true 时 x 是 t 时刻的值
	Coeffs(x []fvm.CellVariable, dyn *config.Dynamic, explicitCall bool) (*Evaluation, error)
	// Frozen 系数是否与试探解无关
	Frozen() bool
}

// Callback 绑定一步内不变的上下文
type Callback struct {
	geo       *geometry.Geometry
	coreT     state.Profiles
	coreTNext state.Profiles
	transport transport.Model
	sources   *sources.Models
	explicit  state.SourceProfiles
	evolving  []state.Field
	channel   map[state.Field]int
}

// CallbackContext 构造回调需要的上下文
type CallbackContext struct {
	Geo             *geometry.Geometry
	CoreT           state.Profiles // t 时刻剖面
	CoreTPlusDt     state.Profiles // t+dt 预设剖面（边界条件）
	Transport       transport.Model
	Sources         *sources.Models
	ExplicitSources state.SourceProfiles
	Evolving        []state.Field
}

// NewCallback 创建回调，上下文在之后不再修改
func NewCallback(ctx CallbackContext) (*Callback, error) {
	if ctx.Geo == nil || ctx.Transport == nil || ctx.Sources == nil {
		return nil, fmt.Errorf("callback: geometry, transport and sources are required")
	}
	nr := ctx.Geo.Nr()
	if err := ctx.CoreT.Validate(nr); err != nil {
		return nil, err
	}
	if err := ctx.CoreTPlusDt.Validate(nr); err != nil {
		return nil, err
	}
	cb := &Callback{
		geo:       ctx.Geo,
		coreT:     ctx.CoreT.Copy(),
		coreTNext: ctx.CoreTPlusDt.Copy(),
		transport: ctx.Transport,
		sources:   ctx.Sources,
		explicit:  ctx.ExplicitSources,
		evolving:  append([]state.Field(nil), ctx.Evolving...),
		channel:   map[state.Field]int{},
	}
	for i, f := range cb.evolving {
		cb.channel[f] = i
	}
	return cb, nil
}

func (*Callback) Frozen() bool { return false }

// Coeffs 重新计算输运和隐式源，组装系数
func (cb *Callback) Coeffs(x []fvm.CellVariable, dyn *config.Dynamic, explicitCall bool) (*Evaluation, error) {
	base := cb.coreTNext
	if explicitCall {
		base = cb.coreT
	}
	p, err := state.Update(base, cb.evolving, x, dyn.Composition)
	if err != nil {
		return nil, err
	}
	tr := transport.Compute(cb.transport, dyn, cb.geo, p)
	src := cb.explicit
	src.Implicit = cb.sources.ComputeImplicit(dyn, cb.geo, p)
	src.QeiCoef = cb.sources.Qei(dyn, cb.geo, p)
	return cb.assemble(dyn, p, tr, src), nil
}

// assemble 组装各演化方程的系数
//
//	离子热：1.5·V'·ni ∂Ti/∂t = ∇·(V'·ni·χi·g ∇Ti) + V'(Q_i + k(Te−Ti))
//	电子热：1.5·V'·ne ∂Te/∂t = ∇·(V'·ne·χe·g ∇Te) + V'(Q_e − k(Te−Ti))
//	极向磁通：V'·σ ∂ψ/∂t = ∇·(V'·g ∇ψ) + V'·j_ext，σ ∝ Te^1.5
//	电子密度：V' ∂ne/∂t = ∇·(V'·D·g ∇ne) − ∇·(V'·v ne) + V'·S
//
// g = 1/Rmin² 把 ρ 坐标换回实际半径
func (cb *Callback) assemble(dyn *config.Dynamic, p state.Profiles, tr state.CoreTransport, src state.SourceProfiles) *Evaluation {
	geo := cb.geo
	nr := geo.Nr()
	k := len(cb.evolving)
	g := 1 / (geo.Rmin * geo.Rmin)
	c := &fvm.Coeffs{
		Transient: make([][]float64, k),
		D:         make([][]float64, k),
		V:         make([][]float64, k),
		SourceMat: make([][][]float64, k),
		Source:    make([][]float64, k),
	}
	for i := range c.SourceMat {
		c.SourceMat[i] = make([][]float64, k)
	}
	neFace, niFace := p.Ne.FaceValue(), p.Ni.FaceValue()
	scaled := func(cell bool, f func(i int) float64) []float64 {
		n := nr
		vpr := geo.VprCell
		if !cell {
			n, vpr = nr+1, geo.VprFace
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = vpr[i] * f(i)
		}
		return out
	}
	aux := state.ZeroAux(nr)
	aux.SourceIon = src.Total(state.TempIon, nr)
	aux.SourceEl = src.Total(state.TempEl, nr)
	aux.SourcePsi = src.Total(state.Psi, nr)
	aux.SourceNe = src.Total(state.Ne, nr)
	for i, kq := range src.QeiCoef {
		aux.Qei[i] = kq * (p.TempEl.Value[i] - p.TempIon.Value[i])
	}

	for ch, f := range cb.evolving {
		switch f {
		case state.TempIon:
			c.Transient[ch] = scaled(true, func(i int) float64 { return 1.5 * p.Ni.Value[i] })
			c.D[ch] = scaled(false, func(i int) float64 { return niFace[i] * tr.ChiFaceIon[i] * g })
			c.Source[ch] = scaled(true, func(i int) float64 { return aux.SourceIon[i] })
		case state.TempEl:
			c.Transient[ch] = scaled(true, func(i int) float64 { return 1.5 * p.Ne.Value[i] })
			c.D[ch] = scaled(false, func(i int) float64 { return neFace[i] * tr.ChiFaceEl[i] * g })
			c.Source[ch] = scaled(true, func(i int) float64 { return aux.SourceEl[i] })
		case state.Psi:
			rm := dyn.Numerics.ResistivityMult
			if rm <= 0 {
				rm = 1
			}
			c.Transient[ch] = scaled(true, func(i int) float64 {
				te := math.Max(p.TempEl.Value[i], minTemp)
				return te * math.Sqrt(te) / rm
			})
			c.D[ch] = scaled(false, func(int) float64 { return g })
			c.Source[ch] = scaled(true, func(i int) float64 { return aux.SourcePsi[i] })
		case state.Ne:
			c.Transient[ch] = scaled(true, func(int) float64 { return 1 })
			c.D[ch] = scaled(false, func(i int) float64 { return tr.DFaceEl[i] * g })
			c.V[ch] = scaled(false, func(i int) float64 { return tr.VFaceEl[i] })
			c.Source[ch] = scaled(true, func(i int) float64 { return aux.SourceNe[i] })
		}
	}
	cb.exchange(c, p, src.QeiCoef)
	return &Evaluation{Coeffs: c, Transport: tr, Aux: aux}
}

// exchange 离子-电子能量交换
// 两个温度都演化时作为隐式耦合进入 SourceMat，否则未演化一侧的温度并入源项
func (cb *Callback) exchange(c *fvm.Coeffs, p state.Profiles, kq []float64) {
	ion, hasIon := cb.channel[state.TempIon]
	el, hasEl := cb.channel[state.TempEl]
	if !hasIon && !hasEl {
		return
	}
	vk := make([]float64, len(kq))
	neg := make([]float64, len(kq))
	for i := range kq {
		vk[i] = cb.geo.VprCell[i] * kq[i]
		neg[i] = -vk[i]
	}
	switch {
	case hasIon && hasEl:
		c.SourceMat[ion][ion] = neg
		c.SourceMat[ion][el] = vk
		c.SourceMat[el][el] = neg
		c.SourceMat[el][ion] = vk
	case hasIon:
		c.SourceMat[ion][ion] = neg
		for i := range vk {
			c.Source[ion][i] += vk[i] * p.TempEl.Value[i]
		}
	case hasEl:
		c.SourceMat[el][el] = neg
		for i := range vk {
			c.Source[el][i] += vk[i] * p.TempIon.Value[i]
		}
	}
}

const minTemp = 1e-3

// FrozenCallback 系数在构造时计算一次，之后与试探解无关
type FrozenCallback struct {
	implicit *Evaluation
	explicit *Evaluation
}

// NewFrozenCallback 在 t+dt 预设剖面上冻结隐式系数，在 t 时刻剖面上冻结显式系数
func NewFrozenCallback(cb CoeffsCallback, xOld, xNext []fvm.CellVariable, dynT, dynTPlusDt *config.Dynamic) (*FrozenCallback, error) {
	implicit, err := cb.Coeffs(xNext, dynTPlusDt, false)
	if err != nil {
		return nil, err
	}
	explicit, err := cb.Coeffs(xOld, dynT, true)
	if err != nil {
		return nil, err
	}
	return &FrozenCallback{implicit: implicit, explicit: explicit}, nil
}

func (*FrozenCallback) Frozen() bool { return true }

// Coeffs 返回冻结的系数
func (f *FrozenCallback) Coeffs(_ []fvm.CellVariable, _ *config.Dynamic, explicitCall bool) (*Evaluation, error) {
	if explicitCall {
		return f.explicit, nil
	}
	return f.implicit, nil
}
