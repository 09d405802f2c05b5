package state

import (
	"tokamak/config"
	"tokamak/fvm"
	"tokamak/geometry"
)

// Initial 初始剖面：中心值到边界值线性分布，中心零梯度
func Initial(geo *geometry.Geometry, dyn *config.Dynamic) Profiles {
	rho := geo.Mesh.CellCenters
	linear := func(center, edge float64) fvm.CellVariable {
		v := make([]float64, len(rho))
		for i, r := range rho {
			v[i] = center + (edge-center)*r
		}
		return fvm.NewCellVariable(v, geo.Dr(), edge)
	}
	pp := dyn.Profiles
	psi := make([]float64, len(rho))
	for i, r := range rho {
		psi[i] = 0.5 * pp.PsiBoundGrad * r * r
	}
	p := Profiles{
		TempIon: linear(pp.Ti0, pp.TiBound),
		TempEl:  linear(pp.Te0, pp.TeBound),
		Psi: fvm.CellVariable{
			Value: psi,
			Dr:    geo.Dr(),
			Right: fvm.Boundary{Kind: fvm.BCGradient, Value: pp.PsiBoundGrad},
		},
		Ne: linear(pp.Ne0, pp.NeBound),
	}
	p.Ni = Dilute(p.Ne, dyn.Composition)
	return p
}

// Prescribe 由 t 时刻剖面生成 t+dt 的预设剖面：单元值不变，边界条件取 dyn
func Prescribe(p Profiles, dyn *config.Dynamic) Profiles {
	out := p.Copy()
	pp := dyn.Profiles
	out.TempIon.Right = fvm.Boundary{Kind: fvm.BCValue, Value: pp.TiBound}
	out.TempEl.Right = fvm.Boundary{Kind: fvm.BCValue, Value: pp.TeBound}
	out.Ne.Right = fvm.Boundary{Kind: fvm.BCValue, Value: pp.NeBound}
	out.Psi.Right = fvm.Boundary{Kind: fvm.BCGradient, Value: pp.PsiBoundGrad}
	out.Ni = Dilute(out.Ne, dyn.Composition)
	return out
}
