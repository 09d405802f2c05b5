// Package geometry 提供一维圆截面几何，仅用于驱动和测试求解核心
package geometry

import (
	"fmt"
	"math"

	"tokamak/fvm"
)

// Geometry 归一化半径 ρ∈[0,1] 上的一维几何
type Geometry struct {
	Mesh    fvm.Grid  // 网格
	Rmin    float64   // 小半径 [m]
	Rmaj    float64   // 大半径 [m]
	VprCell []float64 // dV/dρ 单元值
	VprFace []float64 // dV/dρ 面值
	Volume  float64   // 等离子体体积 [m^3]
}

// NewCircular 创建圆截面几何
func NewCircular(nr int, rmin, rmaj float64) (*Geometry, error) {
	if rmin <= 0 || rmaj <= rmin {
		return nil, fmt.Errorf("geometry: need 0 < rmin < rmaj, got rmin=%g rmaj=%g", rmin, rmaj)
	}
	mesh, err := fvm.NewGrid(nr, 1)
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	k := 4 * math.Pi * math.Pi * rmaj * rmin * rmin
	g := &Geometry{
		Mesh:    mesh,
		Rmin:    rmin,
		Rmaj:    rmaj,
		VprCell: make([]float64, nr),
		VprFace: make([]float64, nr+1),
		Volume:  2 * math.Pi * math.Pi * rmaj * rmin * rmin,
	}
	for i, rho := range mesh.CellCenters {
		g.VprCell[i] = k * rho
	}
	for i, rho := range mesh.FaceCenters {
		g.VprFace[i] = k * rho
	}
	return g, nil
}

// Nr 单元数量
func (g *Geometry) Nr() int { return g.Mesh.N }

// Dr 归一化单元宽度
func (g *Geometry) Dr() float64 { return g.Mesh.Dr }

// ZerosFace 面长度的零数组
func (g *Geometry) ZerosFace() []float64 { return make([]float64, g.Mesh.N+1) }

// VolumeIntegral ∫ f dV，f 为单元值
func (g *Geometry) VolumeIntegral(f []float64) float64 {
	sum := 0.0
	for i, v := range f {
		sum += v * g.VprCell[i] * g.Mesh.Dr
	}
	return sum
}
