package fvm

import (
	"fmt"

	"tokamak/maths"
)

// ThetaSystem θ方法时间离散
//
//	r(x) = tc∘(x − x_old)/dt − θ(A_new·x + b_new) − (1−θ)(A_old·x_old + b_old)
//
// 显式部分在构造时计算一次，之后只读
type ThetaSystem struct {
	Dt       float64
	Theta    float64
	xOld     []float64
	explicit []float64 // (1−θ)(A_old·x_old + b_old)
}

// NewThetaSystem 构造θ方法系统，theta==1 时 coeffsOld 可为 nil
func NewThetaSystem(xOld []CellVariable, coeffsOld *Coeffs, dt, theta float64) (*ThetaSystem, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt=%g", ErrGrid, dt)
	}
	if theta < 0 || theta > 1 {
		return nil, fmt.Errorf("%w: theta=%g outside [0,1]", ErrGrid, theta)
	}
	x := Flatten(xOld)
	s := &ThetaSystem{
		Dt:       dt,
		Theta:    theta,
		xOld:     x,
		explicit: make([]float64, len(x)),
	}
	if theta == 1 {
		return s, nil
	}
	if coeffsOld == nil {
		return nil, fmt.Errorf("%w: explicit coefficients required for theta=%g", ErrGrid, theta)
	}
	a, b, err := Operator(xOld, coeffsOld)
	if err != nil {
		return nil, err
	}
	ax := a.MatrixVectorMultiply(x)
	for i := range s.explicit {
		s.explicit[i] = (1 - theta) * (ax[i] + b[i])
	}
	return s, nil
}

// XOld 旧时刻扁平值的拷贝
func (s *ThetaSystem) XOld() []float64 { return append([]float64(nil), s.xOld...) }

// Linearize 在给定新系数下组装 M 与 rhs，使 r(x) = M·x − rhs
// xNew 只提供边界条件与网格信息，其单元值不参与组装
func (s *ThetaSystem) Linearize(xNew []CellVariable, coeffsNew *Coeffs) (*maths.Dense, []float64, error) {
	a, b, err := Operator(xNew, coeffsNew)
	if err != nil {
		return nil, nil, err
	}
	if len(b) != len(s.xOld) {
		return nil, nil, fmt.Errorf("%w: system size %d, old state %d", ErrGrid, len(b), len(s.xOld))
	}
	n := xNew[0].Len()
	a.Scale(-s.Theta)
	rhs := make([]float64, len(b))
	for ch, tc := range coeffsNew.Transient {
		for i, c := range tc {
			row := ch*n + i
			a.Increment(row, row, c/s.Dt)
			rhs[row] = c * s.xOld[row] / s.Dt
		}
	}
	for i := range rhs {
		rhs[i] += s.Theta*b[i] + s.explicit[i]
	}
	return a, rhs, nil
}

// Residual 计算残差 r(x)，x 取 xNew 的单元值
func (s *ThetaSystem) Residual(xNew []CellVariable, coeffsNew *Coeffs) ([]float64, error) {
	m, rhs, err := s.Linearize(xNew, coeffsNew)
	if err != nil {
		return nil, err
	}
	r := m.MatrixVectorMultiply(Flatten(xNew))
	for i := range r {
		r[i] -= rhs[i]
	}
	return r, nil
}
