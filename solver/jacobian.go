package solver

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"tokamak/maths"
)

// ErrNotLinearizable 残差不提供线性化
var ErrNotLinearizable = errors.New("residual does not expose a linearization")

// Residual 非线性残差 r(x)，维度与 x 相同
type Residual interface {
	Dim() int
	Residual(x []float64) ([]float64, error)
}

// Linearizer 能在给定点冻结系数并给出 r(x) = M·x − rhs 的残差
type Linearizer interface {
	Residual
	Linearize(x []float64) (*maths.Dense, []float64, error)
}

// Differentiator 计算 ∂r/∂x
type Differentiator interface {
	Jacobian(r Residual, x []float64) (*mat.Dense, error)
}

// FiniteDifference 有限差分雅可比，默认中心差分
type FiniteDifference struct {
	Formula fd.Formula // 零值表示 fd.Central
	Step    float64    // 零值使用公式默认步长
}

// Jacobian 逐列差分
func (d FiniteDifference) Jacobian(r Residual, x []float64) (*mat.Dense, error) {
	n := r.Dim()
	if len(x) != n {
		return nil, fmt.Errorf("jacobian: %w: x has %d entries, residual %d", maths.ErrDimension, len(x), n)
	}
	formula := d.Formula
	if formula.Stencil == nil {
		formula = fd.Central
	}
	var evalErr error
	jac := mat.NewDense(n, n, nil)
	fd.Jacobian(jac, func(y, x []float64) {
		res, err := r.Residual(x)
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			for i := range y {
				y[i] = 0
			}
			return
		}
		copy(y, res)
	}, x, &fd.JacobianSettings{Formula: formula, Step: d.Step})
	if evalErr != nil {
		return nil, fmt.Errorf("jacobian: %w", evalErr)
	}
	if !maths.AllFinite(jac.RawMatrix().Data) {
		return nil, fmt.Errorf("jacobian: %w", maths.ErrNonFinite)
	}
	return jac, nil
}

// OperatorJacobian 以当前点冻结的系数矩阵 M 作为雅可比
// 系数与解无关时精确，否则相当于 Picard 迭代
type OperatorJacobian struct{}

// Jacobian 返回 M 的拷贝
func (OperatorJacobian) Jacobian(r Residual, x []float64) (*mat.Dense, error) {
	l, ok := r.(Linearizer)
	if !ok {
		return nil, ErrNotLinearizable
	}
	m, _, err := l.Linearize(x)
	if err != nil {
		return nil, fmt.Errorf("jacobian: %w", err)
	}
	return mat.DenseCopyOf(m), nil
}
