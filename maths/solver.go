package maths

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LUSolver 使用自带的部分主元LU分解求解
type LUSolver struct{}

// Solve 求解 Ax=b，结果写入 x
func (LUSolver) Solve(a mat.Matrix, b, x []float64) error {
	n, c := a.Dims()
	if n != c {
		return fmt.Errorf("lu solver: %w: matrix is %dx%d", ErrDimension, n, c)
	}
	if !AllFinite(b) {
		return fmt.Errorf("lu solver: %w in right side", ErrNonFinite)
	}
	lu, err := NewLU(n)
	if err != nil {
		return err
	}
	if err := lu.Decompose(a); err != nil {
		return err
	}
	return lu.SolveReuse(b, x)
}

// GonumSolver 使用 gonum 的 mat.LU 求解
type GonumSolver struct {
	CondMax float64 // 最大允许条件数，0 表示使用 1e14
}

// Solve 求解 Ax=b，结果写入 x
func (s GonumSolver) Solve(a mat.Matrix, b, x []float64) error {
	n, c := a.Dims()
	if n != c || len(b) != n || len(x) != n {
		return fmt.Errorf("gonum solver: %w", ErrDimension)
	}
	if !AllFinite(b) {
		return fmt.Errorf("gonum solver: %w in right side", ErrNonFinite)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := a.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("gonum solver: %w at (%d,%d)", ErrNonFinite, i, j)
			}
		}
	}
	condMax := s.CondMax
	if condMax == 0 {
		condMax = 1e14
	}
	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); math.IsInf(cond, 1) || math.IsNaN(cond) || cond > condMax {
		return fmt.Errorf("gonum solver: %w (cond=%.3e)", ErrSingular, cond)
	}
	dst := mat.NewVecDense(n, x)
	if err := lu.SolveVecTo(dst, false, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		return fmt.Errorf("gonum solver: %w", err)
	}
	if !AllFinite(x) {
		return fmt.Errorf("gonum solver: %w in solution", ErrNonFinite)
	}
	return nil
}
