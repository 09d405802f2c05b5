package maths

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var _ Matrix = (*Dense)(nil)

// lu 稠密LU分解
// 实现PA = LU分解，其中：
//
//	P - 置换矩阵（用向量表示）
//	L - 单位下三角矩阵（对角线为1）
//	U - 上三角矩阵
type lu struct {
	n        int    // 矩阵维度
	L        *Dense // 下三角矩阵，对角线元素为1
	U        *Dense // 上三角矩阵
	P        []int  // 置换向量，P[i]表示分解后第i行的原始行
	Pinverse []int  // 逆置换向量
}

// NewLU 创建LU分解器
// 参数：
//
//	n - 矩阵大小（必须为正整数）
func NewLU(n int) (LU, error) {
	if n < 1 {
		return nil, fmt.Errorf("lu dimension must be positive, got %d", n)
	}
	return &lu{
		n:        n,
		L:        NewDense(n, n),
		U:        NewDense(n, n),
		P:        make([]int, n),
		Pinverse: make([]int, n),
	}, nil
}

// Decompose 执行LU分解（部分主元法）
// 算法步骤：
// 1. 复制原始矩阵到U矩阵，检查非有限值
// 2. 初始化置换向量
// 3. 对每个列进行部分主元选择
// 4. 执行高斯消元，更新L和U矩阵
func (lu *lu) Decompose(matrix mat.Matrix) error {
	n := lu.n
	r, c := matrix.Dims()
	if r != n || c != n {
		return fmt.Errorf("lu decompose: %w: %dx%d, want %dx%d", ErrDimension, r, c, n, n)
	}
	// 复制矩阵到U
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("lu decompose: %w at (%d,%d)", ErrNonFinite, i, j)
			}
			lu.U.Set(i, j, v)
		}
	}
	lu.L.Clear()
	// 初始化置换向量
	for i := 0; i < n; i++ {
		lu.P[i] = i
		lu.Pinverse[i] = i
	}
	for k := 0; k < n; k++ {
		// 寻找主元：在当前列中选择绝对值最大的元素作为主元
		maxRow := k
		maxVal := math.Abs(lu.U.Get(lu.P[k], k))
		for i := k + 1; i < n; i++ {
			if v := math.Abs(lu.U.Get(lu.P[i], k)); v > maxVal {
				maxVal = v
				maxRow = i
			}
		}
		if maxVal < Epsilon {
			return fmt.Errorf("lu decompose: %w (column %d)", ErrSingular, k)
		}
		// 交换行：将主元所在行交换到当前位置
		if maxRow != k {
			lu.P[k], lu.P[maxRow] = lu.P[maxRow], lu.P[k]
			lu.Pinverse[lu.P[k]] = k
			lu.Pinverse[lu.P[maxRow]] = maxRow
			for j := 0; j < k; j++ {
				a, b := lu.L.Get(k, j), lu.L.Get(maxRow, j)
				lu.L.Set(k, j, b)
				lu.L.Set(maxRow, j, a)
			}
		}
		lu.L.Set(k, k, 1.0)
		pivotRow := lu.P[k]
		pivot := lu.U.Get(pivotRow, k)
		// 计算消元因子并更新矩阵
		for i := k + 1; i < n; i++ {
			row := lu.P[i]
			factor := lu.U.Get(row, k) / pivot
			lu.L.Set(i, k, factor)
			if factor == 0 {
				continue
			}
			for j := k; j < n; j++ {
				lu.U.Set(row, j, lu.U.Get(row, j)-factor*lu.U.Get(pivotRow, j))
			}
		}
	}
	return nil
}

// SolveReuse 解线性方程组 Ax = b，重用分解结果
// 1. 前向替换：求解 Ly = Pb
// 2. 后向替换：求解 Ux = y
func (lu *lu) SolveReuse(b, x []float64) error {
	if len(b) != lu.n || len(x) != lu.n {
		return fmt.Errorf("lu solve: %w", ErrDimension)
	}
	y := make([]float64, lu.n)
	for i := 0; i < lu.n; i++ {
		sum := b[lu.P[i]]
		for j := 0; j < i; j++ {
			sum -= lu.L.Get(i, j) * y[j]
		}
		y[i] = sum // L[i,i] = 1
	}
	for i := lu.n - 1; i >= 0; i-- {
		sum := y[i]
		uRow := lu.P[i]
		for j := i + 1; j < lu.n; j++ {
			sum -= lu.U.Get(uRow, j) * x[j]
		}
		x[i] = sum / lu.U.Get(uRow, i)
	}
	if !AllFinite(x) {
		return fmt.Errorf("lu solve: %w in solution", ErrNonFinite)
	}
	return nil
}
