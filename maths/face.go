package maths

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Epsilon 主元判定阈值
const Epsilon = 1e-16

var (
	ErrSingular  = errors.New("matrix is singular or nearly singular")
	ErrNonFinite = errors.New("non-finite value in linear system")
	ErrDimension = errors.New("dimension mismatch")
)

// Matrix 通用矩阵接口
// 在 gonum 的 mat.Matrix 之上补充加盖(Increment)等装配操作
type Matrix interface {
	mat.Matrix
	Rows() int                                  // 矩阵行数
	Cols() int                                  // 矩阵列数
	Get(row, col int) float64                   // 获取元素
	Set(row, col int, value float64)            // 设置元素
	Increment(row, col int, value float64)      // 增量设置元素（累加值）
	Clear()                                     // 清空为零矩阵
	IsSquare() bool                             // 是否为方阵
	MatrixVectorMultiply(x []float64) []float64 // 矩阵向量乘法
	String() string                             // 字符串表示
}

// LU 分解接口
type LU interface {
	Decompose(matrix mat.Matrix) error // 执行 PA=LU 分解
	SolveReuse(b, x []float64) error   // 重用分解结果求解 Ax=b
}

// LinearSolver 线性方程组求解器
// 奇异矩阵或非有限输入时返回错误
type LinearSolver interface {
	Solve(a mat.Matrix, b, x []float64) error
}
