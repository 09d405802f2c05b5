package maths

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Dense 稠密矩阵数据结构
// 行优先一维存储，同时满足 gonum 的 mat.Matrix 接口
type Dense struct {
	rows, cols int
	data       []float64 // 一维数组存储所有元素
}

// NewDense 创建新的稠密矩阵
func NewDense(rows, cols int) *Dense {
	return &Dense{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}
}

// NewDenseFrom 从二维切片构建稠密矩阵
func NewDenseFrom(dense [][]float64) *Dense {
	rows := len(dense)
	cols := 0
	if rows > 0 {
		cols = len(dense[0])
	}
	m := NewDense(rows, cols)
	for i, row := range dense {
		if len(row) != cols {
			panic("dimension mismatch")
		}
		copy(m.data[i*cols:(i+1)*cols], row)
	}
	return m
}

func (m *Dense) index(row, col int) int {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic("index out of range")
	}
	return row*m.cols + col
}

// Dims 实现 mat.Matrix
func (m *Dense) Dims() (r, c int) { return m.rows, m.cols }

// At 实现 mat.Matrix
func (m *Dense) At(i, j int) float64 { return m.data[m.index(i, j)] }

// T 实现 mat.Matrix
func (m *Dense) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// Rows 返回矩阵行数
func (m *Dense) Rows() int { return m.rows }

// Cols 返回矩阵列数
func (m *Dense) Cols() int { return m.cols }

// Get 获取矩阵元素
func (m *Dense) Get(row, col int) float64 { return m.data[m.index(row, col)] }

// Set 设置矩阵元素
func (m *Dense) Set(row, col int, value float64) { m.data[m.index(row, col)] = value }

// Increment 增量设置矩阵元素（累加值）
func (m *Dense) Increment(row, col int, value float64) { m.data[m.index(row, col)] += value }

// IsSquare 检查矩阵是否为方阵
func (m *Dense) IsSquare() bool { return m.rows == m.cols }

// Clear 将矩阵重置为零矩阵
func (m *Dense) Clear() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// Clone 深拷贝
func (m *Dense) Clone() *Dense {
	c := NewDense(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// Scale 所有元素乘以 s
func (m *Dense) Scale(s float64) {
	for i := range m.data {
		m.data[i] *= s
	}
}

// AddScaled m += s*a
func (m *Dense) AddScaled(s float64, a *Dense) {
	if a.rows != m.rows || a.cols != m.cols {
		panic("dimension mismatch")
	}
	for i, v := range a.data {
		m.data[i] += s * v
	}
}

// MatrixVectorMultiply 执行矩阵向量乘法
func (m *Dense) MatrixVectorMultiply(x []float64) []float64 {
	if len(x) != m.cols {
		panic("vector dimension mismatch")
	}
	result := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		sum := 0.0
		row := m.data[i*m.cols : (i+1)*m.cols]
		for j, v := range row {
			sum += v * x[j]
		}
		result[i] = sum
	}
	return result
}

// NonZeroCount 返回非零元素数量
func (m *Dense) NonZeroCount() int {
	count := 0
	for _, v := range m.data {
		if v != 0 {
			count++
		}
	}
	return count
}

// String 字符串表示
func (m *Dense) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			fmt.Fprintf(&sb, "%10.4g ", m.data[i*m.cols+j])
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
