package fvm

import (
	"errors"
	"fmt"
)

// ErrGrid 网格或边界参数非法
var ErrGrid = errors.New("invalid grid")

// Grid 一维均匀网格
type Grid struct {
	N           int       // 单元数量
	Dr          float64   // 单元宽度
	CellCenters []float64 // 单元中心坐标（N）
	FaceCenters []float64 // 面坐标（N+1）
}

// NewGrid 在 [0, length] 上创建 n 个单元的均匀网格
func NewGrid(n int, length float64) (Grid, error) {
	if n < 1 || length <= 0 {
		return Grid{}, fmt.Errorf("%w: n=%d length=%g", ErrGrid, n, length)
	}
	dr := length / float64(n)
	g := Grid{
		N:           n,
		Dr:          dr,
		CellCenters: make([]float64, n),
		FaceCenters: make([]float64, n+1),
	}
	for i := 0; i < n; i++ {
		g.CellCenters[i] = (float64(i) + 0.5) * dr
	}
	for i := 0; i <= n; i++ {
		g.FaceCenters[i] = float64(i) * dr
	}
	return g, nil
}

// BCKind 边界条件类型
type BCKind int

const (
	BCGradient BCKind = iota // 给定面梯度（通量型）
	BCValue                  // 给定面值
)

func (k BCKind) String() string {
	switch k {
	case BCGradient:
		return "gradient"
	case BCValue:
		return "value"
	}
	return fmt.Sprintf("BCKind(%d)", int(k))
}

// Boundary 边界条件
type Boundary struct {
	Kind  BCKind  `json:"kind"`
	Value float64 `json:"value"`
}

// CellVariable 网格变量：单元值加两端边界条件
type CellVariable struct {
	Value []float64 `json:"value"`
	Dr    float64   `json:"dr"`
	Left  Boundary  `json:"left"`
	Right Boundary  `json:"right"`
}

// NewCellVariable 创建网格变量（左端零梯度，右端给定值）
func NewCellVariable(value []float64, dr, right float64) CellVariable {
	return CellVariable{
		Value: append([]float64(nil), value...),
		Dr:    dr,
		Left:  Boundary{Kind: BCGradient},
		Right: Boundary{Kind: BCValue, Value: right},
	}
}

// Len 单元数量
func (v CellVariable) Len() int { return len(v.Value) }

// Copy 深拷贝
func (v CellVariable) Copy() CellVariable {
	v.Value = append([]float64(nil), v.Value...)
	return v
}

// WithValue 返回替换单元值后的拷贝，边界条件保持不变
func (v CellVariable) WithValue(value []float64) CellVariable {
	v.Value = append([]float64(nil), value...)
	return v
}

// FaceValue 面值（N+1）
func (v CellVariable) FaceValue() []float64 {
	n := len(v.Value)
	face := make([]float64, n+1)
	for i := 1; i < n; i++ {
		face[i] = 0.5 * (v.Value[i-1] + v.Value[i])
	}
	switch v.Left.Kind {
	case BCValue:
		face[0] = v.Left.Value
	default:
		face[0] = v.Value[0] - v.Left.Value*0.5*v.Dr
	}
	switch v.Right.Kind {
	case BCValue:
		face[n] = v.Right.Value
	default:
		face[n] = v.Value[n-1] + v.Right.Value*0.5*v.Dr
	}
	return face
}

// FaceGrad 面梯度（N+1）
func (v CellVariable) FaceGrad() []float64 {
	n := len(v.Value)
	grad := make([]float64, n+1)
	for i := 1; i < n; i++ {
		grad[i] = (v.Value[i] - v.Value[i-1]) / v.Dr
	}
	switch v.Left.Kind {
	case BCValue:
		grad[0] = (v.Value[0] - v.Left.Value) / (0.5 * v.Dr)
	default:
		grad[0] = v.Left.Value
	}
	switch v.Right.Kind {
	case BCValue:
		grad[n] = (v.Right.Value - v.Value[n-1]) / (0.5 * v.Dr)
	default:
		grad[n] = v.Right.Value
	}
	return grad
}

// Validate 检查网格变量合法性
func (v CellVariable) Validate() error {
	if len(v.Value) == 0 {
		return fmt.Errorf("%w: empty cell variable", ErrGrid)
	}
	if v.Dr <= 0 {
		return fmt.Errorf("%w: dr=%g", ErrGrid, v.Dr)
	}
	return nil
}
