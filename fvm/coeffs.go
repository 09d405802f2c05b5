package fvm

import (
	"fmt"

	"tokamak/maths"
)

// Coeffs 离散PDE系数（每次试探解重新生成，生成后不可修改）
//
//	Transient[k] ∂x_k/∂t = ∇·(D[k]∇x_k) − ∇·(V[k] x_k) + Σ_l SourceMat[k][l]·x_l + Source[k]
//
// nil 子切片表示该项不存在
type Coeffs struct {
	Transient [][]float64   // 瞬态系数 [k][cell]
	D         [][]float64   // 扩散系数 [k][face]
	V         [][]float64   // 对流系数 [k][face]
	SourceMat [][][]float64 // 隐式源/耦合矩阵 [k][l][cell]
	Source    [][]float64   // 源项 [k][cell]
}

// Channels 方程数量
func (c *Coeffs) Channels() int { return len(c.Transient) }

// Validate 检查系数维度
func (c *Coeffs) Validate(n int) error {
	k := len(c.Transient)
	check := func(name string, rows [][]float64, width int) error {
		if rows == nil {
			return nil
		}
		if len(rows) != k {
			return fmt.Errorf("%w: %s has %d channels, want %d", ErrGrid, name, len(rows), k)
		}
		for i, r := range rows {
			if r != nil && len(r) != width {
				return fmt.Errorf("%w: %s[%d] has %d entries, want %d", ErrGrid, name, i, len(r), width)
			}
		}
		return nil
	}
	if err := check("Transient", c.Transient, n); err != nil {
		return err
	}
	for i, r := range c.Transient {
		if r == nil {
			return fmt.Errorf("%w: Transient[%d] is nil", ErrGrid, i)
		}
	}
	if err := check("D", c.D, n+1); err != nil {
		return err
	}
	if err := check("V", c.V, n+1); err != nil {
		return err
	}
	if err := check("Source", c.Source, n); err != nil {
		return err
	}
	if c.SourceMat != nil {
		if len(c.SourceMat) != k {
			return fmt.Errorf("%w: SourceMat has %d channels, want %d", ErrGrid, len(c.SourceMat), k)
		}
		for i, row := range c.SourceMat {
			if err := check(fmt.Sprintf("SourceMat[%d]", i), row, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flatten 按通道顺序拼接单元值
func Flatten(vars []CellVariable) []float64 {
	size := 0
	for _, v := range vars {
		size += v.Len()
	}
	x := make([]float64, 0, size)
	for _, v := range vars {
		x = append(x, v.Value...)
	}
	return x
}

// Unflatten 将扁平向量按模板拆分为网格变量，边界条件取自模板
func Unflatten(x []float64, templates []CellVariable) ([]CellVariable, error) {
	out := make([]CellVariable, len(templates))
	offset := 0
	for i, t := range templates {
		n := t.Len()
		if offset+n > len(x) {
			return nil, fmt.Errorf("%w: vector of %d too short for channel %d", ErrGrid, len(x), i)
		}
		out[i] = t.WithValue(x[offset : offset+n])
		offset += n
	}
	if offset != len(x) {
		return nil, fmt.Errorf("%w: vector of %d, channels need %d", ErrGrid, len(x), offset)
	}
	return out, nil
}

// Operator 组装空间算子：A·x + b = ∇·(D∇x) − ∇·(V x) + S_mat·x + S
// 边界条件并入 A 与 b，对流采用中心差分
func Operator(vars []CellVariable, c *Coeffs) (*maths.Dense, []float64, error) {
	k := len(vars)
	if k == 0 {
		return nil, nil, fmt.Errorf("%w: no channels", ErrGrid)
	}
	if c.Channels() != k {
		return nil, nil, fmt.Errorf("%w: coeffs have %d channels, vars %d", ErrGrid, c.Channels(), k)
	}
	n := vars[0].Len()
	for _, v := range vars {
		if err := v.Validate(); err != nil {
			return nil, nil, err
		}
		if v.Len() != n {
			return nil, nil, fmt.Errorf("%w: channels have different sizes", ErrGrid)
		}
	}
	if err := c.Validate(n); err != nil {
		return nil, nil, err
	}
	a := maths.NewDense(k*n, k*n)
	b := make([]float64, k*n)
	for ch, v := range vars {
		off := ch * n
		if c.D != nil && c.D[ch] != nil {
			diffusion(a, b, off, v, c.D[ch])
		}
		if c.V != nil && c.V[ch] != nil {
			convection(a, b, off, v, c.V[ch])
		}
		if c.Source != nil && c.Source[ch] != nil {
			for i, s := range c.Source[ch] {
				b[off+i] += s
			}
		}
		if c.SourceMat != nil {
			for l, m := range c.SourceMat[ch] {
				if m == nil {
					continue
				}
				for i, s := range m {
					a.Increment(off+i, l*n+i, s)
				}
			}
		}
	}
	return a, b, nil
}

// diffusion 扩散项 [F_{i+1} − F_i]/dr，F = D·∂x/∂r
func diffusion(a *maths.Dense, b []float64, off int, v CellVariable, d []float64) {
	n, dr := v.Len(), v.Dr
	dr2 := dr * dr
	for f := 1; f < n; f++ {
		c := d[f] / dr2
		// 面 f 位于单元 f-1 与 f 之间
		a.Increment(off+f-1, off+f-1, -c)
		a.Increment(off+f-1, off+f, c)
		a.Increment(off+f, off+f, -c)
		a.Increment(off+f, off+f-1, c)
	}
	// 左边界：通量流入单元0，符号为负
	switch v.Left.Kind {
	case BCValue:
		c := 2 * d[0] / dr2
		a.Increment(off, off, -c)
		b[off] += c * v.Left.Value
	default:
		b[off] -= d[0] * v.Left.Value / dr
	}
	// 右边界
	switch v.Right.Kind {
	case BCValue:
		c := 2 * d[n] / dr2
		a.Increment(off+n-1, off+n-1, -c)
		b[off+n-1] += c * v.Right.Value
	default:
		b[off+n-1] += d[n] * v.Right.Value / dr
	}
}

// convection 对流项 −[G_{i+1} − G_i]/dr，G = V·x_face
func convection(a *maths.Dense, b []float64, off int, v CellVariable, vf []float64) {
	n, dr := v.Len(), v.Dr
	for f := 1; f < n; f++ {
		c := vf[f] / (2 * dr)
		a.Increment(off+f-1, off+f-1, -c)
		a.Increment(off+f-1, off+f, -c)
		a.Increment(off+f, off+f-1, c)
		a.Increment(off+f, off+f, c)
	}
	switch v.Left.Kind {
	case BCValue:
		b[off] += vf[0] * v.Left.Value / dr
	default:
		a.Increment(off, off, vf[0]/dr)
		b[off] -= vf[0] * v.Left.Value / 2
	}
	switch v.Right.Kind {
	case BCValue:
		b[off+n-1] -= vf[n] * v.Right.Value / dr
	default:
		a.Increment(off+n-1, off+n-1, -vf[n]/dr)
		b[off+n-1] -= vf[n] * v.Right.Value / 2
	}
}
