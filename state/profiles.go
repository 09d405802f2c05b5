// Package state 剖面状态、演化变量选择以及打包/解包
package state

import (
	"errors"
	"fmt"

	"tokamak/config"
	"tokamak/fvm"
)

// ErrShape 剖面维度不一致
var ErrShape = errors.New("profile shape mismatch")

// Field 剖面字段名
type Field string

const (
	TempIon Field = "temp_ion"
	TempEl  Field = "temp_el"
	Psi     Field = "psi"
	Ne      Field = "ne"
)

// Order 演化变量的固定顺序，打包与解包都依赖它
var Order = [...]Field{TempIon, TempEl, Psi, Ne}

// Profiles 某一时刻的全部剖面
type Profiles struct {
	TempIon fvm.CellVariable `json:"temp_ion"`
	TempEl  fvm.CellVariable `json:"temp_el"`
	Psi     fvm.CellVariable `json:"psi"`
	Ne      fvm.CellVariable `json:"ne"`
	Ni      fvm.CellVariable `json:"ni"` // 由 ne 和稀释因子导出，不参与演化
}

// Get 取字段
func (p *Profiles) Get(f Field) (fvm.CellVariable, error) {
	switch f {
	case TempIon:
		return p.TempIon, nil
	case TempEl:
		return p.TempEl, nil
	case Psi:
		return p.Psi, nil
	case Ne:
		return p.Ne, nil
	}
	return fvm.CellVariable{}, fmt.Errorf("%w: unknown field %q", ErrShape, f)
}

// Set 写字段
func (p *Profiles) Set(f Field, v fvm.CellVariable) error {
	switch f {
	case TempIon:
		p.TempIon = v
	case TempEl:
		p.TempEl = v
	case Psi:
		p.Psi = v
	case Ne:
		p.Ne = v
	default:
		return fmt.Errorf("%w: unknown field %q", ErrShape, f)
	}
	return nil
}

// Copy 深拷贝
func (p Profiles) Copy() Profiles {
	return Profiles{
		TempIon: p.TempIon.Copy(),
		TempEl:  p.TempEl.Copy(),
		Psi:     p.Psi.Copy(),
		Ne:      p.Ne.Copy(),
		Ni:      p.Ni.Copy(),
	}
}

// Nr 单元数量
func (p *Profiles) Nr() int { return p.TempIon.Len() }

// Validate 所有字段必须具有相同的单元数量
func (p *Profiles) Validate(nr int) error {
	for _, f := range Order {
		v, _ := p.Get(f)
		if v.Len() != nr {
			return fmt.Errorf("%w: %s has %d cells, want %d", ErrShape, f, v.Len(), nr)
		}
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	if p.Ni.Len() != nr {
		return fmt.Errorf("%w: ni has %d cells, want %d", ErrShape, p.Ni.Len(), nr)
	}
	return nil
}

// Evolving 按静态配置选出演化变量，顺序固定为 Order
func Evolving(s config.Static) []Field {
	on := map[Field]bool{
		TempIon: s.IonHeatEq,
		TempEl:  s.ElHeatEq,
		Psi:     s.CurrentEq,
		Ne:      s.DensEq,
	}
	var out []Field
	for _, f := range Order {
		if on[f] {
			out = append(out, f)
		}
	}
	return out
}

// Pack 按演化顺序取出网格变量（拷贝）
func Pack(p Profiles, evolving []Field) ([]fvm.CellVariable, error) {
	out := make([]fvm.CellVariable, 0, len(evolving))
	for _, f := range evolving {
		v, err := p.Get(f)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Copy())
	}
	return out, nil
}

// Update 把求解结果写回剖面，非演化字段保持不变
// ne 演化时同步更新 ni
func Update(p Profiles, evolving []Field, vars []fvm.CellVariable, comp config.CompositionParams) (Profiles, error) {
	if len(vars) != len(evolving) {
		return Profiles{}, fmt.Errorf("%w: %d values for %d evolving fields", ErrShape, len(vars), len(evolving))
	}
	out := p.Copy()
	for i, f := range evolving {
		old, err := out.Get(f)
		if err != nil {
			return Profiles{}, err
		}
		if vars[i].Len() != old.Len() {
			return Profiles{}, fmt.Errorf("%w: %s has %d cells, want %d", ErrShape, f, vars[i].Len(), old.Len())
		}
		if err := out.Set(f, vars[i].Copy()); err != nil {
			return Profiles{}, err
		}
		if f == Ne {
			out.Ni = Dilute(out.Ne, comp)
		}
	}
	return out, nil
}

// Dilute 由电子密度计算主离子密度
func Dilute(ne fvm.CellVariable, comp config.CompositionParams) fvm.CellVariable {
	d := comp.Dilution()
	ni := ne.Copy()
	for i := range ni.Value {
		ni.Value[i] *= d
	}
	ni.Left.Value *= d
	ni.Right.Value *= d
	return ni
}
