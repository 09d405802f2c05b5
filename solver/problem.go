package solver

import (
	"tokamak/config"
	"tokamak/fvm"
	"tokamak/maths"
)

// Problem 一个时间步的非线性方程 r(x) = 0
// 残差只依赖 x 与构造时绑定的不可变上下文
type Problem struct {
	callback  CoeffsCallback
	system    *fvm.ThetaSystem
	templates []fvm.CellVariable // t+dt 的边界条件
	dyn       *config.Dynamic    // t+dt 的动态参数
}

// NewProblem 构造问题，theta < 1 时在此计算一次显式部分
func NewProblem(cb CoeffsCallback, xOld, xNext []fvm.CellVariable, dynT, dynTPlusDt *config.Dynamic, dt, theta float64) (*Problem, error) {
	var old *fvm.Coeffs
	if theta < 1 {
		ev, err := cb.Coeffs(xOld, dynT, true)
		if err != nil {
			return nil, err
		}
		old = ev.Coeffs
	}
	sys, err := fvm.NewThetaSystem(xOld, old, dt, theta)
	if err != nil {
		return nil, err
	}
	if _, err := fvm.Unflatten(sys.XOld(), xNext); err != nil {
		return nil, err
	}
	tpl := make([]fvm.CellVariable, len(xNext))
	for i, v := range xNext {
		tpl[i] = v.Copy()
	}
	return &Problem{callback: cb, system: sys, templates: tpl, dyn: dynTPlusDt}, nil
}

// Dim 未知量个数
func (p *Problem) Dim() int { return len(p.system.XOld()) }

// XOld t 时刻的扁平解
func (p *Problem) XOld() []float64 { return p.system.XOld() }

// XNext t+dt 预设剖面的扁平值
func (p *Problem) XNext() []float64 { return fvm.Flatten(p.templates) }

// Dynamic t+dt 的动态参数
func (p *Problem) Dynamic() *config.Dynamic { return p.dyn }

// Frozen 系数是否冻结
func (p *Problem) Frozen() bool { return p.callback.Frozen() }

// Vars 把扁平解还原为带 t+dt 边界条件的网格变量
func (p *Problem) Vars(x []float64) ([]fvm.CellVariable, error) {
	return fvm.Unflatten(x, p.templates)
}

// Evaluate 在 x 处计算系数
func (p *Problem) Evaluate(x []float64) (*Evaluation, error) {
	vars, err := p.Vars(x)
	if err != nil {
		return nil, err
	}
	return p.callback.Coeffs(vars, p.dyn, false)
}

// Residual r(x)
func (p *Problem) Residual(x []float64) ([]float64, error) {
	vars, err := p.Vars(x)
	if err != nil {
		return nil, err
	}
	ev, err := p.callback.Coeffs(vars, p.dyn, false)
	if err != nil {
		return nil, err
	}
	return p.system.Residual(vars, ev.Coeffs)
}

// Linearize 以 x 处的系数组装 M 与 rhs，使 r(x) = M·x − rhs
func (p *Problem) Linearize(x []float64) (*maths.Dense, []float64, error) {
	vars, err := p.Vars(x)
	if err != nil {
		return nil, nil, err
	}
	ev, err := p.callback.Coeffs(vars, p.dyn, false)
	if err != nil {
		return nil, nil, err
	}
	return p.system.Linearize(vars, ev.Coeffs)
}
