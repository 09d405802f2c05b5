// Package solver θ方法时间步的非线性求解
//
// 系数回调把试探解映射为离散 PDE 系数，Problem 把它与θ格式拼成残差 r(x)。
// 三种策略：残差最小化（L-BFGS）、带阻尼的 Newton-Raphson、线性预测-校正。
//
// 雅可比默认用有限差分（gonum diff/fd）计算。与自动微分相比，迭代次数可能不同，
// 收敛判据和结果在容差内一致。系数冻结时可选用算子雅可比，它是精确的。
package solver

import (
	"go.uber.org/zap"

	"tokamak/config"
	"tokamak/maths"
)

// Outcome 步的结果
type Outcome int

const (
	Converged Outcome = 0 // 收敛，接受该步
	Failed    Outcome = 1 // 失败，外层应缩小 dt 重试
)

func (o Outcome) String() string {
	if o == Converged {
		return "converged"
	}
	return "failed"
}

// Iteration 一次迭代的诊断记录
type Iteration struct {
	Iter     int     `json:"iter"`
	Residual float64 `json:"residual"`
	Tau      float64 `json:"tau"`
}

// Result 求解结果
type Result struct {
	X          []float64   // 扁平解
	Outcome    Outcome     // 0 收敛，1 失败
	Iterations int         // 接受的更新次数
	Residual   float64     // 退出时的残差范数（Newton 为平均绝对值，优化器为均方值）
	History    []Iteration // 残差历史，只用于诊断
}

type options struct {
	logger *zap.Logger
	linear maths.LinearSolver
	diff   Differentiator
}

// Option 求解器选项
type Option func(*options)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLinearSolver 替换线性求解器
func WithLinearSolver(ls maths.LinearSolver) Option {
	return func(o *options) {
		if ls != nil {
			o.linear = ls
		}
	}
}

// WithDifferentiator 替换雅可比计算方式
func WithDifferentiator(d Differentiator) Option {
	return func(o *options) {
		if d != nil {
			o.diff = d
		}
	}
}

// newOptions 由配置给出默认值，再应用选项
func newOptions(cfg config.SolverConfig, opts []Option) options {
	o := options{logger: zap.NewNop()}
	switch cfg.LinearSolver {
	case config.LinearSolverGonum:
		o.linear = maths.GonumSolver{}
	default:
		o.linear = maths.LUSolver{}
	}
	switch cfg.Jacobian {
	case config.JacobianOperator:
		o.diff = OperatorJacobian{}
	default:
		o.diff = FiniteDifference{}
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
