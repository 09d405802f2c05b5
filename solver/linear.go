package solver

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"tokamak/config"
	"tokamak/maths"
)

// predictorCorrector 用当前解冻结系数、解线性系统，共 steps+1 次
func predictorCorrector(l Linearizer, x0 []float64, steps int, ls maths.LinearSolver) ([]float64, error) {
	x := append([]float64(nil), x0...)
	for i := 0; i <= steps; i++ {
		m, rhs, err := l.Linearize(x)
		if err != nil {
			return nil, err
		}
		next := make([]float64, len(x))
		if err := ls.Solve(m, rhs, next); err != nil {
			return nil, fmt.Errorf("corrector step %d: %w", i, err)
		}
		x = next
	}
	return x, nil
}

// initialGuess 非线性迭代的初值
func initialGuess(p *Problem, cfg config.SolverConfig, ls maths.LinearSolver) ([]float64, error) {
	if cfg.InitialGuessMode == config.GuessLinear {
		return predictorCorrector(p, p.XNext(), cfg.CorrectorSteps, ls)
	}
	return p.XOld(), nil
}

func checkKind(cfg config.SolverConfig, want config.SolverKind) error {
	if cfg.Kind != want {
		return fmt.Errorf("%w: solver kind %q, want %q", config.ErrInvalid, cfg.Kind, want)
	}
	return cfg.Validate()
}

// Linear 线性预测-校正，不做非线性迭代
type Linear struct {
	cfg config.SolverConfig
	options
}

// NewLinear 创建线性策略
func NewLinear(cfg config.SolverConfig, opts ...Option) (*Linear, error) {
	if err := checkKind(cfg, config.SolverLinear); err != nil {
		return nil, err
	}
	return &Linear{cfg: cfg, options: newOptions(cfg, opts)}, nil
}

// Config 求解器参数
func (l *Linear) Config() config.SolverConfig { return l.cfg }

// ArtificiallyLinear 线性策略从不迭代
func (*Linear) ArtificiallyLinear(bool) bool { return true }

// Solve 求解，线性系统失败时 Outcome 为 Failed
func (l *Linear) Solve(p *Problem) Result {
	x, err := predictorCorrector(p, p.XNext(), l.cfg.CorrectorSteps, l.linear)
	if err != nil {
		l.logger.Warn("linear step failed", zap.Error(err))
		return Result{X: p.XOld(), Outcome: Failed, Residual: math.Inf(1)}
	}
	res := Result{X: x, Outcome: Converged}
	if r, err := p.Residual(x); err == nil {
		res.Residual = maths.MeanAbs(r)
	}
	return res
}
