package config

import (
	"fmt"
)

// SolverKind 求解策略
type SolverKind string

const (
	SolverLinear        SolverKind = "linear"
	SolverOptimizer     SolverKind = "optimizer"
	SolverNewtonRaphson SolverKind = "newton_raphson"
)

// InitialGuessMode 非线性迭代初值
type InitialGuessMode string

const (
	GuessXOld   InitialGuessMode = "x_old"  // 取 t 时刻的值
	GuessLinear InitialGuessMode = "linear" // 用 t 时刻系数做线性预测
)

// JacobianMode 雅可比计算方式
type JacobianMode string

const (
	JacobianFiniteDifference JacobianMode = "finite_difference"
	JacobianOperator         JacobianMode = "operator"
)

// LinearSolverKind 线性求解器
type LinearSolverKind string

const (
	LinearSolverLU    LinearSolverKind = "lu"
	LinearSolverGonum LinearSolverKind = "gonum"
)

// SolverConfig 求解器参数，显式传给每个策略实例
type SolverConfig struct {
	Kind                 SolverKind       `yaml:"kind"`
	InitialGuessMode     InitialGuessMode `yaml:"initial_guess_mode"`
	MaxIter              int              `yaml:"maxiter"`
	Tol                  float64          `yaml:"tol"`
	CoarseTol            float64          `yaml:"coarse_tol"`
	DeltaReductionFactor float64          `yaml:"delta_reduction_factor"`
	TauMin               float64          `yaml:"tau_min"`
	CorrectorSteps       int              `yaml:"corrector_steps"`
	Jacobian             JacobianMode     `yaml:"jacobian"`
	LinearSolver         LinearSolverKind `yaml:"linear_solver"`
	FrozenCoeffs         bool             `yaml:"frozen_coeffs"`
}

// DefaultNewton Newton-Raphson 默认参数
func DefaultNewton() SolverConfig {
	return SolverConfig{
		Kind:                 SolverNewtonRaphson,
		InitialGuessMode:     GuessLinear,
		MaxIter:              30,
		Tol:                  1e-5,
		CoarseTol:            1e-2,
		DeltaReductionFactor: 0.5,
		TauMin:               0.01,
		CorrectorSteps:       1,
		Jacobian:             JacobianFiniteDifference,
		LinearSolver:         LinearSolverLU,
	}
}

// DefaultOptimizer 残差最小化默认参数
func DefaultOptimizer() SolverConfig {
	return SolverConfig{
		Kind:             SolverOptimizer,
		InitialGuessMode: GuessLinear,
		MaxIter:          100,
		Tol:              1e-12,
		CorrectorSteps:   1,
		Jacobian:         JacobianFiniteDifference,
		LinearSolver:     LinearSolverLU,
	}
}

// DefaultLinear 线性预测-校正默认参数
func DefaultLinear() SolverConfig {
	return SolverConfig{
		Kind:           SolverLinear,
		CorrectorSteps: 1,
		LinearSolver:   LinearSolverLU,
	}
}

// DefaultSolver 按策略返回默认参数
func DefaultSolver(kind SolverKind) (SolverConfig, error) {
	switch kind {
	case SolverNewtonRaphson:
		return DefaultNewton(), nil
	case SolverOptimizer:
		return DefaultOptimizer(), nil
	case SolverLinear:
		return DefaultLinear(), nil
	}
	return SolverConfig{}, fmt.Errorf("%w: %q", ErrUnknownSolver, kind)
}

// Validate 检查参数
func (c SolverConfig) Validate() error {
	if _, err := DefaultSolver(c.Kind); err != nil {
		return err
	}
	switch c.InitialGuessMode {
	case GuessXOld, GuessLinear:
	case "":
		if c.Kind != SolverLinear {
			return fmt.Errorf("%w: solver.initial_guess_mode is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: solver.initial_guess_mode %q", ErrInvalid, c.InitialGuessMode)
	}
	switch c.Jacobian {
	case "", JacobianFiniteDifference, JacobianOperator:
	default:
		return fmt.Errorf("%w: solver.jacobian %q", ErrInvalid, c.Jacobian)
	}
	switch c.LinearSolver {
	case "", LinearSolverLU, LinearSolverGonum:
	default:
		return fmt.Errorf("%w: solver.linear_solver %q", ErrInvalid, c.LinearSolver)
	}
	if c.MaxIter < 0 {
		return fmt.Errorf("%w: solver.maxiter=%d", ErrInvalid, c.MaxIter)
	}
	if c.CorrectorSteps < 0 {
		return fmt.Errorf("%w: solver.corrector_steps=%d", ErrInvalid, c.CorrectorSteps)
	}
	if c.Kind == SolverNewtonRaphson {
		if c.Tol <= 0 || c.CoarseTol < c.Tol {
			return fmt.Errorf("%w: need 0 < tol <= coarse_tol, got tol=%g coarse_tol=%g", ErrInvalid, c.Tol, c.CoarseTol)
		}
		if c.DeltaReductionFactor <= 0 || c.DeltaReductionFactor >= 1 {
			return fmt.Errorf("%w: delta_reduction_factor=%g outside (0,1)", ErrInvalid, c.DeltaReductionFactor)
		}
		if c.TauMin <= 0 || c.TauMin > 1 {
			return fmt.Errorf("%w: tau_min=%g outside (0,1]", ErrInvalid, c.TauMin)
		}
	}
	if c.Kind == SolverOptimizer && c.Tol <= 0 {
		return fmt.Errorf("%w: tol=%g", ErrInvalid, c.Tol)
	}
	return nil
}
