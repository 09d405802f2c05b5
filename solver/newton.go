package solver

import (
	"math"

	"go.uber.org/zap"

	"tokamak/config"
	"tokamak/maths"
)

// NewtonRaphson 带阻尼的 Newton-Raphson 迭代
type NewtonRaphson struct {
	cfg config.SolverConfig
	options
}

// NewNewtonRaphson 创建 Newton-Raphson 策略
func NewNewtonRaphson(cfg config.SolverConfig, opts ...Option) (*NewtonRaphson, error) {
	if err := checkKind(cfg, config.SolverNewtonRaphson); err != nil {
		return nil, err
	}
	return &NewtonRaphson{cfg: cfg, options: newOptions(cfg, opts)}, nil
}

// Config 求解器参数
func (n *NewtonRaphson) Config() config.SolverConfig { return n.cfg }

// ArtificiallyLinear 迭代预算为0或系数冻结
func (n *NewtonRaphson) ArtificiallyLinear(frozen bool) bool {
	return n.cfg.MaxIter == 0 || frozen
}

// Solve 求解一个时间步
func (n *NewtonRaphson) Solve(p *Problem) Result {
	x0, err := initialGuess(p, n.cfg, n.linear)
	if err != nil {
		n.logger.Warn("initial guess failed", zap.Error(err))
		return Result{X: p.XOld(), Outcome: Failed, Residual: math.Inf(1)}
	}
	return n.iterate(p, x0, p.Dynamic().Solver.LogIterations)
}

// iterate 从 x0 开始迭代
//
// 每次迭代解 J·Δx = −r，然后从 τ=1 开始按 delta_reduction_factor 缩小，
// 直到残差范数下降；τ < tau_min 仍未下降则失败。
// 预算用尽时残差低于 coarse_tol 仍视为收敛。
func (n *NewtonRaphson) iterate(r Residual, x0 []float64, logIter bool) Result {
	cfg := n.cfg
	if cfg.MaxIter == 0 {
		return Result{X: append([]float64(nil), x0...), Outcome: Converged, Residual: n.norm(r, x0)}
	}
	x := maths.NewUpdateVector(x0)
	res := Result{}
	rv, err := r.Residual(x.Base())
	norm := math.Inf(1)
	if err == nil {
		norm = maths.MeanAbs(rv)
	}
	res.History = append(res.History, Iteration{Iter: 0, Residual: norm, Tau: 0})
	n.log(logIter, 0, norm, 0)

	dx := make([]float64, x.Length())
	for iter := 1; iter <= cfg.MaxIter && norm >= cfg.Tol; iter++ {
		if math.IsInf(norm, 0) || math.IsNaN(norm) {
			break
		}
		jac, err := n.diff.Jacobian(r, x.Base())
		if err != nil {
			n.logger.Debug("jacobian failed", zap.Int("iter", iter), zap.Error(err))
			return n.fail(res, x, norm)
		}
		neg := make([]float64, len(rv))
		for i, v := range rv {
			neg[i] = -v
		}
		if err := n.linear.Solve(jac, neg, dx); err != nil {
			n.logger.Debug("linear solve failed", zap.Int("iter", iter), zap.Error(err))
			return n.fail(res, x, norm)
		}
		// 阻尼回溯
		tau := 1.0
		accepted := false
		var trial []float64
		trialNorm := math.Inf(1)
		for tau >= cfg.TauMin {
			x.SetAxpy(tau, dx)
			trial, err = r.Residual(x.Trial())
			trialNorm = math.Inf(1)
			if err == nil {
				trialNorm = maths.MeanAbs(trial)
			}
			if trialNorm < norm {
				accepted = true
				break
			}
			tau *= cfg.DeltaReductionFactor
		}
		if !accepted {
			x.Rollback()
			n.logger.Debug("damping exhausted", zap.Int("iter", iter), zap.Float64("residual", norm))
			return n.fail(res, x, norm)
		}
		x.Update()
		rv, norm = trial, trialNorm
		res.Iterations++
		res.History = append(res.History, Iteration{Iter: iter, Residual: norm, Tau: tau})
		n.log(logIter, iter, norm, tau)
	}

	res.X = x.Base()
	res.Residual = norm
	switch {
	case norm < cfg.Tol:
		res.Outcome = Converged
	case norm < cfg.CoarseTol:
		n.logger.Debug("accepted at coarse tolerance", zap.Float64("residual", norm), zap.Float64("coarse_tol", cfg.CoarseTol))
		res.Outcome = Converged
	default:
		res.Outcome = Failed
	}
	return res
}

func (n *NewtonRaphson) fail(res Result, x *maths.UpdateVector, norm float64) Result {
	res.X = x.Base()
	res.Residual = norm
	res.Outcome = Failed
	return res
}

func (n *NewtonRaphson) norm(r Residual, x []float64) float64 {
	rv, err := r.Residual(x)
	if err != nil {
		return math.Inf(1)
	}
	return maths.MeanAbs(rv)
}

func (n *NewtonRaphson) log(enabled bool, iter int, residual, tau float64) {
	if !enabled {
		return
	}
	n.logger.Debug("newton iteration",
		zap.Int("iter", iter),
		zap.Float64("residual", residual),
		zap.Float64("tau", tau),
	)
}
