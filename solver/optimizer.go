package solver

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"tokamak/config"
	"tokamak/maths"
)

// Optimizer 残差均方值最小化（L-BFGS）
type Optimizer struct {
	cfg config.SolverConfig
	options
}

// NewOptimizer 创建残差最小化策略
func NewOptimizer(cfg config.SolverConfig, opts ...Option) (*Optimizer, error) {
	if err := checkKind(cfg, config.SolverOptimizer); err != nil {
		return nil, err
	}
	return &Optimizer{cfg: cfg, options: newOptions(cfg, opts)}, nil
}

// Config 求解器参数
func (o *Optimizer) Config() config.SolverConfig { return o.cfg }

// ArtificiallyLinear 迭代预算为0或系数冻结
func (o *Optimizer) ArtificiallyLinear(frozen bool) bool {
	return o.cfg.MaxIter == 0 || frozen
}

// Solve 求解一个时间步
func (o *Optimizer) Solve(p *Problem) Result {
	x0, err := initialGuess(p, o.cfg, o.linear)
	if err != nil {
		o.logger.Warn("initial guess failed", zap.Error(err))
		return Result{X: p.XOld(), Outcome: Failed, Residual: math.Inf(1)}
	}
	return o.minimize(p, x0, p.Dynamic().Solver.LogIterations)
}

// loss 残差均方值，出错或非有限时为 +Inf
func loss(r Residual, x []float64) float64 {
	rv, err := r.Residual(x)
	if err != nil {
		return math.Inf(1)
	}
	return maths.MeanSquare(rv)
}

// lossConverger 损失降到容差以下即停止
type lossConverger struct {
	tol float64
}

func (c *lossConverger) Init(int) {}

func (c *lossConverger) Converged(loc *optimize.Location) optimize.Status {
	if loc.F <= c.tol {
		return optimize.Success
	}
	return optimize.NotTerminated
}

func (o *Optimizer) minimize(r Residual, x0 []float64, logIter bool) Result {
	cfg := o.cfg
	start := loss(r, x0)
	res := Result{
		X:        append([]float64(nil), x0...),
		Residual: start,
		History:  []Iteration{{Iter: 0, Residual: start}},
	}
	// gonum 把 MajorIterations == 0 当作不限次数
	if cfg.MaxIter == 0 {
		res.Outcome = Converged
		return res
	}
	if start <= cfg.Tol {
		res.Outcome = Converged
		return res
	}
	n := float64(r.Dim())
	problem := optimize.Problem{
		Func: func(x []float64) float64 { return loss(r, x) },
		// ∇(‖r‖²/n) = 2/n·Jᵀr
		Grad: func(grad, x []float64) {
			rv, err := r.Residual(x)
			if err == nil {
				var jac *mat.Dense
				if jac, err = o.diff.Jacobian(r, x); err == nil {
					g := mat.NewVecDense(len(grad), grad)
					g.MulVec(jac.T(), mat.NewVecDense(len(rv), rv))
					g.ScaleVec(2/n, g)
					return
				}
			}
			for i := range grad {
				grad[i] = math.NaN()
			}
		},
	}
	iter := 0
	settings := &optimize.Settings{
		MajorIterations: cfg.MaxIter,
		Converger:       &lossConverger{tol: cfg.Tol},
		Recorder: recorderFunc(func(loc *optimize.Location, op optimize.Operation) {
			if op&optimize.MajorIteration == 0 {
				return
			}
			iter++
			res.History = append(res.History, Iteration{Iter: iter, Residual: loc.F})
			if logIter {
				o.logger.Debug("optimizer iteration", zap.Int("iter", iter), zap.Float64("loss", loc.F))
			}
		}),
	}
	out, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if err != nil {
		o.logger.Debug("optimizer stopped", zap.Error(err))
	}
	if out != nil && maths.AllFinite(out.X) {
		if f := loss(r, out.X); f <= res.Residual {
			res.X = append([]float64(nil), out.X...)
			res.Residual = f
		}
		res.Iterations = out.Stats.MajorIterations
	}
	if res.Residual <= cfg.Tol {
		res.Outcome = Converged
	} else {
		res.Outcome = Failed
	}
	return res
}

// recorderFunc 把函数适配为 optimize.Recorder
type recorderFunc func(loc *optimize.Location, op optimize.Operation)

func (recorderFunc) Init() error { return nil }

func (f recorderFunc) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	f(loc, op)
	return nil
}
