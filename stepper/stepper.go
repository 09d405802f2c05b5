// Package stepper 单个时间步：选出演化变量，调用求解策略，合并结果
package stepper

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tokamak/config"
	"tokamak/geometry"
	"tokamak/solver"
	"tokamak/sources"
	"tokamak/state"
	"tokamak/transport"
)

// ErrNoStrategy 未给出求解策略
var ErrNoStrategy = errors.New("stepper: no solver strategy")

// Strategy 求解策略：solver.Optimizer、solver.NewtonRaphson 或 solver.Linear
type Strategy interface {
	Solve(p *solver.Problem) solver.Result
	ArtificiallyLinear(frozen bool) bool
	Config() config.SolverConfig
}

var (
	_ Strategy = (*solver.Optimizer)(nil)
	_ Strategy = (*solver.NewtonRaphson)(nil)
	_ Strategy = (*solver.Linear)(nil)
)

// FromConfig 按配置创建策略
func FromConfig(cfg config.SolverConfig, opts ...solver.Option) (Strategy, error) {
	switch cfg.Kind {
	case config.SolverOptimizer:
		return solver.NewOptimizer(cfg, opts...)
	case config.SolverNewtonRaphson:
		return solver.NewNewtonRaphson(cfg, opts...)
	case config.SolverLinear:
		return solver.NewLinear(cfg, opts...)
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownSolver, cfg.Kind)
}

// Input 一步的输入，调用期间不会被修改
type Input struct {
	Geo             *geometry.Geometry
	Static          config.Static
	DynT            *config.Dynamic // t 时刻
	DynTPlusDt      *config.Dynamic // t+dt 时刻
	CoreT           state.Profiles  // t 时刻剖面
	CoreTPlusDt     state.Profiles  // t+dt 预设剖面，提供边界条件和非演化字段
	Dt              float64
	ExplicitSources state.SourceProfiles
}

// Output 一步的输出
type Output struct {
	Profiles           state.Profiles
	Transport          state.CoreTransport
	Aux                state.AuxOutput
	Outcome            solver.Outcome
	Iterations         int
	Residual           float64
	History            []solver.Iteration
	ArtificiallyLinear bool // 为 true 时 Outcome 不代表真正的收敛判断
}

// Stepper 时间步推进器，本身不保存步间状态
type Stepper struct {
	strategy  Strategy
	transport transport.Model
	sources   *sources.Models
	logger    *zap.Logger
}

// Option 推进器选项
type Option func(*Stepper)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(s *Stepper) {
		if l != nil {
			s.logger = l
		}
	}
}

// New 创建推进器
func New(strategy Strategy, tm transport.Model, src *sources.Models, opts ...Option) (*Stepper, error) {
	if strategy == nil {
		return nil, ErrNoStrategy
	}
	if tm == nil || src == nil {
		return nil, fmt.Errorf("stepper: transport and source models are required")
	}
	s := &Stepper{strategy: strategy, transport: tm, sources: src, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Strategy 当前策略
func (s *Stepper) Strategy() Strategy { return s.strategy }

// Sources 源模型
func (s *Stepper) Sources() *sources.Models { return s.sources }

// Step 推进一个时间步
// 收敛失败通过 Outcome 返回；error 只表示输入不合法
func (s *Stepper) Step(in Input) (Output, error) {
	if err := validate(in); err != nil {
		return Output{}, err
	}
	nr := in.Geo.Nr()
	evolving := state.Evolving(in.Static)
	if len(evolving) == 0 {
		return Output{
			Profiles:  in.CoreTPlusDt.Copy(),
			Transport: state.ZeroTransport(nr),
			Aux:       state.ZeroAux(nr),
			Outcome:   solver.Converged,
		}, nil
	}

	xOld, err := state.Pack(in.CoreT, evolving)
	if err != nil {
		return Output{}, err
	}
	xNext, err := state.Pack(in.CoreTPlusDt, evolving)
	if err != nil {
		return Output{}, err
	}
	var cb solver.CoeffsCallback
	cb, err = solver.NewCallback(solver.CallbackContext{
		Geo:             in.Geo,
		CoreT:           in.CoreT,
		CoreTPlusDt:     in.CoreTPlusDt,
		Transport:       s.transport,
		Sources:         s.sources,
		ExplicitSources: in.ExplicitSources,
		Evolving:        evolving,
	})
	if err != nil {
		return Output{}, err
	}
	if s.strategy.Config().FrozenCoeffs {
		cb, err = solver.NewFrozenCallback(cb, xOld, xNext, in.DynT, in.DynTPlusDt)
		if err != nil {
			return Output{}, err
		}
	}
	problem, err := solver.NewProblem(cb, xOld, xNext, in.DynT, in.DynTPlusDt, in.Dt, in.Static.ThetaImp)
	if err != nil {
		return Output{}, err
	}

	res := s.strategy.Solve(problem)
	vars, err := problem.Vars(res.X)
	if err != nil {
		return Output{}, err
	}
	profiles, err := state.Update(in.CoreTPlusDt, evolving, vars, in.DynTPlusDt.Composition)
	if err != nil {
		return Output{}, err
	}
	out := Output{
		Profiles:           profiles,
		Outcome:            res.Outcome,
		Iterations:         res.Iterations,
		Residual:           res.Residual,
		History:            res.History,
		ArtificiallyLinear: s.strategy.ArtificiallyLinear(cb.Frozen()),
		Transport:          state.ZeroTransport(nr),
		Aux:                state.ZeroAux(nr),
	}
	if ev, err := problem.Evaluate(res.X); err == nil {
		out.Transport, out.Aux = ev.Transport, ev.Aux
	} else {
		s.logger.Warn("final coefficient evaluation failed", zap.Error(err))
	}
	s.logger.Debug("step solved",
		zap.Float64("t", in.DynTPlusDt.T),
		zap.Float64("dt", in.Dt),
		zap.Stringer("outcome", res.Outcome),
		zap.Int("iterations", res.Iterations),
		zap.Float64("residual", res.Residual),
	)
	return out, nil
}

func validate(in Input) error {
	if in.Geo == nil || in.DynT == nil || in.DynTPlusDt == nil {
		return fmt.Errorf("%w: geometry and dynamic slices are required", state.ErrShape)
	}
	if in.Dt <= 0 {
		return fmt.Errorf("stepper: dt=%g must be positive", in.Dt)
	}
	nr := in.Geo.Nr()
	if err := in.CoreT.Validate(nr); err != nil {
		return fmt.Errorf("state at t: %w", err)
	}
	if err := in.CoreTPlusDt.Validate(nr); err != nil {
		return fmt.Errorf("state at t+dt: %w", err)
	}
	return nil
}
