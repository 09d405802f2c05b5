// Package tokamak 一维输运模拟：按固定步长推进，单步失败时缩小步长重试
package tokamak

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tokamak/config"
	"tokamak/debug"
	"tokamak/geometry"
	"tokamak/solver"
	"tokamak/sources"
	"tokamak/state"
	"tokamak/stepper"
	"tokamak/transport"
)

// ErrDtTooSmall 步长缩小到下限仍未收敛
var ErrDtTooSmall = errors.New("time step fell below min_dt")

// Sim 模拟器
type Sim struct {
	Config  *config.Config
	Geo     *geometry.Geometry
	Stepper *stepper.Stepper
	Logger  *zap.Logger
}

// NewSim 按配置创建模拟器
func NewSim(cfg *config.Config, logger *zap.Logger) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	geo, err := geometry.NewCircular(cfg.Static.Nr, cfg.Static.Rmin, cfg.Static.Rmaj)
	if err != nil {
		return nil, err
	}
	strategy, err := stepper.FromConfig(cfg.Static.Solver, solver.WithLogger(logger.Named("solver")))
	if err != nil {
		return nil, err
	}
	tm, err := transport.New(cfg.Static.TransportModel)
	if err != nil {
		return nil, err
	}
	st, err := stepper.New(strategy, tm, sources.Default(), stepper.WithLogger(logger.Named("stepper")))
	if err != nil {
		return nil, err
	}
	return &Sim{Config: cfg, Geo: geo, Stepper: st, Logger: logger}, nil
}

// Initial 初始剖面
func (s *Sim) Initial() state.Profiles {
	return state.Initial(s.Geo, s.Config.Slice(0))
}

// Step 从 t 推进一步，失败时按 dt_reduction_factor 缩小步长重试
// 返回接受的输出、实际步长和重试次数
func (s *Sim) Step(t, dt float64, core state.Profiles) (stepper.Output, float64, int, error) {
	rt := s.Config.Runtime
	dynT := s.Config.Slice(t)
	explicit := s.Stepper.Sources().ComputeExplicit(dynT, s.Geo, core)
	for retries := 0; ; retries++ {
		dynNext := s.Config.Slice(t + dt)
		out, err := s.Stepper.Step(stepper.Input{
			Geo:             s.Geo,
			Static:          s.Config.Static,
			DynT:            dynT,
			DynTPlusDt:      dynNext,
			CoreT:           core,
			CoreTPlusDt:     state.Prescribe(core, dynNext),
			Dt:              dt,
			ExplicitSources: explicit,
		})
		if err != nil {
			return stepper.Output{}, dt, retries, err
		}
		// 人为线性时失败没有意义，不重试
		if out.Outcome == solver.Converged || out.ArtificiallyLinear {
			return out, dt, retries, nil
		}
		next := dt / rt.DtReductionFactor
		s.Logger.Warn("step failed, reducing dt",
			zap.Float64("t", t),
			zap.Float64("dt", dt),
			zap.Float64("next_dt", next),
			zap.Float64("residual", out.Residual),
		)
		if next < rt.MinDt {
			return out, dt, retries, fmt.Errorf("%w: t=%g dt=%g", ErrDtTooSmall, t, next)
		}
		dt = next
	}
}

// Run 运行到 t_final
func (s *Sim) Run(ctx context.Context) (*debug.Record, error) {
	rt := s.Config.Runtime
	core := s.Initial()
	t := 0.0
	record := debug.NewRecord(s.Geo, t, core)
	const eps = 1e-12
	for steps := 0; t < rt.TFinal-eps; steps++ {
		if err := ctx.Err(); err != nil {
			return record, err
		}
		if rt.MaxSteps > 0 && steps >= rt.MaxSteps {
			s.Logger.Info("max_steps reached", zap.Int("steps", steps), zap.Float64("t", t))
			break
		}
		dt := min(rt.FixedDt, rt.TFinal-t)
		out, used, retries, err := s.Step(t, dt, core)
		if err != nil {
			return record, err
		}
		t += used
		core = out.Profiles
		record.Update(t, used, retries, out)
		s.Logger.Info("step",
			zap.Float64("t", t),
			zap.Float64("dt", used),
			zap.Int("iterations", out.Iterations),
			zap.Int("retries", retries),
		)
	}
	return record, nil
}
