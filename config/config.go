// Package config 模拟配置：静态参数、随时间变化的动态参数和运行参数
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalid       = errors.New("invalid config")
	ErrUnknownSolver = errors.New("unknown solver kind")
)

// TransportModel 输运模型名
type TransportModel string

const (
	TransportConstant         TransportModel = "constant"
	TransportCriticalGradient TransportModel = "critical_gradient"
)

// Config 完整配置
type Config struct {
	Static  Static       `yaml:"static"`
	Dynamic DynamicInput `yaml:"dynamic"`
	Runtime Runtime      `yaml:"runtime"`
}

// Static 整个模拟期间不变的参数，改变它们需要重新构建求解器
type Static struct {
	IonHeatEq      bool           `yaml:"ion_heat_eq"`
	ElHeatEq       bool           `yaml:"el_heat_eq"`
	CurrentEq      bool           `yaml:"current_eq"`
	DensEq         bool           `yaml:"dens_eq"`
	ThetaImp       float64        `yaml:"theta_imp"`
	Nr             int            `yaml:"nr"`
	Rmin           float64        `yaml:"rmin"`
	Rmaj           float64        `yaml:"rmaj"`
	TransportModel TransportModel `yaml:"transport_model"`
	Solver         SolverConfig   `yaml:"solver"`
}

// Runtime 外层时间循环参数
type Runtime struct {
	TFinal            float64 `yaml:"t_final"`
	FixedDt           float64 `yaml:"fixed_dt"`
	DtReductionFactor float64 `yaml:"dt_reduction_factor"`
	MinDt             float64 `yaml:"min_dt"`
	MaxSteps          int     `yaml:"max_steps"`
}

// SourceInput 单个源的配置
type SourceInput struct {
	Mode       SourceMode `yaml:"mode"`
	Implicit   bool       `yaml:"is_implicit"`
	Amplitude  TimeSeries `yaml:"amplitude"`
	Width      float64    `yaml:"width"`
	Location   float64    `yaml:"location"`
	ElFraction float64    `yaml:"el_fraction"`
}

// SourceMode 源的计算方式
type SourceMode string

const (
	SourceZero  SourceMode = "zero"
	SourceModel SourceMode = "model"
)

// DynamicInput 动态参数的输入形式，标量可随时间变化
type DynamicInput struct {
	Transport struct {
		ChiMin       TimeSeries `yaml:"chi_min"`
		ChiMax       TimeSeries `yaml:"chi_max"`
		ChiIon       TimeSeries `yaml:"chi_ion"`
		ChiEl        TimeSeries `yaml:"chi_el"`
		De           TimeSeries `yaml:"d_e"`
		Ve           TimeSeries `yaml:"v_e"`
		CritGradient TimeSeries `yaml:"crit_gradient"`
		Stiffness    TimeSeries `yaml:"stiffness"`
		Exponent     TimeSeries `yaml:"exponent"`
	} `yaml:"transport"`
	Numerics struct {
		QeiMult         TimeSeries `yaml:"qei_mult"`
		ResistivityMult TimeSeries `yaml:"resistivity_mult"`
	} `yaml:"numerics"`
	Composition struct {
		Zeff TimeSeries `yaml:"zeff"`
		Zimp float64    `yaml:"zimp"`
		Ai   float64    `yaml:"ai"`
	} `yaml:"composition"`
	Profiles struct {
		TiBound      TimeSeries `yaml:"ti_bound"`
		TeBound      TimeSeries `yaml:"te_bound"`
		NeBound      TimeSeries `yaml:"ne_bound"`
		PsiBoundGrad TimeSeries `yaml:"psi_bound_grad"`
		Ti0          float64    `yaml:"ti0"`
		Te0          float64    `yaml:"te0"`
		Ne0          float64    `yaml:"ne0"`
	} `yaml:"profiles"`
	Sources map[string]SourceInput `yaml:"sources"`
	Solver  struct {
		LogIterations bool `yaml:"log_iterations"`
	} `yaml:"solver"`
}

// Default 默认配置：仅演化离子和电子温度，Newton-Raphson 求解
func Default() *Config {
	c := &Config{
		Static: Static{
			IonHeatEq:      true,
			ElHeatEq:       true,
			ThetaImp:       1,
			Nr:             25,
			Rmin:           1,
			Rmaj:           3,
			TransportModel: TransportConstant,
			Solver:         DefaultNewton(),
		},
		Runtime: Runtime{
			TFinal:            1,
			FixedDt:           0.1,
			DtReductionFactor: 3,
			MinDt:             1e-6,
		},
	}
	d := &c.Dynamic
	d.Transport.ChiMin = Constant(0.05)
	d.Transport.ChiMax = Constant(100)
	d.Transport.ChiIon = Constant(1)
	d.Transport.ChiEl = Constant(1)
	d.Transport.De = Constant(1)
	d.Transport.Ve = Constant(0)
	d.Transport.CritGradient = Constant(4)
	d.Transport.Stiffness = Constant(2)
	d.Transport.Exponent = Constant(1)
	d.Numerics.QeiMult = Constant(1)
	d.Numerics.ResistivityMult = Constant(1)
	d.Composition.Zeff = Constant(1.5)
	d.Composition.Zimp = 10
	d.Composition.Ai = 2.5
	d.Profiles.TiBound = Constant(1)
	d.Profiles.TeBound = Constant(1)
	d.Profiles.NeBound = Constant(0.5)
	d.Profiles.PsiBoundGrad = Constant(1)
	d.Profiles.Ti0 = 5
	d.Profiles.Te0 = 5
	d.Profiles.Ne0 = 1
	d.Sources = map[string]SourceInput{
		"generic_ion_el_heat": {Mode: SourceModel, Amplitude: Constant(10), Width: 0.25, Location: 0, ElFraction: 0.66},
		"gas_puff":            {Mode: SourceModel, Amplitude: Constant(1), Width: 0.05},
		"external_current":    {Mode: SourceModel, Amplitude: Constant(1), Width: 0.3, Location: 0.3},
		"fusion_heat":         {Mode: SourceZero, Implicit: true},
	}
	return c
}

// Parse 解析 yaml，未给出的字段取默认值
// 求解器默认值依赖于 kind，因此解码两次：第一次读出 kind，第二次覆盖到对应默认值上
func Parse(data []byte) (*Config, error) {
	probe := Default()
	if err := yaml.Unmarshal(data, probe); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c := Default()
	solver, err := DefaultSolver(probe.Static.Solver.Kind)
	if err != nil {
		return nil, err
	}
	c.Static.Solver = solver
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load 从文件加载
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return Parse(data)
}

// Validate 检查配置
func (c *Config) Validate() error {
	s := c.Static
	if s.ThetaImp < 0 || s.ThetaImp > 1 {
		return fmt.Errorf("%w: theta_imp=%g outside [0,1]", ErrInvalid, s.ThetaImp)
	}
	if s.Nr < 1 {
		return fmt.Errorf("%w: nr=%d", ErrInvalid, s.Nr)
	}
	if s.Rmin <= 0 || s.Rmaj <= s.Rmin {
		return fmt.Errorf("%w: need 0 < rmin < rmaj", ErrInvalid)
	}
	switch s.TransportModel {
	case TransportConstant, TransportCriticalGradient:
	default:
		return fmt.Errorf("%w: transport_model %q", ErrInvalid, s.TransportModel)
	}
	if err := s.Solver.Validate(); err != nil {
		return err
	}
	comp := c.Dynamic.Composition
	if comp.Zimp <= 1 {
		return fmt.Errorf("%w: zimp=%g must exceed 1", ErrInvalid, comp.Zimp)
	}
	for name, src := range c.Dynamic.Sources {
		switch src.Mode {
		case SourceZero, SourceModel:
		default:
			return fmt.Errorf("%w: source %s mode %q", ErrInvalid, name, src.Mode)
		}
	}
	r := c.Runtime
	if r.FixedDt <= 0 || r.TFinal < 0 {
		return fmt.Errorf("%w: need fixed_dt > 0 and t_final >= 0", ErrInvalid)
	}
	if r.DtReductionFactor <= 1 {
		return fmt.Errorf("%w: dt_reduction_factor=%g must exceed 1", ErrInvalid, r.DtReductionFactor)
	}
	if r.MinDt <= 0 || r.MinDt > r.FixedDt {
		return fmt.Errorf("%w: need 0 < min_dt <= fixed_dt", ErrInvalid)
	}
	return nil
}
