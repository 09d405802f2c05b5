package config

// Dynamic 某一时刻的动态参数切片，求解期间只读
type Dynamic struct {
	T           float64
	Transport   TransportParams
	Numerics    NumericsParams
	Composition CompositionParams
	Profiles    ProfileParams
	Sources     map[string]SourceParams
	Solver      SolverRuntime
}

// TransportParams 输运模型参数
type TransportParams struct {
	ChiMin       float64
	ChiMax       float64
	ChiIon       float64
	ChiEl        float64
	De           float64
	Ve           float64
	CritGradient float64 // 临界归一化梯度 R/L_crit
	Stiffness    float64
	Exponent     float64
}

// NumericsParams 数值系数
type NumericsParams struct {
	QeiMult         float64
	ResistivityMult float64
}

// CompositionParams 等离子体成分
type CompositionParams struct {
	Zeff float64
	Zimp float64
	Ai   float64
}

// Dilution 主离子稀释因子 ni/ne
func (c CompositionParams) Dilution() float64 {
	return (c.Zimp - c.Zeff) / (c.Zimp - 1)
}

// ProfileParams 剖面边界值与初值
type ProfileParams struct {
	TiBound      float64
	TeBound      float64
	NeBound      float64
	PsiBoundGrad float64
	Ti0          float64
	Te0          float64
	Ne0          float64
}

// SourceParams 源参数
type SourceParams struct {
	Mode       SourceMode
	Implicit   bool
	Amplitude  float64
	Width      float64
	Location   float64
	ElFraction float64
}

// SolverRuntime 求解过程中的诊断开关
type SolverRuntime struct {
	LogIterations bool
}

// Slice 生成 t 时刻的动态参数
func (c *Config) Slice(t float64) *Dynamic {
	in := &c.Dynamic
	d := &Dynamic{
		T: t,
		Transport: TransportParams{
			ChiMin:       in.Transport.ChiMin.At(t),
			ChiMax:       in.Transport.ChiMax.At(t),
			ChiIon:       in.Transport.ChiIon.At(t),
			ChiEl:        in.Transport.ChiEl.At(t),
			De:           in.Transport.De.At(t),
			Ve:           in.Transport.Ve.At(t),
			CritGradient: in.Transport.CritGradient.At(t),
			Stiffness:    in.Transport.Stiffness.At(t),
			Exponent:     in.Transport.Exponent.At(t),
		},
		Numerics: NumericsParams{
			QeiMult:         in.Numerics.QeiMult.At(t),
			ResistivityMult: in.Numerics.ResistivityMult.At(t),
		},
		Composition: CompositionParams{
			Zeff: in.Composition.Zeff.At(t),
			Zimp: in.Composition.Zimp,
			Ai:   in.Composition.Ai,
		},
		Profiles: ProfileParams{
			TiBound:      in.Profiles.TiBound.At(t),
			TeBound:      in.Profiles.TeBound.At(t),
			NeBound:      in.Profiles.NeBound.At(t),
			PsiBoundGrad: in.Profiles.PsiBoundGrad.At(t),
			Ti0:          in.Profiles.Ti0,
			Te0:          in.Profiles.Te0,
			Ne0:          in.Profiles.Ne0,
		},
		Sources: make(map[string]SourceParams, len(in.Sources)),
		Solver:  SolverRuntime{LogIterations: in.Solver.LogIterations},
	}
	for name, s := range in.Sources {
		d.Sources[name] = SourceParams{
			Mode:       s.Mode,
			Implicit:   s.Implicit,
			Amplitude:  s.Amplitude.At(t),
			Width:      s.Width,
			Location:   s.Location,
			ElFraction: s.ElFraction,
		}
	}
	return d
}
