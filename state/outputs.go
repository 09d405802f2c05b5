package state

import (
	"slices"
)

// CoreTransport 面上的输运系数快照
type CoreTransport struct {
	ChiFaceIon []float64 `json:"chi_face_ion"`
	ChiFaceEl  []float64 `json:"chi_face_el"`
	DFaceEl    []float64 `json:"d_face_el"`
	VFaceEl    []float64 `json:"v_face_el"`
}

// ZeroTransport nr 个单元对应的零输运
func ZeroTransport(nr int) CoreTransport {
	return CoreTransport{
		ChiFaceIon: make([]float64, nr+1),
		ChiFaceEl:  make([]float64, nr+1),
		DFaceEl:    make([]float64, nr+1),
		VFaceEl:    make([]float64, nr+1),
	}
}

// AuxOutput 求解得到的诊断量
type AuxOutput struct {
	SourceIon []float64 `json:"source_ion"` // 离子加热总功率密度
	SourceEl  []float64 `json:"source_el"`
	SourcePsi []float64 `json:"source_psi"`
	SourceNe  []float64 `json:"source_ne"`
	Qei       []float64 `json:"qei"` // 电子传给离子的交换功率密度
}

// ZeroAux 零诊断量
func ZeroAux(nr int) AuxOutput {
	return AuxOutput{
		SourceIon: make([]float64, nr),
		SourceEl:  make([]float64, nr),
		SourcePsi: make([]float64, nr),
		SourceNe:  make([]float64, nr),
		Qei:       make([]float64, nr),
	}
}

// Contribution 单个源对各字段的贡献（单元值）
type Contribution map[Field][]float64

// SourceProfiles 源剖面
// 显式部分在步前计算一次，隐式部分随每个试探解重新计算
type SourceProfiles struct {
	Explicit map[string]Contribution
	Implicit map[string]Contribution
	QeiCoef  []float64 // 离子-电子交换系数，单元值
}

// Total 某字段上显式与隐式源的和，按源名顺序累加
func (s SourceProfiles) Total(f Field, nr int) []float64 {
	out := make([]float64, nr)
	for _, group := range []map[string]Contribution{s.Explicit, s.Implicit} {
		names := make([]string, 0, len(group))
		for name := range group {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			for i, v := range group[name][f] {
				out[i] += v
			}
		}
	}
	return out
}
