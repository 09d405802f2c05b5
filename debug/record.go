// Package debug 记录每个时间步的剖面和求解信息，并输出为 json、网页或图片
package debug

import (
	"encoding/json"
	"io"
	"math"

	"tokamak/geometry"
	"tokamak/solver"
	"tokamak/state"
	"tokamak/stepper"
)

// Record 记录历史状态
type Record struct {
	Rho        []float64              `json:"rho"`        // 单元中心坐标
	Time       []float64              `json:"time"`       // 时间列
	Dt         []float64              `json:"dt"`         // 实际步长
	Outcome    []solver.Outcome       `json:"outcome"`    // 步结果
	Iterations []int                  `json:"iterations"` // 迭代次数
	Residual   []float64              `json:"residual"`   // 退出残差，非有限值记为 -1
	History    [][]solver.Iteration   `json:"history"`    // 残差历史
	Retries    []int                  `json:"retries"`    // 缩小步长重试次数
	Profiles   map[string][][]float64 `json:"profiles"`   // 字段 -> 时间 -> 单元值
}

// NewRecord 初始化并记录初始剖面
func NewRecord(geo *geometry.Geometry, t0 float64, p state.Profiles) *Record {
	r := &Record{
		Rho:      append([]float64(nil), geo.Mesh.CellCenters...),
		Profiles: map[string][][]float64{},
	}
	r.Time = append(r.Time, t0)
	r.Dt = append(r.Dt, 0)
	r.Outcome = append(r.Outcome, solver.Converged)
	r.Iterations = append(r.Iterations, 0)
	r.Residual = append(r.Residual, 0)
	r.History = append(r.History, nil)
	r.Retries = append(r.Retries, 0)
	r.profiles(p)
	return r
}

// Update 记录一个接受的时间步
func (r *Record) Update(t, dt float64, retries int, out stepper.Output) {
	r.Time = append(r.Time, t)
	r.Dt = append(r.Dt, dt)
	r.Outcome = append(r.Outcome, out.Outcome)
	r.Iterations = append(r.Iterations, out.Iterations)
	r.Residual = append(r.Residual, finite(out.Residual))
	history := make([]solver.Iteration, len(out.History))
	for i, it := range out.History {
		it.Residual = finite(it.Residual)
		history[i] = it
	}
	r.History = append(r.History, history)
	r.Retries = append(r.Retries, retries)
	r.profiles(out.Profiles)
}

func (r *Record) profiles(p state.Profiles) {
	for _, f := range state.Order {
		v, _ := p.Get(f)
		r.Profiles[string(f)] = append(r.Profiles[string(f)], append([]float64(nil), v.Value...))
	}
	r.Profiles["ni"] = append(r.Profiles["ni"], append([]float64(nil), p.Ni.Value...))
}

// finite json 不能编码 Inf 和 NaN
func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return -1
	}
	return v
}

// Len 记录的时刻数量
func (r *Record) Len() int { return len(r.Time) }

// Fields 按固定顺序给出记录的字段名
func (r *Record) Fields() []string {
	out := make([]string, 0, len(state.Order)+1)
	for _, f := range state.Order {
		out = append(out, string(f))
	}
	return append(out, "ni")
}

// Final 某字段最后时刻的剖面
func (r *Record) Final(field string) []float64 {
	rows := r.Profiles[field]
	if len(rows) == 0 {
		return nil
	}
	return rows[len(rows)-1]
}

// Render 格式和输出内容
func (r *Record) Render(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(r)
}
