package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// TimeSeries 分段线性时间序列，区间外取端点值
// yaml 中既可写常数，也可写 {t: value} 映射
type TimeSeries struct {
	times  []float64
	values []float64
}

// Constant 常数时间序列
func Constant(v float64) TimeSeries {
	return TimeSeries{times: []float64{0}, values: []float64{v}}
}

// NewTimeSeries 从映射构建
func NewTimeSeries(points map[float64]float64) TimeSeries {
	ts := TimeSeries{}
	for t := range points {
		ts.times = append(ts.times, t)
	}
	sort.Float64s(ts.times)
	for _, t := range ts.times {
		ts.values = append(ts.values, points[t])
	}
	return ts
}

// IsZero 未设置
func (ts TimeSeries) IsZero() bool { return len(ts.times) == 0 }

// At 取 t 时刻的值
func (ts TimeSeries) At(t float64) float64 {
	n := len(ts.times)
	switch {
	case n == 0:
		return 0
	case t <= ts.times[0]:
		return ts.values[0]
	case t >= ts.times[n-1]:
		return ts.values[n-1]
	}
	i := sort.SearchFloat64s(ts.times, t)
	if ts.times[i] == t {
		return ts.values[i]
	}
	t0, t1 := ts.times[i-1], ts.times[i]
	w := (t - t0) / (t1 - t0)
	return (1-w)*ts.values[i-1] + w*ts.values[i]
}

// UnmarshalYAML 支持常数或映射
func (ts *TimeSeries) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("time series: %w", err)
		}
		*ts = Constant(v)
		return nil
	case yaml.MappingNode:
		points := map[float64]float64{}
		if err := node.Decode(&points); err != nil {
			return fmt.Errorf("time series: %w", err)
		}
		if len(points) == 0 {
			return fmt.Errorf("%w: empty time series", ErrInvalid)
		}
		*ts = NewTimeSeries(points)
		return nil
	}
	return fmt.Errorf("%w: time series must be a number or a mapping (line %d)", ErrInvalid, node.Line)
}

// MarshalYAML 常数输出为标量
func (ts TimeSeries) MarshalYAML() (any, error) {
	if len(ts.times) == 1 {
		return ts.values[0], nil
	}
	points := make(map[float64]float64, len(ts.times))
	for i, t := range ts.times {
		points[t] = ts.values[i]
	}
	return points, nil
}
