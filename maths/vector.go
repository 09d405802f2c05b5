package maths

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// UpdateVector 可更新向量（支持缓存与回溯）
// Set 只修改缓存，Update 将缓存刷到底层，Rollback 丢弃缓存
type UpdateVector struct {
	base  []float64 // 底层数据（上次接受的值）
	cache []float64 // 缓存数据（试探值）
}

// NewUpdateVector 创建可更新向量，初始值拷贝自 init
func NewUpdateVector(init []float64) *UpdateVector {
	v := &UpdateVector{
		base:  make([]float64, len(init)),
		cache: make([]float64, len(init)),
	}
	copy(v.base, init)
	copy(v.cache, init)
	return v
}

// Length 返回向量长度
func (v *UpdateVector) Length() int { return len(v.base) }

// Get 获取缓存值
func (v *UpdateVector) Get(index int) float64 { return v.cache[index] }

// Set 设置缓存值
func (v *UpdateVector) Set(index int, value float64) { v.cache[index] = value }

// Base 返回底层数据的拷贝
func (v *UpdateVector) Base() []float64 { return append([]float64(nil), v.base...) }

// Trial 返回缓存数据的引用
func (v *UpdateVector) Trial() []float64 { return v.cache }

// SetAxpy 缓存 = 底层 + alpha*dx
func (v *UpdateVector) SetAxpy(alpha float64, dx []float64) {
	if len(dx) != len(v.base) {
		panic("vector dimension mismatch")
	}
	floats.AddScaledTo(v.cache, v.base, alpha, dx)
}

// Update 缓存数据刷到底层存储
func (v *UpdateVector) Update() { copy(v.base, v.cache) }

// Rollback 回溯操作（放弃缓存修改）
func (v *UpdateVector) Rollback() { copy(v.cache, v.base) }

// String 字符串表示
func (v *UpdateVector) String() string {
	result := "["
	for _, x := range v.base {
		result += fmt.Sprintf("%8.4f ", x)
	}
	return result + "]"
}

// AllFinite 检查所有元素是否为有限值
func AllFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MeanAbs 平均绝对值，空向量返回0，非有限时返回 +Inf
func MeanAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	if !AllFinite(x) {
		return math.Inf(1)
	}
	return floats.Norm(x, 1) / float64(len(x))
}

// MeanSquare 平均平方值，空向量返回0，非有限时返回 +Inf
func MeanSquare(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	if !AllFinite(x) {
		return math.Inf(1)
	}
	return floats.Dot(x, x) / float64(len(x))
}
