package maths

import (
	"math"
	"testing"
)

// TestUpdateVector 验证缓存、提交与回溯。
func TestUpdateVector(t *testing.T) {
	v := NewUpdateVector([]float64{1, 2, 3})
	v.SetAxpy(0.5, []float64{2, 2, 2})
	if got := v.Trial(); got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("trial = %v", got)
	}
	if got := v.Base(); got[0] != 1 {
		t.Fatalf("base modified before Update: %v", got)
	}
	v.Rollback()
	if got := v.Trial(); got[0] != 1 || got[2] != 3 {
		t.Fatalf("rollback failed: %v", got)
	}
	v.Set(1, 10)
	v.Update()
	if got := v.Base(); got[1] != 10 {
		t.Fatalf("update failed: %v", got)
	}
}

// TestNorms 验证范数和非有限处理。
func TestNorms(t *testing.T) {
	x := []float64{1, -3}
	if got := MeanAbs(x); got != 2 {
		t.Errorf("MeanAbs = %v", got)
	}
	if got := MeanSquare(x); got != 5 {
		t.Errorf("MeanSquare = %v", got)
	}
	if got := MeanAbs(nil); got != 0 {
		t.Errorf("MeanAbs(nil) = %v", got)
	}
	if got := MeanAbs([]float64{1, math.NaN()}); !math.IsInf(got, 1) {
		t.Errorf("MeanAbs(NaN) = %v", got)
	}
	if AllFinite([]float64{0, math.Inf(-1)}) {
		t.Error("AllFinite accepted -Inf")
	}
}

// TestDenseOps 验证矩阵基本操作。
func TestDenseOps(t *testing.T) {
	m := NewDense(2, 2)
	m.Set(0, 0, 1)
	m.Increment(0, 0, 2)
	m.Set(1, 1, 4)
	c := m.Clone()
	c.AddScaled(-1, m)
	if c.NonZeroCount() != 0 {
		t.Errorf("clone minus self should be zero, got %v", c)
	}
	y := m.MatrixVectorMultiply([]float64{1, 1})
	if y[0] != 3 || y[1] != 4 {
		t.Errorf("MatrixVectorMultiply = %v", y)
	}
	if r, cc := m.T().Dims(); r != 2 || cc != 2 || m.T().At(1, 1) != 4 {
		t.Errorf("transpose mismatch")
	}
}
