package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCircular(t *testing.T) {
	g, err := NewCircular(50, 1.2, 3)
	require.NoError(t, err)
	assert.Equal(t, 50, g.Nr())
	assert.Len(t, g.VprFace, 51)
	assert.Equal(t, 0.0, g.VprFace[0])

	ones := make([]float64, g.Nr())
	for i := range ones {
		ones[i] = 1
	}
	// 中点积分对线性 Vpr 精确
	assert.InDelta(t, g.Volume, g.VolumeIntegral(ones), 1e-9*g.Volume)
}

func TestNewCircularInvalid(t *testing.T) {
	_, err := NewCircular(10, 2, 1)
	assert.Error(t, err)
	_, err = NewCircular(0, 1, 3)
	assert.Error(t, err)
}
