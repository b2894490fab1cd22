package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerlinNoise_Deterministic(t *testing.T) {
	a := NewPerlinNoise(42)
	b := NewPerlinNoise(42)

	for x := 0; x < 20; x++ {
		for y := 0; y < 20; y++ {
			fx, fy := float64(x)*0.1, float64(y)*0.1
			va := a.Noise2D(fx, fy)
			assert.Equal(t, va, b.Noise2D(fx, fy), "Один сид должен давать одинаковый шум")
			assert.GreaterOrEqual(t, va, 0.0)
			assert.LessOrEqual(t, va, 1.0)
		}
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.25, Clamp01(0.25))
}
