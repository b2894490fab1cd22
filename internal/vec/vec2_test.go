package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2_Neighbours(t *testing.T) {
	p := Vec2{X: 3, Y: 4}

	assert.Equal(t, Vec2{X: 3, Y: 3}, p.Below())
	assert.Equal(t, Vec2{X: 3, Y: 5}, p.Above())
	assert.Equal(t, Vec2{X: 2, Y: 4}, p.Add(Left))
	assert.Equal(t, Vec2{X: 4, Y: 4}, p.Add(Right))
	assert.Equal(t, "(3,4)", p.String())
	assert.InDelta(t, 5.0, Vec2{}.DistanceTo(Vec2{X: 3, Y: 4}), 1e-9)
}
