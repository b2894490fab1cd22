package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

func TestGenerator_Layout(t *testing.T) {
	params := Params{Width: 8, SurfaceLevel: 50, InitialHeight: 20}
	grid, err := NewGenerator(1337, 0.1).Generate(params, material.DefaultCatalog())
	require.NoError(t, err)

	assert.Equal(t, 40, grid.MinHeight())
	assert.Equal(t, 60, grid.MaxHeight())
	assert.Equal(t, 8*21, grid.Len(), "Каждая клетка в пределах высот должна быть заполнена")

	for x := 0; x < params.Width; x++ {
		surface, ok := grid.Tile(vec.Vec2{X: x, Y: 50})
		require.True(t, ok)
		assert.Equal(t, material.Dirt, surface.Material)
		assert.True(t, surface.IsFoundation, "Поверхность должна быть фундаментом")

		above, ok := grid.Tile(vec.Vec2{X: x, Y: 51})
		require.True(t, ok)
		assert.Equal(t, material.Air, above.Material)

		for y := 40; y < 50; y++ {
			tile, ok := grid.Tile(vec.Vec2{X: x, Y: y})
			require.True(t, ok)
			assert.Contains(t, []material.Material{material.Dirt, material.Stone, material.Coal, material.Iron}, tile.Material)
			assert.False(t, tile.IsFoundation)
			assert.Zero(t, tile.CurrentLoad, "Начальная нагрузка нулевая")
		}
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	params := Params{Width: 6, SurfaceLevel: 10, InitialHeight: 10}
	a, err := NewGenerator(99, 0.1).Generate(params, material.DefaultCatalog())
	require.NoError(t, err)
	b, err := NewGenerator(99, 0.1).Generate(params, material.DefaultCatalog())
	require.NoError(t, err)

	for tile := range a.AllTiles() {
		other, ok := b.Tile(tile.Position)
		require.True(t, ok)
		assert.Equal(t, tile.Material, other.Material, "позиция %s", tile.Position)
	}
}

func TestGenerator_InvalidWidth(t *testing.T) {
	_, err := NewGenerator(1, 0.1).Generate(Params{Width: 0}, material.DefaultCatalog())
	assert.Error(t, err)
}
