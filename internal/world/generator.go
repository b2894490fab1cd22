package world

import (
	"fmt"

	"github.com/annel0/vertex/internal/util"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

// Пороги шума для подземных материалов
const (
	StoneThreshold = 0.7 // Выше - камень
	CoalThreshold  = 0.5 // Выше - уголь
	IronThreshold  = 0.3 // Выше - железо, ниже - земля
)

// Params размеры генерируемого мира
type Params struct {
	Width         int
	SurfaceLevel  int
	InitialHeight int
}

// Bounds возвращает начальные вертикальные границы: surface ± initial_height/2
func (p Params) Bounds() (minHeight, maxHeight int) {
	half := p.InitialHeight / 2
	return p.SurfaceLevel - half, p.SurfaceLevel + half
}

// Generator генерирует начальный ландшафт
type Generator struct {
	Seed       int64   // Сид для генерации шума
	NoiseScale float64 // Масштаб шума подземных ресурсов
	noise      *util.PerlinNoise
}

// NewGenerator создаёт генератор с указанным сидом и масштабом шума
func NewGenerator(seed int64, noiseScale float64) *Generator {
	return &Generator{
		Seed:       seed,
		NoiseScale: noiseScale,
		noise:      util.NewPerlinNoise(seed),
	}
}

// UndergroundMaterial выбирает подземный материал по шуму в позиции
func (g *Generator) UndergroundMaterial(pos vec.Vec2) material.Material {
	value := g.noise.Noise2D(float64(pos.X)*g.NoiseScale, float64(pos.Y)*g.NoiseScale)

	switch {
	case value > StoneThreshold:
		return material.Stone
	case value > CoalThreshold:
		return material.Coal
	case value > IronThreshold:
		return material.Iron
	default:
		return material.Dirt
	}
}

// Generate создаёт сетку: ряд фундамента из земли на уровне поверхности,
// ресурсы под ним и воздух над ним.
func (g *Generator) Generate(params Params, catalog material.Catalog) (*Grid, error) {
	if params.Width <= 0 {
		return nil, fmt.Errorf("ширина мира должна быть > 0, получено %d", params.Width)
	}

	minHeight, maxHeight := params.Bounds()
	grid := NewGrid(params.Width, minHeight, maxHeight, catalog)

	for x := 0; x < params.Width; x++ {
		pos := vec.Vec2{X: x, Y: params.SurfaceLevel}
		if err := grid.SetTile(pos, NewFoundationTile(catalog, material.Dirt, pos)); err != nil {
			return nil, err
		}
	}

	for x := 0; x < params.Width; x++ {
		for y := params.SurfaceLevel - 1; y >= minHeight; y-- {
			pos := vec.Vec2{X: x, Y: y}
			if err := grid.SetMaterial(pos, g.UndergroundMaterial(pos)); err != nil {
				return nil, err
			}
		}
	}

	for x := 0; x < params.Width; x++ {
		for y := params.SurfaceLevel + 1; y <= maxHeight; y++ {
			if err := grid.SetMaterial(vec.Vec2{X: x, Y: y}, material.Air); err != nil {
				return nil, err
			}
		}
	}

	return grid, nil
}
