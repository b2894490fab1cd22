package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// PerlinNoise детерминированный генератор шума для заданного сида.
// Экземпляр, а не глобальное состояние: разные миры не делят генератор.
type PerlinNoise struct {
	seed  int64
	noise *perlin.Perlin
}

// NewPerlinNoise создаёт генератор шума Перлина с указанным сидом
func NewPerlinNoise(seed int64) *PerlinNoise {
	return &PerlinNoise{
		seed:  seed,
		noise: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
	}
}

// Seed возвращает сид генератора
func (p *PerlinNoise) Seed() int64 {
	return p.seed
}

// Noise2D возвращает значение шума для указанных координат (от 0 до 1)
func (p *PerlinNoise) Noise2D(x, y float64) float64 {
	// Получаем значение шума (от -1 до 1)
	noise := p.noise.Noise2D(x, y)

	// Преобразуем в диапазон от 0 до 1
	return Clamp01((noise + 1.0) / 2.0)
}

// Clamp01 ограничивает значение отрезком [0, 1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
