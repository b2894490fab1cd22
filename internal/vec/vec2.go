package vec

import (
	"fmt"
	"math"
)

// Vec2 представляет 2D координаты клетки сетки (X: столбец, Y: высота)
type Vec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Направления соседей
var (
	Up    = Vec2{X: 0, Y: 1}
	Down  = Vec2{X: 0, Y: -1}
	Left  = Vec2{X: -1, Y: 0}
	Right = Vec2{X: 1, Y: 0}
)

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Below возвращает клетку под текущей
func (v Vec2) Below() Vec2 {
	return v.Add(Down)
}

// Above возвращает клетку над текущей
func (v Vec2) Above() Vec2 {
	return v.Add(Up)
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// String возвращает представление "(x,y)"
func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}
