package world

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

// ErrOutOfBounds возвращается при попытке записи вне [0, width)
var ErrOutOfBounds = errors.New("позиция вне границ мира")

// Grid разреженная сетка клеток мира.
// Ширина фиксирована, вертикальные границы только расширяются.
// Не потокобезопасна: владелец один (см. пакет sim).
type Grid struct {
	width     int
	minHeight int
	maxHeight int
	tiles     map[vec.Vec2]*Tile
	catalog   material.Catalog
}

// NewGrid создаёт пустую сетку с начальными вертикальными границами
func NewGrid(width, minHeight, maxHeight int, catalog material.Catalog) *Grid {
	if minHeight > maxHeight {
		minHeight, maxHeight = maxHeight, minHeight
	}
	return &Grid{
		width:     width,
		minHeight: minHeight,
		maxHeight: maxHeight,
		tiles:     make(map[vec.Vec2]*Tile),
		catalog:   catalog,
	}
}

func (g *Grid) Width() int { return g.width }
func (g *Grid) MinHeight() int { return g.minHeight }
func (g *Grid) MaxHeight() int { return g.maxHeight }
func (g *Grid) Len() int { return len(g.tiles) }
func (g *Grid) Catalog() material.Catalog { return g.catalog }

// IsValidPosition проверяет горизонтальную границу. Высота не ограничена.
func (g *Grid) IsValidPosition(pos vec.Vec2) bool {
	return pos.X >= 0 && pos.X < g.width
}

// Tile возвращает клетку по позиции. Отсутствие клетки не ошибка.
// Возвращается хранимая клетка: изменять её может только движок нагрузок.
func (g *Grid) Tile(pos vec.Vec2) (*Tile, bool) {
	t, ok := g.tiles[pos]
	return t, ok
}

// SetTile вставляет или заменяет клетку целиком и расширяет границы по Y
func (g *Grid) SetTile(pos vec.Vec2, tile Tile) error {
	if !g.IsValidPosition(pos) {
		return fmt.Errorf("%w: %s (ширина %d)", ErrOutOfBounds, pos, g.width)
	}

	tile.Position = pos
	g.tiles[pos] = &tile

	if pos.Y > g.maxHeight {
		g.maxHeight = pos.Y
	}
	if pos.Y < g.minHeight {
		g.minHeight = pos.Y
	}
	return nil
}

// SetMaterial заменяет клетку новой клеткой материала m
func (g *Grid) SetMaterial(pos vec.Vec2, m material.Material) error {
	return g.SetTile(pos, NewTile(g.catalog, m, pos))
}

// isStructuralAt есть ли в позиции клетка, несущая нагрузку
func (g *Grid) isStructuralAt(pos vec.Vec2) bool {
	t, ok := g.tiles[pos]
	return ok && t.IsStructural()
}

// CanPlace проверяет, можно ли поставить материал в позицию.
// Воздух ставится всегда; остальному нужна опора снизу, слева или справа.
func (g *Grid) CanPlace(pos vec.Vec2, m material.Material) bool {
	if !g.IsValidPosition(pos) {
		return false
	}

	if current, ok := g.tiles[pos]; ok && current.Material != material.Air {
		return false
	}

	if m == material.Air {
		return true
	}

	return g.isStructuralAt(pos.Below()) ||
		g.isStructuralAt(pos.Add(vec.Left)) ||
		g.isStructuralAt(pos.Add(vec.Right))
}

// Neighbors возвращает соседние позиции (вверх, вниз, влево, вправо) в пределах ширины
func (g *Grid) Neighbors(pos vec.Vec2) []vec.Vec2 {
	neighbors := make([]vec.Vec2, 0, 4)
	for _, dir := range []vec.Vec2{vec.Up, vec.Down, vec.Left, vec.Right} {
		n := pos.Add(dir)
		if g.IsValidPosition(n) {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// AllTiles ленивый обход всех клеток. Порядок не определён.
func (g *Grid) AllTiles() iter.Seq[*Tile] {
	return func(yield func(*Tile) bool) {
		for _, t := range g.tiles {
			if !yield(t) {
				return
			}
		}
	}
}

// Foundations ленивый обход клеток фундамента. Порядок не определён.
func (g *Grid) Foundations() iter.Seq[*Tile] {
	return func(yield func(*Tile) bool) {
		for _, t := range g.tiles {
			if t.IsFoundation && !yield(t) {
				return
			}
		}
	}
}

// Column возвращает присутствующие клетки столбца x по возрастанию Y
func (g *Grid) Column(x int) []*Tile {
	column := make([]*Tile, 0, g.maxHeight-g.minHeight+1)
	for y := g.minHeight; y <= g.maxHeight; y++ {
		if t, ok := g.tiles[vec.Vec2{X: x, Y: y}]; ok {
			column = append(column, t)
		}
	}
	return column
}

// SortTopDown сортирует позиции сверху вниз, при равной высоте слева направо
func SortTopDown(positions []vec.Vec2) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Y != positions[j].Y {
			return positions[i].Y > positions[j].Y
		}
		return positions[i].X < positions[j].X
	})
}
