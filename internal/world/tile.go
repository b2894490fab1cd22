package world

import (
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

// LoadStatus классификация нагрузки клетки для визуализации
type LoadStatus int

const (
	LoadSafe LoadStatus = iota
	LoadModerate
	LoadStressed
	LoadCritical
)

// Пороговые отношения нагрузки к прочности
const (
	ModerateRatio = 0.5
	StressedRatio = 0.75
	CriticalRatio = 1.0
)

func (s LoadStatus) String() string {
	switch s {
	case LoadSafe:
		return "safe"
	case LoadModerate:
		return "moderate"
	case LoadStressed:
		return "stressed"
	case LoadCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText сериализует статус по имени
func (s LoadStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Tile состояние одной клетки мира.
// Материал и флаг фундамента неизменны: смена материала создаёт новую клетку.
// CurrentLoad и IsSupported меняет только движок нагрузок.
type Tile struct {
	Material     material.Material   `json:"material"`
	Props        material.Properties `json:"props"`
	CurrentLoad  float64             `json:"current_load"`
	IsFoundation bool                `json:"is_foundation"`
	IsSupported  bool                `json:"is_supported"`
	Position     vec.Vec2            `json:"position"`
}

// NewTile создаёт клетку с материалом, свойства берутся из каталога
func NewTile(catalog material.Catalog, m material.Material, pos vec.Vec2) Tile {
	return Tile{
		Material: m,
		Props:    catalog.Props(m),
		Position: pos,
	}
}

// NewFoundationTile создаёт клетку поверхностного слоя грунта
func NewFoundationTile(catalog material.Catalog, m material.Material, pos vec.Vec2) Tile {
	t := NewTile(catalog, m, pos)
	t.IsFoundation = true
	return t
}

// IsStructural сообщает, несёт ли клетка нагрузку (всё, кроме воздуха)
func (t *Tile) IsStructural() bool {
	return t.Material.IsStructural()
}

// WillCollapse сообщает, превышена ли прочность (строго)
func (t *Tile) WillCollapse() bool {
	return t.CurrentLoad > t.Props.SupportCapacity
}

// LoadRatio отношение нагрузки к прочности. Для нулевой прочности 0.
func (t *Tile) LoadRatio() float64 {
	if t.Props.SupportCapacity <= 0 {
		return 0
	}
	return t.CurrentLoad / t.Props.SupportCapacity
}

// LoadStatus классифицирует нагрузку клетки
func (t *Tile) LoadStatus() LoadStatus {
	if t.Props.SupportCapacity <= 0 {
		return LoadSafe
	}

	ratio := t.LoadRatio()
	switch {
	case ratio >= CriticalRatio:
		return LoadCritical
	case ratio >= StressedRatio:
		return LoadStressed
	case ratio >= ModerateRatio:
		return LoadModerate
	default:
		return LoadSafe
	}
}
