package physics

import (
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world"
	"github.com/annel0/vertex/internal/world/material"
)

// CollapseOutcome результат обрушения одной клетки
type CollapseOutcome struct {
	Yield       Yield
	Replacement world.Tile
	Redirty     vec.Vec2
}

// CollapseTile превращает клетку в единицу ресурса и воздух на её месте.
// Чистая функция: сетку меняет вызывающий.
func CollapseTile(catalog material.Catalog, pos vec.Vec2, m material.Material, reason ChangeReason) CollapseOutcome {
	return CollapseOutcome{
		Yield: Yield{
			Material: m,
			Amount:   1,
			Position: pos,
			Reason:   reason,
		},
		Replacement: world.NewTile(catalog, material.Air, pos),
		Redirty:     pos,
	}
}
