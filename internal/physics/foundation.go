package physics

import (
	"github.com/annel0/vertex/internal/util"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world"
)

// GroundReport суммарная нагрузка на фундамент
type GroundReport struct {
	FoundationCount int     `json:"foundation_count"`
	TotalLoad       float64 `json:"total_load"`
	MaxSupport      float64 `json:"max_support"`
	Sinkhole        bool    `json:"sinkhole"`
}

// StabilityPercent устойчивость грунта в процентах [0, 100].
// Без фундамента грунт считается устойчивым.
func (r GroundReport) StabilityPercent() float64 {
	if r.MaxSupport == 0 {
		return 100
	}
	return util.Clamp01(1-r.TotalLoad/r.MaxSupport) * 100
}

// FoundationMonitor проверяет суммарную нагрузку на все клетки фундамента
type FoundationMonitor struct {
	grid                  *world.Grid
	supportPerSurfaceTile float64
}

// NewFoundationMonitor создаёт монитор с прочностью грунта на одну клетку поверхности
func NewFoundationMonitor(grid *world.Grid, supportPerSurfaceTile float64) *FoundationMonitor {
	return &FoundationMonitor{
		grid:                  grid,
		supportPerSurfaceTile: supportPerSurfaceTile,
	}
}

// SupportPerSurfaceTile возвращает прочность грунта на одну клетку
func (m *FoundationMonitor) SupportPerSurfaceTile() float64 {
	return m.supportPerSurfaceTile
}

// Evaluate обходит всю сетку. Провал, если нагрузка строго больше прочности.
func (m *FoundationMonitor) Evaluate() GroundReport {
	var report GroundReport
	for tile := range m.grid.Foundations() {
		report.TotalLoad += tile.CurrentLoad
		report.FoundationCount++
	}

	report.MaxSupport = float64(report.FoundationCount) * m.supportPerSurfaceTile
	report.Sinkhole = report.TotalLoad > report.MaxSupport
	return report
}

// StabilityPercent устойчивость грунта для отображения
func (m *FoundationMonitor) StabilityPercent() float64 {
	return m.Evaluate().StabilityPercent()
}

// foundationPositions позиции фундамента слева направо, снизу вверх
func (m *FoundationMonitor) foundationPositions() []vec.Vec2 {
	positions := make([]vec.Vec2, 0, m.grid.Width())
	for tile := range m.grid.Foundations() {
		positions = append(positions, tile.Position)
	}
	sortLeftToRight(positions)
	return positions
}
