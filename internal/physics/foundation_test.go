package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/vertex/internal/world"
	"github.com/annel0/vertex/internal/world/material"
)

func TestGroundReport_StabilityPercent(t *testing.T) {
	assert.Equal(t, 100.0, GroundReport{}.StabilityPercent(), "Без фундамента 100%")
	assert.Equal(t, 75.0, GroundReport{TotalLoad: 250, MaxSupport: 1000}.StabilityPercent())
	assert.Equal(t, 0.0, GroundReport{TotalLoad: 1500, MaxSupport: 1000}.StabilityPercent())
	assert.Equal(t, 100.0, GroundReport{TotalLoad: 0, MaxSupport: 1000}.StabilityPercent())
}

func TestFoundationMonitor_Evaluate(t *testing.T) {
	g := world.NewGrid(4, 0, 1, material.DefaultCatalog())
	for x := 0; x < 4; x++ {
		placeFoundation(t, g, x, 0, material.Dirt)
	}
	place(t, g, 0, 1, material.Stone)

	for x := 0; x < 4; x++ {
		tileAt(t, g, x, 0).CurrentLoad = 100
	}
	tileAt(t, g, 0, 1).CurrentLoad = 10000

	monitor := NewFoundationMonitor(g, 100)
	report := monitor.Evaluate()
	assert.Equal(t, 4, report.FoundationCount)
	assert.Equal(t, 400.0, report.TotalLoad, "Учитываются только клетки фундамента")
	assert.Equal(t, 400.0, report.MaxSupport)
	assert.False(t, report.Sinkhole, "Равенство не вызывает провал")
	assert.Equal(t, 0.0, monitor.StabilityPercent())

	tileAt(t, g, 3, 0).CurrentLoad = 100.5
	assert.True(t, monitor.Evaluate().Sinkhole)
}
