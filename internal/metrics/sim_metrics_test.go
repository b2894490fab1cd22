package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/resources"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world"
	"github.com/annel0/vertex/internal/world/material"
)

func TestSimMetrics_ObserveTick(t *testing.T) {
	m := NewSimMetrics(prometheus.NewRegistry())

	m.ObserveTick(physics.TickReport{Tick: 1})
	m.ObserveTick(physics.TickReport{
		Tick:     2,
		Dirty:    []vec.Vec2{{X: 0, Y: 1}},
		Affected: 3,
		Collapses: []physics.Collapse{
			{Reason: physics.ReasonOverload},
			{Reason: physics.ReasonSinkhole},
			{Reason: physics.ReasonSinkhole},
		},
		Ground:   physics.GroundReport{FoundationCount: 2, TotalLoad: 2500, MaxSupport: 2000, Sinkhole: true},
		Duration: time.Millisecond,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("idle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collapses.WithLabelValues("overload")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.collapses.WithLabelValues("sinkhole")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sinkholes))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.affected))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.stability), "Перегруженный грунт даёт 0%")
}

func TestSimMetrics_IdleTickKeepsGround(t *testing.T) {
	m := NewSimMetrics(prometheus.NewRegistry())

	m.ObserveTick(physics.TickReport{
		Tick:   1,
		Dirty:  []vec.Vec2{{X: 0, Y: 1}},
		Ground: physics.GroundReport{FoundationCount: 1, TotalLoad: 250, MaxSupport: 1000},
	})
	m.ObserveTick(physics.TickReport{Tick: 2})

	assert.Equal(t, 75.0, testutil.ToFloat64(m.stability), "Пустой тик не обнуляет показатели грунта")
	assert.Equal(t, 250.0, testutil.ToFloat64(m.groundLoad))
}

func TestSimMetrics_ChangesAndBalances(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSimMetrics(reg)
	ctx := context.Background()

	require.NoError(t, m.HandleTileChange(ctx, world.TileChange{Kind: world.ChangePlaced}))
	require.NoError(t, m.HandleTileChange(ctx, world.TileChange{Kind: world.ChangePlaced}))
	require.NoError(t, m.HandleTileChange(ctx, world.TileChange{Kind: world.ChangeRemoved}))
	m.OnResourceChanged(ctx, resources.Change{Material: material.Stone, Delta: 1, Balance: 21})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tileChanges.WithLabelValues("placed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tileChanges.WithLabelValues("removed")))
	assert.Equal(t, 21.0, testutil.ToFloat64(m.balances.WithLabelValues("Stone")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewSimMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewSimMetrics(reg)
	assert.Panics(t, func() { NewSimMetrics(reg) }, "Повторная регистрация в том же регистре недопустима")
}
