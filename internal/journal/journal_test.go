package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

func sampleEntry(tick uint64) Entry {
	return Entry{
		Tick:     tick,
		Time:     time.Date(2024, 1, 1, 0, 0, int(tick), 0, time.UTC),
		Dirty:    1,
		Affected: 4,
		Collapses: []physics.Collapse{{
			Position: vec.Vec2{X: 5, Y: 0},
			Material: material.Dirt,
			Load:     70,
			Capacity: 50,
			Reason:   physics.ReasonOverload,
		}},
		Ground:    physics.GroundReport{FoundationCount: 1, TotalLoad: 70, MaxSupport: 1000},
		Stability: 93,
	}
}

func testJournalContract(t *testing.T, j Journal) {
	ctx := context.Background()
	for _, tick := range []uint64{3, 7, 12, 120} {
		require.NoError(t, j.Append(ctx, sampleEntry(tick)))
	}

	all, err := j.Range(ctx, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []uint64{3, 7, 12, 120}, ticks(all), "Записи идут по возрастанию тика")
	assert.Equal(t, sampleEntry(7), all[1])

	window, err := j.Range(ctx, 5, 12, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7, 12}, ticks(window))

	limited, err := j.Range(ctx, 4, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7, 12}, ticks(limited))

	empty, err := j.Range(ctx, 200, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func ticks(entries []Entry) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.Tick
	}
	return out
}

func TestMemoryJournal(t *testing.T) {
	testJournalContract(t, NewMemoryJournal())
}

func TestBadgerJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	j, err := NewBadgerJournal(dir)
	require.NoError(t, err)

	testJournalContract(t, j)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close(), "Повторное закрытие безопасно")

	// Данные переживают переоткрытие
	reopened, err := NewBadgerJournal(dir)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Range(context.Background(), 0, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestTickKeyOrdering(t *testing.T) {
	assert.Less(t, string(tickKey(9)), string(tickKey(10)))
	assert.Equal(t, "tick:00000000000000000042", string(tickKey(42)))
}

func TestSink_Filters(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryJournal()
	sink := NewSink(mem, true)

	idle := physics.TickReport{Tick: 1}
	quiet := physics.TickReport{Tick: 2, Dirty: []vec.Vec2{{X: 1, Y: 1}}, Affected: 1}
	eventful := physics.TickReport{
		Tick:      3,
		Dirty:     []vec.Vec2{{X: 5, Y: 0}},
		Collapses: sampleEntry(3).Collapses,
	}

	for _, r := range []physics.TickReport{idle, quiet, eventful} {
		require.NoError(t, sink.HandleTick(ctx, r))
	}
	entries, _ := mem.Range(ctx, 0, 0, 0)
	assert.Equal(t, []uint64{3}, ticks(entries), "Пишутся только тики с обрушениями")

	all := NewMemoryJournal()
	sink = NewSink(all, false)
	for _, r := range []physics.TickReport{idle, quiet, eventful} {
		require.NoError(t, sink.HandleTick(ctx, r))
	}
	entries, _ = all.Range(ctx, 0, 0, 0)
	assert.Equal(t, []uint64{2, 3}, ticks(entries), "Пустые тики не пишутся никогда")
}

func TestMemoryJournal_RejectsOldTick(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()

	last, err := j.LastTick(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, j.Append(ctx, sampleEntry(5)))
	assert.ErrorIs(t, j.Append(ctx, sampleEntry(5)), ErrTickOrder)
	assert.ErrorIs(t, j.Append(ctx, sampleEntry(2)), ErrTickOrder)

	last, err = j.LastTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), last)
}

func TestBadgerJournal_ReopenKeepsEarlierRun(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "journal")

	first, err := NewBadgerJournal(dir)
	require.NoError(t, err)
	for tick := uint64(1); tick <= 3; tick++ {
		require.NoError(t, first.Append(ctx, sampleEntry(tick)))
	}
	require.NoError(t, first.Close())

	second, err := NewBadgerJournal(dir)
	require.NoError(t, err)
	defer second.Close()

	last, err := second.LastTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last, "Последний тик читается из базы при открытии")

	// Новый запуск с тика 1 не должен перезаписать первый запуск
	restarted := sampleEntry(1)
	restarted.Affected = 100
	assert.ErrorIs(t, second.Append(ctx, restarted), ErrTickOrder)

	continued := sampleEntry(last + 1)
	continued.Affected = 100
	require.NoError(t, second.Append(ctx, continued))

	entries, err := second.Range(ctx, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 4}, ticks(entries))
	assert.Equal(t, 4, entries[0].Affected, "Запись первого запуска сохранилась")
	assert.Equal(t, 100, entries[3].Affected)
}
