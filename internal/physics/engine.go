package physics

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/vertex/internal/logging"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world"
)

// DefaultSupportPerSurfaceTile прочность грунта под одной клеткой поверхности
const DefaultSupportPerSurfaceTile = 1000.0

// Phase фаза обработки тика
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDraining
	PhaseResetting
	PhaseRecomputing
	PhaseCollapseChecking
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDraining:
		return "draining"
	case PhaseResetting:
		return "resetting"
	case PhaseRecomputing:
		return "recomputing"
	case PhaseCollapseChecking:
		return "collapse_checking"
	default:
		return "unknown"
	}
}

// Engine пересчитывает нагрузки после изменений сетки и обрушает перегруженные клетки.
// Все вызовы должны идти из одной горутины-владельца.
type Engine struct {
	grid    *world.Grid
	monitor *FoundationMonitor

	// Грязные позиции: порядок вставки + множество для дедупликации
	pending    []vec.Vec2
	pendingSet map[vec.Vec2]struct{}

	observers []YieldObserver
	recorder  Recorder
	logger    *logging.Logger
	tracer    trace.Tracer

	supportPerSurfaceTile float64
	tick                  uint64
	phase                 Phase
}

// Option настраивает Engine
type Option func(*Engine)

// WithSupportPerSurfaceTile задаёт прочность грунта под одной клеткой фундамента
func WithSupportPerSurfaceTile(support float64) Option {
	return func(e *Engine) {
		e.supportPerSurfaceTile = support
	}
}

// WithRecorder подключает приёмник отчётов о тиках
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithLogger задаёт логгер движка
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStartTick продолжает нумерацию тиков: первый Tick получит номер tick+1
func WithStartTick(tick uint64) Option {
	return func(e *Engine) {
		e.tick = tick
	}
}

// NewEngine создаёт движок нагрузок над сеткой
func NewEngine(grid *world.Grid, opts ...Option) *Engine {
	e := &Engine{
		grid:                  grid,
		pendingSet:            make(map[vec.Vec2]struct{}),
		supportPerSurfaceTile: DefaultSupportPerSurfaceTile,
		tracer:                otel.Tracer("vertex/physics"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.GetPhysicsLogger()
	}
	e.monitor = NewFoundationMonitor(grid, e.supportPerSurfaceTile)
	return e
}

func (e *Engine) Grid() *world.Grid { return e.grid }

func (e *Engine) Monitor() *FoundationMonitor { return e.monitor }

// Phase текущая фаза. Вне Tick всегда PhaseIdle.
func (e *Engine) Phase() Phase { return e.phase }

// CurrentTick номер последнего выполненного тика
func (e *Engine) CurrentTick() uint64 { return e.tick }

// Subscribe регистрирует получателя ресурсов. Порядок вызова: порядок регистрации.
func (e *Engine) Subscribe(o YieldObserver) {
	e.observers = append(e.observers, o)
}

// MarkDirty ставит позицию в очередь пересчёта. Повторы игнорируются.
func (e *Engine) MarkDirty(pos vec.Vec2) {
	if _, ok := e.pendingSet[pos]; ok {
		return
	}
	e.pendingSet[pos] = struct{}{}
	e.pending = append(e.pending, pos)
}

// Pending копия очереди грязных позиций
func (e *Engine) Pending() []vec.Vec2 {
	out := make([]vec.Vec2, len(e.pending))
	copy(out, e.pending)
	return out
}

// EmitYield передаёт ресурс всем получателям. Используется и копанием, и обрушением.
func (e *Engine) EmitYield(ctx context.Context, y Yield) {
	for _, o := range e.observers {
		if err := o.OnYield(ctx, y); err != nil {
			e.logger.Error("❌ Получатель ресурса %s из %s вернул ошибку: %v", y.Material, y.Position, err)
		}
	}
}

// Tick выполняет один проход: забирает грязные позиции, пересчитывает нагрузки
// затронутых столбцов, проверяет грунт и обрушает перегруженные клетки.
// Обрушенные позиции снова помечаются грязными и обрабатываются в следующем тике.
func (e *Engine) Tick(ctx context.Context) TickReport {
	start := time.Now()
	e.tick++
	report := TickReport{Tick: e.tick}

	// Drain
	e.phase = PhaseDraining
	dirty := e.drain()
	if len(dirty) == 0 {
		e.phase = PhaseIdle
		report.Duration = time.Since(start)
		e.record(report)
		return report
	}
	report.Dirty = dirty

	ctx, span := e.tracer.Start(ctx, "physics.Tick", trace.WithAttributes(
		attribute.Int64("tick", int64(e.tick)),
		attribute.Int("dirty", len(dirty)),
	))
	defer span.End()

	affected := e.affectedRegion(dirty)
	report.Affected = len(affected)

	e.phase = PhaseResetting
	e.resetLoads(affected)

	e.phase = PhaseRecomputing
	e.recomputeLoads(affected)

	e.phase = PhaseCollapseChecking
	collapses := e.detectOverloads(affected)
	report.Ground = e.monitor.Evaluate()
	if report.Ground.Sinkhole {
		e.logger.Warn("🕳️ Провал грунта! Нагрузка %.1f превышает прочность %.1f (%d клеток фундамента)",
			report.Ground.TotalLoad, report.Ground.MaxSupport, report.Ground.FoundationCount)
		collapses = e.addSinkhole(collapses)
	}

	for _, c := range collapses {
		tile, ok := e.grid.Tile(c.Position)
		if !ok {
			continue
		}

		outcome := CollapseTile(e.grid.Catalog(), c.Position, tile.Material, c.Reason)
		if err := e.grid.SetTile(c.Position, outcome.Replacement); err != nil {
			e.logger.Error("❌ Не удалось заменить обрушенную клетку %s: %v", c.Position, err)
			continue
		}
		e.MarkDirty(outcome.Redirty)

		e.logger.Debug("💥 Обрушение %s в %s: нагрузка %.1f > прочность %.1f (%s)",
			c.Material, c.Position, c.Load, c.Capacity, c.Reason)

		report.Collapses = append(report.Collapses, c)
		report.Yields = append(report.Yields, outcome.Yield)
		e.EmitYield(ctx, outcome.Yield)
	}

	span.SetAttributes(
		attribute.Int("affected", report.Affected),
		attribute.Int("collapses", len(report.Collapses)),
		attribute.Bool("sinkhole", report.Ground.Sinkhole),
	)

	e.phase = PhaseIdle
	report.Duration = time.Since(start)
	e.record(report)
	return report
}

func (e *Engine) record(report TickReport) {
	if e.recorder != nil {
		e.recorder.ObserveTick(report)
	}
}

// drain забирает всю очередь. Позиции, помеченные во время тика, попадут в следующий.
func (e *Engine) drain() []vec.Vec2 {
	dirty := e.pending
	e.pending = nil
	e.pendingSet = make(map[vec.Vec2]struct{})
	return dirty
}

// affectedRegion собирает несущие клетки в столбце каждой грязной позиции от неё вверх.
// Результат упорядочен сверху вниз, при равной высоте слева направо.
func (e *Engine) affectedRegion(dirty []vec.Vec2) []vec.Vec2 {
	seen := make(map[vec.Vec2]struct{})
	affected := make([]vec.Vec2, 0, len(dirty))
	maxHeight := e.grid.MaxHeight()

	for _, p := range dirty {
		for y := p.Y; y <= maxHeight; y++ {
			pos := vec.Vec2{X: p.X, Y: y}
			if _, ok := seen[pos]; ok {
				continue
			}
			tile, ok := e.grid.Tile(pos)
			if !ok || !tile.IsStructural() {
				continue
			}
			seen[pos] = struct{}{}
			affected = append(affected, pos)
		}
	}

	world.SortTopDown(affected)
	return affected
}

func (e *Engine) resetLoads(affected []vec.Vec2) {
	for _, pos := range affected {
		if tile, ok := e.grid.Tile(pos); ok {
			tile.CurrentLoad = 0
		}
	}
}

// recomputeLoads идёт сверху вниз: нагрузка клетки готова до передачи вниз
func (e *Engine) recomputeLoads(affected []vec.Vec2) {
	for _, pos := range affected {
		tile, ok := e.grid.Tile(pos)
		if !ok || !tile.IsStructural() {
			continue
		}

		tile.CurrentLoad += tile.Props.Mass

		below, ok := e.grid.Tile(pos.Below())
		if ok && below.IsStructural() {
			below.CurrentLoad += tile.CurrentLoad
			tile.IsSupported = true
		} else {
			tile.IsSupported = false
		}
	}
}

func (e *Engine) detectOverloads(affected []vec.Vec2) []Collapse {
	var collapses []Collapse
	for _, pos := range affected {
		tile, ok := e.grid.Tile(pos)
		if !ok || !tile.WillCollapse() {
			continue
		}
		collapses = append(collapses, Collapse{
			Position: pos,
			Material: tile.Material,
			Load:     tile.CurrentLoad,
			Capacity: tile.Props.SupportCapacity,
			Reason:   ReasonOverload,
		})
	}
	return collapses
}

// addSinkhole добавляет к обрушениям весь фундамент, кроме уже попавших в список
func (e *Engine) addSinkhole(collapses []Collapse) []Collapse {
	already := make(map[vec.Vec2]struct{}, len(collapses))
	for _, c := range collapses {
		already[c.Position] = struct{}{}
	}

	for _, pos := range e.monitor.foundationPositions() {
		if _, ok := already[pos]; ok {
			continue
		}
		tile, ok := e.grid.Tile(pos)
		if !ok {
			continue
		}
		collapses = append(collapses, Collapse{
			Position: pos,
			Material: tile.Material,
			Load:     tile.CurrentLoad,
			Capacity: tile.Props.SupportCapacity,
			Reason:   ReasonSinkhole,
		})
	}
	return collapses
}

func sortLeftToRight(positions []vec.Vec2) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].X != positions[j].X {
			return positions[i].X < positions[j].X
		}
		return positions[i].Y < positions[j].Y
	})
}
