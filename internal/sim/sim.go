package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/vertex/internal/config"
	"github.com/annel0/vertex/internal/construction"
	"github.com/annel0/vertex/internal/crafting"
	"github.com/annel0/vertex/internal/logging"
	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/resources"
	"github.com/annel0/vertex/internal/storage"
	"github.com/annel0/vertex/internal/world"
)

var (
	// ErrOutOfBounds установка или удаление за пределами [0, ширина мира)
	ErrOutOfBounds = world.ErrOutOfBounds
	// ErrStopped команда после остановки цикла
	ErrStopped = errors.New("симуляция остановлена")
	// ErrAlreadyRunning повторный запуск Run
	ErrAlreadyRunning = errors.New("симуляция уже запущена")
	// ErrUnknownMaterial материал вне каталога
	ErrUnknownMaterial = errors.New("неизвестный материал")
)

// ReportSink получает отчёт каждого тика (журнал, события, метрики)
type ReportSink interface {
	HandleTick(ctx context.Context, report physics.TickReport) error
}

// TileSink получает ручные изменения клеток
type TileSink interface {
	HandleTileChange(ctx context.Context, change world.TileChange) error
}

// Deps компоненты, которыми владеет симуляция.
// Engine обязателен; остальное создаётся по умолчанию из SimulationConfig.
type Deps struct {
	Engine       *physics.Engine
	Resources    *resources.Manager
	Construction *construction.Queue
	Crafting     *crafting.System
	ReportSinks  []ReportSink
	TileSinks    []TileSink
	Logger       *logging.Logger
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

type command struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan struct{}
}

// Simulation единственный владелец сетки и движка.
// До Run операции выполняются сразу в вызывающей горутине под мьютексом;
// во время Run каждая операция передаётся в цикл через канал команд.
type Simulation struct {
	engine       *physics.Engine
	grid         *world.Grid
	resources    *resources.Manager
	construction *construction.Queue
	crafting     *crafting.System
	reportSinks  []ReportSink
	tileSinks    []TileSink
	logger       *logging.Logger

	tickInterval time.Duration
	last         physics.TickReport

	mu       sync.Mutex
	state    state
	commands chan command
	done     chan struct{}
}

// New собирает симуляцию и связывает компоненты: ресурсы подписываются
// на выход движка. Цикл не запускается до Run.
func New(cfg config.SimulationConfig, deps Deps) (*Simulation, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("sim: не задан движок нагрузок")
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}

	s := &Simulation{
		engine:       deps.Engine,
		grid:         deps.Engine.Grid(),
		resources:    deps.Resources,
		construction: deps.Construction,
		crafting:     deps.Crafting,
		reportSinks:  deps.ReportSinks,
		tileSinks:    deps.TileSinks,
		logger:       deps.Logger,
		tickInterval: tickInterval,
		commands:     make(chan command),
		done:         make(chan struct{}),
	}

	if s.logger == nil {
		s.logger = logging.GetSimLogger()
	}
	if s.resources == nil {
		s.resources = resources.NewManager(storage.NewMemoryLedgerRepo())
	}
	if s.construction == nil {
		s.construction = construction.NewQueue(cfg.MaxTasks, cfg.Workers, cfg.WorkTime)
	}
	if s.crafting == nil {
		s.crafting = crafting.NewSystem(s.resources, nil)
	}

	s.engine.Subscribe(s.resources)
	return s, nil
}

// AddReportSink подключает приёмник отчётов. Только до Run.
func (s *Simulation) AddReportSink(sink ReportSink) {
	s.mu.Lock()
	s.reportSinks = append(s.reportSinks, sink)
	s.mu.Unlock()
}

// AddTileSink подключает приёмник изменений клеток. Только до Run.
func (s *Simulation) AddTileSink(sink TileSink) {
	s.mu.Lock()
	s.tileSinks = append(s.tileSinks, sink)
	s.mu.Unlock()
}

// TickInterval шаг времени одного тика
func (s *Simulation) TickInterval() time.Duration {
	return s.tickInterval
}

// Run владеет состоянием до отмены ctx: выполняет тики по таймеру и команды.
func (s *Simulation) Run(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case stateRunning:
		s.mu.Unlock()
		return ErrAlreadyRunning
	case stateStopped:
		s.mu.Unlock()
		return ErrStopped
	}
	s.state = stateRunning
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = stateStopped
		s.mu.Unlock()
		close(s.done)
	}()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.logger.Info("▶️ Симуляция запущена: тик %v, ширина мира %d", s.tickInterval, s.grid.Width())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("⏹️ Симуляция остановлена на тике %d", s.engine.CurrentTick())
			return nil
		case <-ticker.C:
			s.step(ctx)
		case cmd := <-s.commands:
			cmd.fn(cmd.ctx)
			close(cmd.done)
		}
	}
}

// Done закрывается после завершения Run
func (s *Simulation) Done() <-chan struct{} {
	return s.done
}

// exec выполняет fn как владелец состояния
func (s *Simulation) exec(ctx context.Context, fn func(ctx context.Context)) error {
	s.mu.Lock()
	switch s.state {
	case stateIdle:
		defer s.mu.Unlock()
		fn(ctx)
		return nil
	case stateStopped:
		s.mu.Unlock()
		return ErrStopped
	}
	s.mu.Unlock()

	cmd := command{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// Принятая команда выполняется всегда, отмена ctx здесь уже не учитывается
	<-cmd.done
	return nil
}

// step продвигает время на один тик: стройка, крафт, затем движок нагрузок
func (s *Simulation) step(ctx context.Context) physics.TickReport {
	dt := s.tickInterval

	for _, task := range s.construction.Advance(dt) {
		s.applyTask(ctx, task)
	}

	if _, err := s.crafting.Advance(ctx, dt); err != nil {
		s.logger.Error("❌ Ошибка крафта: %v", err)
	}

	report := s.engine.Tick(ctx)
	s.last = report

	for _, sink := range s.reportSinks {
		if err := sink.HandleTick(ctx, report); err != nil {
			s.logger.Error("❌ Приёмник отчёта тика %d: %v", report.Tick, err)
		}
	}
	return report
}

func (s *Simulation) notifyTileChange(ctx context.Context, change world.TileChange) {
	for _, sink := range s.tileSinks {
		if err := sink.HandleTileChange(ctx, change); err != nil {
			s.logger.Error("❌ Приёмник изменения %s %s: %v", change.Kind, change.Position, err)
		}
	}
}
