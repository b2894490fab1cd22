package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/vertex/internal/api"
	"github.com/annel0/vertex/internal/config"
	"github.com/annel0/vertex/internal/construction"
	"github.com/annel0/vertex/internal/crafting"
	"github.com/annel0/vertex/internal/eventbus"
	"github.com/annel0/vertex/internal/journal"
	"github.com/annel0/vertex/internal/logging"
	"github.com/annel0/vertex/internal/metrics"
	"github.com/annel0/vertex/internal/observability"
	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/resources"
	"github.com/annel0/vertex/internal/sim"
	"github.com/annel0/vertex/internal/world"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (по умолчанию $VERTEX_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	logging.GetLoggerManager().EnableFileLogs(cfg.Logging.FileLogs)
	if cfg.Logging.FileLogs {
		if err := logging.InitDefaultLogger("server"); err != nil {
			log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
		}
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()
	level := logging.ParseLevel(cfg.Logging.Level)
	logging.SetDefaultLevels(level, logging.TRACE)

	logging.Info("🏗️ Запуск Vertex: симуляция нагрузок на сетке %d клеток", cfg.World.Width)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, level); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(ctx context.Context, cfg *config.Config, level logging.LogLevel) error {
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Error("❌ Ошибка остановки OpenTelemetry: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	simMetrics := metrics.NewSimMetrics(registry)

	// === МИР ===
	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}
	generator := world.NewGenerator(cfg.World.Seed, cfg.World.NoiseScale)
	grid, err := generator.Generate(world.Params{
		Width:         cfg.World.Width,
		SurfaceLevel:  cfg.World.SurfaceLevel,
		InitialHeight: cfg.World.InitialHeight,
	}, catalog)
	if err != nil {
		return err
	}
	logging.Info("🌍 Мир сгенерирован: %d клеток, сид %d", grid.Len(), cfg.World.Seed)

	// === ЖУРНАЛ ===
	tickJournal, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer tickJournal.Close()

	lastTick, err := tickJournal.LastTick(ctx)
	if err != nil {
		return err
	}
	if lastTick > 0 {
		logging.Info("📓 Журнал продолжается с тика %d", lastTick)
	}

	physicsLogger := logging.GetPhysicsLogger()
	physicsLogger.SetLevels(level, logging.TRACE)
	engine := physics.NewEngine(grid,
		physics.WithSupportPerSurfaceTile(cfg.Physics.SupportPerSurfaceTile),
		physics.WithStartTick(lastTick),
		physics.WithRecorder(simMetrics),
		physics.WithLogger(physicsLogger),
	)

	// === РЕСУРСЫ ===
	repo, err := openLedger(ctx, cfg.Resources)
	if err != nil {
		return err
	}
	defer repo.Close()

	inventory := resources.NewManager(repo)
	inventory.Subscribe(simMetrics)
	if err := inventory.Seed(ctx, cfg.Resources.Starting); err != nil {
		return err
	}

	// === СТРОИТЕЛЬСТВО И КРАФТ ===
	queue := construction.NewQueue(cfg.Simulation.MaxTasks, cfg.Simulation.Workers, cfg.Simulation.WorkTime)
	crafter := crafting.NewSystem(inventory, crafting.DefaultRecipes(cfg.Crafting.BaseTime))
	for _, f := range cfg.Crafting.Facilities {
		facilityType, err := crafting.ParseFacilityType(f.Type)
		if err != nil {
			return err
		}
		crafter.RegisterFacility(facilityType, f.Efficiency)
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := openEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(ctx, bus, logging.GetComponentLogger("events")); err != nil {
		return err
	}
	busMetrics := eventbus.NewMetricsExporter(bus, registry)
	busMetrics.Start(5 * time.Second)
	defer busMetrics.Stop()
	publisher := eventbus.NewPublisher(bus, cfg.Telemetry.ServiceName)

	// === СИМУЛЯЦИЯ ===
	simulation, err := sim.New(cfg.Simulation, sim.Deps{
		Engine:       engine,
		Resources:    inventory,
		Construction: queue,
		Crafting:     crafter,
		ReportSinks:  []sim.ReportSink{journal.NewSink(tickJournal, cfg.Journal.SkipIdle()), publisher},
		TileSinks:    []sim.TileSink{simMetrics, publisher},
	})
	if err != nil {
		return err
	}

	// === REST API ===
	if level > logging.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}
	restServer, err := api.NewRestServer(api.Config{
		Port:     cfg.Server.GetRESTPort(),
		World:    simulation,
		Journal:  tickJournal,
		Registry: registry,
	})
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- restServer.Start()
	}()

	simCtx, stopSim := context.WithCancel(ctx)
	defer stopSim()
	simErr := make(chan error, 1)
	go func() {
		simErr <- simulation.Run(simCtx)
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   ⏱️ Тик: %s, исполнителей: %d", simulation.TickInterval(), cfg.Simulation.Workers)
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, останавливаем сервисы...")
	case err := <-serverErr:
		if err != nil {
			runErr = err
		}
	case err := <-simErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}

	stopSim()
	select {
	case <-simulation.Done():
	case <-shutdownCtx.Done():
		logging.Warn("⚠️ Симуляция не остановилась за отведённое время")
	}

	return runErr
}
