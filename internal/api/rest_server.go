package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/vertex/internal/construction"
	"github.com/annel0/vertex/internal/crafting"
	"github.com/annel0/vertex/internal/journal"
	"github.com/annel0/vertex/internal/logging"
	"github.com/annel0/vertex/internal/middleware"
	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/sim"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world"
	"github.com/annel0/vertex/internal/world/material"
)

// WorldService операции симуляции, доступные через REST.
// Реализуется *sim.Simulation.
type WorldService interface {
	Place(ctx context.Context, pos vec.Vec2, m material.Material) (bool, error)
	Remove(ctx context.Context, pos vec.Vec2) (bool, error)
	TileAt(ctx context.Context, pos vec.Vec2) (world.Tile, bool, error)
	Column(ctx context.Context, x int) ([]sim.ColumnCell, error)
	Stability(ctx context.Context) (physics.GroundReport, error)
	LastReport(ctx context.Context) (physics.TickReport, error)
	Resources(ctx context.Context) (map[material.Material]int, error)
	QueueBuild(ctx context.Context, pos vec.Vec2, m material.Material) (construction.Task, error)
	QueueDig(ctx context.Context, pos vec.Vec2) (construction.Task, error)
	Tasks(ctx context.Context) ([]construction.Task, error)
	StartCrafting(ctx context.Context, recipe string) (crafting.Job, error)
	Facilities(ctx context.Context) ([]crafting.Facility, error)
	AvailableRecipes(ctx context.Context) ([]string, error)
}

var _ WorldService = (*sim.Simulation)(nil)

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	world   WorldService
	journal journal.Journal
	port    int
	metrics *ServerMetrics
	logger  *logging.Logger
	httpSrv *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     int             // порт для запуска сервера
	World    WorldService    // симуляция
	Journal  journal.Journal // журнал тиков; nil отключает /api/journal
	Registry *prometheus.Registry
	Logger   *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.World == nil {
		return nil, errors.New("api: не задана симуляция")
	}
	if config.Port == 0 {
		config.Port = 8088
	}
	if config.Logger == nil {
		config.Logger = logging.GetAPILogger()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("vertex_api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	var reg prometheus.Registerer
	var gatherer prometheus.Gatherer
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("vertex_api", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	server := &RestServer{
		router:  router,
		world:   config.World,
		journal: config.Journal,
		port:    config.Port,
		metrics: NewServerMetrics(),
		logger:  config.Logger,
	}

	server.setupRoutes()
	server.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/tiles/:x/:y", rs.handleGetTile)
		api.POST("/tiles", rs.handlePlaceTile)
		api.DELETE("/tiles/:x/:y", rs.handleRemoveTile)
		api.GET("/columns/:x", rs.handleGetColumn)
		api.GET("/stability", rs.handleStability)
		api.GET("/ticks/last", rs.handleLastTick)

		api.GET("/resources", rs.handleResources)

		api.GET("/tasks", rs.handleGetTasks)
		api.POST("/tasks", rs.handleCreateTask)

		api.GET("/crafting", rs.handleGetCrafting)
		api.POST("/crafting/:recipe", rs.handleStartCrafting)

		api.GET("/journal", rs.handleJournal)
		api.GET("/server", rs.handleServerInfo)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleServerInfo возвращает информацию о процессе
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data: gin.H{
			"name":    "Vertex Structural Simulation",
			"status":  "running",
			"process": rs.metrics.Snapshot(),
		},
	})
}

// Start запускает REST сервер. Блокирует до Stop.
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает :%d", rs.port)

	if err := rs.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpSrv.Shutdown(ctx)
}
