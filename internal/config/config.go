package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/vertex/internal/world/material"
)

// Config корневая структура конфигурации симуляции
type Config struct {
	World      WorldConfig                               `yaml:"world"`
	Physics    PhysicsConfig                             `yaml:"physics"`
	Materials  map[material.Material]material.Properties `yaml:"materials"`
	Simulation SimulationConfig                          `yaml:"simulation"`
	Resources  ResourcesConfig                           `yaml:"resources"`
	Crafting   CraftingConfig                            `yaml:"crafting"`
	Journal    JournalConfig                             `yaml:"journal"`
	EventBus   EventBusConfig                            `yaml:"eventbus"`
	Telemetry  TelemetryConfig                           `yaml:"telemetry"`
	Server     ServerConfig                              `yaml:"server"`
	Logging    LoggingConfig                             `yaml:"logging"`
}

// WorldConfig параметры генерации мира
type WorldConfig struct {
	Width         int     `yaml:"width"`
	SurfaceLevel  int     `yaml:"surface_level"`
	InitialHeight int     `yaml:"initial_height"`
	Seed          int64   `yaml:"seed"`
	NoiseScale    float64 `yaml:"noise_scale"`
}

type PhysicsConfig struct {
	SupportPerSurfaceTile float64 `yaml:"support_per_surface_tile"`
}

type SimulationConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	WorkTime     time.Duration `yaml:"work_time"`
	MaxTasks     int           `yaml:"max_tasks"`
	Workers      int           `yaml:"workers"`
}

// ResourcesConfig стартовый инвентарь и хранилище ресурсов
type ResourcesConfig struct {
	Starting map[material.Material]int `yaml:"starting"`
	Backend  string                    `yaml:"backend"` // memory | redis | maria
	Redis    RedisConfig               `yaml:"redis"`
	Maria    MariaConfig               `yaml:"maria"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

type MariaConfig struct {
	DSN string `yaml:"dsn"`
}

type CraftingConfig struct {
	BaseTime   time.Duration    `yaml:"base_time"`
	Facilities []FacilityConfig `yaml:"facilities"`
}

type FacilityConfig struct {
	Type       string  `yaml:"type"`
	Efficiency float64 `yaml:"efficiency"`
}

type JournalConfig struct {
	Backend    string `yaml:"backend"` // memory | badger
	Path       string `yaml:"path"`
	OnlyEvents *bool  `yaml:"only_events"`
}

// SkipIdle сообщает, нужно ли пропускать тики без обрушений
func (j JournalConfig) SkipIdle() bool {
	return j.OnlyEvents == nil || *j.OnlyEvents
}

type EventBusConfig struct {
	Backend   string `yaml:"backend"` // memory | jetstream
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	FileLogs bool   `yaml:"file_logs"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VERTEX_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults заполняет незаданные поля
func (c *Config) applyDefaults() {
	if c.World.Width == 0 {
		c.World.Width = 50
	}
	if c.World.SurfaceLevel == 0 {
		c.World.SurfaceLevel = 50
	}
	if c.World.InitialHeight == 0 {
		c.World.InitialHeight = 100
	}
	if c.World.Seed == 0 {
		c.World.Seed = 1337
	}
	if c.World.NoiseScale == 0 {
		c.World.NoiseScale = 0.1
	}

	if c.Physics.SupportPerSurfaceTile == 0 {
		c.Physics.SupportPerSurfaceTile = 1000
	}

	if c.Simulation.TickInterval == 0 {
		c.Simulation.TickInterval = 50 * time.Millisecond
	}
	if c.Simulation.WorkTime == 0 {
		c.Simulation.WorkTime = time.Second
	}
	if c.Simulation.MaxTasks == 0 {
		c.Simulation.MaxTasks = 64
	}
	if c.Simulation.Workers == 0 {
		c.Simulation.Workers = 4
	}

	if c.Resources.Starting == nil {
		c.Resources.Starting = map[material.Material]int{
			material.Wood:  50,
			material.Stone: 20,
			material.Coal:  10,
			material.Iron:  5,
		}
	}
	if c.Resources.Backend == "" {
		c.Resources.Backend = "memory"
	}
	if c.Resources.Redis.Addr == "" {
		c.Resources.Redis.Addr = "localhost:6379"
	}
	if c.Resources.Redis.Key == "" {
		c.Resources.Redis.Key = "vertex:resources"
	}

	if c.Crafting.BaseTime == 0 {
		c.Crafting.BaseTime = 2 * time.Second
	}
	if len(c.Crafting.Facilities) == 0 {
		c.Crafting.Facilities = []FacilityConfig{
			{Type: "furnace", Efficiency: 1},
			{Type: "workbench", Efficiency: 1},
		}
	}

	if c.Journal.Backend == "" {
		c.Journal.Backend = "memory"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "data/journal"
	}

	if c.EventBus.Backend == "" {
		c.EventBus.Backend = "memory"
	}
	if c.EventBus.URL == "" {
		c.EventBus.URL = "nats://127.0.0.1:4222"
	}
	if c.EventBus.Stream == "" {
		c.EventBus.Stream = "VERTEX"
	}
	if c.EventBus.Retention == 0 {
		c.EventBus.Retention = 24
	}
	if c.EventBus.Buffer == 0 {
		c.EventBus.Buffer = 1024
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "vertex-sim"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Catalog возвращает каталог материалов с учётом переопределений
func (c *Config) Catalog() (material.Catalog, error) {
	catalog := material.DefaultCatalog()
	for _, m := range material.All() {
		props, ok := c.Materials[m]
		if !ok {
			continue
		}
		var err error
		if catalog, err = catalog.With(m, props); err != nil {
			return catalog, fmt.Errorf("materials.%s: %w", m, err)
		}
	}
	return catalog, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.World.Width <= 0 {
		return fmt.Errorf("world.width должен быть > 0, получено %d", c.World.Width)
	}
	if c.World.InitialHeight < 0 {
		return fmt.Errorf("world.initial_height не может быть отрицательным: %d", c.World.InitialHeight)
	}
	if c.Physics.SupportPerSurfaceTile < 0 {
		return fmt.Errorf("physics.support_per_surface_tile не может быть отрицательным: %g", c.Physics.SupportPerSurfaceTile)
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	for m, amount := range c.Resources.Starting {
		if amount < 0 {
			return fmt.Errorf("resources.starting.%s не может быть отрицательным: %d", m, amount)
		}
	}

	switch c.Resources.Backend {
	case "memory", "redis", "maria":
	default:
		return fmt.Errorf("неизвестный resources.backend %q", c.Resources.Backend)
	}
	if c.Resources.Backend == "maria" && c.Resources.Maria.DSN == "" {
		return fmt.Errorf("resources.maria.dsn обязателен для backend maria")
	}

	switch c.Journal.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("неизвестный journal.backend %q", c.Journal.Backend)
	}

	switch c.EventBus.Backend {
	case "memory", "jetstream":
	default:
		return fmt.Errorf("неизвестный eventbus.backend %q", c.EventBus.Backend)
	}

	for i, f := range c.Crafting.Facilities {
		switch strings.ToLower(f.Type) {
		case "furnace", "workbench":
		default:
			return fmt.Errorf("crafting.facilities[%d]: неизвестный тип %q", i, f.Type)
		}
	}
	return nil
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VERTEX_CONFIG, иначе возвращает значения по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VERTEX_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	return Parse(data)
}

// Parse разбирает YAML, заполняет значения по умолчанию и проверяет результат
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
