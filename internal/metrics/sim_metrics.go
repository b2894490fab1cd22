package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/resources"
	"github.com/annel0/vertex/internal/world"
)

// Namespace префикс метрик симуляции
const Namespace = "vertex"

// SimMetrics Prometheus-метрики симуляции.
// Подключается к движку как physics.Recorder, к симуляции как приёмник изменений клеток
// и к инвентарю как наблюдатель балансов.
//
// Метрики:
// * vertex_ticks_total{kind}: тики (idle/active)
// * vertex_tick_duration_seconds: histogram активных тиков
// * vertex_collapses_total{reason}: обрушения
// * vertex_sinkholes_total: провалы грунта
// * vertex_tick_affected_tiles: размер затронутой области последнего активного тика
// * vertex_ground_load / vertex_ground_support / vertex_ground_stability_percent
// * vertex_tile_changes_total{kind}: ручные установки и удаления
// * vertex_resource_balance{material}: баланс инвентаря
type SimMetrics struct {
	ticks        *prometheus.CounterVec
	tickDuration prometheus.Histogram
	collapses    *prometheus.CounterVec
	sinkholes    prometheus.Counter
	affected     prometheus.Gauge
	groundLoad   prometheus.Gauge
	groundMax    prometheus.Gauge
	stability    prometheus.Gauge
	tileChanges  *prometheus.CounterVec
	balances     *prometheus.GaugeVec
}

var (
	_ physics.Recorder         = (*SimMetrics)(nil)
	_ resources.ChangeObserver = (*SimMetrics)(nil)
)

// NewSimMetrics создаёт метрики и регистрирует их в reg (nil: глобальный регистр)
func NewSimMetrics(reg prometheus.Registerer) *SimMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &SimMetrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ticks_total",
			Help:      "Выполненные тики движка нагрузок.",
		}, []string{"kind"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "tick_duration_seconds",
			Help:      "Длительность тиков с грязными позициями.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		collapses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "collapses_total",
			Help:      "Обрушившиеся клетки по причине.",
		}, []string{"reason"}),
		sinkholes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sinkholes_total",
			Help:      "Провалы грунта.",
		}),
		affected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "tick_affected_tiles",
			Help:      "Клеток в затронутой области последнего активного тика.",
		}),
		groundLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "ground_load",
			Help:      "Суммарная нагрузка на фундамент.",
		}),
		groundMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "ground_support",
			Help:      "Предельная прочность грунта.",
		}),
		stability: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "ground_stability_percent",
			Help:      "Устойчивость грунта в процентах.",
		}),
		tileChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tile_changes_total",
			Help:      "Ручные изменения клеток.",
		}, []string{"kind"}),
		balances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "resource_balance",
			Help:      "Баланс ресурса в инвентаре.",
		}, []string{"material"}),
	}

	reg.MustRegister(
		m.ticks, m.tickDuration, m.collapses, m.sinkholes, m.affected,
		m.groundLoad, m.groundMax, m.stability, m.tileChanges, m.balances,
	)
	return m
}

// ObserveTick учитывает отчёт тика. Пустые тики только считаются.
func (m *SimMetrics) ObserveTick(report physics.TickReport) {
	if report.Idle() {
		m.ticks.WithLabelValues("idle").Inc()
		return
	}
	m.ticks.WithLabelValues("active").Inc()
	m.tickDuration.Observe(report.Duration.Seconds())
	m.affected.Set(float64(report.Affected))

	for _, c := range report.Collapses {
		m.collapses.WithLabelValues(string(c.Reason)).Inc()
	}
	if report.Ground.Sinkhole {
		m.sinkholes.Inc()
	}

	m.groundLoad.Set(report.Ground.TotalLoad)
	m.groundMax.Set(report.Ground.MaxSupport)
	m.stability.Set(report.Ground.StabilityPercent())
}

// HandleTileChange считает ручные установки и удаления
func (m *SimMetrics) HandleTileChange(_ context.Context, change world.TileChange) error {
	m.tileChanges.WithLabelValues(change.Kind.String()).Inc()
	return nil
}

// OnResourceChanged обновляет баланс материала
func (m *SimMetrics) OnResourceChanged(_ context.Context, change resources.Change) {
	m.balances.WithLabelValues(change.Material.String()).Set(float64(change.Balance))
}
