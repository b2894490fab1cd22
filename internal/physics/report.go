package physics

import (
	"context"
	"time"

	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

// ChangeReason описывает причину удаления клетки
type ChangeReason string

const (
	ReasonOverload ChangeReason = "overload" // Нагрузка превысила прочность
	ReasonSinkhole ChangeReason = "sinkhole" // Провал грунта
	ReasonDig      ChangeReason = "dig"      // Выкопано внешним исполнителем
)

// Yield одна единица ресурса, полученная при обрушении или копании
type Yield struct {
	Material material.Material `json:"material"`
	Amount   int               `json:"amount"`
	Position vec.Vec2          `json:"position"`
	Reason   ChangeReason      `json:"reason"`
}

// YieldObserver получает ресурсы, выпавшие из мира
type YieldObserver interface {
	OnYield(ctx context.Context, y Yield) error
}

// YieldObserverFunc адаптер функции к YieldObserver
type YieldObserverFunc func(ctx context.Context, y Yield) error

func (f YieldObserverFunc) OnYield(ctx context.Context, y Yield) error {
	return f(ctx, y)
}

// Collapse запись об обрушившейся клетке
type Collapse struct {
	Position vec.Vec2          `json:"position"`
	Material material.Material `json:"material"`
	Load     float64           `json:"load"`
	Capacity float64           `json:"capacity"`
	Reason   ChangeReason      `json:"reason"`
}

// TickReport итог одного тика движка
type TickReport struct {
	Tick      uint64        `json:"tick"`
	Dirty     []vec.Vec2    `json:"dirty,omitempty"`
	Affected  int           `json:"affected"`
	Collapses []Collapse    `json:"collapses,omitempty"`
	Ground    GroundReport  `json:"ground"`
	Yields    []Yield       `json:"yields,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Idle сообщает, что в тике не было грязных позиций
func (r TickReport) Idle() bool {
	return len(r.Dirty) == 0
}

// HasEvents сообщает, произошли ли в тике обрушения
func (r TickReport) HasEvents() bool {
	return len(r.Collapses) > 0
}

// CollapsesBy считает обрушения по причине
func (r TickReport) CollapsesBy(reason ChangeReason) int {
	n := 0
	for _, c := range r.Collapses {
		if c.Reason == reason {
			n++
		}
	}
	return n
}

// Recorder принимает отчёты о тиках (метрики)
type Recorder interface {
	ObserveTick(report TickReport)
}
