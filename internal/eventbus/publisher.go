package eventbus

import (
	"context"
	"strconv"

	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/world"
)

// Publisher превращает отчёты тиков и ручные изменения клеток в события шины
type Publisher struct {
	bus    EventBus
	source string
}

// NewPublisher создаёт издателя с именем источника source
func NewPublisher(bus EventBus, source string) *Publisher {
	if source == "" {
		source = "vertex-sim"
	}
	return &Publisher{bus: bus, source: source}
}

// HandleTick публикует tile.collapsed для каждого обрушения в порядке отчёта,
// затем ground.sinkhole, если в тике провалился грунт.
func (p *Publisher) HandleTick(ctx context.Context, report physics.TickReport) error {
	for _, c := range report.Collapses {
		payload := CollapsePayload{
			Tick:     report.Tick,
			X:        c.Position.X,
			Y:        c.Position.Y,
			Material: c.Material.String(),
			Load:     c.Load,
			Capacity: c.Capacity,
			Reason:   string(c.Reason),
		}
		if err := p.publish(ctx, TypeTileCollapsed, report.Tick, PriorityNormal, payload); err != nil {
			return err
		}
	}

	if report.Ground.Sinkhole {
		payload := SinkholePayload{
			Tick:            report.Tick,
			FoundationCount: report.Ground.FoundationCount,
			TotalLoad:       report.Ground.TotalLoad,
			MaxSupport:      report.Ground.MaxSupport,
			Collapsed:       report.CollapsesBy(physics.ReasonSinkhole),
		}
		return p.publish(ctx, TypeGroundSinkhole, report.Tick, PriorityCritical, payload)
	}
	return nil
}

// HandleTileChange публикует tile.placed или tile.removed
func (p *Publisher) HandleTileChange(ctx context.Context, change world.TileChange) error {
	eventType := TypeTilePlaced
	if change.Kind == world.ChangeRemoved {
		eventType = TypeTileRemoved
	}

	payload := TilePayload{
		Tick:     change.Tick,
		X:        change.Position.X,
		Y:        change.Position.Y,
		Material: change.Material.String(),
	}
	if change.Kind == world.ChangeRemoved {
		payload.Previous = change.Previous.String()
	}
	return p.publish(ctx, eventType, change.Tick, PriorityNormal, payload)
}

func (p *Publisher) publish(ctx context.Context, eventType string, tick uint64, priority int, payload interface{}) error {
	ev, err := NewEnvelope(p.source, eventType, payload)
	if err != nil {
		return err
	}
	ev.Priority = priority
	ev.CorrelationID = "tick-" + strconv.FormatUint(tick, 10)
	return p.bus.Publish(ctx, ev)
}
