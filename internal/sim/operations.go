package sim

import (
	"context"
	"fmt"
	"slices"

	"github.com/annel0/vertex/internal/construction"
	"github.com/annel0/vertex/internal/crafting"
	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world"
	"github.com/annel0/vertex/internal/world/material"
)

// ColumnCell состояние клетки столбца для раскраски по нагрузке
type ColumnCell struct {
	Y            int               `json:"y"`
	Material     material.Material `json:"material"`
	Load         float64           `json:"load"`
	Capacity     float64           `json:"capacity"`
	Status       world.LoadStatus  `json:"status"`
	IsFoundation bool              `json:"is_foundation"`
	IsSupported  bool              `json:"is_supported"`
}

func (s *Simulation) checkBounds(pos vec.Vec2) error {
	if !s.grid.IsValidPosition(pos) {
		return fmt.Errorf("%w: %s (ширина %d)", ErrOutOfBounds, pos, s.grid.Width())
	}
	return nil
}

// Place ставит материал, если клетка свободна и есть опора.
// false без ошибки означает, что установка невозможна.
func (s *Simulation) Place(ctx context.Context, pos vec.Vec2, m material.Material) (bool, error) {
	if err := s.checkBounds(pos); err != nil {
		return false, err
	}
	if !m.Valid() {
		return false, fmt.Errorf("%w: %d", ErrUnknownMaterial, uint8(m))
	}

	var placed bool
	var err error
	if execErr := s.exec(ctx, func(ctx context.Context) {
		placed, err = s.place(ctx, pos, m)
	}); execErr != nil {
		return false, execErr
	}
	return placed, err
}

func (s *Simulation) place(ctx context.Context, pos vec.Vec2, m material.Material) (bool, error) {
	if !s.grid.CanPlace(pos, m) {
		return false, nil
	}

	previous := material.Air
	if current, ok := s.grid.Tile(pos); ok {
		previous = current.Material
	}

	if err := s.grid.SetMaterial(pos, m); err != nil {
		return false, err
	}
	s.engine.MarkDirty(pos)

	s.notifyTileChange(ctx, world.TileChange{
		Kind:     world.ChangePlaced,
		Position: pos,
		Material: m,
		Previous: previous,
		Tick:     s.engine.CurrentTick(),
	})
	return true, nil
}

// Remove выкапывает несущую клетку: на её месте воздух, а получатели ресурсов
// получают ровно одну единицу материала. Воздух и пустые позиции не трогаются.
func (s *Simulation) Remove(ctx context.Context, pos vec.Vec2) (bool, error) {
	if err := s.checkBounds(pos); err != nil {
		return false, err
	}

	var removed bool
	var err error
	if execErr := s.exec(ctx, func(ctx context.Context) {
		removed, err = s.remove(ctx, pos)
	}); execErr != nil {
		return false, execErr
	}
	return removed, err
}

func (s *Simulation) remove(ctx context.Context, pos vec.Vec2) (bool, error) {
	tile, ok := s.grid.Tile(pos)
	if !ok || !tile.IsStructural() {
		return false, nil
	}
	previous := tile.Material

	if err := s.grid.SetMaterial(pos, material.Air); err != nil {
		return false, err
	}
	s.engine.MarkDirty(pos)

	s.engine.EmitYield(ctx, physics.Yield{
		Material: previous,
		Amount:   1,
		Position: pos,
		Reason:   physics.ReasonDig,
	})

	s.notifyTileChange(ctx, world.TileChange{
		Kind:     world.ChangeRemoved,
		Position: pos,
		Material: material.Air,
		Previous: previous,
		Tick:     s.engine.CurrentTick(),
	})
	return true, nil
}

// TileAt копия клетки. Отсутствие клетки или позиция за границей дают false.
func (s *Simulation) TileAt(ctx context.Context, pos vec.Vec2) (world.Tile, bool, error) {
	var tile world.Tile
	var found bool
	err := s.exec(ctx, func(context.Context) {
		if t, ok := s.grid.Tile(pos); ok {
			tile, found = *t, true
		}
	})
	return tile, found, err
}

// Stability состояние грунта по всей сетке
func (s *Simulation) Stability(ctx context.Context) (physics.GroundReport, error) {
	var report physics.GroundReport
	err := s.exec(ctx, func(context.Context) {
		report = s.engine.Monitor().Evaluate()
	})
	return report, err
}

// Column клетки столбца x снизу вверх со статусом нагрузки
func (s *Simulation) Column(ctx context.Context, x int) ([]ColumnCell, error) {
	if err := s.checkBounds(vec.Vec2{X: x}); err != nil {
		return nil, err
	}

	var cells []ColumnCell
	err := s.exec(ctx, func(context.Context) {
		column := s.grid.Column(x)
		cells = make([]ColumnCell, 0, len(column))
		for _, t := range column {
			cells = append(cells, ColumnCell{
				Y:            t.Position.Y,
				Material:     t.Material,
				Load:         t.CurrentLoad,
				Capacity:     t.Props.SupportCapacity,
				Status:       t.LoadStatus(),
				IsFoundation: t.IsFoundation,
				IsSupported:  t.IsSupported,
			})
		}
	})
	return cells, err
}

// Step продвигает время на один интервал тика вне таймера
func (s *Simulation) Step(ctx context.Context) (physics.TickReport, error) {
	var report physics.TickReport
	err := s.exec(ctx, func(ctx context.Context) {
		report = s.step(ctx)
	})
	return report, err
}

// LastReport отчёт последнего выполненного тика
func (s *Simulation) LastReport(ctx context.Context) (physics.TickReport, error) {
	var report physics.TickReport
	err := s.exec(ctx, func(context.Context) {
		report = s.last
	})
	return report, err
}

// QueueBuild ставит в очередь стройку. Проверяются опора и наличие материала;
// списание происходит при завершении задачи.
func (s *Simulation) QueueBuild(ctx context.Context, pos vec.Vec2, m material.Material) (construction.Task, error) {
	if err := s.checkBounds(pos); err != nil {
		return construction.Task{}, err
	}
	if !slices.Contains(material.ConstructionMaterials, m) {
		return construction.Task{}, fmt.Errorf("%w: %s не строительный материал", construction.ErrCannotBuild, m)
	}

	var task construction.Task
	var err error
	if execErr := s.exec(ctx, func(ctx context.Context) {
		if !s.grid.CanPlace(pos, m) {
			err = fmt.Errorf("%w: %s", construction.ErrCannotBuild, pos)
			return
		}
		var has bool
		if has, err = s.resources.Has(ctx, m, 1); err != nil {
			return
		}
		if !has {
			err = fmt.Errorf("%w: %s", construction.ErrNoResources, m)
			return
		}
		task, err = s.construction.Enqueue(construction.KindBuild, pos, m)
	}); execErr != nil {
		return construction.Task{}, execErr
	}
	return task, err
}

// QueueDig ставит в очередь копание несущей клетки
func (s *Simulation) QueueDig(ctx context.Context, pos vec.Vec2) (construction.Task, error) {
	if err := s.checkBounds(pos); err != nil {
		return construction.Task{}, err
	}

	var task construction.Task
	var err error
	if execErr := s.exec(ctx, func(context.Context) {
		tile, ok := s.grid.Tile(pos)
		if !ok || !tile.IsStructural() {
			err = fmt.Errorf("%w: %s", construction.ErrCannotDig, pos)
			return
		}
		task, err = s.construction.Enqueue(construction.KindDig, pos, tile.Material)
	}); execErr != nil {
		return construction.Task{}, execErr
	}
	return task, err
}

// applyTask применяет завершённую задачу. Мир мог измениться с момента постановки,
// поэтому условия проверяются заново.
func (s *Simulation) applyTask(ctx context.Context, task construction.Task) {
	switch task.Kind {
	case construction.KindBuild:
		if !s.grid.CanPlace(task.Position, task.Material) {
			s.logger.Warn("⚠️ Стройка #%d отменена: %s больше нельзя занять", task.ID, task.Position)
			return
		}
		ok, err := s.resources.Consume(ctx, task.Material, 1)
		if err != nil {
			s.logger.Error("❌ Стройка #%d: списание %s: %v", task.ID, task.Material, err)
			return
		}
		if !ok {
			s.logger.Warn("⚠️ Стройка #%d отменена: нет %s", task.ID, task.Material)
			return
		}
		if _, err := s.place(ctx, task.Position, task.Material); err != nil {
			s.logger.Error("❌ Стройка #%d: %v", task.ID, err)
			return
		}
		s.logger.Debug("🧱 Построено %s в %s", task.Material, task.Position)

	case construction.KindDig:
		removed, err := s.remove(ctx, task.Position)
		if err != nil {
			s.logger.Error("❌ Копание #%d: %v", task.ID, err)
			return
		}
		if !removed {
			s.logger.Warn("⚠️ Копание #%d: в %s уже пусто", task.ID, task.Position)
			return
		}
		s.logger.Debug("⛏️ Выкопано в %s", task.Position)
	}
}

// Tasks задачи очереди строительства
func (s *Simulation) Tasks(ctx context.Context) ([]construction.Task, error) {
	var tasks []construction.Task
	err := s.exec(ctx, func(context.Context) {
		tasks = s.construction.Tasks()
	})
	return tasks, err
}

// StartCrafting начинает крафт рецепта в свободной мастерской
func (s *Simulation) StartCrafting(ctx context.Context, recipe string) (crafting.Job, error) {
	var job crafting.Job
	var err error
	if execErr := s.exec(ctx, func(ctx context.Context) {
		job, err = s.crafting.Start(ctx, recipe)
	}); execErr != nil {
		return crafting.Job{}, execErr
	}
	return job, err
}

// Facilities мастерские и их текущие работы
func (s *Simulation) Facilities(ctx context.Context) ([]crafting.Facility, error) {
	var facilities []crafting.Facility
	err := s.exec(ctx, func(context.Context) {
		facilities = s.crafting.Facilities()
	})
	return facilities, err
}

// AvailableRecipes рецепты, которые можно начать сейчас
func (s *Simulation) AvailableRecipes(ctx context.Context) ([]string, error) {
	var ids []string
	var err error
	if execErr := s.exec(ctx, func(ctx context.Context) {
		ids, err = s.crafting.Available(ctx)
	}); execErr != nil {
		return nil, execErr
	}
	return ids, err
}

// Resources балансы инвентаря
func (s *Simulation) Resources(ctx context.Context) (map[material.Material]int, error) {
	var balances map[material.Material]int
	var err error
	if execErr := s.exec(ctx, func(ctx context.Context) {
		balances, err = s.resources.All(ctx)
	}); execErr != nil {
		return nil, execErr
	}
	return balances, err
}
