package crafting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/annel0/vertex/internal/logging"
	"github.com/annel0/vertex/internal/world/material"
)

var (
	ErrUnknownRecipe         = errors.New("неизвестный рецепт")
	ErrNoFacility            = errors.New("нет свободной мастерской")
	ErrInsufficientResources = errors.New("недостаточно ресурсов")
)

// MinEfficiency нижняя граница эффективности мастерской
const MinEfficiency = 0.1

// Inventory источник ингредиентов и приёмник продукции
type Inventory interface {
	Has(ctx context.Context, m material.Material, amount int) (bool, error)
	ConsumeAll(ctx context.Context, costs map[material.Material]int) (bool, error)
	Add(ctx context.Context, m material.Material, amount int) error
}

// Facility мастерская; одновременно выполняет одну работу
type Facility struct {
	ID         int          `json:"id"`
	Type       FacilityType `json:"type"`
	Efficiency float64      `json:"efficiency"`
	Job        *Job         `json:"job,omitempty"`
}

// Busy занята ли мастерская
func (f *Facility) Busy() bool {
	return f.Job != nil
}

// Job работа мастерской
type Job struct {
	Recipe     string        `json:"recipe"`
	FacilityID int           `json:"facility_id"`
	Duration   time.Duration `json:"duration"`
	Remaining  time.Duration `json:"remaining"`
}

// Completion завершённая работа
type Completion struct {
	Job     Job                       `json:"job"`
	Outputs map[material.Material]int `json:"outputs"`
}

// System крафт: рецепты, мастерские и таймеры, продвигаемые через Advance
type System struct {
	inventory  Inventory
	recipes    map[string]Recipe
	facilities []*Facility
	logger     *logging.Logger
}

// NewSystem создаёт систему крафта
func NewSystem(inventory Inventory, recipes map[string]Recipe) *System {
	return &System{
		inventory: inventory,
		recipes:   recipes,
		logger:    logging.GetComponentLogger("crafting"),
	}
}

// RegisterFacility добавляет мастерскую. Эффективность не ниже MinEfficiency.
func (s *System) RegisterFacility(t FacilityType, efficiency float64) *Facility {
	f := &Facility{
		ID:         len(s.facilities) + 1,
		Type:       t,
		Efficiency: max(MinEfficiency, efficiency),
	}
	s.facilities = append(s.facilities, f)
	s.logger.Info("🔨 Мастерская %s #%d зарегистрирована (эффективность %.2f)", t, f.ID, f.Efficiency)
	return f
}

// Recipe возвращает рецепт по идентификатору
func (s *System) Recipe(id string) (Recipe, bool) {
	r, ok := s.recipes[id]
	return r, ok
}

// Facilities копия состояния мастерских
func (s *System) Facilities() []Facility {
	out := make([]Facility, len(s.facilities))
	for i, f := range s.facilities {
		out[i] = *f
		if f.Job != nil {
			job := *f.Job
			out[i].Job = &job
		}
	}
	return out
}

func (s *System) freeFacility(t FacilityType) *Facility {
	for _, f := range s.facilities {
		if f.Type == t && !f.Busy() {
			return f
		}
	}
	return nil
}

func (s *System) check(ctx context.Context, id string) (Recipe, *Facility, error) {
	recipe, ok := s.recipes[id]
	if !ok {
		return Recipe{}, nil, fmt.Errorf("%w: %s", ErrUnknownRecipe, id)
	}

	facility := s.freeFacility(recipe.Facility)
	if facility == nil {
		return recipe, nil, fmt.Errorf("%w: %s для %s", ErrNoFacility, recipe.Facility, id)
	}

	for m, amount := range recipe.Ingredients {
		has, err := s.inventory.Has(ctx, m, amount)
		if err != nil {
			return recipe, nil, err
		}
		if !has {
			return recipe, nil, fmt.Errorf("%w: нужно %d %s", ErrInsufficientResources, amount, m)
		}
	}
	return recipe, facility, nil
}

// CanCraft проверяет рецепт, свободную мастерскую и ингредиенты
func (s *System) CanCraft(ctx context.Context, id string) (bool, error) {
	_, _, err := s.check(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUnknownRecipe), errors.Is(err, ErrNoFacility), errors.Is(err, ErrInsufficientResources):
		return false, nil
	default:
		return false, err
	}
}

// Start списывает ингредиенты и занимает мастерскую
func (s *System) Start(ctx context.Context, id string) (Job, error) {
	recipe, facility, err := s.check(ctx, id)
	if err != nil {
		return Job{}, err
	}

	ok, err := s.inventory.ConsumeAll(ctx, recipe.Ingredients)
	if err != nil {
		return Job{}, err
	}
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrInsufficientResources, id)
	}

	duration := time.Duration(float64(recipe.Duration) / facility.Efficiency)
	facility.Job = &Job{
		Recipe:     recipe.ID,
		FacilityID: facility.ID,
		Duration:   duration,
		Remaining:  duration,
	}
	s.logger.Info("🔥 Крафт %s начат в %s #%d (%v)", recipe.Name, facility.Type, facility.ID, duration)
	return *facility.Job, nil
}

// Advance продвигает работы на dt; завершённые начисляют продукцию
func (s *System) Advance(ctx context.Context, dt time.Duration) ([]Completion, error) {
	if dt <= 0 {
		return nil, nil
	}

	var completions []Completion
	for _, f := range s.facilities {
		if f.Job == nil {
			continue
		}
		f.Job.Remaining -= dt
		if f.Job.Remaining > 0 {
			continue
		}

		job := *f.Job
		job.Remaining = 0
		f.Job = nil

		recipe := s.recipes[job.Recipe]
		for _, m := range material.All() {
			if n := recipe.Outputs[m]; n > 0 {
				if err := s.inventory.Add(ctx, m, n); err != nil {
					return completions, fmt.Errorf("начисление продукции %s: %w", job.Recipe, err)
				}
			}
		}
		s.logger.Info("✅ Крафт завершён: %s", recipe.Name)
		completions = append(completions, Completion{Job: job, Outputs: recipe.Outputs})
	}
	return completions, nil
}

// Available рецепты, которые можно начать прямо сейчас, по алфавиту
func (s *System) Available(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.recipes))
	for id := range s.recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var available []string
	for _, id := range ids {
		ok, err := s.CanCraft(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			available = append(available, id)
		}
	}
	return available, nil
}
