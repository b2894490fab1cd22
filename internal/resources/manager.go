package resources

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/vertex/internal/logging"
	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/storage"
	"github.com/annel0/vertex/internal/world/material"
)

// Change изменение баланса ресурса
type Change struct {
	Material material.Material `json:"material"`
	Delta    int               `json:"delta"`
	Balance  int               `json:"balance"`
}

// ChangeObserver получает изменения баланса в порядке их применения
type ChangeObserver interface {
	OnResourceChanged(ctx context.Context, change Change)
}

// ChangeObserverFunc адаптер функции к ChangeObserver
type ChangeObserverFunc func(ctx context.Context, change Change)

func (f ChangeObserverFunc) OnResourceChanged(ctx context.Context, change Change) {
	f(ctx, change)
}

// Manager инвентарь ресурсов поверх хранилища балансов.
// Реализует physics.YieldObserver: каждое обрушение и копание начисляет одну единицу.
type Manager struct {
	repo   storage.LedgerRepo
	logger *logging.Logger

	mu        sync.RWMutex
	observers []ChangeObserver
}

var _ physics.YieldObserver = (*Manager)(nil)

// NewManager создаёт менеджер ресурсов
func NewManager(repo storage.LedgerRepo) *Manager {
	return &Manager{
		repo:   repo,
		logger: logging.GetComponentLogger("resources"),
	}
}

// Subscribe регистрирует наблюдателя изменений
func (m *Manager) Subscribe(o ChangeObserver) {
	m.mu.Lock()
	m.observers = append(m.observers, o)
	m.mu.Unlock()
}

func (m *Manager) notify(ctx context.Context, change Change) {
	m.mu.RLock()
	observers := m.observers
	m.mu.RUnlock()

	for _, o := range observers {
		o.OnResourceChanged(ctx, change)
	}
}

// Seed заполняет стартовый инвентарь, если хранилище пустое.
// Непустое хранилище (Redis/MariaDB после перезапуска) не трогается.
func (m *Manager) Seed(ctx context.Context, starting map[material.Material]int) error {
	current, err := m.repo.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("чтение инвентаря: %w", err)
	}
	if len(current) > 0 {
		m.logger.Info("📦 Инвентарь уже заполнен (%d материалов), стартовые ресурсы пропущены", len(current))
		return nil
	}

	for _, mat := range material.All() {
		amount := starting[mat]
		if amount <= 0 {
			continue
		}
		if err := m.Add(ctx, mat, amount); err != nil {
			return err
		}
	}
	return nil
}

// Count возвращает баланс материала
func (m *Manager) Count(ctx context.Context, mat material.Material) (int, error) {
	return m.repo.Balance(ctx, mat)
}

// Has проверяет наличие amount единиц
func (m *Manager) Has(ctx context.Context, mat material.Material, amount int) (bool, error) {
	n, err := m.repo.Balance(ctx, mat)
	if err != nil {
		return false, err
	}
	return n >= amount, nil
}

// Consume списывает ресурс. false, если ресурса недостаточно.
func (m *Manager) Consume(ctx context.Context, mat material.Material, amount int) (bool, error) {
	ok, err := m.repo.Consume(ctx, mat, amount)
	if err != nil || !ok {
		return ok, err
	}

	balance, err := m.repo.Balance(ctx, mat)
	if err != nil {
		return true, err
	}
	m.notify(ctx, Change{Material: mat, Delta: -amount, Balance: balance})
	return true, nil
}

// ConsumeAll списывает набор ресурсов целиком или ничего.
// При отказе на середине уже списанное возвращается.
func (m *Manager) ConsumeAll(ctx context.Context, costs map[material.Material]int) (bool, error) {
	taken := make(map[material.Material]int, len(costs))
	for _, mat := range material.All() {
		amount, ok := costs[mat]
		if !ok || amount <= 0 {
			continue
		}

		ok, err := m.Consume(ctx, mat, amount)
		if err == nil && ok {
			taken[mat] = amount
			continue
		}

		for back, n := range taken {
			if addErr := m.Add(ctx, back, n); addErr != nil {
				m.logger.Error("❌ Не удалось вернуть %d %s: %v", n, back, addErr)
			}
		}
		return false, err
	}
	return true, nil
}

// Add начисляет ресурс
func (m *Manager) Add(ctx context.Context, mat material.Material, amount int) error {
	balance, err := m.repo.Add(ctx, mat, amount)
	if err != nil {
		return err
	}
	m.notify(ctx, Change{Material: mat, Delta: amount, Balance: balance})
	return nil
}

// All копия всех ненулевых балансов
func (m *Manager) All(ctx context.Context) (map[material.Material]int, error) {
	return m.repo.Snapshot(ctx)
}

// AvailableConstructionMaterials строительные материалы, которых есть хотя бы одна единица
func (m *Manager) AvailableConstructionMaterials(ctx context.Context) ([]material.Material, error) {
	var available []material.Material
	for _, mat := range material.ConstructionMaterials {
		ok, err := m.Has(ctx, mat, 1)
		if err != nil {
			return nil, err
		}
		if ok {
			available = append(available, mat)
		}
	}
	return available, nil
}

// OnYield начисляет выпавший из мира ресурс
func (m *Manager) OnYield(ctx context.Context, y physics.Yield) error {
	if !y.Material.IsStructural() || y.Amount <= 0 {
		return nil
	}
	return m.Add(ctx, y.Material, y.Amount)
}
