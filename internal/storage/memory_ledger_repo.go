package storage

import (
	"context"
	"sync"

	"github.com/annel0/vertex/internal/world/material"
)

// MemoryLedgerRepo реализует LedgerRepo в памяти. Используется по умолчанию и в тестах.
type MemoryLedgerRepo struct {
	mu       sync.RWMutex
	balances map[material.Material]int
}

// NewMemoryLedgerRepo создает пустой репозиторий ресурсов в памяти
func NewMemoryLedgerRepo() *MemoryLedgerRepo {
	return &MemoryLedgerRepo{
		balances: make(map[material.Material]int),
	}
}

func (r *MemoryLedgerRepo) Balance(_ context.Context, m material.Material) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[m], nil
}

func (r *MemoryLedgerRepo) Add(_ context.Context, m material.Material, amount int) (int, error) {
	if err := validateAmount(m, amount); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[m] += amount
	return r.balances[m], nil
}

func (r *MemoryLedgerRepo) Consume(_ context.Context, m material.Material, amount int) (bool, error) {
	if err := validateAmount(m, amount); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balances[m] < amount {
		return false, nil
	}
	r.balances[m] -= amount
	return true, nil
}

func (r *MemoryLedgerRepo) Snapshot(_ context.Context) (map[material.Material]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[material.Material]int, len(r.balances))
	for m, n := range r.balances {
		if n != 0 {
			out[m] = n
		}
	}
	return out, nil
}

func (r *MemoryLedgerRepo) Close() error {
	return nil
}
