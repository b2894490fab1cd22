package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/vertex/internal/world/material"
)

// ErrInvalidAmount возвращается при неположительном количестве ресурса
var ErrInvalidAmount = errors.New("количество ресурса должно быть > 0")

// LedgerRepo хранит баланс ресурсов по материалам.
// Сам мир не сохраняется: хранилище содержит только инвентарь.
type LedgerRepo interface {
	// Balance возвращает текущий баланс материала (0, если записи нет).
	Balance(ctx context.Context, m material.Material) (int, error)

	// Add начисляет amount единиц и возвращает новый баланс.
	Add(ctx context.Context, m material.Material, amount int) (int, error)

	// Consume атомарно списывает amount единиц.
	// Возвращает false без изменений, если ресурса недостаточно.
	Consume(ctx context.Context, m material.Material, amount int) (bool, error)

	// Snapshot возвращает все ненулевые балансы.
	Snapshot(ctx context.Context) (map[material.Material]int, error)

	// Close освобождает соединения.
	Close() error
}

func validateAmount(m material.Material, amount int) error {
	if !m.Valid() {
		return fmt.Errorf("неизвестный материал %d", uint8(m))
	}
	if amount <= 0 {
		return fmt.Errorf("%w: %s %d", ErrInvalidAmount, m, amount)
	}
	return nil
}
