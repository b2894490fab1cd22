package world

import (
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

// ChangeKind определяет тип ручного изменения клетки
type ChangeKind uint8

const (
	ChangePlaced  ChangeKind = iota // Установка материала
	ChangeRemoved                   // Удаление (копание)
)

func (k ChangeKind) String() string {
	switch k {
	case ChangePlaced:
		return "placed"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// TileChange событие ручного изменения клетки.
// Обрушения сюда не попадают: они описываются отчётом тика движка.
type TileChange struct {
	Kind     ChangeKind
	Position vec.Vec2
	Material material.Material // Материал после изменения (Air при удалении)
	Previous material.Material // Материал до изменения
	Tick     uint64            // Последний завершённый тик движка на момент изменения
}
