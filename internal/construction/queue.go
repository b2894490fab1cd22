package construction

import (
	"errors"
	"fmt"
	"time"

	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

var (
	ErrQueueFull   = errors.New("очередь строительства заполнена")
	ErrCannotBuild = errors.New("здесь нельзя строить")
	ErrCannotDig   = errors.New("здесь нечего копать")
	ErrNoResources = errors.New("недостаточно ресурсов")
)

// Kind тип задачи
type Kind string

const (
	KindBuild Kind = "build"
	KindDig   Kind = "dig"
)

// ParseKind разбирает тип задачи
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBuild, KindDig:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("неизвестный тип задачи %q", s)
	}
}

// Task отложенное действие исполнителя: стройка или копание
type Task struct {
	ID        uint64            `json:"id"`
	Kind      Kind              `json:"kind"`
	Position  vec.Vec2          `json:"position"`
	Material  material.Material `json:"material,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Remaining time.Duration     `json:"remaining"`
}

// Progress доля выполненной работы [0, 1]
func (t Task) Progress() float64 {
	if t.Duration <= 0 {
		return 1
	}
	done := float64(t.Duration-t.Remaining) / float64(t.Duration)
	if done < 0 {
		return 0
	}
	if done > 1 {
		return 1
	}
	return done
}

// Queue очередь задач. Одновременно выполняются первые workers задач,
// время идёт только через Advance.
type Queue struct {
	tasks    []*Task
	capacity int
	workers  int
	workTime time.Duration
	nextID   uint64
}

// NewQueue создаёт очередь с ограничением размера и числом исполнителей
func NewQueue(capacity, workers int, workTime time.Duration) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		tasks:    make([]*Task, 0, capacity),
		capacity: capacity,
		workers:  workers,
		workTime: workTime,
		nextID:   1,
	}
}

// Enqueue добавляет задачу с длительностью workTime
func (q *Queue) Enqueue(kind Kind, pos vec.Vec2, m material.Material) (Task, error) {
	if q.capacity > 0 && len(q.tasks) >= q.capacity {
		return Task{}, ErrQueueFull
	}

	task := &Task{
		ID:        q.nextID,
		Kind:      kind,
		Position:  pos,
		Material:  m,
		Duration:  q.workTime,
		Remaining: q.workTime,
	}
	q.nextID++
	q.tasks = append(q.tasks, task)
	return *task, nil
}

// Len количество задач в очереди
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Tasks копия задач в порядке очереди
func (q *Queue) Tasks() []Task {
	out := make([]Task, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = *t
	}
	return out
}

// Advance продвигает активные задачи на dt и возвращает завершённые в порядке очереди
func (q *Queue) Advance(dt time.Duration) []Task {
	if dt <= 0 || len(q.tasks) == 0 {
		return nil
	}

	active := min(q.workers, len(q.tasks))
	for _, t := range q.tasks[:active] {
		t.Remaining -= dt
	}

	var finished []Task
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.Remaining <= 0 {
			t.Remaining = 0
			finished = append(finished, *t)
			continue
		}
		kept = append(kept, t)
	}
	clear(q.tasks[len(kept):])
	q.tasks = kept
	return finished
}
