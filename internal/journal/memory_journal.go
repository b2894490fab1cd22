package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryJournal хранит записи в памяти. Используется по умолчанию и в тестах.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(_ context.Context, entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n := len(j.entries); n > 0 && entry.Tick <= j.entries[n-1].Tick {
		return fmt.Errorf("%w: %d после %d", ErrTickOrder, entry.Tick, j.entries[n-1].Tick)
	}
	j.entries = append(j.entries, entry)
	return nil
}

func (j *MemoryJournal) LastTick(_ context.Context) (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.entries) == 0 {
		return 0, nil
	}
	return j.entries[len(j.entries)-1].Tick, nil
}

func (j *MemoryJournal) Range(_ context.Context, from, to uint64, limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	start := sort.Search(len(j.entries), func(i int) bool {
		return j.entries[i].Tick >= from
	})

	var out []Entry
	for _, e := range j.entries[start:] {
		if to != 0 && e.Tick > to {
			break
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (j *MemoryJournal) Close() error {
	return nil
}
