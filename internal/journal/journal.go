package journal

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/vertex/internal/physics"
)

// Entry запись журнала об одном тике движка
type Entry struct {
	Tick      uint64               `json:"tick"`
	Time      time.Time            `json:"time"`
	Dirty     int                  `json:"dirty"`
	Affected  int                  `json:"affected"`
	Collapses []physics.Collapse   `json:"collapses,omitempty"`
	Ground    physics.GroundReport `json:"ground"`
	Stability float64              `json:"stability"`
	Duration  time.Duration        `json:"duration"`
}

// Sinkhole сообщает, был ли в тике провал грунта
func (e Entry) Sinkhole() bool {
	return e.Ground.Sinkhole
}

// EntryFromReport строит запись из отчёта о тике
func EntryFromReport(report physics.TickReport, at time.Time) Entry {
	return Entry{
		Tick:      report.Tick,
		Time:      at.UTC(),
		Dirty:     len(report.Dirty),
		Affected:  report.Affected,
		Collapses: report.Collapses,
		Ground:    report.Ground,
		Stability: report.Ground.StabilityPercent(),
		Duration:  report.Duration,
	}
}

// ErrTickOrder запись с тиком не больше последнего сохранённого
var ErrTickOrder = errors.New("номер тика не больше последнего в журнале")

// Journal append-only журнал тиков
type Journal interface {
	// Append добавляет запись. Номера тиков растут монотонно,
	// запись с тиком <= LastTick отклоняется с ErrTickOrder.
	Append(ctx context.Context, entry Entry) error

	// LastTick номер последнего сохранённого тика, 0 для пустого журнала.
	// Движок продолжает нумерацию с него после перезапуска.
	LastTick(ctx context.Context) (uint64, error)

	// Range возвращает записи с from <= tick <= to по возрастанию тика.
	// to == 0 означает без верхней границы, limit <= 0 без ограничения.
	Range(ctx context.Context, from, to uint64, limit int) ([]Entry, error)

	// Close закрывает хранилище.
	Close() error
}

// Sink пишет отчёты о тиках в журнал.
// Пустые тики не пишутся; при onlyEvents пишутся только тики с обрушениями.
type Sink struct {
	journal    Journal
	onlyEvents bool
	now        func() time.Time
}

// NewSink создаёт приёмник отчётов для журнала
func NewSink(j Journal, onlyEvents bool) *Sink {
	return &Sink{journal: j, onlyEvents: onlyEvents, now: time.Now}
}

// HandleTick записывает отчёт, если он подходит под фильтр
func (s *Sink) HandleTick(ctx context.Context, report physics.TickReport) error {
	if report.Idle() {
		return nil
	}
	if s.onlyEvents && !report.HasEvents() {
		return nil
	}
	return s.journal.Append(ctx, EntryFromReport(report, s.now()))
}
