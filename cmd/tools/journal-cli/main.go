package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/annel0/vertex/internal/journal"
	"github.com/annel0/vertex/internal/physics"
)

const (
	defaultJournalPath = "data/journal"
	timeFormat         = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		path    = flag.String("path", defaultJournalPath, "Каталог BadgerDB журнала (сервер должен быть остановлен)")
		command = flag.String("cmd", "tail", "Command: tail, stats, sinkholes")
		from    = flag.Uint64("from", 0, "Первый тик (включительно)")
		to      = flag.Uint64("to", 0, "Последний тик (0 - без ограничения)")
		limit   = flag.Int("limit", 100, "Maximum number of entries")
		asJSON  = flag.Bool("json", false, "Вывод записей в JSON")
	)
	flag.Parse()

	j, err := journal.NewBadgerJournal(*path)
	if err != nil {
		log.Fatalf("❌ Failed to open journal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	opts := RangeOptions{From: *from, To: *to, Limit: *limit}

	switch *command {
	case "tail":
		err = tailEntries(ctx, j, opts, *asJSON)
	case "stats":
		err = showStats(ctx, j, opts)
	case "sinkholes":
		err = showSinkholes(ctx, j, opts)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, sinkholes")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

// RangeOptions диапазон тиков для чтения
type RangeOptions struct {
	From  uint64
	To    uint64
	Limit int
}

// tailEntries выводит записи журнала по возрастанию тика
func tailEntries(ctx context.Context, j journal.Journal, opts RangeOptions, asJSON bool) error {
	entries, err := j.Range(ctx, opts.From, opts.To, opts.Limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Printf("🎬 Journal entries from tick %d (limit: %d)\n", opts.From, opts.Limit)
	for _, e := range entries {
		printEntry(e)
	}
	fmt.Printf("\n📊 Total entries: %d\n", len(entries))
	return nil
}

// showStats сводка обрушений по причинам и материалам
func showStats(ctx context.Context, j journal.Journal, opts RangeOptions) error {
	entries, err := j.Range(ctx, opts.From, opts.To, 0)
	if err != nil {
		return err
	}

	byReason := make(map[physics.ChangeReason]int)
	byMaterial := make(map[string]int)
	sinkholes := 0
	minStability := 100.0
	for _, e := range entries {
		if e.Sinkhole() {
			sinkholes++
		}
		minStability = min(minStability, e.Stability)
		for _, c := range e.Collapses {
			byReason[c.Reason]++
			byMaterial[c.Material.String()]++
		}
	}

	fmt.Println("📊 Journal statistics")
	if len(entries) == 0 {
		fmt.Println("No entries")
		return nil
	}
	fmt.Printf("Ticks: %d - %d (%d entries)\n", entries[0].Tick, entries[len(entries)-1].Tick, len(entries))
	fmt.Printf("Period: %s - %s\n", entries[0].Time.Format(timeFormat), entries[len(entries)-1].Time.Format(timeFormat))
	fmt.Printf("Sinkholes: %d\n", sinkholes)
	fmt.Printf("Min stability: %.1f%%\n", minStability)

	fmt.Println("\nCollapses by reason:")
	for _, reason := range []physics.ChangeReason{physics.ReasonOverload, physics.ReasonSinkhole} {
		fmt.Printf("  %s: %d\n", reason, byReason[reason])
	}

	fmt.Println("\nCollapses by material:")
	names := make([]string, 0, len(byMaterial))
	for name := range byMaterial {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %d\n", name, byMaterial[name])
	}
	return nil
}

// showSinkholes выводит только тики с провалом грунта
func showSinkholes(ctx context.Context, j journal.Journal, opts RangeOptions) error {
	entries, err := j.Range(ctx, opts.From, opts.To, 0)
	if err != nil {
		return err
	}

	fmt.Println("🕳️ Sinkhole ticks")
	shown := 0
	for _, e := range entries {
		if !e.Sinkhole() {
			continue
		}
		printEntry(e)
		shown++
		if opts.Limit > 0 && shown >= opts.Limit {
			break
		}
	}
	fmt.Printf("\n📊 Total sinkholes: %d\n", shown)
	return nil
}

// printEntry выводит запись в читаемом формате
func printEntry(e journal.Entry) {
	fmt.Printf("[%s] tick %d dirty=%d affected=%d stability=%.1f%% (%s)\n",
		e.Time.Format("15:04:05"),
		e.Tick,
		e.Dirty,
		e.Affected,
		e.Stability,
		e.Duration.Round(time.Microsecond))

	if e.Sinkhole() {
		fmt.Printf("  Ground: load %.0f > support %.0f\n", e.Ground.TotalLoad, e.Ground.MaxSupport)
	}
	for _, c := range e.Collapses {
		fmt.Printf("  %s %s at %s (%.0f/%.0f)\n", c.Reason, c.Material, c.Position, c.Load, c.Capacity)
	}
}
