package main

import (
	"context"
	"time"

	"github.com/annel0/vertex/internal/config"
	"github.com/annel0/vertex/internal/eventbus"
	"github.com/annel0/vertex/internal/journal"
	"github.com/annel0/vertex/internal/logging"
	"github.com/annel0/vertex/internal/storage"
)

// openLedger выбирает хранилище инвентаря по resources.backend
func openLedger(ctx context.Context, cfg config.ResourcesConfig) (storage.LedgerRepo, error) {
	switch cfg.Backend {
	case "redis":
		logging.Info("🗄️ Инвентарь в Redis %s (ключ %s)", cfg.Redis.Addr, cfg.Redis.Key)
		return storage.NewRedisLedgerRepo(ctx, &storage.RedisLedgerConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
	case "maria":
		logging.Info("🗄️ Инвентарь в MariaDB")
		return storage.NewMariaLedgerRepo(ctx, cfg.Maria.DSN)
	default:
		logging.Info("🗄️ Инвентарь в памяти")
		return storage.NewMemoryLedgerRepo(), nil
	}
}

// openJournal выбирает журнал тиков по journal.backend
func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	if cfg.Backend == "badger" {
		logging.Info("📓 Журнал тиков в BadgerDB: %s", cfg.Path)
		return journal.NewBadgerJournal(cfg.Path)
	}
	logging.Info("📓 Журнал тиков в памяти")
	return journal.NewMemoryJournal(), nil
}

// openEventBus выбирает шину событий по eventbus.backend
func openEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.Backend == "jetstream" {
		logging.Info("📨 Шина событий NATS JetStream: %s, стрим %s", cfg.URL, cfg.Stream)
		return eventbus.NewJetStreamBus(eventbus.JetStreamConfig{
			URL:       cfg.URL,
			Stream:    cfg.Stream,
			Retention: time.Duration(cfg.Retention) * time.Hour,
		})
	}
	logging.Info("📨 Шина событий в памяти (буфер %d)", cfg.Buffer)
	return eventbus.NewMemoryBus(cfg.Buffer), nil
}
