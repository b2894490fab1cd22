package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/vertex/internal/logging"
	"github.com/annel0/vertex/internal/world/material"
)

// consumeScript атомарно списывает ресурс: -1, если баланса не хватает
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local amount = tonumber(ARGV[2])
if current < amount then
	return -1
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], -amount)
`)

// RedisLedgerConfig содержит настройки подключения к Redis
type RedisLedgerConfig struct {
	Addr     string // Адрес Redis сервера
	Password string // Пароль (пустой если не требуется)
	DB       int    // Номер базы данных
	Key      string // Ключ хеша с балансами
}

// DefaultRedisLedgerConfig возвращает конфигурацию по умолчанию
func DefaultRedisLedgerConfig() *RedisLedgerConfig {
	return &RedisLedgerConfig{
		Addr: "localhost:6379",
		DB:   0,
		Key:  "vertex:resources",
	}
}

// RedisLedgerRepo хранит балансы ресурсов в хеше Redis (поле = имя материала)
type RedisLedgerRepo struct {
	client *redis.Client
	key    string
}

// NewRedisLedgerRepo подключается к Redis и проверяет соединение
func NewRedisLedgerRepo(ctx context.Context, config *RedisLedgerConfig) (*RedisLedgerRepo, error) {
	if config == nil {
		config = DefaultRedisLedgerConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetStorageLogger().Info("🔴 Connected to Redis at %s (ключ %s)", config.Addr, config.Key)
	return &RedisLedgerRepo{client: client, key: config.Key}, nil
}

func (r *RedisLedgerRepo) Balance(ctx context.Context, m material.Material) (int, error) {
	val, err := r.client.HGet(ctx, r.key, m.String()).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to get balance %s: %w", m, err)
	}
	return val, nil
}

func (r *RedisLedgerRepo) Add(ctx context.Context, m material.Material, amount int) (int, error) {
	if err := validateAmount(m, amount); err != nil {
		return 0, err
	}

	val, err := r.client.HIncrBy(ctx, r.key, m.String(), int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add %s: %w", m, err)
	}
	return int(val), nil
}

func (r *RedisLedgerRepo) Consume(ctx context.Context, m material.Material, amount int) (bool, error) {
	if err := validateAmount(m, amount); err != nil {
		return false, err
	}

	left, err := consumeScript.Run(ctx, r.client, []string{r.key}, m.String(), amount).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to consume %s: %w", m, err)
	}
	return left >= 0, nil
}

func (r *RedisLedgerRepo) Snapshot(ctx context.Context) (map[material.Material]int, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	out := make(map[material.Material]int, len(fields))
	for name, raw := range fields {
		m, err := material.Parse(name)
		if err != nil {
			logging.GetStorageLogger().Warn("⚠️ Неизвестное поле %q в %s", name, r.key)
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("поле %s: %w", name, err)
		}
		if n != 0 {
			out[m] = n
		}
	}
	return out, nil
}

// Reset удаляет все балансы (для тестов или сброса)
func (r *RedisLedgerRepo) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *RedisLedgerRepo) Close() error {
	return r.client.Close()
}
