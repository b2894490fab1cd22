package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

const keyPrefix = "tick:"

// tickKey ключ записи: номер тика дополнен нулями, лексикографический порядок совпадает с числовым
func tickKey(tick uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, tick))
}

// BadgerJournal хранит записи в BadgerDB, значения сжаты zstd
type BadgerJournal struct {
	db      *badger.DB
	path    string
	mutex    sync.RWMutex
	isReady  bool
	lastTick uint64

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewBadgerJournal открывает (или создаёт) журнал в каталоге path
func NewBadgerJournal(path string) (*BadgerJournal, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	j := &BadgerJournal{
		db:      db,
		path:    path,
		isReady: true,
		encoder: encoder,
		decoder: decoder,
	}
	if j.lastTick, err = j.readLastTick(); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

// readLastTick находит наибольший ключ tick:* обратным проходом
func (j *BadgerJournal) readLastTick() (uint64, error) {
	var last uint64
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append([]byte(keyPrefix), 0xFF))
		if !it.Valid() {
			return nil
		}
		key := it.Item().Key()
		tick, err := strconv.ParseUint(string(key[len(keyPrefix):]), 10, 64)
		if err != nil {
			return fmt.Errorf("повреждённый ключ %q: %w", key, err)
		}
		last = tick
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения последнего тика: %w", err)
	}
	return last, nil
}

// LastTick номер последнего сохранённого тика
func (j *BadgerJournal) LastTick(_ context.Context) (uint64, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if !j.isReady {
		return 0, fmt.Errorf("журнал закрыт")
	}
	return j.lastTick, nil
}

// Path каталог базы
func (j *BadgerJournal) Path() string {
	return j.path
}

func (j *BadgerJournal) Append(_ context.Context, entry Entry) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if !j.isReady {
		return fmt.Errorf("журнал закрыт")
	}
	if j.lastTick > 0 && entry.Tick <= j.lastTick {
		return fmt.Errorf("%w: %d после %d", ErrTickOrder, entry.Tick, j.lastTick)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}
	compressed := j.encoder.EncodeAll(data, nil)

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tickKey(entry.Tick), compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	j.lastTick = entry.Tick
	return nil
}

func (j *BadgerJournal) Range(ctx context.Context, from, to uint64, limit int) ([]Entry, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if !j.isReady {
		return nil, fmt.Errorf("журнал закрыт")
	}

	var entries []Entry
	var upper []byte
	if to != 0 {
		upper = tickKey(to)
	}

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(tickKey(from)); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			if upper != nil && bytes.Compare(item.Key(), upper) > 0 {
				break
			}

			var entry Entry
			err := item.Value(func(val []byte) error {
				data, err := j.decoder.DecodeAll(val, nil)
				if err != nil {
					return fmt.Errorf("ошибка распаковки %s: %w", item.Key(), err)
				}
				return json.Unmarshal(data, &entry)
			})
			if err != nil {
				return err
			}

			entries = append(entries, entry)
			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return entries, nil
}

// Close закрывает журнал
func (j *BadgerJournal) Close() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if !j.isReady {
		return nil
	}

	j.isReady = false
	j.encoder.Close()
	j.decoder.Close()
	return j.db.Close()
}
