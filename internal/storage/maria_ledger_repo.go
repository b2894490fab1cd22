package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/vertex/internal/world/material"
)

// MariaLedgerRepo реализует LedgerRepo для базы данных MariaDB/MySQL.
// Использует таблицу resource_ledger (одна строка на материал).
type MariaLedgerRepo struct {
	db *sql.DB
}

// NewMariaLedgerRepo создает репозиторий ресурсов для MariaDB.
// Автоматически создает таблицу, если она не существует.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaLedgerRepo(ctx context.Context, dsn string) (*MariaLedgerRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaLedgerRepo{db: db}

	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return repo, nil
}

// createTable создает таблицу resource_ledger, если она не существует.
func (r *MariaLedgerRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS resource_ledger (
			material   VARCHAR(16) PRIMARY KEY,
			amount     BIGINT      NOT NULL DEFAULT 0,
			updated_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE   CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы resource_ledger: %w", err)
	}
	return nil
}

func (r *MariaLedgerRepo) Balance(ctx context.Context, m material.Material) (int, error) {
	var amount int
	err := r.db.QueryRowContext(ctx,
		`SELECT amount FROM resource_ledger WHERE material = ?`, m.String()).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("ошибка чтения баланса %s: %w", m, err)
	}
	return amount, nil
}

// Add начисляет ресурс через INSERT ... ON DUPLICATE KEY UPDATE и возвращает новый баланс
func (r *MariaLedgerRepo) Add(ctx context.Context, m material.Material, amount int) (int, error) {
	if err := validateAmount(m, amount); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO resource_ledger (material, amount) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE amount = amount + VALUES(amount)`,
		m.String(), amount)
	if err != nil {
		return 0, fmt.Errorf("ошибка начисления %s: %w", m, err)
	}

	var balance int
	if err := tx.QueryRowContext(ctx,
		`SELECT amount FROM resource_ledger WHERE material = ?`, m.String()).Scan(&balance); err != nil {
		return 0, fmt.Errorf("ошибка чтения баланса %s: %w", m, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return balance, nil
}

// Consume списывает ресурс условным UPDATE: строка меняется только при достаточном балансе
func (r *MariaLedgerRepo) Consume(ctx context.Context, m material.Material, amount int) (bool, error) {
	if err := validateAmount(m, amount); err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE resource_ledger SET amount = amount - ? WHERE material = ? AND amount >= ?`,
		amount, m.String(), amount)
	if err != nil {
		return false, fmt.Errorf("ошибка списания %s: %w", m, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ошибка проверки списания %s: %w", m, err)
	}
	return affected == 1, nil
}

func (r *MariaLedgerRepo) Snapshot(ctx context.Context) (map[material.Material]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT material, amount FROM resource_ledger WHERE amount <> 0`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ресурсов: %w", err)
	}
	defer rows.Close()

	out := make(map[material.Material]int)
	for rows.Next() {
		var name string
		var amount int
		if err := rows.Scan(&name, &amount); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки: %w", err)
		}
		m, err := material.Parse(name)
		if err != nil {
			return nil, err
		}
		out[m] = amount
	}
	return out, rows.Err()
}

// Reset очищает таблицу (для тестов или сброса)
func (r *MariaLedgerRepo) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM resource_ledger`)
	return err
}

// Close закрывает соединение с базой данных.
func (r *MariaLedgerRepo) Close() error {
	return r.db.Close()
}
