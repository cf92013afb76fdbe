package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// GetByID читает одну строку table по id в T. columns перечисляет поля явно,
// чтобы новые колонки в таблице не ломали сканирование в структуру.
func GetByID[T any](ctx context.Context, db sqlx.QueryerContext, table, columns string, id any, notFound error) (*T, error) {
	var row T
	query := "SELECT " + columns + " FROM " + table + " WHERE id = $1"
	if err := sqlx.GetContext(ctx, db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("get %s by id: %w", table, err)
	}
	return &row, nil
}

// BatchInserter копит строки и вставляет их одним INSERT ... VALUES (...), (...).
// Используется для позиций заказа и состава наборов внутри уже открытой транзакции.
type BatchInserter struct {
	tx        *sqlx.Tx
	prefix    string
	columns   int
	batchSize int
	args      []interface{}
	rows      int
}

func NewBatchInserter(tx *sqlx.Tx, insertPrefix string, columns, batchSize int) *BatchInserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BatchInserter{
		tx:        tx,
		prefix:    insertPrefix,
		columns:   columns,
		batchSize: batchSize,
		args:      make([]interface{}, 0, batchSize*columns),
	}
}

// Add добавляет строку; при заполнении батча он сразу отправляется в базу.
func (b *BatchInserter) Add(ctx context.Context, row ...interface{}) error {
	if len(row) != b.columns {
		return fmt.Errorf("batch insert: ожидалось %d значений, получено %d", b.columns, len(row))
	}
	b.args = append(b.args, row...)
	b.rows++

	if b.rows >= b.batchSize {
		return b.Flush(ctx)
	}
	return nil
}

// Flush вставляет накопленные строки. Пустой буфер ничего не делает.
func (b *BatchInserter) Flush(ctx context.Context) error {
	if b.rows == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(b.prefix)
	sb.WriteString(" VALUES ")
	n := 1
	for r := 0; r < b.rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < b.columns; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
		}
		sb.WriteByte(')')
	}

	if _, err := b.tx.ExecContext(ctx, sb.String(), b.args...); err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}

	b.args = b.args[:0]
	b.rows = 0
	return nil
}

// WithTransaction выполняет fn в транзакции: commit при успехе, rollback при ошибке или панике.
// Ошибка fn возвращается как есть, чтобы вызывающий мог сравнить её с sentinel через errors.Is.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
