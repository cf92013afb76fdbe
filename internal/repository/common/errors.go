package common

import (
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок Postgres, на которые репозитории реагируют отдельно.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// IsUniqueViolation сообщает, что Postgres отклонил запись из-за уникального индекса.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// IsForeignKeyViolation сообщает о нарушении внешнего ключа.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// IsCheckViolation сообщает о нарушении CHECK ограничения (например, buyer_id <> seller_id).
func IsCheckViolation(err error) bool {
	return pgCode(err) == pgCheckViolation
}
