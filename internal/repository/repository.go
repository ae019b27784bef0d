// Package repository 基于 GORM 的数据访问层。
// 判定路径上的读走主库，历史与报表查询走只读副本。
package repository

import (
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100

	pgUniqueViolation = "23505"
)

// NormalizePage 规范化分页参数
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// LastPage 总页数，至少为 1
func LastPage(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func offset(page, perPage int) int {
	return (page - 1) * perPage
}

// IsUniqueViolation 唯一约束冲突。TranslateError 开启时为 gorm.ErrDuplicatedKey，否则检查 SQLSTATE
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsNotFound 记录不存在
func IsNotFound(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}
