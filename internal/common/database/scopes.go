package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/utils"
)

// Paginate 分页作用域，参数按 utils.Pagination 的规则规范化
func Paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	p := utils.Pagination{Page: page, PageSize: pageSize}
	p.NormalizeWithDefault(10)
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(p.GetOffset()).Limit(p.PageSize)
	}
}

// OrderByCreatedDesc 最新在前，创建时间相同时按 id 降序
func OrderByCreatedDesc(tx *gorm.DB) *gorm.DB {
	return tx.Order("created_at DESC").Order("id DESC")
}

// 时间桶粒度
const (
	BucketDay   = "day"
	BucketMonth = "month"
)

var bucketFormats = map[bool]map[string]string{
	true:  {BucketDay: "to_char(%s, 'YYYY-MM-DD')", BucketMonth: "to_char(%s, 'YYYY-MM')"},
	false: {BucketDay: "strftime('%%Y-%%m-%%d', %s)", BucketMonth: "strftime('%%Y-%%m', %s)"},
}

// DateBucket 把时间列截断为 2006-01-02 或 2006-01 形式的 SQL 表达式，未知粒度按天
func DateBucket(tx *gorm.DB, column, granularity string) string {
	formats := bucketFormats[IsPostgres(tx)]
	format, ok := formats[granularity]
	if !ok {
		format = formats[BucketDay]
	}
	return fmt.Sprintf(format, column)
}
