// Package models 定义数据模型
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User 用户模型，账号由外部认证服务维护，本服务只读取
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(100);not null;default:''" json:"username"`
	Email     string    `gorm:"type:varchar(255);index" json:"email"`
	Phone     *string   `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserRole 用户角色
const (
	UserRoleUser  = "user"  // 普通用户
	UserRoleAdmin = "admin" // 管理员
)

// StringList 以 JSON 数组存储的字符串列表
type StringList []string

// Scan 实现 sql.Scanner 接口
func (s *StringList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// Value 实现 driver.Valuer 接口
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// scanJSON 兼容 postgres 返回 []byte 与 sqlite 返回 string 两种情况
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}
