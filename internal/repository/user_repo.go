package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// contactColumns 通知所需的用户字段
var contactColumns = []string{"id", "username", "email", "phone"}

// UserRepository 用户仓储，账号由外部维护，这里只读
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetContact 读取用户联系方式，用于订单通知中的顾客信息
func (r *UserRepository) GetContact(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select(contactColumns).Take(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
