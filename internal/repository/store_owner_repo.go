package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// StoreOwnerRepository 店主仓储
type StoreOwnerRepository struct {
	db *gorm.DB
}

// NewStoreOwnerRepository 创建店主仓储
func NewStoreOwnerRepository(db *gorm.DB) *StoreOwnerRepository {
	return &StoreOwnerRepository{db: db}
}

// Create 创建店主
func (r *StoreOwnerRepository) Create(ctx context.Context, owner *models.StoreOwner) error {
	return r.db.WithContext(ctx).Create(owner).Error
}

// GetByID 根据 ID 获取店主
func (r *StoreOwnerRepository) GetByID(ctx context.Context, id int64) (*models.StoreOwner, error) {
	var owner models.StoreOwner
	err := r.db.WithContext(ctx).First(&owner, id).Error
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

// GetPrimary 获取最早创建的店主记录，绑定流程与通知均以它为准
func (r *StoreOwnerRepository) GetPrimary(ctx context.Context) (*models.StoreOwner, error) {
	var owner models.StoreOwner
	err := r.db.WithContext(ctx).Order("id ASC").First(&owner).Error
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

// List 获取全部店主
func (r *StoreOwnerRepository) List(ctx context.Context) ([]*models.StoreOwner, error) {
	var owners []*models.StoreOwner
	err := r.db.WithContext(ctx).Order("id ASC").Find(&owners).Error
	return owners, err
}

// LinkChat 条件绑定会话，仅当记录尚未绑定时生效，返回受影响行数
func (r *StoreOwnerRepository) LinkChat(ctx context.Context, id, chatID int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.StoreOwner{}).
		Where("id = ? AND owner_chat_id IS NULL", id).
		Update("owner_chat_id", chatID)
	return result.RowsAffected, result.Error
}

// Delete 删除店主
func (r *StoreOwnerRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.StoreOwner{}, id)
	return result.RowsAffected, result.Error
}

// DeleteAll 删除全部店主
func (r *StoreOwnerRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.StoreOwner{})
	return result.RowsAffected, result.Error
}
