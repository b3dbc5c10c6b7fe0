package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// CartRepository 购物车仓储
type CartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetByUserID 获取用户购物车（包含购物车行及商品），行按加入顺序排列
func (r *CartRepository) GetByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create 创建购物车
func (r *CartRepository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// GetItem 获取购物车中某商品的行
func (r *CartRepository) GetItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementItem 原子累加已有行的数量，返回受影响行数
func (r *CartRepository) IncrementItem(ctx context.Context, cartID, productID int64, qty int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("qty", gorm.Expr("qty + ?", qty))
	return result.RowsAffected, result.Error
}

// CreateItem 新增购物车行
func (r *CartRepository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SetItemQty 设置行数量，返回受影响行数
func (r *CartRepository) SetItemQty(ctx context.Context, cartID, productID int64, qty int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("qty", qty)
	return result.RowsAffected, result.Error
}

// DeleteItem 删除购物车行
func (r *CartRepository) DeleteItem(ctx context.Context, cartID, productID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// ClearItems 清空购物车，tx 为空时使用仓储自身连接
func (r *CartRepository) ClearItems(ctx context.Context, tx *gorm.DB, cartID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
