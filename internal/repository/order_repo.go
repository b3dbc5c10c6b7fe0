package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/database"
	"github.com/dumeirei/grocy-backend/internal/models"
)

// OrderRepository 订单仓储
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 在事务中创建订单及订单项
func (r *OrderRepository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

// GetByIDWithItems 根据 ID 获取订单（包含订单项）
func (r *OrderRepository) GetByIDWithItems(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIdempotencyKey 根据用户与幂等键获取订单
func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser 获取用户全部订单，最新在前
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("user_id = ?", userID).
		Scopes(database.OrderByCreatedDesc).
		Find(&orders).Error
	return orders, err
}

// OrderListParams 订单列表查询参数
type OrderListParams struct {
	Page     int
	PageSize int
	Status   string
}

// List 分页获取全部订单（管理端）
func (r *OrderRepository) List(ctx context.Context, params OrderListParams) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Scopes(database.OrderByCreatedDesc, database.Paginate(params.Page, params.PageSize)).
		Find(&orders).Error
	return orders, total, err
}

// UpdateStatus 更新订单状态，返回受影响行数
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	return result.RowsAffected, result.Error
}

// Delete 删除订单及其订单项，返回受影响的订单行数
func (r *OrderRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Order{}, id)
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

// HasPurchased 用户是否有包含该商品且处于指定状态的订单
func (r *OrderRepository) HasPurchased(ctx context.Context, userID, productID int64, statuses []string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ? AND orders.status IN ?", userID, productID, statuses).
		Count(&count).Error
	return count > 0, err
}
