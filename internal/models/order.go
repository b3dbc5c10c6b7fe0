package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order 订单模型
type Order struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo        string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	UserID         int64           `gorm:"index;not null;uniqueIndex:uk_order_idempotency" json:"user_id"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Address        string          `gorm:"type:varchar(500);not null" json:"address"`
	Phone          string          `gorm:"type:varchar(32);not null" json:"phone"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IdempotencyKey *string         `gorm:"type:varchar(128);uniqueIndex:uk_order_idempotency" json:"-"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// AfterFind 非法的历史状态统一展示为已取消
func (o *Order) AfterFind(tx *gorm.DB) error {
	o.Status = NormalizeOrderStatus(o.Status)
	return nil
}

// OrderStatus 订单状态
const (
	OrderStatusPending   = "pending"   // 待确认
	OrderStatusConfirmed = "confirmed" // 已确认
	OrderStatusShipped   = "shipped"   // 已发货
	OrderStatusDelivered = "delivered" // 已送达
	OrderStatusCancelled = "cancelled" // 已取消
)

// OrderStatuses 全部合法的订单状态
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus 判断订单状态是否合法
func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// NormalizeOrderStatus 返回用于展示的订单状态
func NormalizeOrderStatus(status string) string {
	if IsValidOrderStatus(status) {
		return status
	}
	return OrderStatusCancelled
}

// OrderItem 订单项，名称与价格为下单时快照
type OrderItem struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64           `gorm:"index;not null" json:"order_id"`
	ProductID    int64           `gorm:"index;not null" json:"product_id"`
	Name         string          `gorm:"type:varchar(200);not null" json:"name"`
	Qty          int             `gorm:"not null" json:"qty"`
	PriceAtOrder decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_at_order"`
}

// TableName 表名
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal 行小计
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.Qty)))
}
