package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart 购物车，每个用户唯一
type Cart struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Items []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

// TableName 表名
func (Cart) TableName() string {
	return "carts"
}

// CartItem 购物车行，同一购物车内每个商品只有一行
type CartItem struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID     int64           `gorm:"not null;uniqueIndex:uk_cart_product" json:"cart_id"`
	ProductID  int64           `gorm:"not null;uniqueIndex:uk_cart_product" json:"product_id"`
	Qty        int             `gorm:"not null;default:1" json:"qty"`
	PriceAtAdd decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_at_add"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 表名
func (CartItem) TableName() string {
	return "cart_items"
}

// Subtotal 行小计
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.PriceAtAdd.Mul(decimal.NewFromInt(int64(i.Qty)))
}
