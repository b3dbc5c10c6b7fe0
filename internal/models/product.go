package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category 商品分类
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Image     string    `gorm:"type:varchar(500);not null;default:''" json:"image"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Category) TableName() string {
	return "categories"
}

// Product 商品模型
// 折扣三元组 (DiscountPrice, DiscountPercent, DiscountActive) 只在写入时由服务层推导
type Product struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string          `gorm:"type:varchar(200);not null;index" json:"name"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_price"`
	DiscountPercent float64         `gorm:"not null;default:0" json:"discount_percent"`
	DiscountActive  bool            `gorm:"not null;default:false;index" json:"discount_active"`
	CategoryID      int64           `gorm:"index;not null" json:"category_id"`
	Stock           *int            `json:"stock"`
	Image           string          `gorm:"type:varchar(500);not null;default:''" json:"image"`
	Weight          *float64        `json:"weight,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName 表名
func (Product) TableName() string {
	return "products"
}

// StockTracked 是否跟踪库存
func (p *Product) StockTracked() bool {
	return p.Stock != nil
}

// FinalPrice 计算商品的最终售价
// 折扣生效且设置了折扣价时取折扣价；仅有折扣百分比时按百分比计算；否则取原价
func (p *Product) FinalPrice() decimal.Decimal {
	if p.DiscountActive {
		if p.DiscountPrice.IsPositive() {
			return p.DiscountPrice
		}
		if p.DiscountPercent > 0 {
			off := p.Price.Mul(decimal.NewFromFloat(p.DiscountPercent)).Div(decimal.NewFromInt(100))
			return p.Price.Sub(off).Round(2)
		}
	}
	return p.Price
}
