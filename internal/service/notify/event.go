// Package notify 提供订单事件的多通道通知分发
package notify

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// 事件类型
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Customer 下单用户信息
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderLine 订单行快照
type OrderLine struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	Qty          int             `json:"qty"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// OrderSnapshot 订单快照
type OrderSnapshot struct {
	ID        int64           `json:"id"`
	OrderNo   string          `json:"order_no"`
	UserID    int64           `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Address   string          `json:"address"`
	Phone     string          `json:"phone"`
	Status    string          `json:"status"`
	Items     []OrderLine     `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

// Event 通知事件
type Event struct {
	Type           string        `json:"type"`
	Order          OrderSnapshot `json:"order"`
	Customer       Customer      `json:"customer"`
	PreviousStatus string        `json:"previous_status,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// NewOrderEvent 由订单构建事件，user 可为空
func NewOrderEvent(eventType string, order *models.Order, user *models.User) *Event {
	snapshot := OrderSnapshot{
		ID:        order.ID,
		OrderNo:   order.OrderNo,
		UserID:    order.UserID,
		Total:     order.Total,
		Address:   order.Address,
		Phone:     order.Phone,
		Status:    order.Status,
		Items:     make([]OrderLine, 0, len(order.Items)),
		CreatedAt: order.CreatedAt,
	}
	for _, item := range order.Items {
		snapshot.Items = append(snapshot.Items, OrderLine{
			ProductID:    item.ProductID,
			Name:         item.Name,
			Qty:          item.Qty,
			PriceAtOrder: item.PriceAtOrder,
		})
	}

	event := &Event{Type: eventType, Order: snapshot, OccurredAt: time.Now()}
	if user != nil {
		event.Customer = Customer{Name: user.Username, Email: user.Email}
	}
	return event
}
