package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// ==================== 购物车仓储测试 ====================

func TestCartRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	_, err := repo.GetByUserID(ctx, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	cart := &models.Cart{UserID: 1}
	require.NoError(t, repo.Create(ctx, cart))

	err = repo.Create(ctx, &models.Cart{UserID: 1})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey, "每个用户只能有一个购物车")

	cat := seedCategory(t, db, "Grocery")
	milk := seedProduct(t, db, cat.ID, "Milk", "2.00", nil)
	bread := seedProduct(t, db, cat.ID, "Bread", "1.50", nil)

	require.NoError(t, repo.CreateItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: milk.ID, Qty: 1, PriceAtAdd: milk.Price}))
	require.NoError(t, repo.CreateItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: bread.ID, Qty: 2, PriceAtAdd: bread.Price}))

	err = repo.CreateItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: milk.ID, Qty: 1, PriceAtAdd: milk.Price})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey, "同一商品只能有一行")

	rows, err := repo.IncrementItem(ctx, cart.ID, milk.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	loaded, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, milk.ID, loaded.Items[0].ProductID, "保持加入顺序")
	assert.Equal(t, 3, loaded.Items[0].Qty)
	require.NotNil(t, loaded.Items[1].Product)
	assert.Equal(t, "Bread", loaded.Items[1].Product.Name)
	assert.True(t, loaded.Items[1].PriceAtAdd.Equal(decimal.RequireFromString("1.5")))

	rows, err = repo.SetItemQty(ctx, cart.ID, bread.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.SetItemQty(ctx, cart.ID, 999, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	rows, err = repo.DeleteItem(ctx, cart.ID, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	require.NoError(t, repo.ClearItems(ctx, nil, cart.ID))
	loaded, err = repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

// ==================== 订单仓储测试 ====================

func seedOrder(t *testing.T, db *gorm.DB, userID int64, status string, productIDs ...int64) *models.Order {
	order := &models.Order{
		OrderNo: fmt.Sprintf("M%d%s%d", len(productIDs), status, userID),
		UserID:  userID,
		Total:   decimal.RequireFromString("10.00"),
		Address: "1 Main St",
		Phone:   "555-0100",
		Status:  status,
	}
	for _, id := range productIDs {
		order.Items = append(order.Items, models.OrderItem{ProductID: id, Name: "item", Qty: 1, PriceAtOrder: decimal.RequireFromString("10.00")})
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderRepository_CreateAndQuery(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	key := "idem-1"
	order := &models.Order{
		OrderNo:        "M20240101000000123456",
		UserID:         7,
		Total:          decimal.RequireFromString("4.50"),
		Address:        "1 Main St",
		Phone:          "555-0100",
		Status:         models.OrderStatusPending,
		IdempotencyKey: &key,
		Items: []models.OrderItem{
			{ProductID: 1, Name: "Milk", Qty: 1, PriceAtOrder: decimal.RequireFromString("2.00")},
			{ProductID: 2, Name: "Bread", Qty: 1, PriceAtOrder: decimal.RequireFromString("2.50")},
		},
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.Create(ctx, tx, order)
	}))
	assert.NotZero(t, order.ID)

	found, err := repo.GetByIDWithItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Milk", found.Items[0].Name)

	byKey, err := repo.GetByIdempotencyKey(ctx, 7, key)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byKey.ID)

	_, err = repo.GetByIdempotencyKey(ctx, 8, key)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	dup := &models.Order{OrderNo: "M2", UserID: 7, Total: decimal.Zero, Address: "a", Phone: "p", Status: models.OrderStatusPending, IdempotencyKey: &key}
	err = db.Transaction(func(tx *gorm.DB) error { return repo.Create(ctx, tx, dup) })
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOrderRepository_ListAndStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.User{ID: 7, Username: "alice", Email: "alice@example.com"}).Error)
	first := seedOrder(t, db, 7, models.OrderStatusPending, 1)
	second := seedOrder(t, db, 7, models.OrderStatusConfirmed, 1, 2)
	seedOrder(t, db, 8, models.OrderStatusPending, 3)

	mine, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "最新订单在前")
	assert.Len(t, mine[0].Items, 2)

	all, total, err := repo.List(ctx, OrderListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	pending, total, err := repo.List(ctx, OrderListParams{Page: 1, PageSize: 10, Status: models.OrderStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, o := range pending {
		assert.Equal(t, models.OrderStatusPending, o.Status)
	}

	rows, err := repo.UpdateStatus(ctx, first.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	var itemCount int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", first.ID).Count(&itemCount)
	assert.Zero(t, itemCount)

	rows, err = repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestOrderRepository_UnknownStatusDisplaysCancelled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, 1, models.OrderStatusPending, 1)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", "lost").Error)

	found, err := repo.GetByIDWithItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, found.Status)
}

func TestOrderRepository_HasPurchased(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, db, 1, models.OrderStatusPending, 10)
	seedOrder(t, db, 1, models.OrderStatusDelivered, 11)

	statuses := []string{models.OrderStatusConfirmed, models.OrderStatusDelivered}

	ok, err := repo.HasPurchased(ctx, 1, 11, statuses)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasPurchased(ctx, 1, 10, statuses)
	require.NoError(t, err)
	assert.False(t, ok, "待确认订单不算购买")

	ok, err = repo.HasPurchased(ctx, 2, 11, statuses)
	require.NoError(t, err)
	assert.False(t, ok)
}
