// Package testutil 提供测试辅助工具：内存数据库、内存 Redis、测试数据和令牌
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/grocy-backend/internal/common/jwt"
	"github.com/dumeirei/grocy-backend/internal/models"
)

// JWTSecret 测试令牌密钥
const JWTSecret = "test-secret"

var seq int64

// NewTestDB 创建迁移好的 sqlite 内存数据库，每个测试独立
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	// 共享缓存模式使同一测试内的事务看到相同数据
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared",
		strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), atomic.AddInt64(&seq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// NewTestRedis 创建 miniredis 及其客户端
func NewTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// NewJWTManager 创建测试用 JWT 管理器
func NewJWTManager() *jwt.Manager {
	return jwt.NewManager(&jwt.Config{
		Secret:           JWTSecret,
		AccessExpireTime: time.Hour,
		Issuer:           "grocy-test",
	})
}

// UserToken 生成用户令牌
func UserToken(t testing.TB, m *jwt.Manager, userID int64) string {
	t.Helper()
	token, _, err := m.Sign(jwt.Identity{UserID: userID, UserType: jwt.UserTypeUser, Role: models.UserRoleUser})
	require.NoError(t, err)
	return token
}

// AdminToken 生成管理员令牌
func AdminToken(t testing.TB, m *jwt.Manager, adminID int64) string {
	t.Helper()
	token, _, err := m.Sign(jwt.Identity{UserID: adminID, UserType: jwt.UserTypeAdmin, Role: models.UserRoleAdmin})
	require.NoError(t, err)
	return token
}

// SeedUser 创建用户
func SeedUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    strings.ToLower(username) + "@example.com",
		Role:     models.UserRoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SeedCategory 创建分类
func SeedCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

// SeedProduct 创建无折扣商品，stock 为 nil 表示不跟踪库存
func SeedProduct(t testing.TB, db *gorm.DB, categoryID int64, name, price string, stock *int) *models.Product {
	t.Helper()
	p := decimal.RequireFromString(price)
	product := &models.Product{
		Name:          name,
		Price:         p,
		DiscountPrice: p,
		CategoryID:    categoryID,
		Stock:         stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// SeedOrder 创建包含单个商品的订单
func SeedOrder(t testing.TB, db *gorm.DB, userID int64, product *models.Product, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo: fmt.Sprintf("T%d%d", time.Now().UnixNano(), atomic.AddInt64(&seq, 1)),
		UserID:  userID,
		Total:   product.Price,
		Address: "1 Test Street",
		Phone:   "123456",
		Status:  status,
		Items: []models.OrderItem{{
			ProductID:    product.ID,
			Name:         product.Name,
			Qty:          1,
			PriceAtOrder: product.Price,
		}},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

// IntPtr 返回整数指针
func IntPtr(i int) *int { return &i }
