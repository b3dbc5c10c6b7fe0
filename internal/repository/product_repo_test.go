// Package repository 仓储层单元测试
package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// setupTestDB 创建独立的内存数据库并迁移全部模型
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	c := &models.Category{Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID int64, name string, price string, stock *int) *models.Product {
	p := &models.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		DiscountPrice: decimal.RequireFromString(price),
		CategoryID:    categoryID,
		Stock:         stock,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func intPtr(i int) *int { return &i }

// ==================== 商品仓储测试 ====================

func TestProductRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	cat := seedCategory(t, db, "Dairy")
	p := &models.Product{
		Name:          "Milk",
		Price:         decimal.RequireFromString("2.50"),
		DiscountPrice: decimal.RequireFromString("2.50"),
		CategoryID:    cat.ID,
	}
	require.NoError(t, repo.Create(ctx, p))
	assert.NotZero(t, p.ID)

	found, err := repo.GetByIDWithCategory(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("2.5")))
	require.NotNil(t, found.Category)
	assert.Equal(t, "Dairy", found.Category.Name)
	assert.Nil(t, found.Stock)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_ListAndOffers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	dairy := seedCategory(t, db, "Dairy")
	fruit := seedCategory(t, db, "Fruit")
	seedProduct(t, db, dairy.ID, "Milk", "2.00", nil)
	seedProduct(t, db, dairy.ID, "Cheese", "5.00", nil)
	apple := seedProduct(t, db, fruit.ID, "Apple", "1.00", nil)

	// 生效折扣
	require.NoError(t, db.Model(apple).Updates(map[string]interface{}{
		"discount_active": true, "discount_price": "0.80", "discount_percent": 20,
	}).Error)
	// 折扣标记生效但价格不低于原价，不算优惠
	bogus := seedProduct(t, db, fruit.ID, "Pear", "1.00", nil)
	require.NoError(t, db.Model(bogus).Update("discount_active", true).Error)

	list, total, err := repo.List(ctx, ProductListParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, ProductListParams{Page: 1, PageSize: 10, CategoryID: &dairy.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, ProductListParams{Page: 1, PageSize: 10, OffersOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Apple", list[0].Name)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	offers, err := repo.CountOffers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), offers)

	inFruit, err := repo.CountByCategory(ctx, fruit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inFruit)
}

func TestProductRepository_FindByNameTerms(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	cat := seedCategory(t, db, "Grocery")
	seedProduct(t, db, cat.ID, "Green Apple", "1.00", nil)
	seedProduct(t, db, cat.ID, "Apple Juice", "3.00", nil)
	seedProduct(t, db, cat.ID, "Banana", "0.50", nil)
	seedProduct(t, db, cat.ID, "100% Orange", "4.00", nil)

	found, err := repo.FindByNameTerms(ctx, []string{"apple", "banana"})
	require.NoError(t, err)
	assert.Len(t, found, 3)

	found, err = repo.FindByNameTerms(ctx, []string{"%"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% Orange", found[0].Name)

	found, err = repo.FindByNameTerms(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestProductRepository_FindByNamePrefix(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	cat := seedCategory(t, db, "Grocery")
	seedProduct(t, db, cat.ID, "apricot", "1.00", nil)
	seedProduct(t, db, cat.ID, "Apple", "1.00", nil)
	seedProduct(t, db, cat.ID, "Avocado", "1.00", nil)
	seedProduct(t, db, cat.ID, "Pineapple", "1.00", nil)

	found, err := repo.FindByNamePrefix(ctx, "AP", 5)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Apple", found[0].Name)
	assert.Equal(t, "apricot", found[1].Name)

	found, err = repo.FindByNamePrefix(ctx, "_", 5)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repo.FindByNamePrefix(ctx, "a", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestProductRepository_DecreaseStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	cat := seedCategory(t, db, "Grocery")
	tracked := seedProduct(t, db, cat.ID, "Eggs", "3.00", intPtr(3))
	untracked := seedProduct(t, db, cat.ID, "Bread", "2.00", nil)

	rows, err := repo.DecreaseStock(ctx, db, tracked.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.DecreaseStock(ctx, db, tracked.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "库存不足时不扣减")

	rows, err = repo.DecreaseStock(ctx, db, untracked.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "不跟踪库存的商品不扣减")

	found, err := repo.GetByID(ctx, tracked.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Stock)
	assert.Equal(t, 0, *found.Stock)
}

func TestProductRepository_GetByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	cat := seedCategory(t, db, "Grocery")
	a := seedProduct(t, db, cat.ID, "A", "1.00", nil)
	b := seedProduct(t, db, cat.ID, "B", "1.00", nil)

	m, err := repo.GetByIDs(ctx, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, "B", m[b.ID].Name)

	m, err = repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

// ==================== 分类仓储测试 ====================

func TestCategoryRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Category{Name: "Vegetables"}))
	fruit := &models.Category{Name: "Fruit", Image: "fruit.png"}
	require.NoError(t, repo.Create(ctx, fruit))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Fruit", list[0].Name)

	exists, err := repo.Exists(ctx, fruit.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	fruit.Name = "Fresh Fruit"
	require.NoError(t, repo.Update(ctx, fruit))
	found, err := repo.GetByID(ctx, fruit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Fruit", found.Name)
	assert.Equal(t, "fruit.png", found.Image)

	rows, err := repo.Delete(ctx, fruit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.Delete(ctx, fruit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}
