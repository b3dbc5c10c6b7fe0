package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/config"
	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/repository"
	"github.com/dumeirei/grocy-backend/internal/testutil"
)

func newServices(t *testing.T) (*CategoryService, *ProductService, *gorm.DB) {
	db := testutil.NewTestDB(t)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	return NewCategoryService(categoryRepo, productRepo, nil),
		NewProductService(productRepo, categoryRepo, &config.CatalogConfig{AutocompleteLimit: 5, AutocompleteMaxLimit: 20}, nil),
		db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ==================== 折扣推导测试 ====================

func TestDeriveDiscount(t *testing.T) {
	tests := []struct {
		name          string
		price         string
		discountPrice string
		active        bool
		wantPrice     string
		wantPercent   float64
		wantActive    bool
	}{
		{"有效折扣", "10.00", "7.50", true, "7.50", 25, true},
		{"百分比保留两位", "3.00", "2.00", true, "2.00", 33.33, true},
		{"开关关闭", "10.00", "7.50", false, "10.00", 0, false},
		{"折扣价不低于原价", "10.00", "12.00", true, "10.00", 0, false},
		{"折扣价等于原价", "10.00", "10.00", true, "10.00", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DeriveDiscount(dec(tt.price), dec(tt.discountPrice), tt.active)
			assert.True(t, d.Price.Equal(dec(tt.wantPrice)), "price %s", d.Price)
			assert.InDelta(t, tt.wantPercent, d.Percent, 0.001)
			assert.Equal(t, tt.wantActive, d.Active)
		})
	}
}

func TestScore(t *testing.T) {
	terms := []string{"green", "apple"}
	assert.Equal(t, 20+5+3, Score("Green Apple", "green apple", terms))
	assert.Equal(t, 20+5, Score("Green Apple Pie", "green apple", terms))
	assert.Equal(t, 10, Score("Apple Juice", "green apple", terms))
	assert.Equal(t, 0, Score("Banana", "green apple", terms))
}

// ==================== 分类测试 ====================

func TestCategoryService_CRUD(t *testing.T) {
	categories, products, _ := newServices(t)
	ctx := context.Background()

	dairy, err := categories.Create(ctx, &CreateCategoryRequest{Name: "Dairy", Image: "dairy.png"})
	require.NoError(t, err)
	_, err = categories.Create(ctx, &CreateCategoryRequest{Name: "Bakery"})
	require.NoError(t, err)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bakery", list[0].Name)

	updated, err := categories.Update(ctx, dairy.ID, &UpdateCategoryRequest{Name: "Milk & Cheese"})
	require.NoError(t, err)
	assert.Equal(t, "Milk & Cheese", updated.Name)
	assert.Equal(t, "dairy.png", updated.Image, "空图片保留原值")

	_, err = products.Create(ctx, &CreateProductRequest{Name: "Milk", Price: 2, CategoryID: dairy.ID})
	require.NoError(t, err)

	err = categories.Delete(ctx, dairy.ID)
	assert.ErrorIs(t, err, errors.ErrCategoryInUse)

	_, err = categories.Get(ctx, 999)
	assert.ErrorIs(t, err, errors.ErrCategoryNotFound)
	assert.ErrorIs(t, categories.Delete(ctx, 999), errors.ErrCategoryNotFound)
}

// ==================== 商品测试 ====================

func TestProductService_Create(t *testing.T) {
	_, products, db := newServices(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, db, "Fruit")

	t.Run("推导折扣", func(t *testing.T) {
		p, err := products.Create(ctx, &CreateProductRequest{
			Name: "Apple", Price: 4, DiscountPrice: utils.Float64Ptr(3), DiscountActive: true, CategoryID: cat.ID,
		})
		require.NoError(t, err)
		assert.True(t, p.DiscountActive)
		assert.True(t, p.DiscountPrice.Equal(dec("3")))
		assert.InDelta(t, 25.0, p.DiscountPercent, 0.001)
	})

	t.Run("无效折扣被忽略", func(t *testing.T) {
		p, err := products.Create(ctx, &CreateProductRequest{
			Name: "Pear", Price: 4, DiscountPrice: utils.Float64Ptr(5), DiscountActive: true, CategoryID: cat.ID,
		})
		require.NoError(t, err)
		assert.False(t, p.DiscountActive)
		assert.True(t, p.DiscountPrice.Equal(dec("4")))
		assert.Zero(t, p.DiscountPercent)
	})

	t.Run("分类不存在", func(t *testing.T) {
		_, err := products.Create(ctx, &CreateProductRequest{Name: "X", Price: 1, CategoryID: 999})
		assert.ErrorIs(t, err, errors.ErrCategoryNotFound)
	})

	t.Run("价格必须为正", func(t *testing.T) {
		_, err := products.Create(ctx, &CreateProductRequest{Name: "X", Price: 0, CategoryID: cat.ID})
		assert.ErrorIs(t, err, errors.ErrInvalidPrice)
	})
}

func TestProductService_Update(t *testing.T) {
	_, products, db := newServices(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, db, "Fruit")
	other := testutil.SeedCategory(t, db, "Veg")

	p, err := products.Create(ctx, &CreateProductRequest{Name: "Apple", Price: 10, CategoryID: cat.ID, Stock: testutil.IntPtr(5)})
	require.NoError(t, err)

	t.Run("只开启折扣时折扣价回落原价", func(t *testing.T) {
		updated, err := products.Update(ctx, p.ID, &UpdateProductRequest{DiscountActive: utils.BoolPtr(true)})
		require.NoError(t, err)
		assert.False(t, updated.DiscountActive)
		assert.True(t, updated.DiscountPrice.Equal(dec("10")))
	})

	t.Run("设置折扣价", func(t *testing.T) {
		updated, err := products.Update(ctx, p.ID, &UpdateProductRequest{
			DiscountPrice: utils.Float64Ptr(8), DiscountActive: utils.BoolPtr(true),
		})
		require.NoError(t, err)
		assert.True(t, updated.DiscountActive)
		assert.InDelta(t, 20.0, updated.DiscountPercent, 0.001)
	})

	t.Run("改价后重新推导", func(t *testing.T) {
		updated, err := products.Update(ctx, p.ID, &UpdateProductRequest{Price: utils.Float64Ptr(16)})
		require.NoError(t, err)
		assert.True(t, updated.Price.Equal(dec("16")))
		assert.True(t, updated.DiscountPrice.Equal(dec("8")))
		assert.InDelta(t, 50.0, updated.DiscountPercent, 0.001)
	})

	t.Run("空字段不覆盖", func(t *testing.T) {
		updated, err := products.Update(ctx, p.ID, &UpdateProductRequest{Name: utils.StringPtr(""), Image: utils.StringPtr("")})
		require.NoError(t, err)
		assert.Equal(t, "Apple", updated.Name)
		require.NotNil(t, updated.Stock)
		assert.Equal(t, 5, *updated.Stock)
	})

	t.Run("修改分类", func(t *testing.T) {
		updated, err := products.Update(ctx, p.ID, &UpdateProductRequest{CategoryID: &other.ID})
		require.NoError(t, err)
		assert.Equal(t, other.ID, updated.CategoryID)

		missing := int64(999)
		_, err = products.Update(ctx, p.ID, &UpdateProductRequest{CategoryID: &missing})
		assert.ErrorIs(t, err, errors.ErrCategoryNotFound)
	})

	t.Run("商品不存在", func(t *testing.T) {
		_, err := products.Update(ctx, 999, &UpdateProductRequest{})
		assert.ErrorIs(t, err, errors.ErrProductNotFound)
	})
}

func TestProductService_GetListOffersCounts(t *testing.T) {
	_, products, db := newServices(t)
	ctx := context.Background()
	fruit := testutil.SeedCategory(t, db, "Fruit")
	veg := testutil.SeedCategory(t, db, "Veg")

	_, err := products.Create(ctx, &CreateProductRequest{Name: "Apple", Price: 4, DiscountPrice: utils.Float64Ptr(3), DiscountActive: true, CategoryID: fruit.ID})
	require.NoError(t, err)
	_, err = products.Create(ctx, &CreateProductRequest{Name: "Banana", Price: 2, CategoryID: fruit.ID})
	require.NoError(t, err)
	carrot, err := products.Create(ctx, &CreateProductRequest{Name: "Carrot", Price: 1, CategoryID: veg.ID})
	require.NoError(t, err)

	view, err := products.Get(ctx, carrot.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Category)
	assert.Equal(t, "Veg", view.Category.Name)
	assert.True(t, view.FinalPrice.Equal(dec("1")))

	list, total, err := products.List(ctx, 1, 10, &fruit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	offers, total, err := products.Offers(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Apple", offers[0].Name)
	assert.True(t, offers[0].FinalPrice.Equal(dec("3")))

	count, err := products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	offerCount, err := products.CountOffers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), offerCount)

	require.NoError(t, products.Delete(ctx, carrot.ID))
	assert.ErrorIs(t, products.Delete(ctx, carrot.ID), errors.ErrProductNotFound)
	_, err = products.Get(ctx, carrot.ID)
	assert.ErrorIs(t, err, errors.ErrProductNotFound)
}

// ==================== 搜索测试 ====================

func TestProductService_Search(t *testing.T) {
	_, products, db := newServices(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, db, "Grocery")
	for _, name := range []string{"Apple Juice", "Green Apple", "Apple", "Banana", "Pineapple Green"} {
		testutil.SeedProduct(t, db, cat.ID, name, "1.00", nil)
	}

	t.Run("空关键词", func(t *testing.T) {
		list, total, err := products.Search(ctx, "  ", 1, 10)
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.Zero(t, total)
	})

	t.Run("按相关度排序", func(t *testing.T) {
		list, total, err := products.Search(ctx, "Apple", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)

		names := make([]string, 0, len(list))
		for _, p := range list {
			names = append(names, p.Name)
		}
		// Apple: 18, Apple Juice: 15, Green Apple / Pineapple Green: 10 按名称
		assert.Equal(t, []string{"Apple", "Apple Juice", "Green Apple", "Pineapple Green"}, names)
	})

	t.Run("多词命中加分", func(t *testing.T) {
		list, _, err := products.Search(ctx, "green apple", 1, 10)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		assert.Equal(t, "Green Apple", list[0].Name)
	})

	t.Run("分页", func(t *testing.T) {
		list, total, err := products.Search(ctx, "apple", 2, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, list, 1)
		assert.Equal(t, "Pineapple Green", list[0].Name)

		list, _, err = products.Search(ctx, "apple", 5, 3)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestProductService_Autocomplete(t *testing.T) {
	_, products, db := newServices(t)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, db, "Grocery")
	for _, name := range []string{"Milk", "milkshake", "Mint", "Almond Milk", "Mi_xed", "Millet", "Milo", "Mild Cheese"} {
		testutil.SeedProduct(t, db, cat.ID, name, "1.00", nil)
	}

	items, err := products.Autocomplete(ctx, "MIL", 0)
	require.NoError(t, err)
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"Mild Cheese", "Milk", "Millet", "Milo", "milkshake"}, names)

	items, err = products.Autocomplete(ctx, "mi_", 0)
	require.NoError(t, err)
	require.Len(t, items, 1, "下划线按字面匹配")
	assert.Equal(t, "Mi_xed", items[0].Name)

	items, err = products.Autocomplete(ctx, "m", 100)
	require.NoError(t, err)
	assert.Len(t, items, 7)

	items, err = products.Autocomplete(ctx, "", 5)
	require.NoError(t, err)
	assert.Empty(t, items)

}
