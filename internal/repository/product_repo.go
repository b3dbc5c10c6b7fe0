package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/database"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/models"
)

// ProductRepository 商品仓储
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create 创建商品
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID 根据 ID 获取商品
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDWithCategory 根据 ID 获取商品（包含分类）
func (r *ProductRepository) GetByIDWithCategory(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDs 批量获取商品，返回 ID 到商品的映射
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	result := make(map[int64]*models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var products []*models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

// Update 保存商品
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete 删除商品，返回受影响行数
func (r *ProductRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	return result.RowsAffected, result.Error
}

// ProductListParams 商品列表查询参数
type ProductListParams struct {
	Page       int
	PageSize   int
	CategoryID *int64
	OffersOnly bool
}

// List 分页获取商品列表，按创建时间倒序
func (r *ProductRepository) List(ctx context.Context, params ProductListParams) ([]*models.Product, int64, error) {
	var products []*models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.OffersOnly {
		query = query.Scopes(offerScope)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Category").
		Scopes(database.OrderByCreatedDesc, database.Paginate(params.Page, params.PageSize)).
		Find(&products).Error
	return products, total, err
}

// offerScope 折扣生效且折扣价低于原价
func offerScope(db *gorm.DB) *gorm.DB {
	return db.Where("discount_active = ? AND discount_price < price", true)
}

// Count 商品总数
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

// CountOffers 折扣商品数
func (r *ProductRepository) CountOffers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(offerScope).Count(&count).Error
	return count, err
}

// CountByCategory 分类下的商品数
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// FindByNameTerms 查找名称（不区分大小写）包含任一关键词的商品
func (r *ProductRepository) FindByNameTerms(ctx context.Context, terms []string) ([]*models.Product, error) {
	var products []*models.Product
	if len(terms) == 0 {
		return products, nil
	}

	cond := r.db.WithContext(ctx)
	for i, term := range terms {
		pattern := "%" + utils.EscapeLike(strings.ToLower(term)) + "%"
		if i == 0 {
			cond = cond.Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
		} else {
			cond = cond.Or("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
		}
	}

	err := r.db.WithContext(ctx).Where(cond).Find(&products).Error
	return products, err
}

// FindByNamePrefix 名称前缀匹配（不区分大小写），按名称升序
func (r *ProductRepository) FindByNamePrefix(ctx context.Context, prefix string, limit int) ([]*models.Product, error) {
	var products []*models.Product
	pattern := utils.EscapeLike(strings.ToLower(prefix)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern).
		Order("name ASC").Order("id ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// DecreaseStock 条件扣减库存，仅在库存受跟踪且充足时生效，返回受影响行数
func (r *ProductRepository) DecreaseStock(ctx context.Context, tx *gorm.DB, id int64, qty int) (int64, error) {
	result := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock IS NOT NULL AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return result.RowsAffected, result.Error
}
