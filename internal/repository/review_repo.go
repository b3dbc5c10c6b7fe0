package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/database"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/models"
)

// ReviewRepository 评价仓储
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create 创建评价
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// GetByID 根据 ID 获取评价
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetForUpdate 在事务中获取评价（加锁）
func (r *ReviewRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Review, error) {
	var review models.Review
	query := tx.WithContext(ctx)
	if database.IsPostgres(tx) {
		query = query.Set("gorm:query_option", "FOR UPDATE")
	}
	if err := query.First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ExistsByProductAndUser 用户是否已评价该商品
func (r *ReviewRepository) ExistsByProductAndUser(ctx context.Context, productID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error
	return count > 0, err
}

// UpdateFields 在事务中更新评价字段
func (r *ReviewRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id int64, fields map[string]interface{}) error {
	return tx.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(fields).Error
}

// AdjustCounters 在事务中调整有用/无用计数，结果不低于 0
func (r *ReviewRepository) AdjustCounters(ctx context.Context, tx *gorm.DB, id int64, helpfulDelta, notHelpfulDelta int) error {
	return tx.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(map[string]interface{}{
		"helpful_count":     gorm.Expr("CASE WHEN helpful_count + ? < 0 THEN 0 ELSE helpful_count + ? END", helpfulDelta, helpfulDelta),
		"not_helpful_count": gorm.Expr("CASE WHEN not_helpful_count + ? < 0 THEN 0 ELSE not_helpful_count + ? END", notHelpfulDelta, notHelpfulDelta),
	}).Error
}

// Delete 在事务中删除评价及其投票
func (r *ReviewRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	if err := tx.WithContext(ctx).Where("review_id = ?", id).Delete(&models.ReviewVote{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(&models.Review{}, id).Error
}

// 评价排序方式
const (
	ReviewSortDate    = "date"
	ReviewSortRating  = "rating"
	ReviewSortHelpful = "helpful"
)

// ReviewListParams 公开评价列表查询参数
type ReviewListParams struct {
	Page      int
	PageSize  int
	ProductID *int64
	Rating    *float64
	Sort      string
}

// ListEnabled 分页获取已展示的评价
func (r *ReviewRepository) ListEnabled(ctx context.Context, params ReviewListParams) ([]*models.Review, int64, error) {
	var reviews []*models.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("status = ?", models.ReviewStatusEnabled)
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.Rating != nil {
		query = query.Where("rating = ?", *params.Rating)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch params.Sort {
	case ReviewSortRating:
		query = query.Order("rating DESC").Order("created_at DESC")
	case ReviewSortHelpful:
		query = query.Order("helpful_count DESC").Order("not_helpful_count ASC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	err := query.Order("id DESC").
		Preload("User").
		Scopes(database.Paginate(params.Page, params.PageSize)).
		Find(&reviews).Error
	return reviews, total, err
}

// ReviewFilterParams 管理端评价筛选参数
type ReviewFilterParams struct {
	Page        int
	PageSize    int
	Status      string
	MinRating   *float64
	MaxRating   *float64
	ProductName string
}

// Filter 管理端分页筛选评价，商品名称按子串匹配
func (r *ReviewRepository) Filter(ctx context.Context, params ReviewFilterParams) ([]*models.Review, int64, error) {
	var reviews []*models.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Review{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.MinRating != nil {
		query = query.Where("rating >= ?", *params.MinRating)
	}
	if params.MaxRating != nil {
		query = query.Where("rating <= ?", *params.MaxRating)
	}
	if name := strings.TrimSpace(params.ProductName); name != "" {
		pattern := "%" + utils.EscapeLike(strings.ToLower(name)) + "%"
		sub := r.db.Model(&models.Product{}).Select("id").Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
		query = query.Where("product_id IN (?)", sub)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Product").
		Preload("User").
		Scopes(database.OrderByCreatedDesc, database.Paginate(params.Page, params.PageSize)).
		Find(&reviews).Error
	return reviews, total, err
}

// ==================== 统计 ====================

// ProductRatingStat 商品评分汇总
type ProductRatingStat struct {
	ProductID     int64   `json:"product_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// RatingBucket 评分分布桶
type RatingBucket struct {
	Rating float64 `json:"rating"`
	Count  int64   `json:"count"`
}

// TopProductStat 评价数最多的商品
type TopProductStat struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	ReviewCount int64   `json:"review_count"`
	AvgRating   float64 `json:"average_rating"`
}

// ActivityBucket 时间段内的评价数量
type ActivityBucket struct {
	Period string `json:"period"`
	Count  int64  `json:"count"`
}

func (r *ReviewRepository) enabledScope(productID *int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", models.ReviewStatusEnabled)
		if productID != nil {
			db = db.Where("product_id = ?", *productID)
		}
		return db
	}
}

// AverageByProduct 按商品分组的平均分与评价数
func (r *ReviewRepository) AverageByProduct(ctx context.Context, productID *int64) ([]ProductRatingStat, error) {
	var stats []ProductRatingStat
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("product_id, AVG(rating) AS average_rating, COUNT(*) AS review_count").
		Scopes(r.enabledScope(productID)).
		Group("product_id").
		Order("product_id ASC").
		Scan(&stats).Error
	return stats, err
}

// Distribution 评分分布，按评分升序
func (r *ReviewRepository) Distribution(ctx context.Context, productID *int64) ([]RatingBucket, error) {
	var buckets []RatingBucket
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Scopes(r.enabledScope(productID)).
		Group("rating").
		Order("rating ASC").
		Scan(&buckets).Error
	return buckets, err
}

// TopProducts 评价数最多的商品
func (r *ReviewRepository) TopProducts(ctx context.Context, limit int) ([]TopProductStat, error) {
	var stats []TopProductStat
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("reviews.product_id, products.name AS product_name, COUNT(*) AS review_count, AVG(reviews.rating) AS avg_rating").
		Joins("JOIN products ON products.id = reviews.product_id").
		Where("reviews.status = ?", models.ReviewStatusEnabled).
		Group("reviews.product_id, products.name").
		Order("review_count DESC").
		Order("reviews.product_id ASC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

// Activity 按日或按月统计评价数量，按时间正序
func (r *ReviewRepository) Activity(ctx context.Context, start, end *time.Time, granularity string) ([]ActivityBucket, error) {
	var buckets []ActivityBucket
	db := r.db.WithContext(ctx)
	bucket := database.DateBucket(db, "created_at", granularity)

	query := db.Model(&models.Review{}).Select(bucket + " AS period, COUNT(*) AS count")
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at <= ?", *end)
	}
	err := query.Group("period").Order("period ASC").Scan(&buckets).Error
	return buckets, err
}
