package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/database"
	"github.com/dumeirei/grocy-backend/internal/models"
)

// ReviewReportRepository 评价举报仓储
type ReviewReportRepository struct {
	db *gorm.DB
}

// NewReviewReportRepository 创建评价举报仓储
func NewReviewReportRepository(db *gorm.DB) *ReviewReportRepository {
	return &ReviewReportRepository{db: db}
}

// Create 新增举报
func (r *ReviewReportRepository) Create(ctx context.Context, report *models.ReviewReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// GetByID 根据 ID 获取举报
func (r *ReviewReportRepository) GetByID(ctx context.Context, id int64) (*models.ReviewReport, error) {
	var report models.ReviewReport
	err := r.db.WithContext(ctx).First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// List 分页获取举报，可按状态筛选
func (r *ReviewReportRepository) List(ctx context.Context, status string, page, pageSize int) ([]*models.ReviewReport, int64, error) {
	var reports []*models.ReviewReport
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ReviewReport{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(database.OrderByCreatedDesc, database.Paginate(page, pageSize)).Find(&reports).Error
	return reports, total, err
}

// Resolve 将举报标记为已处理
func (r *ReviewReportRepository) Resolve(ctx context.Context, id int64, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ReviewReport{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.ReportStatusResolved,
			"resolved_at": at,
		})
	return result.RowsAffected, result.Error
}
