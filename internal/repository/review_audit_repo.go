package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// ReviewAuditRepository 评价审核记录仓储，只提供追加与查询
type ReviewAuditRepository struct {
	db *gorm.DB
}

// NewReviewAuditRepository 创建评价审核记录仓储
func NewReviewAuditRepository(db *gorm.DB) *ReviewAuditRepository {
	return &ReviewAuditRepository{db: db}
}

// Append 在事务中追加审核记录
func (r *ReviewAuditRepository) Append(ctx context.Context, tx *gorm.DB, audit *models.ReviewAudit) error {
	return tx.WithContext(ctx).Create(audit).Error
}

// ListByReview 获取评价的审核记录，按时间正序
func (r *ReviewAuditRepository) ListByReview(ctx context.Context, reviewID int64) ([]*models.ReviewAudit, error) {
	var audits []*models.ReviewAudit
	err := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Order("created_at ASC").Order("id ASC").
		Find(&audits).Error
	return audits, err
}
