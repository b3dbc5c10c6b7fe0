package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// ReviewVoteRepository 评价投票仓储，所有写操作都在调用方事务内执行
type ReviewVoteRepository struct {
	db *gorm.DB
}

// NewReviewVoteRepository 创建评价投票仓储
func NewReviewVoteRepository(db *gorm.DB) *ReviewVoteRepository {
	return &ReviewVoteRepository{db: db}
}

// Get 获取用户对评价的投票
func (r *ReviewVoteRepository) Get(ctx context.Context, tx *gorm.DB, reviewID, userID int64) (*models.ReviewVote, error) {
	var vote models.ReviewVote
	err := tx.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// Create 新增投票
func (r *ReviewVoteRepository) Create(ctx context.Context, tx *gorm.DB, vote *models.ReviewVote) error {
	return tx.WithContext(ctx).Create(vote).Error
}

// UpdateValue 修改投票取值
func (r *ReviewVoteRepository) UpdateValue(ctx context.Context, tx *gorm.DB, id int64, value string) error {
	return tx.WithContext(ctx).Model(&models.ReviewVote{}).Where("id = ?", id).Update("value", value).Error
}

// CountByReview 统计评价的投票数（按取值）
func (r *ReviewVoteRepository) CountByReview(ctx context.Context, reviewID int64, value string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReviewVote{}).
		Where("review_id = ? AND value = ?", reviewID, value).
		Count(&count).Error
	return count, err
}
