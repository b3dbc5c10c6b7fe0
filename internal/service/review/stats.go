package review

import (
	"context"
	"time"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/repository"
)

// ActivityRequest 评价趋势请求
type ActivityRequest struct {
	Start       *time.Time
	End         *time.Time
	Granularity string
}

// AverageRatings 按商品统计平均分与评价数
func (s *ReviewService) AverageRatings(ctx context.Context, productID *int64) ([]repository.ProductRatingStat, error) {
	stats, err := s.reviewRepo.AverageByProduct(ctx, productID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return stats, nil
}

// Distribution 评分分布
func (s *ReviewService) Distribution(ctx context.Context, productID *int64) ([]repository.RatingBucket, error) {
	buckets, err := s.reviewRepo.Distribution(ctx, productID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return buckets, nil
}

// TopProducts 评价数最多的商品，limit ≤ 0 时使用默认值
func (s *ReviewService) TopProducts(ctx context.Context, limit int) ([]repository.TopProductStat, error) {
	if limit <= 0 {
		limit = s.cfg.TopProductLimit
	}
	if limit > 100 {
		limit = 100
	}
	stats, err := s.reviewRepo.TopProducts(ctx, limit)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return stats, nil
}

// Activity 按日或按月统计评价数量
func (s *ReviewService) Activity(ctx context.Context, req *ActivityRequest) ([]repository.ActivityBucket, error) {
	granularity := req.Granularity
	switch granularity {
	case "":
		granularity = granularityDay
	case granularityDay, granularityMonth:
	default:
		return nil, errors.ErrInvalidParams.WithMessage("granularity 必须是 day 或 month")
	}
	if req.Start != nil && req.End != nil && req.Start.After(*req.End) {
		return nil, errors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
	}

	buckets, err := s.reviewRepo.Activity(ctx, req.Start, req.End, granularity)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return buckets, nil
}
