// Package review 提供商品评价、投票、举报、审核与统计服务
package review

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/config"
	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/handler"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/common/metrics"
	"github.com/dumeirei/grocy-backend/internal/common/tracing"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
)

const (
	maxCommentLength   = 500
	defaultPageSize    = 10
	defaultTopProducts = 10
	granularityDay     = "day"
	granularityMonth   = "month"
)

// qualifyingStatuses 满足购买校验的订单状态
var qualifyingStatuses = []string{models.OrderStatusConfirmed, models.OrderStatusDelivered}

// PolicyProvider 评价策略来源
type PolicyProvider interface {
	RequirePurchaseForReview(ctx context.Context) (bool, error)
	ReportReasons(ctx context.Context) ([]string, error)
}

// ReviewService 评价服务
type ReviewService struct {
	db          *gorm.DB
	reviewRepo  *repository.ReviewRepository
	voteRepo    *repository.ReviewVoteRepository
	reportRepo  *repository.ReviewReportRepository
	auditRepo   *repository.ReviewAuditRepository
	productRepo *repository.ProductRepository
	orderRepo   *repository.OrderRepository
	policy      PolicyProvider
	cfg         config.ReviewConfig
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// Options 评价服务依赖
type Options struct {
	DB          *gorm.DB
	ReviewRepo  *repository.ReviewRepository
	VoteRepo    *repository.ReviewVoteRepository
	ReportRepo  *repository.ReviewReportRepository
	AuditRepo   *repository.ReviewAuditRepository
	ProductRepo *repository.ProductRepository
	OrderRepo   *repository.OrderRepository
	Policy      PolicyProvider
	Config      *config.ReviewConfig
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// NewReviewService 创建评价服务
func NewReviewService(opts Options) *ReviewService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &ReviewService{
		db:          opts.DB,
		reviewRepo:  opts.ReviewRepo,
		voteRepo:    opts.VoteRepo,
		reportRepo:  opts.ReportRepo,
		auditRepo:   opts.AuditRepo,
		productRepo: opts.ProductRepo,
		orderRepo:   opts.OrderRepo,
		policy:      opts.Policy,
		metrics:     opts.Metrics,
		logger:      opts.Logger.Named("review"),
	}
	if opts.Config != nil {
		s.cfg = *opts.Config
	}
	if s.cfg.PageSize <= 0 {
		s.cfg.PageSize = defaultPageSize
	}
	if s.cfg.TopProductLimit <= 0 {
		s.cfg.TopProductLimit = defaultTopProducts
	}
	return s
}

// CreateReviewRequest 创建评价请求
type CreateReviewRequest struct {
	ProductID int64   `json:"product_id" binding:"required,gt=0"`
	Rating    float64 `json:"rating" binding:"required,halfstep"`
	Comment   string  `json:"comment" binding:"max=500"`
}

// VoteRequest 投票请求
type VoteRequest struct {
	Value string `json:"value" binding:"required,oneof=helpful not_helpful"`
}

// ReportRequest 举报请求
type ReportRequest struct {
	Reason  string `json:"reason" binding:"required"`
	Details string `json:"details" binding:"max=500"`
}

// ListRequest 公开评价列表请求
type ListRequest struct {
	ProductID *int64   `form:"product_id"`
	Rating    *float64 `form:"rating"`
	Sort      string   `form:"sort" binding:"omitempty,oneof=date rating helpful"`
	Page      int      `form:"page"`
	Limit     int      `form:"limit"`
}

// ListResult 公开评价列表
type ListResult struct {
	Reviews    []*models.Review `json:"reviews"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
}

// Create 创建评价
func (s *ReviewService) Create(ctx context.Context, userID int64, req *CreateReviewRequest) (*models.Review, error) {
	ctx, span := tracing.Start(ctx, "review.create", tracing.WithUserID(userID), tracing.WithProductID(req.ProductID))
	review, err := s.create(ctx, userID, req)
	tracing.End(span, err)
	return review, err
}

func (s *ReviewService) create(ctx context.Context, userID int64, req *CreateReviewRequest) (*models.Review, error) {
	if !handler.IsValidRating(req.Rating) {
		return nil, errors.ErrInvalidRating
	}
	comment := strings.TrimSpace(req.Comment)
	if len([]rune(comment)) > maxCommentLength {
		return nil, errors.ErrCommentTooLong
	}

	required, err := s.policy.RequirePurchaseForReview(ctx)
	if err != nil {
		return nil, err
	}
	if required {
		purchased, err := s.orderRepo.HasPurchased(ctx, userID, req.ProductID, qualifyingStatuses)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if !purchased {
			return nil, errors.ErrPurchaseRequired
		}
	}

	if _, err := s.productRepo.GetByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrProductNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	exists, err := s.reviewRepo.ExistsByProductAndUser(ctx, req.ProductID, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrReviewExists
	}

	review := &models.Review{
		ProductID:        req.ProductID,
		UserID:           userID,
		Rating:           req.Rating,
		Comment:          comment,
		Status:           models.ReviewStatusEnabled,
		PurchaseVerified: required,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrReviewExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.metrics.RecordReviewAction("create")
	s.logger.Info("Review created", logger.ReviewID(review.ID), logger.ProductID(review.ProductID), logger.UserID(userID))
	return review, nil
}

// List 公开评价列表，仅包含展示中的评价
func (s *ReviewService) List(ctx context.Context, req *ListRequest) (*ListResult, error) {
	p := utils.Pagination{Page: req.Page, PageSize: req.Limit}
	p.NormalizeWithDefault(s.cfg.PageSize)

	reviews, total, err := s.reviewRepo.ListEnabled(ctx, repository.ReviewListParams{
		Page:      p.Page,
		PageSize:  p.PageSize,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Sort:      req.Sort,
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	p.Total = total

	return &ListResult{
		Reviews:    reviews,
		Total:      total,
		TotalPages: p.GetTotalPages(),
		Page:       p.Page,
	}, nil
}

// Vote 对评价投票，同值重复投票为空操作，改票时计数在两项间转移
func (s *ReviewService) Vote(ctx context.Context, userID, reviewID int64, value string) (*models.Review, error) {
	if value != models.VoteHelpful && value != models.VoteNotHelpful {
		return nil, errors.ErrInvalidVote
	}

	var updated *models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := s.reviewRepo.GetForUpdate(ctx, tx, reviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrReviewNotFound
			}
			return err
		}
		if review.Status != models.ReviewStatusEnabled {
			return errors.ErrReviewUnavailable
		}

		vote, err := s.voteRepo.Get(ctx, tx, reviewID, userID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.voteRepo.Create(ctx, tx, &models.ReviewVote{ReviewID: reviewID, UserID: userID, Value: value}); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errors.ErrVoteConflict
				}
				return err
			}
			h, n := voteDelta(value, 1)
			if err := s.reviewRepo.AdjustCounters(ctx, tx, reviewID, h, n); err != nil {
				return err
			}
		case err != nil:
			return err
		case vote.Value == value:
			updated = review
			return nil
		default:
			if err := s.voteRepo.UpdateValue(ctx, tx, vote.ID, value); err != nil {
				return err
			}
			oh, on := voteDelta(vote.Value, -1)
			nh, nn := voteDelta(value, 1)
			if err := s.reviewRepo.AdjustCounters(ctx, tx, reviewID, oh+nh, on+nn); err != nil {
				return err
			}
		}

		updated, err = s.reviewRepo.GetForUpdate(ctx, tx, reviewID)
		return err
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.metrics.RecordReviewAction("vote")
	return updated, nil
}

func voteDelta(value string, n int) (helpful, notHelpful int) {
	if value == models.VoteHelpful {
		return n, 0
	}
	return 0, n
}

// Report 举报评价，每次举报都新增一条待处理记录
func (s *ReviewService) Report(ctx context.Context, userID, reviewID int64, req *ReportRequest) (*models.ReviewReport, error) {
	if _, err := s.reviewRepo.GetByID(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrReviewNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	reasons, err := s.policy.ReportReasons(ctx)
	if err != nil {
		return nil, err
	}
	reason := strings.ToLower(strings.TrimSpace(req.Reason))
	if !utils.Contains(reasons, reason) {
		return nil, errors.ErrInvalidReportReason.WithMessagef("举报原因必须是 %s 之一", strings.Join(reasons, ", "))
	}
	details := strings.TrimSpace(req.Details)
	if len([]rune(details)) > maxCommentLength {
		return nil, errors.ErrCommentTooLong
	}

	report := &models.ReviewReport{
		ReviewID: reviewID,
		UserID:   userID,
		Reason:   reason,
		Details:  details,
		Status:   models.ReportStatusOpen,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.metrics.RecordReviewAction("report")
	s.logger.Info("Review reported", logger.ReviewID(reviewID), logger.UserID(userID), zap.String("reason", reason))
	return report, nil
}
