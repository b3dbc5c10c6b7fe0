package review

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
)

// EditRequest 管理员编辑评论
type EditRequest struct {
	Comment string `json:"comment" binding:"max=500"`
	Reason  string `json:"reason" binding:"max=500"`
}

// ToggleRequest 管理员显示/隐藏评价
type ToggleRequest struct {
	Enabled *bool  `json:"enabled" binding:"required"`
	Reason  string `json:"reason" binding:"max=500"`
}

// ReplyRequest 管理员回复
type ReplyRequest struct {
	Content string `json:"content" binding:"required,notblank,max=500"`
}

// DeleteRequest 管理员删除评价
type DeleteRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// FilterRequest 管理端评价筛选
type FilterRequest struct {
	Status      string   `form:"status" binding:"omitempty,oneof=enabled disabled"`
	MinRating   *float64 `form:"min_rating"`
	MaxRating   *float64 `form:"max_rating"`
	ProductName string   `form:"product_name"`
	Page        int      `form:"page"`
	PageSize    int      `form:"page_size"`
}

// ReportListRequest 举报列表请求
type ReportListRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=open resolved"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// moderate 在一个事务中写入审核记录并执行变更
func (s *ReviewService) moderate(
	ctx context.Context,
	adminID, reviewID int64,
	action, reason string,
	mutate func(tx *gorm.DB, review *models.Review) (previous, next string, err error),
) (*models.Review, error) {
	var result *models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := s.reviewRepo.GetForUpdate(ctx, tx, reviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrReviewNotFound
			}
			return err
		}

		previous, next, err := mutate(tx, review)
		if err != nil {
			return err
		}
		if err := s.auditRepo.Append(ctx, tx, &models.ReviewAudit{
			ReviewID: reviewID,
			AdminID:  adminID,
			Action:   action,
			Reason:   strings.TrimSpace(reason),
			Previous: previous,
			Next:     next,
		}); err != nil {
			return err
		}
		result = review
		return nil
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.metrics.RecordReviewAction(action)
	s.logger.Info("Review moderated",
		logger.ReviewID(reviewID),
		logger.AdminID(adminID),
		logger.Action(action),
	)
	return result, nil
}

// Delete 管理员删除评价及其投票
func (s *ReviewService) Delete(ctx context.Context, adminID, reviewID int64, reason string) error {
	_, err := s.moderate(ctx, adminID, reviewID, models.AuditActionDelete, reason,
		func(tx *gorm.DB, review *models.Review) (string, string, error) {
			return review.Comment, "", s.reviewRepo.Delete(ctx, tx, review.ID)
		})
	return err
}

// Edit 管理员修改评论内容
func (s *ReviewService) Edit(ctx context.Context, adminID, reviewID int64, req *EditRequest) (*models.Review, error) {
	comment := strings.TrimSpace(req.Comment)
	if len([]rune(comment)) > maxCommentLength {
		return nil, errors.ErrCommentTooLong
	}
	return s.moderate(ctx, adminID, reviewID, models.AuditActionEdit, req.Reason,
		func(tx *gorm.DB, review *models.Review) (string, string, error) {
			previous := review.Comment
			if err := s.reviewRepo.UpdateFields(ctx, tx, review.ID, map[string]interface{}{"comment": comment}); err != nil {
				return "", "", err
			}
			review.Comment = comment
			return previous, comment, nil
		})
}

// Toggle 管理员显示或隐藏评价
func (s *ReviewService) Toggle(ctx context.Context, adminID, reviewID int64, enabled bool, reason string) (*models.Review, error) {
	action, status := models.AuditActionDisable, models.ReviewStatusDisabled
	if enabled {
		action, status = models.AuditActionEnable, models.ReviewStatusEnabled
	}
	return s.moderate(ctx, adminID, reviewID, action, reason,
		func(tx *gorm.DB, review *models.Review) (string, string, error) {
			previous := review.Status
			if err := s.reviewRepo.UpdateFields(ctx, tx, review.ID, map[string]interface{}{"status": status}); err != nil {
				return "", "", err
			}
			review.Status = status
			return previous, status, nil
		})
}

// Reply 管理员回复评价，覆盖已有回复
func (s *ReviewService) Reply(ctx context.Context, adminID, reviewID int64, content string) (*models.Review, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.ErrInvalidParams.WithMessage("回复内容不能为空")
	}
	if len([]rune(content)) > maxCommentLength {
		return nil, errors.ErrCommentTooLong
	}
	return s.moderate(ctx, adminID, reviewID, models.AuditActionReply, "",
		func(tx *gorm.DB, review *models.Review) (string, string, error) {
			previous := ""
			if review.AdminReply != nil {
				previous = review.AdminReply.Content
			}
			reply := &models.AdminReply{AdminID: adminID, Content: content, CreatedAt: time.Now()}
			if err := s.reviewRepo.UpdateFields(ctx, tx, review.ID, map[string]interface{}{"admin_reply": reply}); err != nil {
				return "", "", err
			}
			review.AdminReply = reply
			return previous, content, nil
		})
}

// Audits 获取评价的审核记录
func (s *ReviewService) Audits(ctx context.Context, reviewID int64) ([]*models.ReviewAudit, error) {
	audits, err := s.auditRepo.ListByReview(ctx, reviewID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return audits, nil
}

// Filter 管理端筛选评价，包含隐藏的评价
func (s *ReviewService) Filter(ctx context.Context, req *FilterRequest) ([]*models.Review, int64, error) {
	if req.MinRating != nil && req.MaxRating != nil && *req.MinRating > *req.MaxRating {
		return nil, 0, errors.ErrInvalidParams.WithMessage("min_rating 不能大于 max_rating")
	}
	reviews, total, err := s.reviewRepo.Filter(ctx, repository.ReviewFilterParams{
		Page:        req.Page,
		PageSize:    req.PageSize,
		Status:      req.Status,
		MinRating:   req.MinRating,
		MaxRating:   req.MaxRating,
		ProductName: req.ProductName,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return reviews, total, nil
}

// Reports 管理端举报列表
func (s *ReviewService) Reports(ctx context.Context, req *ReportListRequest) ([]*models.ReviewReport, int64, error) {
	reports, total, err := s.reportRepo.List(ctx, req.Status, req.Page, req.PageSize)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return reports, total, nil
}

// ResolveReport 将举报标记为已处理
func (s *ReviewService) ResolveReport(ctx context.Context, adminID, reportID int64) (*models.ReviewReport, error) {
	rows, err := s.reportRepo.Resolve(ctx, reportID, time.Now())
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if rows == 0 {
		return nil, errors.ErrReportNotFound
	}
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("Review report resolved",
		logger.AdminID(adminID),
		zap.Int64("report_id", reportID),
	)
	return report, nil
}
