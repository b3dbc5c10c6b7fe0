// Package settings 提供站点设置服务
package settings

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
)

// SettingsService 站点设置服务
type SettingsService struct {
	repo   *repository.SettingsRepository
	logger *zap.Logger
}

// NewSettingsService 创建站点设置服务
func NewSettingsService(repo *repository.SettingsRepository, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, logger: logger.Named("settings")}
}

// UpdateSettingsRequest 更新站点设置请求，空字符串不覆盖已有值
type UpdateSettingsRequest struct {
	FooterText               string    `json:"footer_text" binding:"max=500"`
	ContactEmail             string    `json:"contact_email" binding:"omitempty,email,max=255"`
	Phone                    string    `json:"phone" binding:"max=32"`
	FacebookLink             string    `json:"facebook_link" binding:"max=500"`
	InstagramLink            string    `json:"instagram_link" binding:"max=500"`
	WhatsappLink             string    `json:"whatsapp_link" binding:"max=500"`
	TiktokLink               string    `json:"tiktok_link" binding:"max=500"`
	TelegramChatID           string    `json:"telegram_chat_id" binding:"max=64"`
	RequirePurchaseForReview *bool     `json:"require_purchase_for_review"`
	ReviewReportReasons      *[]string `json:"review_report_reasons"`
}

func defaults() *models.SiteSettings {
	reasons := make(models.StringList, len(models.DefaultReviewReportReasons))
	copy(reasons, models.DefaultReviewReportReasons)
	return &models.SiteSettings{
		RequirePurchaseForReview: false,
		ReviewReportReasons:      reasons,
	}
}

// Get 获取站点设置，首次读取时创建默认值
func (s *SettingsService) Get(ctx context.Context) (*models.SiteSettings, error) {
	settings, err := s.repo.GetOrCreate(ctx, defaults())
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return settings, nil
}

// Update 合并更新站点设置
func (s *SettingsService) Update(ctx context.Context, req *UpdateSettingsRequest) (*models.SiteSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	mergeString(&settings.FooterText, req.FooterText)
	mergeString(&settings.ContactEmail, req.ContactEmail)
	mergeString(&settings.Phone, req.Phone)
	mergeString(&settings.FacebookLink, req.FacebookLink)
	mergeString(&settings.InstagramLink, req.InstagramLink)
	mergeString(&settings.WhatsappLink, req.WhatsappLink)
	mergeString(&settings.TiktokLink, req.TiktokLink)
	mergeString(&settings.TelegramChatID, req.TelegramChatID)

	if req.RequirePurchaseForReview != nil {
		settings.RequirePurchaseForReview = *req.RequirePurchaseForReview
	}
	if req.ReviewReportReasons != nil {
		reasons := utils.NormalizeTags(*req.ReviewReportReasons)
		if len(reasons) == 0 {
			reasons = defaults().ReviewReportReasons
		}
		settings.ReviewReportReasons = reasons
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.logger.Info("Site settings updated",
		zap.Bool("require_purchase_for_review", settings.RequirePurchaseForReview),
		zap.Strings("review_report_reasons", settings.ReviewReportReasons),
	)
	return settings, nil
}

// ReportReasons 返回允许的举报原因
func (s *SettingsService) ReportReasons(ctx context.Context) ([]string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(settings.ReviewReportReasons) == 0 {
		return models.DefaultReviewReportReasons, nil
	}
	return settings.ReviewReportReasons, nil
}

// RequirePurchaseForReview 评价是否需要购买记录
func (s *SettingsService) RequirePurchaseForReview(ctx context.Context) (bool, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return settings.RequirePurchaseForReview, nil
}

func mergeString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
