package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/grocy-backend/internal/models"
)

// SettingsRepository 站点设置仓储
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository 创建站点设置仓储
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetOrCreate 获取单例设置，不存在时以 defaults 创建
// 并发首次读取时由主键冲突保证只插入一行
func (r *SettingsRepository) GetOrCreate(ctx context.Context, defaults *models.SiteSettings) (*models.SiteSettings, error) {
	defaults.ID = models.SiteSettingsID
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(defaults).Error
	if err != nil {
		return nil, err
	}

	var settings models.SiteSettings
	if err := r.db.WithContext(ctx).First(&settings, models.SiteSettingsID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Get 获取单例设置
func (r *SettingsRepository) Get(ctx context.Context) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	err := r.db.WithContext(ctx).First(&settings, models.SiteSettingsID).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save 保存设置
func (r *SettingsRepository) Save(ctx context.Context, settings *models.SiteSettings) error {
	settings.ID = models.SiteSettingsID
	return r.db.WithContext(ctx).Save(settings).Error
}
