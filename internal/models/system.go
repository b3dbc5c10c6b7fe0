package models

import (
	"time"
)

// DefaultReviewReportReasons 默认的评价举报原因
var DefaultReviewReportReasons = []string{"spam", "offensive", "fake", "privacy", "other"}

// SiteSettingsID 站点设置单例主键
const SiteSettingsID int64 = 1

// SiteSettings 站点设置，全局唯一一行
type SiteSettings struct {
	ID                       int64      `gorm:"primaryKey" json:"id"`
	FooterText               string     `gorm:"type:varchar(500);not null;default:''" json:"footer_text"`
	ContactEmail             string     `gorm:"type:varchar(255);not null;default:''" json:"contact_email"`
	Phone                    string     `gorm:"type:varchar(32);not null;default:''" json:"phone"`
	FacebookLink             string     `gorm:"type:varchar(500);not null;default:''" json:"facebook_link"`
	InstagramLink            string     `gorm:"type:varchar(500);not null;default:''" json:"instagram_link"`
	WhatsappLink             string     `gorm:"type:varchar(500);not null;default:''" json:"whatsapp_link"`
	TiktokLink               string     `gorm:"type:varchar(500);not null;default:''" json:"tiktok_link"`
	TelegramChatID           string     `gorm:"type:varchar(64);not null;default:''" json:"telegram_chat_id"`
	RequirePurchaseForReview bool       `gorm:"not null;default:false" json:"require_purchase_for_review"`
	ReviewReportReasons      StringList `gorm:"type:text" json:"review_report_reasons"`
	CreatedAt                time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (SiteSettings) TableName() string {
	return "site_settings"
}

// DefaultOwnerName 店主默认名称
const DefaultOwnerName = "Default Owner"

// StoreOwner 店主与 Telegram 会话的绑定关系
type StoreOwner struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"store_id"`
	OwnerName   string    `gorm:"type:varchar(100);not null" json:"owner_name"`
	Password    string    `gorm:"type:varchar(255);not null" json:"-"`
	OwnerChatID *int64    `gorm:"index" json:"owner_chat_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (StoreOwner) TableName() string {
	return "store_owners"
}

// Linked 是否已绑定会话
func (s *StoreOwner) Linked() bool {
	return s.OwnerChatID != nil
}
