package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Review 商品评价，同一用户对同一商品只能评价一次
type Review struct {
	ID               int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID        int64       `gorm:"not null;uniqueIndex:uk_review_product_user;index" json:"product_id"`
	UserID           int64       `gorm:"not null;uniqueIndex:uk_review_product_user" json:"user_id"`
	Rating           float64     `gorm:"not null;index" json:"rating"`
	Comment          string      `gorm:"type:varchar(500);not null;default:''" json:"comment"`
	Status           string      `gorm:"type:varchar(20);not null;default:'enabled';index" json:"status"`
	HelpfulCount     int         `gorm:"not null;default:0" json:"helpful_count"`
	NotHelpfulCount  int         `gorm:"not null;default:0" json:"not_helpful_count"`
	PurchaseVerified bool        `gorm:"not null;default:false" json:"purchase_verified"`
	AdminReply       *AdminReply `gorm:"type:text" json:"admin_reply,omitempty"`
	CreatedAt        time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Review) TableName() string {
	return "reviews"
}

// ReviewStatus 评价状态
const (
	ReviewStatusEnabled  = "enabled"  // 展示
	ReviewStatusDisabled = "disabled" // 隐藏
)

// AdminReply 管理员回复，以 JSON 存储在评价行内
type AdminReply struct {
	AdminID   int64     `json:"admin_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Scan 实现 sql.Scanner 接口
func (r *AdminReply) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// Value 实现 driver.Valuer 接口
func (r AdminReply) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ReviewVote 评价投票
type ReviewVote struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReviewID  int64     `gorm:"not null;uniqueIndex:uk_vote_review_user" json:"review_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:uk_vote_review_user" json:"user_id"`
	Value     string    `gorm:"type:varchar(20);not null" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (ReviewVote) TableName() string {
	return "review_votes"
}

// VoteValue 投票取值
const (
	VoteHelpful    = "helpful"
	VoteNotHelpful = "not_helpful"
)

// ReviewReport 评价举报
type ReviewReport struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReviewID   int64      `gorm:"index;not null" json:"review_id"`
	UserID     int64      `gorm:"index;not null" json:"user_id"`
	Reason     string     `gorm:"type:varchar(50);not null" json:"reason"`
	Details    string     `gorm:"type:varchar(500);not null;default:''" json:"details"`
	Status     string     `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// TableName 表名
func (ReviewReport) TableName() string {
	return "review_reports"
}

// ReportStatus 举报状态
const (
	ReportStatusOpen     = "open"     // 待处理
	ReportStatusResolved = "resolved" // 已处理
)

// ReviewAudit 评价审核记录，只追加不修改
type ReviewAudit struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReviewID  int64     `gorm:"index;not null" json:"review_id"`
	AdminID   int64     `gorm:"index;not null" json:"admin_id"`
	Action    string    `gorm:"type:varchar(20);not null" json:"action"`
	Reason    string    `gorm:"type:varchar(500);not null;default:''" json:"reason"`
	Previous  string    `gorm:"type:text" json:"previous"`
	Next      string    `gorm:"type:text" json:"next"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 表名
func (ReviewAudit) TableName() string {
	return "review_audits"
}

// AuditAction 审核动作
const (
	AuditActionDelete  = "delete"
	AuditActionEdit    = "edit"
	AuditActionDisable = "disable"
	AuditActionEnable  = "enable"
	AuditActionReply   = "reply"
)
