// Package store 提供店主管理与 Telegram 会话绑定服务
package store

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/crypto"
	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/metrics"
	"github.com/dumeirei/grocy-backend/internal/common/qrcode"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
	"github.com/dumeirei/grocy-backend/pkg/telegram"
)

const defaultOwnerName = "Default Owner"

// StoreService 店主服务
type StoreService struct {
	repo        *repository.StoreOwnerRepository
	hasher      *crypto.Hasher
	bot         telegram.Sender
	botUsername string
	qr          *qrcode.Generator
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// Options 店主服务依赖，Bot 为空时不回复消息
type Options struct {
	Repo        *repository.StoreOwnerRepository
	Hasher      *crypto.Hasher
	Bot         telegram.Sender
	BotUsername string
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// NewStoreService 创建店主服务
func NewStoreService(opts Options) *StoreService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Hasher == nil {
		opts.Hasher = crypto.NewHasher(0)
	}
	return &StoreService{
		repo:        opts.Repo,
		hasher:      opts.Hasher,
		bot:         opts.Bot,
		botUsername: opts.BotUsername,
		qr:          qrcode.NewGenerator(),
		metrics:     opts.Metrics,
		logger:      opts.Logger.Named("store"),
	}
}

// CreateOwnerRequest 创建店主请求
type CreateOwnerRequest struct {
	StoreID   string `json:"store_id" binding:"max=64"`
	OwnerName string `json:"owner_name" binding:"max=100"`
	Password  string `json:"password" binding:"required,notblank,max=72"`
}

// LinkQR 绑定二维码
type LinkQR struct {
	StoreID string `json:"store_id"`
	Link    string `json:"link"`
	QRCode  string `json:"qr_code"`
}

// Create 创建店主，未指定店铺 ID 时自动生成
func (s *StoreService) Create(ctx context.Context, req *CreateOwnerRequest) (*models.StoreOwner, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("密码不能为空")
	}

	owner := &models.StoreOwner{
		StoreID:   strings.TrimSpace(req.StoreID),
		OwnerName: utils.FirstNonEmpty(strings.TrimSpace(req.OwnerName), defaultOwnerName),
		Password:  hash,
	}
	if owner.StoreID == "" {
		owner.StoreID = "STORE-" + utils.GenerateCode(8)
	}

	if err := s.repo.Create(ctx, owner); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrStoreOwnerExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.logger.Info("Store owner created", zap.Int64("owner_id", owner.ID), zap.String("store_id", owner.StoreID))
	return owner, nil
}

// List 获取全部店主
func (s *StoreService) List(ctx context.Context) ([]*models.StoreOwner, error) {
	owners, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return owners, nil
}

// Delete 删除店主
func (s *StoreService) Delete(ctx context.Context, id int64) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if rows == 0 {
		return errors.ErrStoreOwnerNotFound
	}
	return nil
}

// DeleteAll 删除全部店主，返回删除数量
func (s *StoreService) DeleteAll(ctx context.Context) (int64, error) {
	rows, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Warn("All store owners deleted", zap.Int64("count", rows))
	return rows, nil
}

// LinkQRCode 生成机器人深链接二维码
func (s *StoreService) LinkQRCode(ctx context.Context, id int64) (*LinkQR, error) {
	if s.botUsername == "" {
		return nil, errors.ErrBotNotConfigured
	}
	owner, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrStoreOwnerNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	link := qrcode.TelegramDeepLink(s.botUsername, owner.StoreID)
	data, err := s.qr.DataURL(link)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return &LinkQR{StoreID: owner.StoreID, Link: link, QRCode: data}, nil
}
