// Package order 提供下单流水线与订单管理服务
package order

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/cache"
	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/common/metrics"
	"github.com/dumeirei/grocy-backend/internal/common/tracing"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
	"github.com/dumeirei/grocy-backend/internal/service/notify"
)

const defaultLockTTL = 30 * time.Second

// OrderService 订单服务
type OrderService struct {
	db          *gorm.DB
	orderRepo   *repository.OrderRepository
	cartRepo    *repository.CartRepository
	productRepo *repository.ProductRepository
	userRepo    *repository.UserRepository
	locker      *cache.Locker
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	lockTTL     time.Duration
	logger      *zap.Logger
}

// Options 订单服务依赖
type Options struct {
	DB          *gorm.DB
	OrderRepo   *repository.OrderRepository
	CartRepo    *repository.CartRepository
	ProductRepo *repository.ProductRepository
	UserRepo    *repository.UserRepository
	Locker      *cache.Locker
	Notifier    notify.Notifier
	Metrics     *metrics.Metrics
	LockTTL     time.Duration
	Logger      *zap.Logger
}

// NewOrderService 创建订单服务
func NewOrderService(opts Options) *OrderService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	return &OrderService{
		db:          opts.DB,
		orderRepo:   opts.OrderRepo,
		cartRepo:    opts.CartRepo,
		productRepo: opts.ProductRepo,
		userRepo:    opts.UserRepo,
		locker:      opts.Locker,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		lockTTL:     opts.LockTTL,
		logger:      opts.Logger.Named("order"),
	}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Address string `json:"address" binding:"required,notblank,max=500"`
	Phone   string `json:"phone" binding:"required,notblank,max=32"`
}

// UpdateStatusRequest 修改订单状态请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed shipped delivered cancelled"`
}

// ListRequest 管理端订单列表请求
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed shipped delivered cancelled"`
}

// CreateOrder 从购物车下单，idempotencyKey 为空时不做幂等，返回订单以及是否为重放
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest, idempotencyKey string) (*models.Order, bool, error) {
	ctx, span := tracing.Start(ctx, "order.create", tracing.WithUserID(userID))
	order, replayed, err := s.createOrder(ctx, userID, req, strings.TrimSpace(idempotencyKey))
	tracing.End(span, err)

	switch {
	case err != nil:
		s.metrics.RecordOrder("rejected")
	case !replayed:
		s.metrics.RecordOrder("created")
	}
	return order, replayed, err
}

func (s *OrderService) createOrder(ctx context.Context, userID int64, req *CreateOrderRequest, key string) (*models.Order, bool, error) {
	lockKey := cache.BuildKey(cache.KeyPrefixLock, "order", "create", strconv.FormatInt(userID, 10))
	lock, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, false, errors.ErrOrderInProgress
		}
		return nil, false, errors.ErrCacheError.WithError(err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release order lock", logger.UserID(userID), zap.Error(err))
		}
	}()

	if key != "" {
		existing, err := s.orderRepo.GetByIdempotencyKey(ctx, userID, key)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, errors.ErrDatabaseError.WithError(err)
		}
	}

	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, errors.ErrCartEmpty
		}
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}
	if len(cart.Items) == 0 {
		return nil, false, errors.ErrCartEmpty
	}

	ids := make([]int64, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}

	order := &models.Order{
		OrderNo: utils.GenerateOrderNo("M"),
		UserID:  userID,
		Address: strings.TrimSpace(req.Address),
		Phone:   strings.TrimSpace(req.Phone),
		Status:  models.OrderStatusPending,
		Total:   decimal.Zero,
		Items:   make([]models.OrderItem, 0, len(cart.Items)),
	}
	if key != "" {
		order.IdempotencyKey = &key
	}

	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, false, errors.ErrOrderProductGone.WithMessagef("商品 %d 已不存在", item.ProductID)
		}
		if product.StockTracked() && *product.Stock < item.Qty {
			return nil, false, errors.ErrStockInsufficient.WithMessagef("商品 %s 库存不足", product.Name)
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    product.ID,
			Name:         product.Name,
			Qty:          item.Qty,
			PriceAtOrder: item.PriceAtAdd,
		})
		order.Total = order.Total.Add(item.Subtotal())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if !products[item.ProductID].StockTracked() {
				continue
			}
			rows, err := s.productRepo.DecreaseStock(ctx, tx, item.ProductID, item.Qty)
			if err != nil {
				return err
			}
			if rows == 0 {
				return errors.ErrStockInsufficient.WithMessagef("商品 %s 库存不足", item.Name)
			}
		}
		return s.cartRepo.ClearItems(ctx, tx, cart.ID)
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, false, err
		}
		// 锁过期后同一幂等键的并发请求
		if key != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, getErr := s.orderRepo.GetByIdempotencyKey(ctx, userID, key)
			if getErr == nil {
				return existing, true, nil
			}
		}
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}

	s.logger.Info("Order created",
		logger.OrderNo(order.OrderNo),
		logger.UserID(userID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	s.publish(ctx, notify.EventOrderCreated, order, "")
	return order, false, nil
}

// publish 尽力发送通知，失败不影响调用方
func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order, previous string) {
	if s.notifier == nil {
		return
	}
	var user *models.User
	if s.userRepo != nil {
		u, err := s.userRepo.GetContact(ctx, order.UserID)
		if err != nil {
			s.logger.Warn("Customer lookup failed", logger.UserID(order.UserID), zap.Error(err))
		} else {
			user = u
		}
	}
	event := notify.NewOrderEvent(eventType, order, user)
	event.PreviousStatus = previous
	s.notifier.Dispatch(ctx, event)
}

// ListByUser 获取当前用户的订单，最新在前
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return orders, nil
}

// List 管理端分页获取订单
func (s *OrderService) List(ctx context.Context, req *ListRequest) ([]*models.Order, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, repository.OrderListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return orders, total, nil
}

// Get 获取订单，非管理员只能查看自己的订单
func (s *OrderService) Get(ctx context.Context, id, userID int64, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !isAdmin && order.UserID != userID {
		return nil, errors.ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus 管理端修改订单状态，状态间可自由转换
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, errors.ErrOrderStatusInvalid
	}

	order, err := s.orderRepo.GetByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	previous := order.Status
	rows, err := s.orderRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if rows == 0 {
		return nil, errors.ErrOrderNotFound
	}
	order.Status = status

	s.logger.Info("Order status updated",
		logger.OrderNo(order.OrderNo),
		zap.String("from", previous),
		zap.String("to", status),
	)
	s.publish(ctx, notify.EventOrderStatusChanged, order, previous)
	return order, nil
}

// Delete 管理端删除订单
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	rows, err := s.orderRepo.Delete(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if rows == 0 {
		return errors.ErrOrderNotFound
	}
	return nil
}
