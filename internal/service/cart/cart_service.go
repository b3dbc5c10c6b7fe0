// Package cart 提供购物车服务
package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
)

// CartService 购物车服务
type CartService struct {
	cartRepo    *repository.CartRepository
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo *repository.CartRepository, productRepo *repository.ProductRepository, log *zap.Logger) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      log.Named("cart"),
	}
}

// AddItemRequest 加入购物车请求
type AddItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Qty       int   `json:"qty" binding:"required,min=1"`
}

// UpdateItemRequest 修改数量请求，qty ≤ 0 时移除该行
type UpdateItemRequest struct {
	Qty *int `json:"qty" binding:"required"`
}

// CartLine 购物车行视图
type CartLine struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	Qty        int             `json:"qty"`
	PriceAtAdd decimal.Decimal `json:"price_at_add"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// CartView 购物车视图
type CartView struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"user_id"`
	Items  []*CartLine     `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// GetOrCreate 获取用户购物车，不存在时创建
func (s *CartService) GetOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		// 并发首次读取，另一请求已创建
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.reload(ctx, userID)
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return cart, nil
}

// Get 获取购物车视图
func (s *CartService) Get(ctx context.Context, userID int64) (*CartView, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCartView(cart), nil
}

// AddItem 加入购物车，已有同一商品时累加数量
func (s *CartService) AddItem(ctx context.Context, userID int64, req *AddItemRequest) (*CartView, error) {
	if req.Qty < 1 {
		return nil, errors.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrProductNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.mergeItem(ctx, cart.ID, product, req.Qty); err != nil {
		return nil, err
	}

	s.logger.Debug("Cart item added", logger.UserID(userID), logger.ProductID(product.ID), zap.Int("qty", req.Qty))
	return s.view(ctx, userID)
}

func (s *CartService) mergeItem(ctx context.Context, cartID int64, product *models.Product, qty int) error {
	rows, err := s.cartRepo.IncrementItem(ctx, cartID, product.ID, qty)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if rows > 0 {
		return nil
	}

	err = s.cartRepo.CreateItem(ctx, &models.CartItem{
		CartID:     cartID,
		ProductID:  product.ID,
		Qty:        qty,
		PriceAtAdd: product.FinalPrice(),
	})
	if err == nil {
		return nil
	}
	// 并发加入同一商品时，落后的请求改为累加
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if _, err := s.cartRepo.IncrementItem(ctx, cartID, product.ID, qty); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	}
	return errors.ErrDatabaseError.WithError(err)
}

// UpdateItem 设置商品数量，数量 ≤ 0 时移除
func (s *CartService) UpdateItem(ctx context.Context, userID, productID int64, qty int) (*CartView, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	var rows int64
	if qty <= 0 {
		rows, err = s.cartRepo.DeleteItem(ctx, cart.ID, productID)
	} else {
		rows, err = s.cartRepo.SetItemQty(ctx, cart.ID, productID, qty)
	}
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if rows == 0 {
		return nil, errors.ErrCartItemNotFound
	}
	return s.view(ctx, userID)
}

// RemoveItem 移除商品，商品不在购物车中时不报错
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) (*CartView, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.cartRepo.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.view(ctx, userID)
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.cartRepo.ClearItems(ctx, nil, cart.ID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func (s *CartService) view(ctx context.Context, userID int64) (*CartView, error) {
	cart, err := s.reload(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCartView(cart), nil
}

func (s *CartService) reload(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return cart, nil
}

// NewCartView 构建购物车视图
func NewCartView(cart *models.Cart) *CartView {
	view := &CartView{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]*CartLine, 0, len(cart.Items)),
		Total:  decimal.Zero,
	}
	for _, item := range cart.Items {
		line := &CartLine{
			ProductID:  item.ProductID,
			Qty:        item.Qty,
			PriceAtAdd: item.PriceAtAdd,
			Subtotal:   item.Subtotal(),
		}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.Image = item.Product.Image
		}
		view.Items = append(view.Items, line)
		view.Total = view.Total.Add(line.Subtotal)
	}
	return view
}
