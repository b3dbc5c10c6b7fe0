package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/config"
	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/common/tracing"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
)

const (
	defaultAutocompleteLimit = 5
	maxAutocompleteLimit     = 20
)

// ProductService 商品服务
type ProductService struct {
	productRepo  *repository.ProductRepository
	categoryRepo *repository.CategoryRepository
	cfg          config.CatalogConfig
	logger       *zap.Logger
}

// NewProductService 创建商品服务
func NewProductService(
	productRepo *repository.ProductRepository,
	categoryRepo *repository.CategoryRepository,
	cfg *config.CatalogConfig,
	log *zap.Logger,
) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       log.Named("product"),
	}
	if cfg != nil {
		s.cfg = *cfg
	}
	if s.cfg.AutocompleteLimit <= 0 {
		s.cfg.AutocompleteLimit = defaultAutocompleteLimit
	}
	if s.cfg.AutocompleteMaxLimit <= 0 {
		s.cfg.AutocompleteMaxLimit = maxAutocompleteLimit
	}
	return s
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Name           string   `json:"name" form:"name" binding:"required,notblank,max=200"`
	Price          float64  `json:"price" form:"price" binding:"required,gt=0"`
	DiscountPrice  *float64 `json:"discount_price" form:"discount_price" binding:"omitempty,gte=0"`
	DiscountActive bool     `json:"discount_active" form:"discount_active"`
	CategoryID     int64    `json:"category_id" form:"category_id" binding:"required,gt=0"`
	Stock          *int     `json:"stock" form:"stock" binding:"omitempty,gte=0"`
	Image          string   `json:"image" form:"image" binding:"max=500"`
	Weight         *float64 `json:"weight" form:"weight" binding:"omitempty,gte=0"`
}

// UpdateProductRequest 更新商品请求，未提供或为空的字段保持不变
type UpdateProductRequest struct {
	Name           *string  `json:"name" form:"name" binding:"omitempty,max=200"`
	Price          *float64 `json:"price" form:"price" binding:"omitempty,gt=0"`
	DiscountPrice  *float64 `json:"discount_price" form:"discount_price" binding:"omitempty,gte=0"`
	DiscountActive *bool    `json:"discount_active" form:"discount_active"`
	CategoryID     *int64   `json:"category_id" form:"category_id" binding:"omitempty,gt=0"`
	Stock          *int     `json:"stock" form:"stock" binding:"omitempty,gte=0"`
	Image          *string  `json:"image" form:"image" binding:"omitempty,max=500"`
	Weight         *float64 `json:"weight" form:"weight" binding:"omitempty,gte=0"`
}

// ProductView 带最终售价的商品
type ProductView struct {
	*models.Product
	FinalPrice decimal.Decimal `json:"final_price"`
}

// AutocompleteItem 自动补全条目
type AutocompleteItem struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// Discount 推导后的折扣三元组
type Discount struct {
	Price   decimal.Decimal
	Percent float64
	Active  bool
}

// DeriveDiscount 根据原价、期望折扣价和开关推导折扣
// 仅当开关打开且折扣价低于原价时折扣生效，否则折扣价回落为原价
func DeriveDiscount(price, discountPrice decimal.Decimal, active bool) Discount {
	if active && discountPrice.LessThan(price) {
		pct := price.Sub(discountPrice).Div(price).Mul(decimal.NewFromInt(100)).Round(2)
		percent, _ := pct.Float64()
		if percent < 0 {
			percent = 0
		}
		return Discount{Price: discountPrice, Percent: percent, Active: true}
	}
	return Discount{Price: price, Percent: 0, Active: false}
}

func applyDiscount(p *models.Product, d Discount) {
	p.DiscountPrice = d.Price
	p.DiscountPercent = d.Percent
	p.DiscountActive = d.Active
}

// Create 创建商品
func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	price := decimal.NewFromFloat(req.Price).Round(2)
	if !price.IsPositive() {
		return nil, errors.ErrInvalidPrice
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	discountPrice := price
	if req.DiscountPrice != nil {
		discountPrice = decimal.NewFromFloat(*req.DiscountPrice).Round(2)
	}

	product := &models.Product{
		Name:       strings.TrimSpace(req.Name),
		Price:      price,
		CategoryID: req.CategoryID,
		Stock:      req.Stock,
		Image:      req.Image,
		Weight:     req.Weight,
	}
	applyDiscount(product, DeriveDiscount(price, discountPrice, req.DiscountActive))

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.logger.Info("Product created", logger.ProductID(product.ID), zap.String("name", product.Name))
	return product, nil
}

// Update 更新商品，价格相关字段任一变化时整体重新推导折扣
func (s *ProductService) Update(ctx context.Context, id int64, req *UpdateProductRequest) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrProductNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Stock != nil {
		product.Stock = req.Stock
	}
	if req.Image != nil && *req.Image != "" {
		product.Image = *req.Image
	}
	if req.Weight != nil {
		product.Weight = req.Weight
	}

	if req.Price != nil || req.DiscountPrice != nil || req.DiscountActive != nil {
		price := product.Price
		if req.Price != nil {
			price = decimal.NewFromFloat(*req.Price).Round(2)
		}
		if !price.IsPositive() {
			return nil, errors.ErrInvalidPrice
		}

		discountPrice := product.DiscountPrice
		if req.DiscountPrice != nil {
			discountPrice = decimal.NewFromFloat(*req.DiscountPrice).Round(2)
		} else if discountPrice.IsZero() {
			discountPrice = price
		}

		active := product.DiscountActive
		if req.DiscountActive != nil {
			active = *req.DiscountActive
		}

		if active && discountPrice.GreaterThanOrEqual(price) {
			s.logger.Warn("Discount ignored, discount price not below price",
				logger.ProductID(id),
				zap.String("price", price.String()),
				zap.String("discount_price", discountPrice.String()),
			)
		}

		product.Price = price
		applyDiscount(product, DeriveDiscount(price, discountPrice, active))
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return product, nil
}

// Delete 删除商品
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	rows, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if rows == 0 {
		return errors.ErrProductNotFound
	}
	s.logger.Info("Product deleted", logger.ProductID(id))
	return nil
}

// Get 获取商品详情（包含分类）
func (s *ProductService) Get(ctx context.Context, id int64) (*ProductView, error) {
	product, err := s.productRepo.GetByIDWithCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrProductNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return newView(product), nil
}

// List 分页获取商品，可按分类过滤
func (s *ProductService) List(ctx context.Context, page, pageSize int, categoryID *int64) ([]*ProductView, int64, error) {
	return s.list(ctx, repository.ProductListParams{Page: page, PageSize: pageSize, CategoryID: categoryID})
}

// Offers 分页获取折扣商品
func (s *ProductService) Offers(ctx context.Context, page, pageSize int) ([]*ProductView, int64, error) {
	return s.list(ctx, repository.ProductListParams{Page: page, PageSize: pageSize, OffersOnly: true})
}

func (s *ProductService) list(ctx context.Context, params repository.ProductListParams) ([]*ProductView, int64, error) {
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return newViews(products), total, nil
}

// Count 商品总数
func (s *ProductService) Count(ctx context.Context) (int64, error) {
	count, err := s.productRepo.Count(ctx)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return count, nil
}

// CountOffers 折扣商品数
func (s *ProductService) CountOffers(ctx context.Context) (int64, error) {
	count, err := s.productRepo.CountOffers(ctx)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return count, nil
}

// Search 关键词搜索，按相关度降序、名称升序分页
func (s *ProductService) Search(ctx context.Context, keyword string, page, pageSize int) (result []*ProductView, total int64, err error) {
	ctx, span := tracing.Start(ctx, "catalog.Search")
	defer func() { tracing.End(span, err) }()

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return []*ProductView{}, 0, nil
	}
	terms := strings.Fields(keyword)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	candidates, err := s.productRepo.FindByNameTerms(ctx, terms)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	type scored struct {
		product *models.Product
		score   int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		ranked = append(ranked, scored{product: p, score: Score(p.Name, keyword, terms)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].product.Name < ranked[j].product.Name
	})

	total = int64(len(ranked))
	start := (page - 1) * pageSize
	if start >= len(ranked) {
		return []*ProductView{}, total, nil
	}
	end := start + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}

	result = make([]*ProductView, 0, end-start)
	for _, r := range ranked[start:end] {
		result = append(result, newView(r.product))
	}
	return result, total, nil
}

// Score 计算名称与关键词的相关度
// 每个命中的词 10 分，名称以关键词开头加 5 分，完全匹配再加 3 分
func Score(name, keyword string, terms []string) int {
	lower := strings.ToLower(name)
	score := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 10
		}
	}
	if strings.HasPrefix(lower, keyword) {
		score += 5
	}
	if lower == keyword {
		score += 3
	}
	return score
}

// Autocomplete 名称前缀补全
func (s *ProductService) Autocomplete(ctx context.Context, prefix string, limit int) ([]*AutocompleteItem, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []*AutocompleteItem{}, nil
	}
	if limit <= 0 {
		limit = s.cfg.AutocompleteLimit
	}
	if limit > s.cfg.AutocompleteMaxLimit {
		limit = s.cfg.AutocompleteMaxLimit
	}

	products, err := s.productRepo.FindByNamePrefix(ctx, prefix, limit)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	items := make([]*AutocompleteItem, 0, len(products))
	for _, p := range products {
		items = append(items, &AutocompleteItem{ID: p.ID, Name: p.Name, FinalPrice: p.FinalPrice()})
	}
	return items, nil
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID int64) error {
	exists, err := s.categoryRepo.Exists(ctx, categoryID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !exists {
		return errors.ErrCategoryNotFound
	}
	return nil
}

func newView(p *models.Product) *ProductView {
	return &ProductView{Product: p, FinalPrice: p.FinalPrice()}
}

func newViews(products []*models.Product) []*ProductView {
	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newView(p))
	}
	return views
}
