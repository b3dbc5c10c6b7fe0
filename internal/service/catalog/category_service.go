// Package catalog 提供分类与商品目录服务
package catalog

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
)

// CategoryService 分类服务
type CategoryService struct {
	categoryRepo *repository.CategoryRepository
	productRepo  *repository.ProductRepository
	logger       *zap.Logger
}

// NewCategoryService 创建分类服务
func NewCategoryService(categoryRepo *repository.CategoryRepository, productRepo *repository.ProductRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		logger:       logger.Named("category"),
	}
}

// CreateCategoryRequest 创建分类请求
type CreateCategoryRequest struct {
	Name  string `json:"name" form:"name" binding:"required,notblank,max=100"`
	Image string `json:"image" form:"image" binding:"max=500"`
}

// UpdateCategoryRequest 更新分类请求，空值保留原值
type UpdateCategoryRequest struct {
	Name  string `json:"name" form:"name" binding:"max=100"`
	Image string `json:"image" form:"image" binding:"max=500"`
}

// Create 创建分类
func (s *CategoryService) Create(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	category := &models.Category{Name: req.Name, Image: req.Image}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return category, nil
}

// List 获取全部分类
func (s *CategoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return categories, nil
}

// Get 获取分类
func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return category, nil
}

// Update 更新分类
func (s *CategoryService) Update(ctx context.Context, id int64, req *UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = utils.FirstNonEmpty(req.Name, category.Name)
	category.Image = utils.FirstNonEmpty(req.Image, category.Image)

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return category, nil
}

// Delete 删除分类，仍有商品引用时拒绝
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	count, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return errors.ErrCategoryInUse.WithMessagef("分类下仍有 %d 个商品", count)
	}

	rows, err := s.categoryRepo.Delete(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if rows == 0 {
		return errors.ErrCategoryNotFound
	}

	s.logger.Info("Category deleted", zap.Int64("category_id", id))
	return nil
}
