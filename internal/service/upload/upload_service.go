// Package upload 提供图片上传服务
package upload

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/pkg/oss"
)

const (
	// MaxImageSize 图片默认最大大小（10MB）
	MaxImageSize = 10 * 1024 * 1024
	defaultDir   = "images"
)

// UploadService 上传服务
type UploadService struct {
	uploader oss.Uploader
	maxSize  int64
	dir      string
	now      func() time.Time
	logger   *zap.Logger
}

// NewUploadService 创建上传服务，maxSize ≤ 0 时使用 MaxImageSize
func NewUploadService(uploader oss.Uploader, maxSize int64, dir string, log *zap.Logger) *UploadService {
	if maxSize <= 0 {
		maxSize = MaxImageSize
	}
	if dir == "" {
		dir = defaultDir
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadService{
		uploader: uploader,
		maxSize:  maxSize,
		dir:      dir,
		now:      time.Now,
		logger:   log.Named("upload"),
	}
}

// UploadImageResponse 上传图片响应
type UploadImageResponse struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// UploadImage 校验并上传图片，返回公开访问地址
func (s *UploadService) UploadImage(ctx context.Context, filename string, size int64, reader io.Reader) (*UploadImageResponse, error) {
	body, err := oss.ValidateImage(filename, size, s.maxSize, reader)
	if err != nil {
		switch {
		case stderrors.Is(err, oss.ErrUnsupportedFormat):
			return nil, errors.ErrInvalidImage.WithMessage("仅支持 jpg/jpeg/png/gif/webp 格式")
		case stderrors.Is(err, oss.ErrFileTooLarge):
			return nil, errors.ErrInvalidImage.WithMessagef("图片大小不能超过 %dMB", s.maxSize/(1024*1024))
		case stderrors.Is(err, oss.ErrNotImage):
			return nil, errors.ErrInvalidImage.WithMessage("文件内容不是图片")
		default:
			return nil, errors.ErrInvalidImage.WithError(err)
		}
	}

	key := oss.GenerateObjectKey(s.dir, filename, s.now())
	url, err := s.uploader.Upload(ctx, key, body)
	if err != nil {
		s.logger.Error("Image upload failed", zap.String("key", key), zap.Error(err))
		return nil, errors.ErrUploadFailed.WithError(err)
	}

	s.logger.Info("Image uploaded", zap.String("key", key), zap.Int64("size", size))
	return &UploadImageResponse{URL: url, Key: key, FileName: filename, Size: size}, nil
}

// UploadFile 上传表单文件
func (s *UploadService) UploadFile(ctx context.Context, file *multipart.FileHeader) (*UploadImageResponse, error) {
	if file == nil {
		return nil, errors.ErrInvalidParams.WithMessage("请选择要上传的文件")
	}
	f, err := file.Open()
	if err != nil {
		return nil, errors.ErrInvalidImage.WithError(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()
	return s.UploadImage(ctx, file.Filename, file.Size, f)
}
